// Package dashboard serves the read-only HTTP surface: trade history,
// analyses, performance metrics, and rendered P/L charts.
package dashboard

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"tradepilot/internal/ledger"
	"tradepilot/internal/logger"
)

// StatusFunc reports the live agent state for /api/status.
type StatusFunc func(ctx context.Context) (Status, error)

type Status struct {
	Symbol    string        `json:"symbol"`
	State     string        `json:"state"`
	OpenTrade *ledger.Trade `json:"open_trade,omitempty"`
}

type Server struct {
	addr   string
	router *gin.Engine
}

type ServerConfig struct {
	Addr   string
	Store  ledger.Store
	Status StatusFunc
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("dashboard server requires a store")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9980"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.GET("/trades", listTrades(cfg.Store))
	api.GET("/analyses", listAnalyses(cfg.Store))
	api.GET("/history", listHistory(cfg.Store))
	api.GET("/metrics", getMetrics(cfg.Store))
	api.GET("/summary", getSummary(cfg.Store))
	if cfg.Status != nil {
		api.GET("/status", getStatus(cfg.Status))
	}

	router.GET("/charts", renderCharts(cfg.Store))

	return &Server{addr: cfg.Addr, router: router}, nil
}

func listTrades(store ledger.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := intQuery(c, "limit", 50)
		offset := intQuery(c, "offset", 0)
		trades, err := store.ListTrades(c.Request.Context(), limit, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		total, err := store.CountTrades(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"total": total, "trades": trades})
	}
}

func listAnalyses(store ledger.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := intQuery(c, "limit", 20)
		analyses, err := store.RecentAnalyses(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"analyses": analyses})
	}
}

func listHistory(store ledger.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := intQuery(c, "limit", 20)
		history, err := store.TradeHistory(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"history": history})
	}
}

func getMetrics(store ledger.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := store.PerformanceMetrics(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, m)
	}
}

func getSummary(store ledger.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		days := intQuery(c, "days", 7)
		sum, err := store.TradeSummary(c.Request.Context(), days)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, sum)
	}
}

func getStatus(status StatusFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := status(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, st)
	}
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), c.ClientIP(), time.Since(start))
	}
}

func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
