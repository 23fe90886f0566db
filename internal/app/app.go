// Package app assembles the agent from configuration and runs the trading
// loop alongside the dashboard until shutdown.
package app

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"tradepilot/internal/config"
	"tradepilot/internal/exchange/binance"
	"tradepilot/internal/ledger"
	"tradepilot/internal/logger"
	"tradepilot/internal/news"
	"tradepilot/internal/notifier"
	"tradepilot/internal/oracle"
	"tradepilot/internal/reconcile"
	"tradepilot/internal/risk"
	"tradepilot/internal/scheduler"
	"tradepilot/internal/trader"
	"tradepilot/internal/transport/http/dashboard"
)

type App struct {
	cfg      *config.Config
	store    ledger.Store
	pipeline *trader.Pipeline
	loop     *scheduler.Loop
	dash     *dashboard.Server
}

func New(cfg *config.Config) (*App, error) {
	store, err := ledger.NewSQLStore(cfg.Store.Path)
	if err != nil {
		return nil, err
	}

	venue := binance.New(binance.Config{
		APIKey:      cfg.Exchange.APIKey,
		APISecret:   cfg.Exchange.APISecret,
		RESTBaseURL: cfg.Exchange.RESTBaseURL,
		HTTPTimeout: time.Duration(cfg.Exchange.TimeoutSeconds) * time.Second,
	})

	var tg *telegramNotifier
	if cfg.Notify.Telegram.Enabled {
		tg = &telegramNotifier{
			client: notifier.NewTelegram(cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatID),
			store:  store,
		}
	}

	rec := &reconcile.Reconciler{
		Symbol: cfg.Trading.Symbol,
		Ledger: store,
		Venue:  venue,
		OnClose: func(t ledger.Trade) {
			logWeeklySummary(store)
			if tg != nil {
				tg.tradeClosed(t)
			}
		},
	}

	var headlines trader.NewsSource
	if cfg.News.Enabled {
		headlines = news.NewService(news.Config{
			APIKey:  cfg.News.APIKey,
			Query:   cfg.News.Query,
			Limit:   cfg.News.Limit,
			Timeout: time.Duration(cfg.News.TimeoutSeconds) * time.Second,
		})
	}

	timeframes := make([]trader.Timeframe, 0, len(cfg.Trading.Timeframes))
	for _, tf := range cfg.Trading.Timeframes {
		timeframes = append(timeframes, trader.Timeframe{Interval: tf.Interval, Limit: tf.Limit})
	}

	pipeline := &trader.Pipeline{
		Symbol:       cfg.Trading.Symbol,
		Timeframes:   timeframes,
		HistoryLimit: cfg.Trading.HistoryLimit,
		Venue:        venue,
		Market:       venue,
		News:         headlines,
		Store:        store,
		Oracle: oracle.NewClient(oracle.ClientConfig{
			BaseURL:    cfg.Oracle.APIURL,
			APIKey:     cfg.Oracle.APIKey,
			Model:      cfg.Oracle.Model,
			Timeout:    time.Duration(cfg.Oracle.TimeoutSeconds) * time.Second,
			MaxRetries: cfg.Oracle.MaxRetries,
		}),
		Sizer:      risk.NewSizer(cfg.Trading.MinNotionalUSD),
		Reconciler: rec,
	}
	if tg != nil {
		pipeline.Notifier = tg
	}

	loop := scheduler.NewLoop(scheduler.Delays{
		Normal: time.Duration(cfg.Scheduler.NormalDelaySeconds) * time.Second,
		Error:  time.Duration(cfg.Scheduler.ErrorBackoffSeconds) * time.Second,
		Parse:  time.Duration(cfg.Scheduler.ParseBackoffSeconds) * time.Second,
	}, classifyCycleError)

	dash, err := dashboard.NewServer(dashboard.ServerConfig{
		Addr:   cfg.App.HTTPAddr,
		Store:  store,
		Status: statusFunc(cfg.Trading.Symbol, store),
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	return &App{cfg: cfg, store: store, pipeline: pipeline, loop: loop, dash: dash}, nil
}

// Run blocks until ctx is canceled or a component fails hard.
func (a *App) Run(ctx context.Context) error {
	logger.Infof("agent starting: symbol=%s dashboard=%s", a.cfg.Trading.Symbol, a.dash.Addr())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.loop.Run(gctx, a.pipeline.RunOnce)
	})
	g.Go(func() error {
		return a.dash.Start(gctx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *App) Close() error {
	return a.store.Close()
}

// classifyCycleError picks the backoff family: unusable oracle replies get
// the long pause, everything else the short retry.
func classifyCycleError(err error) scheduler.State {
	if err == nil {
		return scheduler.StateNormal
	}
	var perr *oracle.ParseError
	if errors.As(err, &perr) {
		logger.Warnf("[app] unparseable oracle reply (%v): %s", perr.Err, truncateRaw(perr.Raw, 500))
		return scheduler.StateParseBackoff
	}
	return scheduler.StateErrorBackoff
}

func truncateRaw(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}

func logWeeklySummary(store ledger.Store) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sum, err := store.TradeSummary(ctx, 7)
	if err != nil {
		logger.Warnf("[app] weekly summary unavailable: %v", err)
		return
	}
	logger.Infof("[app] last %d days: %d trades, %.0f%% win rate, %.2f USDT",
		sum.Days, sum.Trades, sum.WinRate, sum.TotalPnL)
}

func statusFunc(symbol string, store ledger.Store) dashboard.StatusFunc {
	return func(ctx context.Context) (dashboard.Status, error) {
		open, err := store.OpenTrade(ctx)
		if err != nil {
			return dashboard.Status{}, err
		}
		state := "flat"
		if open != nil {
			state = "holding"
		}
		return dashboard.Status{Symbol: symbol, State: state, OpenTrade: open}, nil
	}
}

// telegramNotifier bridges trade events to Telegram without letting delivery
// failures reach the trading loop.
type telegramNotifier struct {
	client *notifier.Telegram
	store  ledger.Store
}

func (n *telegramNotifier) TradeOpened(t ledger.Trade) {
	if err := n.client.SendText(notifier.FormatOpened(t)); err != nil {
		logger.Warnf("[notify] open message failed: %v", err)
	}
}

func (n *telegramNotifier) tradeClosed(t ledger.Trade) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	var sum *ledger.Summary
	if s, err := n.store.TradeSummary(ctx, 7); err != nil {
		logger.Warnf("[notify] weekly summary unavailable: %v", err)
	} else {
		sum = &s
	}
	if err := n.client.SendText(notifier.FormatClosed(t, sum)); err != nil {
		logger.Warnf("[notify] close message failed: %v", err)
	}
}
