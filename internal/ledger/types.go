// Package ledger persists every oracle analysis and the full lifecycle of
// each trade. It is the system of record the reconciler and dashboard read.
package ledger

import (
	"context"
	"fmt"
	"time"
)

// Trade statuses. A trade is OPEN from entry until the reconciler observes
// the position gone, then CLOSED forever.
const (
	StatusOpen   = "OPEN"
	StatusClosed = "CLOSED"
)

type Trade struct {
	ID         int64
	Symbol     string
	Direction  string // "LONG" or "SHORT"
	Quantity   float64
	EntryPrice float64
	ExitPrice  float64
	Leverage   int
	StopLoss   float64
	TakeProfit float64
	// Risk parameters as fractions of entry price and capital. Zero on
	// adopted trades, where they were never chosen.
	StopLossPct          float64
	TakeProfitPct        float64
	PositionSizeFraction float64
	Notional             float64
	PnL                  float64
	PnLPct               float64
	Status               string
	OpenedAt             time.Time
	ClosedAt             time.Time
}

// AnalysisRecord is one oracle verdict, stored whether or not it produced a
// trade. TradeID is set once the resulting trade is recorded.
type AnalysisRecord struct {
	ID            int64
	Symbol        string
	Price         float64 // market price when the analysis ran
	Direction     string
	PositionSize  float64
	Leverage      int
	StopLossPct   float64
	TakeProfitPct float64
	Reasoning     string
	RawResponse   string
	TradeID       *int64
	CreatedAt     time.Time
}

// DirectionStats aggregates closed trades for one slice of history.
type DirectionStats struct {
	Trades   int     `json:"trades"`
	Wins     int     `json:"wins"`
	Losses   int     `json:"losses"`
	WinRate  float64 `json:"win_rate"`
	TotalPnL float64 `json:"total_pnl"`
	AvgPnL   float64 `json:"avg_pnl"`
}

type PerformanceMetrics struct {
	Overall DirectionStats `json:"overall"`
	Long    DirectionStats `json:"long"`
	Short   DirectionStats `json:"short"`
}

// Summary covers closed trades inside a trailing window of days.
type Summary struct {
	Days     int     `json:"days"`
	Trades   int     `json:"trades"`
	Wins     int     `json:"wins"`
	Losses   int     `json:"losses"`
	WinRate  float64 `json:"win_rate"`
	TotalPnL float64 `json:"total_pnl"`
	BestPnL  float64 `json:"best_pnl"`
	WorstPnL float64 `json:"worst_pnl"`
}

// TradeWithAnalysis pairs a trade with the oracle verdict that opened it,
// when one is linked.
type TradeWithAnalysis struct {
	Trade    Trade           `json:"trade"`
	Analysis *AnalysisRecord `json:"analysis,omitempty"`
}

// StorageError wraps database failures so callers can distinguish them from
// exchange or oracle faults.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("ledger %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

type Store interface {
	// RecordTradeOpened inserts a new OPEN trade and returns its id.
	RecordTradeOpened(ctx context.Context, t Trade) (int64, error)

	// RecordTradeClosed finalizes an OPEN trade. Closing an already closed
	// or unknown trade is an error; the first close wins.
	RecordTradeClosed(ctx context.Context, id int64, exitPrice, pnl, pnlPct float64, closedAt time.Time) error

	// OpenTrade returns the single OPEN trade, nil when flat.
	OpenTrade(ctx context.Context) (*Trade, error)

	RecordAnalysis(ctx context.Context, a AnalysisRecord) (int64, error)

	LinkAnalysisToTrade(ctx context.Context, analysisID, tradeID int64) error

	RecentClosedTrades(ctx context.Context, limit int) ([]Trade, error)

	RecentAnalyses(ctx context.Context, limit int) ([]AnalysisRecord, error)

	ListTrades(ctx context.Context, limit, offset int) ([]Trade, error)

	// TradeHistory returns recent trades joined with their linked analyses,
	// newest first.
	TradeHistory(ctx context.Context, limit int) ([]TradeWithAnalysis, error)

	CountTrades(ctx context.Context) (int64, error)

	PerformanceMetrics(ctx context.Context) (PerformanceMetrics, error)

	TradeSummary(ctx context.Context, days int) (Summary, error)

	Close() error
}
