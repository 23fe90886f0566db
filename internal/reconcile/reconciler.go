package reconcile

import (
	"context"
	"strings"
	"time"

	"tradepilot/internal/exchange"
	"tradepilot/internal/ledger"
	"tradepilot/internal/logger"
)

// Outcome is what one reconciliation pass concluded about the position.
type Outcome int

const (
	// OutcomeFlat means neither the ledger nor the venue holds anything.
	OutcomeFlat Outcome = iota
	// OutcomeHolding means ledger and venue agree a position is open.
	OutcomeHolding
	// OutcomeAdopted means the venue held a position the ledger did not
	// know about; it is now tracked.
	OutcomeAdopted
	// OutcomeClosed means the venue no longer holds the ledger's open
	// trade; the trade has been settled.
	OutcomeClosed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeHolding:
		return "holding"
	case OutcomeAdopted:
		return "adopted"
	case OutcomeClosed:
		return "closed"
	default:
		return "flat"
	}
}

// Ledger is the slice of the trade store the reconciler needs.
type Ledger interface {
	OpenTrade(ctx context.Context) (*ledger.Trade, error)
	RecordTradeOpened(ctx context.Context, t ledger.Trade) (int64, error)
	RecordTradeClosed(ctx context.Context, id int64, exitPrice, pnl, pnlPct float64, closedAt time.Time) error
}

// Venue is the read-and-cleanup slice of the exchange.
type Venue interface {
	GetPosition(ctx context.Context, symbol string) (*exchange.Position, error)
	GetTicker(ctx context.Context, symbol string) (exchange.PriceQuote, error)
	ListOpenOrders(ctx context.Context, symbol string) ([]exchange.Order, error)
	CancelOrder(ctx context.Context, symbol string, orderID int64) error
}

// Result carries the outcome plus the trade it concerns, when there is one.
type Result struct {
	Outcome Outcome
	Trade   *ledger.Trade
}

type Reconciler struct {
	Symbol string
	Ledger Ledger
	Venue  Venue

	// OnClose fires after a trade is settled, with the final P/L filled in.
	OnClose func(t ledger.Trade)
}

// Step runs one pass of the position state table. It is idempotent: running
// it again with no venue change reports the same outcome family without new
// writes.
func (r *Reconciler) Step(ctx context.Context) (Result, error) {
	open, err := r.Ledger.OpenTrade(ctx)
	if err != nil {
		return Result{}, err
	}
	pos, err := r.Venue.GetPosition(ctx, r.Symbol)
	if err != nil {
		return Result{}, err
	}

	switch {
	case open != nil && pos != nil:
		return Result{Outcome: OutcomeHolding, Trade: open}, nil
	case open == nil && pos != nil:
		return r.adopt(ctx, pos)
	case open != nil && pos == nil:
		return r.settle(ctx, open)
	default:
		if err := r.cancelStrayOrders(ctx); err != nil {
			return Result{}, err
		}
		return Result{Outcome: OutcomeFlat}, nil
	}
}

// adopt records a position the venue holds but the ledger has never seen,
// for example one opened manually or surviving a restart before the first
// write landed. Risk parameters are unknown, so they stay zero and leverage
// defaults to 1.
func (r *Reconciler) adopt(ctx context.Context, pos *exchange.Position) (Result, error) {
	t := ledger.Trade{
		Symbol:     r.Symbol,
		Direction:  strings.ToUpper(pos.Side),
		Quantity:   pos.Quantity,
		EntryPrice: pos.EntryPrice,
		Leverage:   1,
		Notional:   pos.EntryPrice * pos.Quantity,
		OpenedAt:   time.Now().UTC(),
	}
	id, err := r.Ledger.RecordTradeOpened(ctx, t)
	if err != nil {
		return Result{}, err
	}
	t.ID = id
	t.Status = ledger.StatusOpen
	logger.Infof("[reconcile] adopted untracked %s position: qty=%v entry=%v", t.Direction, t.Quantity, t.EntryPrice)
	return Result{Outcome: OutcomeAdopted, Trade: &t}, nil
}

// settle closes out a ledger trade the venue no longer holds. The latest
// ticker stands in for the unknown true fill price.
func (r *Reconciler) settle(ctx context.Context, open *ledger.Trade) (Result, error) {
	quote, err := r.Venue.GetTicker(ctx, r.Symbol)
	if err != nil {
		return Result{}, err
	}
	pnl, pct := RealizedPnL(open.Direction, open.EntryPrice, quote.Last, open.Quantity)
	closedAt := time.Now().UTC()
	if err := r.Ledger.RecordTradeClosed(ctx, open.ID, quote.Last, pnl, pct, closedAt); err != nil {
		return Result{}, err
	}
	if err := r.cancelStrayOrders(ctx); err != nil {
		logger.Warnf("[reconcile] stray order cleanup after close: %v", err)
	}

	settled := *open
	settled.Status = ledger.StatusClosed
	settled.ExitPrice = quote.Last
	settled.PnL = pnl
	settled.PnLPct = pct
	settled.ClosedAt = closedAt
	logger.Infof("[reconcile] trade %d closed: exit=%v pnl=%.2f (%.2f%%)", open.ID, quote.Last, pnl, pct)
	if r.OnClose != nil {
		r.OnClose(settled)
	}
	return Result{Outcome: OutcomeClosed, Trade: &settled}, nil
}

// cancelStrayOrders removes leftover bracket legs once no position backs
// them, so a stale stop cannot open a fresh position on its own.
func (r *Reconciler) cancelStrayOrders(ctx context.Context) error {
	orders, err := r.Venue.ListOpenOrders(ctx, r.Symbol)
	if err != nil {
		return err
	}
	for _, o := range orders {
		if err := r.Venue.CancelOrder(ctx, r.Symbol, o.ID); err != nil {
			return err
		}
		logger.Infof("[reconcile] canceled stray %s order %d", o.Type, o.ID)
	}
	return nil
}
