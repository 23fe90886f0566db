package trader

import (
	"context"

	"tradepilot/internal/exchange"
	"tradepilot/internal/ledger"
	"tradepilot/internal/logger"
	"tradepilot/internal/market"
	"tradepilot/internal/news"
	"tradepilot/internal/oracle"
	"tradepilot/internal/reconcile"
	"tradepilot/internal/risk"
)

// Oracle is the chat surface the pipeline consults.
type Oracle interface {
	Chat(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// NewsSource supplies headlines for the snapshot, nil to disable.
type NewsSource interface {
	Fetch(ctx context.Context) ([]news.Headline, error)
}

// Notifier announces opened trades, nil to disable.
type Notifier interface {
	TradeOpened(t ledger.Trade)
}

// Pipeline owns one full decision cycle for a single symbol.
type Pipeline struct {
	Symbol       string
	Timeframes   []Timeframe
	HistoryLimit int

	Venue      exchange.Exchange
	Market     market.Source
	News       NewsSource
	Store      ledger.Store
	Oracle     Oracle
	Sizer      *risk.Sizer
	Reconciler *reconcile.Reconciler
	Notifier   Notifier
}

// RunOnce executes a single cycle. While a position is open the cycle stops
// after reconciliation; a new decision is only sought when flat.
func (p *Pipeline) RunOnce(ctx context.Context) error {
	res, err := p.Reconciler.Step(ctx)
	if err != nil {
		return err
	}
	switch res.Outcome {
	case reconcile.OutcomeHolding, reconcile.OutcomeAdopted:
		logger.Infof("[trader] %s position open (trade %d), holding", res.Trade.Direction, res.Trade.ID)
		return nil
	}

	quote, err := p.Venue.GetTicker(ctx, p.Symbol)
	if err != nil {
		return err
	}

	snap, err := p.buildSnapshot(ctx, quote.Last)
	if err != nil {
		return err
	}
	snapJSON, err := snap.JSON()
	if err != nil {
		return err
	}

	raw, err := p.Oracle.Chat(ctx, oracle.SystemPrompt(), oracle.BuildUserPrompt(snapJSON))
	if err != nil {
		return err
	}

	decision, err := oracle.Parse(raw)
	if err != nil {
		// Unusable reply: nothing is persisted and the caller applies the
		// longer backoff.
		return err
	}
	logger.Infof("[trader] oracle: %s", oracle.DescribeDecision(decision))

	payload := raw
	if extracted, ok := oracle.ExtractJSON(raw); ok {
		payload = extracted
	}
	analysisID, err := p.Store.RecordAnalysis(ctx, ledger.AnalysisRecord{
		Symbol:        p.Symbol,
		Price:         quote.Last,
		Direction:     decision.Direction,
		PositionSize:  decision.PositionSizeFraction,
		Leverage:      decision.Leverage,
		StopLossPct:   decision.StopLossPct,
		TakeProfitPct: decision.TakeProfitPct,
		Reasoning:     decision.Reasoning,
		RawResponse:   payload,
	})
	if err != nil {
		return err
	}

	if !decision.WantsTrade() {
		logger.Infof("[trader] staying flat: %s", decision.Reasoning)
		return nil
	}
	return p.execute(ctx, decision, quote.Last, analysisID)
}
