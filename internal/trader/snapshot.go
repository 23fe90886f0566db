// Package trader runs the decision cycle: reconcile the position, gather a
// market snapshot, consult the oracle, and execute whatever it recommends.
package trader

import (
	"context"
	"encoding/json"
	"time"

	"tradepilot/internal/ledger"
	"tradepilot/internal/logger"
	"tradepilot/internal/market"
	"tradepilot/internal/news"
)

// Timeframe names one candle window the snapshot carries.
type Timeframe struct {
	Interval string
	Limit    int
}

// TimeframeData is the fetched window plus its indicator digest.
type TimeframeData struct {
	Interval   string                   `json:"interval"`
	Candles    []market.Candle          `json:"candles"`
	Indicators *market.IndicatorSummary `json:"indicators,omitempty"`
}

// Snapshot is everything the oracle sees for one decision.
type Snapshot struct {
	Timestamp    time.Time                 `json:"timestamp"`
	Symbol       string                    `json:"symbol"`
	Price        float64                   `json:"price"`
	Timeframes   []TimeframeData           `json:"timeframes"`
	Headlines    []news.Headline           `json:"headlines,omitempty"`
	RecentTrades []ledger.Trade            `json:"recent_trades,omitempty"`
	Metrics      ledger.PerformanceMetrics `json:"performance"`
}

func (s Snapshot) JSON() (string, error) {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// buildSnapshot assembles the oracle's input. Candle, ledger, and price
// failures abort the cycle; missing headlines only degrade it.
func (p *Pipeline) buildSnapshot(ctx context.Context, price float64) (Snapshot, error) {
	snap := Snapshot{
		Timestamp: time.Now().UTC(),
		Symbol:    p.Symbol,
		Price:     price,
	}

	for _, tf := range p.Timeframes {
		candles, err := p.Market.FetchHistory(ctx, p.Symbol, tf.Interval, tf.Limit)
		if err != nil {
			return Snapshot{}, err
		}
		data := TimeframeData{Interval: tf.Interval, Candles: candles}
		if sum, ok := market.Summarize(candles); ok {
			data.Indicators = &sum
		}
		snap.Timeframes = append(snap.Timeframes, data)
	}

	if p.News != nil {
		headlines, err := p.News.Fetch(ctx)
		if err != nil {
			logger.Warnf("[trader] headlines unavailable: %v", err)
		} else {
			snap.Headlines = headlines
		}
	}

	trades, err := p.Store.RecentClosedTrades(ctx, p.HistoryLimit)
	if err != nil {
		return Snapshot{}, err
	}
	snap.RecentTrades = trades

	metrics, err := p.Store.PerformanceMetrics(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	snap.Metrics = metrics
	return snap, nil
}
