package market

import (
	"math"

	talib "github.com/markcheno/go-talib"
)

// IndicatorSummary condenses a candle window into the handful of values the
// decision oracle can actually use. Raw series still travel alongside it in
// the snapshot; this is the quick-glance view.
type IndicatorSummary struct {
	EMAFast    float64 `json:"ema_fast"`
	EMAMid     float64 `json:"ema_mid"`
	EMASlow    float64 `json:"ema_slow"`
	EMAState   string  `json:"ema_state"`
	RSI        float64 `json:"rsi"`
	RSIState   string  `json:"rsi_state"`
	MACD       float64 `json:"macd"`
	MACDSignal float64 `json:"macd_signal"`
	MACDHist   float64 `json:"macd_hist"`
}

const (
	emaFastPeriod = 21
	emaMidPeriod  = 50
	emaSlowPeriod = 200
	rsiPeriod     = 14
	rsiOverbought = 70.0
	rsiOversold   = 30.0
)

// Summarize computes EMA/RSI/MACD over the window. Returns false when the
// window is too short for even the fast EMA.
func Summarize(candles []Candle) (IndicatorSummary, bool) {
	if len(candles) <= emaFastPeriod {
		return IndicatorSummary{}, false
	}
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	lastClose := closes[len(closes)-1]

	sum := IndicatorSummary{
		EMAFast: lastValid(talib.Ema(closes, emaFastPeriod)),
		EMAMid:  lastValid(talib.Ema(closes, emaMidPeriod)),
		EMASlow: lastValid(talib.Ema(closes, emaSlowPeriod)),
	}
	sum.EMAState = relativeState(lastClose, sum.EMAFast)

	rsiVal := lastValid(talib.Rsi(closes, rsiPeriod))
	sum.RSI = rsiVal
	switch {
	case rsiVal >= rsiOverbought:
		sum.RSIState = "overbought"
	case rsiVal > 0 && rsiVal <= rsiOversold:
		sum.RSIState = "oversold"
	default:
		sum.RSIState = "neutral"
	}

	macd, signal, hist := talib.Macd(closes, 12, 26, 9)
	sum.MACD = lastValid(macd)
	sum.MACDSignal = lastValid(signal)
	sum.MACDHist = lastValid(hist)
	return sum, true
}

// lastValid walks back from the tail past NaN/zero padding talib leaves on
// warm-up bars.
func lastValid(series []float64) float64 {
	for i := len(series) - 1; i >= 0; i-- {
		v := series[i]
		if !math.IsNaN(v) && v != 0 {
			return v
		}
	}
	return 0
}

func relativeState(price, ref float64) string {
	switch {
	case ref == 0:
		return "unknown"
	case price > ref:
		return "above"
	case price < ref:
		return "below"
	default:
		return "at"
	}
}
