package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syntheticCandles(n int, start, step float64) []Candle {
	out := make([]Candle, n)
	price := start
	for i := range out {
		out[i] = Candle{
			OpenTime:  int64(i) * 60_000,
			CloseTime: int64(i+1)*60_000 - 1,
			Open:      price,
			High:      price + step,
			Low:       price - step,
			Close:     price + step,
			Volume:    10,
		}
		price += step
	}
	return out
}

func TestSummarizeTooShort(t *testing.T) {
	_, ok := Summarize(syntheticCandles(10, 100, 1))
	assert.False(t, ok)
}

func TestSummarizeUptrend(t *testing.T) {
	candles := syntheticCandles(96, 100, 1)
	sum, ok := Summarize(candles)
	require.True(t, ok)

	assert.Equal(t, "above", sum.EMAState)
	assert.Greater(t, sum.EMAFast, 0.0)
	// RSI of a strictly rising series pins to the top of the scale.
	assert.Greater(t, sum.RSI, 90.0)
	assert.Equal(t, "overbought", sum.RSIState)
	assert.LessOrEqual(t, sum.RSI, 100.0)
}

func TestSummarizeDowntrend(t *testing.T) {
	// Mostly falling with occasional small upticks so the RSI is tiny but
	// strictly positive (a pure monotone fall degenerates to exactly zero).
	candles := make([]Candle, 96)
	price := 500.0
	for i := range candles {
		step := -2.0
		if i%10 == 9 {
			step = 0.5
		}
		price += step
		candles[i] = Candle{Open: price - step, High: price + 1, Low: price - 1, Close: price, Volume: 10}
	}
	sum, ok := Summarize(candles)
	require.True(t, ok)

	assert.Equal(t, "below", sum.EMAState)
	assert.Less(t, sum.RSI, 30.0)
	assert.Greater(t, sum.RSI, 0.0)
	assert.Equal(t, "oversold", sum.RSIState)
}
