package market

import "context"

// Source supplies historical OHLCV series for a symbol.
type Source interface {
	FetchHistory(ctx context.Context, symbol, interval string, limit int) ([]Candle, error)
}
