// Package exchange defines the trading capability the core consumes. The
// reconciler and pipeline only see this interface, so a test double or a
// different venue can stand in for the live gateway.
package exchange

import (
	"context"
	"time"
)

// ConditionalKind selects between the two bracket legs.
type ConditionalKind string

const (
	ConditionalStop       ConditionalKind = "stop"
	ConditionalTakeProfit ConditionalKind = "take_profit"
)

// Sides as the venue understands them.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Position is the venue's view of the single open position, nil when flat.
type Position struct {
	Symbol     string
	Side       string // "long" or "short"
	Quantity   float64
	EntryPrice float64
	UpdatedAt  time.Time
}

type Balance struct {
	Asset     string
	Available float64
	Total     float64
}

type PriceQuote struct {
	Symbol    string
	Last      float64
	UpdatedAt time.Time
}

type Order struct {
	ID            int64
	ClientOrderID string
	Symbol        string
	Side          string
	Type          string
	Quantity      float64
	StopPrice     float64
}

type Exchange interface {
	Name() string

	// GetPosition returns nil when the symbol is flat.
	GetPosition(ctx context.Context, symbol string) (*Position, error)

	GetTicker(ctx context.Context, symbol string) (PriceQuote, error)

	GetBalance(ctx context.Context) (Balance, error)

	SetLeverage(ctx context.Context, symbol string, leverage int) error

	PlaceMarketOrder(ctx context.Context, symbol, side string, quantity float64) (orderID int64, err error)

	PlaceConditionalOrder(ctx context.Context, symbol string, kind ConditionalKind, side string, quantity, triggerPrice float64) (orderID int64, err error)

	ListOpenOrders(ctx context.Context, symbol string) ([]Order, error)

	CancelOrder(ctx context.Context, symbol string, orderID int64) error
}
