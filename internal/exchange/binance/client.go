// Package binance adapts the USD-M futures REST API to the exchange and
// market interfaces the core consumes.
package binance

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tradepilot/internal/exchange"
	"tradepilot/internal/market"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxHistoryLimit = 1500

// Client implements exchange.Exchange and market.Source on the USD-M
// futures endpoints.
type Client struct {
	cfg    Config
	client *futures.Client
}

func New(cfg Config) *Client {
	final := cfg.withDefaults()
	client := futures.NewClient(final.APIKey, final.APISecret)
	client.BaseURL = strings.TrimSpace(final.RESTBaseURL)
	client.HTTPClient = &http.Client{Timeout: final.HTTPTimeout}
	return &Client{cfg: final, client: client}
}

func (c *Client) Name() string { return "binance-futures" }

// GetPosition reads the position risk endpoint. Binance reports a row even
// when flat; a zero positionAmt means no position, returned as nil.
func (c *Client) GetPosition(ctx context.Context, symbol string) (*exchange.Position, error) {
	risks, err := c.client.NewGetPositionRiskService().Symbol(cleanSymbol(symbol)).Do(ctx)
	if err != nil {
		return nil, &exchange.QueryError{Op: "position", Err: err}
	}
	for _, r := range risks {
		if r == nil {
			continue
		}
		amt := parseFloat(r.PositionAmt)
		if amt == 0 {
			continue
		}
		side := "long"
		if amt < 0 {
			side = "short"
		}
		return &exchange.Position{
			Symbol:     symbol,
			Side:       side,
			Quantity:   math.Abs(amt),
			EntryPrice: parseFloat(r.EntryPrice),
			UpdatedAt:  time.Now().UTC(),
		}, nil
	}
	return nil, nil
}

func (c *Client) GetTicker(ctx context.Context, symbol string) (exchange.PriceQuote, error) {
	prices, err := c.client.NewListPricesService().Symbol(cleanSymbol(symbol)).Do(ctx)
	if err != nil {
		return exchange.PriceQuote{}, &exchange.QueryError{Op: "ticker", Err: err}
	}
	for _, p := range prices {
		if p == nil {
			continue
		}
		last := parseFloat(p.Price)
		if last <= 0 {
			continue
		}
		return exchange.PriceQuote{Symbol: symbol, Last: last, UpdatedAt: time.Now().UTC()}, nil
	}
	return exchange.PriceQuote{}, &exchange.QueryError{Op: "ticker", Err: fmt.Errorf("no price for %s", symbol)}
}

// GetBalance returns the USDT futures wallet balance.
func (c *Client) GetBalance(ctx context.Context) (exchange.Balance, error) {
	balances, err := c.client.NewGetBalanceService().Do(ctx)
	if err != nil {
		return exchange.Balance{}, &exchange.QueryError{Op: "balance", Err: err}
	}
	for _, b := range balances {
		if b == nil || b.Asset != "USDT" {
			continue
		}
		return exchange.Balance{
			Asset:     b.Asset,
			Available: parseFloat(b.AvailableBalance),
			Total:     parseFloat(b.Balance),
		}, nil
	}
	return exchange.Balance{}, &exchange.QueryError{Op: "balance", Err: fmt.Errorf("no USDT balance row")}
}

func (c *Client) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	_, err := c.client.NewChangeLeverageService().
		Symbol(cleanSymbol(symbol)).
		Leverage(leverage).
		Do(ctx)
	if err != nil {
		return &exchange.OrderError{Op: "set-leverage", Err: err}
	}
	return nil
}

func (c *Client) PlaceMarketOrder(ctx context.Context, symbol, side string, quantity float64) (int64, error) {
	res, err := c.client.NewCreateOrderService().
		Symbol(cleanSymbol(symbol)).
		Side(futures.SideType(side)).
		Type(futures.OrderTypeMarket).
		Quantity(formatQuantity(quantity)).
		NewClientOrderID(clientOrderID()).
		Do(ctx)
	if err != nil {
		return 0, &exchange.OrderError{Op: "market", Err: err}
	}
	return res.OrderID, nil
}

func (c *Client) PlaceConditionalOrder(ctx context.Context, symbol string, kind exchange.ConditionalKind, side string, quantity, triggerPrice float64) (int64, error) {
	orderType := futures.OrderTypeStopMarket
	if kind == exchange.ConditionalTakeProfit {
		orderType = futures.OrderTypeTakeProfitMarket
	}
	res, err := c.client.NewCreateOrderService().
		Symbol(cleanSymbol(symbol)).
		Side(futures.SideType(side)).
		Type(orderType).
		Quantity(formatQuantity(quantity)).
		StopPrice(formatPrice(triggerPrice)).
		NewClientOrderID(clientOrderID()).
		Do(ctx)
	if err != nil {
		return 0, &exchange.OrderError{Op: string(kind), Err: err}
	}
	return res.OrderID, nil
}

func (c *Client) ListOpenOrders(ctx context.Context, symbol string) ([]exchange.Order, error) {
	orders, err := c.client.NewListOpenOrdersService().Symbol(cleanSymbol(symbol)).Do(ctx)
	if err != nil {
		return nil, &exchange.QueryError{Op: "open-orders", Err: err}
	}
	out := make([]exchange.Order, 0, len(orders))
	for _, o := range orders {
		if o == nil {
			continue
		}
		out = append(out, exchange.Order{
			ID:            o.OrderID,
			ClientOrderID: o.ClientOrderID,
			Symbol:        symbol,
			Side:          string(o.Side),
			Type:          string(o.Type),
			Quantity:      parseFloat(o.OrigQuantity),
			StopPrice:     parseFloat(o.StopPrice),
		})
	}
	return out, nil
}

func (c *Client) CancelOrder(ctx context.Context, symbol string, orderID int64) error {
	_, err := c.client.NewCancelOrderService().
		Symbol(cleanSymbol(symbol)).
		OrderID(orderID).
		Do(ctx)
	if err != nil {
		return &exchange.OrderError{Op: "cancel", Err: err}
	}
	return nil
}

// FetchHistory implements market.Source over the klines endpoint.
func (c *Client) FetchHistory(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	interval = strings.ToLower(strings.TrimSpace(interval))
	if interval == "" {
		return nil, fmt.Errorf("interval is required")
	}
	kls, err := c.client.NewKlinesService().
		Symbol(cleanSymbol(symbol)).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, &exchange.QueryError{Op: "klines", Err: err}
	}
	out := make([]market.Candle, 0, len(kls))
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		out = append(out, market.Candle{
			OpenTime:  kl.OpenTime,
			CloseTime: kl.CloseTime,
			Open:      parseFloat(kl.Open),
			High:      parseFloat(kl.High),
			Low:       parseFloat(kl.Low),
			Close:     parseFloat(kl.Close),
			Volume:    parseFloat(kl.Volume),
		})
	}
	return out, nil
}

// cleanSymbol strips the slash from pair notation, BTC/USDT becomes BTCUSDT.
func cleanSymbol(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(symbol), "/", ""))
}

func clientOrderID() string {
	return "tp-" + uuid.NewString()[:18]
}

// formatQuantity renders a contract amount with the 3-decimal step BTCUSDT
// accepts, never rounding a sized quantity down past the step.
func formatQuantity(q float64) string {
	return decimal.NewFromFloat(q).Round(3).StringFixed(3)
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', 2, 64)
}

func parseFloat(v string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return f
}
