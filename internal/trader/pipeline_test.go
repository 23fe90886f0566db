package trader

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tradepilot/internal/exchange"
	"tradepilot/internal/ledger"
	"tradepilot/internal/market"
	"tradepilot/internal/news"
	"tradepilot/internal/oracle"
	"tradepilot/internal/reconcile"
	"tradepilot/internal/risk"
)

type mockExchange struct{ mock.Mock }

func (m *mockExchange) Name() string { return "mock" }

func (m *mockExchange) GetPosition(ctx context.Context, symbol string) (*exchange.Position, error) {
	args := m.Called(ctx, symbol)
	p, _ := args.Get(0).(*exchange.Position)
	return p, args.Error(1)
}

func (m *mockExchange) GetTicker(ctx context.Context, symbol string) (exchange.PriceQuote, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).(exchange.PriceQuote), args.Error(1)
}

func (m *mockExchange) GetBalance(ctx context.Context) (exchange.Balance, error) {
	args := m.Called(ctx)
	return args.Get(0).(exchange.Balance), args.Error(1)
}

func (m *mockExchange) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	return m.Called(ctx, symbol, leverage).Error(0)
}

func (m *mockExchange) PlaceMarketOrder(ctx context.Context, symbol, side string, quantity float64) (int64, error) {
	args := m.Called(ctx, symbol, side, quantity)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockExchange) PlaceConditionalOrder(ctx context.Context, symbol string, kind exchange.ConditionalKind, side string, quantity, triggerPrice float64) (int64, error) {
	args := m.Called(ctx, symbol, kind, side, quantity, triggerPrice)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockExchange) ListOpenOrders(ctx context.Context, symbol string) ([]exchange.Order, error) {
	args := m.Called(ctx, symbol)
	orders, _ := args.Get(0).([]exchange.Order)
	return orders, args.Error(1)
}

func (m *mockExchange) CancelOrder(ctx context.Context, symbol string, orderID int64) error {
	return m.Called(ctx, symbol, orderID).Error(0)
}

type mockStore struct{ mock.Mock }

func (m *mockStore) RecordTradeOpened(ctx context.Context, t ledger.Trade) (int64, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) RecordTradeClosed(ctx context.Context, id int64, exitPrice, pnl, pnlPct float64, closedAt time.Time) error {
	return m.Called(ctx, id, exitPrice, pnl, pnlPct, closedAt).Error(0)
}

func (m *mockStore) OpenTrade(ctx context.Context) (*ledger.Trade, error) {
	args := m.Called(ctx)
	t, _ := args.Get(0).(*ledger.Trade)
	return t, args.Error(1)
}

func (m *mockStore) RecordAnalysis(ctx context.Context, a ledger.AnalysisRecord) (int64, error) {
	args := m.Called(ctx, a)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) LinkAnalysisToTrade(ctx context.Context, analysisID, tradeID int64) error {
	return m.Called(ctx, analysisID, tradeID).Error(0)
}

func (m *mockStore) RecentClosedTrades(ctx context.Context, limit int) ([]ledger.Trade, error) {
	args := m.Called(ctx, limit)
	trades, _ := args.Get(0).([]ledger.Trade)
	return trades, args.Error(1)
}

func (m *mockStore) RecentAnalyses(ctx context.Context, limit int) ([]ledger.AnalysisRecord, error) {
	args := m.Called(ctx, limit)
	recs, _ := args.Get(0).([]ledger.AnalysisRecord)
	return recs, args.Error(1)
}

func (m *mockStore) ListTrades(ctx context.Context, limit, offset int) ([]ledger.Trade, error) {
	args := m.Called(ctx, limit, offset)
	trades, _ := args.Get(0).([]ledger.Trade)
	return trades, args.Error(1)
}

func (m *mockStore) TradeHistory(ctx context.Context, limit int) ([]ledger.TradeWithAnalysis, error) {
	args := m.Called(ctx, limit)
	hist, _ := args.Get(0).([]ledger.TradeWithAnalysis)
	return hist, args.Error(1)
}

func (m *mockStore) CountTrades(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) PerformanceMetrics(ctx context.Context) (ledger.PerformanceMetrics, error) {
	args := m.Called(ctx)
	return args.Get(0).(ledger.PerformanceMetrics), args.Error(1)
}

func (m *mockStore) TradeSummary(ctx context.Context, days int) (ledger.Summary, error) {
	args := m.Called(ctx, days)
	return args.Get(0).(ledger.Summary), args.Error(1)
}

func (m *mockStore) Close() error { return m.Called().Error(0) }

type mockMarket struct{ mock.Mock }

func (m *mockMarket) FetchHistory(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error) {
	args := m.Called(ctx, symbol, interval, limit)
	candles, _ := args.Get(0).([]market.Candle)
	return candles, args.Error(1)
}

type mockOracle struct{ mock.Mock }

func (m *mockOracle) Chat(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	args := m.Called(ctx, systemPrompt, userPrompt)
	return args.String(0), args.Error(1)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) TradeOpened(t ledger.Trade) { m.Called(t) }

func newTestPipeline(venue *mockExchange, store *mockStore, mkt *mockMarket, orc *mockOracle) *Pipeline {
	return &Pipeline{
		Symbol:       "BTCUSDT",
		Timeframes:   []Timeframe{{Interval: "15m", Limit: 10}},
		HistoryLimit: 10,
		Venue:        venue,
		Market:       mkt,
		Store:        store,
		Oracle:       orc,
		Sizer:        risk.NewSizer(100),
		Reconciler:   &reconcile.Reconciler{Symbol: "BTCUSDT", Ledger: store, Venue: venue},
	}
}

func expectFlatReconcile(venue *mockExchange, store *mockStore) {
	store.On("OpenTrade", mock.Anything).Return(nil, nil)
	venue.On("GetPosition", mock.Anything, "BTCUSDT").Return(nil, nil)
	venue.On("ListOpenOrders", mock.Anything, "BTCUSDT").Return([]exchange.Order{}, nil)
}

func expectSnapshot(venue *mockExchange, store *mockStore, mkt *mockMarket, price float64) {
	venue.On("GetTicker", mock.Anything, "BTCUSDT").Return(exchange.PriceQuote{Symbol: "BTCUSDT", Last: price}, nil)
	mkt.On("FetchHistory", mock.Anything, "BTCUSDT", "15m", 10).Return([]market.Candle{
		{Open: price - 1, High: price + 1, Low: price - 2, Close: price, Volume: 5},
	}, nil)
	store.On("RecentClosedTrades", mock.Anything, 10).Return([]ledger.Trade{}, nil)
	store.On("PerformanceMetrics", mock.Anything).Return(ledger.PerformanceMetrics{}, nil)
}

func TestRunOnceHoldsOpenPosition(t *testing.T) {
	venue := new(mockExchange)
	store := new(mockStore)
	mkt := new(mockMarket)
	orc := new(mockOracle)

	store.On("OpenTrade", mock.Anything).Return(&ledger.Trade{ID: 1, Direction: "LONG", Status: ledger.StatusOpen}, nil)
	venue.On("GetPosition", mock.Anything, "BTCUSDT").Return(&exchange.Position{Side: "long", Quantity: 1}, nil)

	p := newTestPipeline(venue, store, mkt, orc)
	require.NoError(t, p.RunOnce(context.Background()))
	orc.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunOnceNoPosition(t *testing.T) {
	venue := new(mockExchange)
	store := new(mockStore)
	mkt := new(mockMarket)
	orc := new(mockOracle)

	expectFlatReconcile(venue, store)
	expectSnapshot(venue, store, mkt, 100)
	orc.On("Chat", mock.Anything, mock.Anything, mock.Anything).
		Return(`{"direction":"NO_POSITION","recommended_position_size":0,"recommended_leverage":0,"stop_loss_percentage":0,"take_profit_percentage":0,"reasoning":"chop"}`, nil)
	store.On("RecordAnalysis", mock.Anything, mock.MatchedBy(func(a ledger.AnalysisRecord) bool {
		return a.Direction == oracle.DirectionNone && a.Reasoning == "chop" && a.Price == 100.0
	})).Return(int64(11), nil)

	p := newTestPipeline(venue, store, mkt, orc)
	require.NoError(t, p.RunOnce(context.Background()))
	venue.AssertNotCalled(t, "PlaceMarketOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

func TestRunOnceParseErrorSkipsPersist(t *testing.T) {
	venue := new(mockExchange)
	store := new(mockStore)
	mkt := new(mockMarket)
	orc := new(mockOracle)

	expectFlatReconcile(venue, store)
	expectSnapshot(venue, store, mkt, 100)
	orc.On("Chat", mock.Anything, mock.Anything, mock.Anything).
		Return("I would rather describe the market in prose today.", nil)

	p := newTestPipeline(venue, store, mkt, orc)
	err := p.RunOnce(context.Background())
	var perr *oracle.ParseError
	require.ErrorAs(t, err, &perr)
	store.AssertNotCalled(t, "RecordAnalysis", mock.Anything, mock.Anything)
}

func TestRunOnceOpensLong(t *testing.T) {
	venue := new(mockExchange)
	store := new(mockStore)
	mkt := new(mockMarket)
	orc := new(mockOracle)
	notif := new(mockNotifier)

	expectFlatReconcile(venue, store)
	expectSnapshot(venue, store, mkt, 100)
	orc.On("Chat", mock.Anything, mock.Anything, mock.Anything).
		Return(`{"direction":"LONG","recommended_position_size":0.5,"recommended_leverage":5,"stop_loss_percentage":0.02,"take_profit_percentage":0.04,"reasoning":"breakout"}`, nil)
	store.On("RecordAnalysis", mock.Anything, mock.Anything).Return(int64(21), nil)

	venue.On("GetBalance", mock.Anything).Return(exchange.Balance{Asset: "USDT", Available: 1000, Total: 1000}, nil)
	venue.On("SetLeverage", mock.Anything, "BTCUSDT", 5).Return(nil)
	// 1000 * 0.5 / 100 = 5 contracts.
	venue.On("PlaceMarketOrder", mock.Anything, "BTCUSDT", exchange.SideBuy, 5.0).Return(int64(100), nil)
	venue.On("PlaceConditionalOrder", mock.Anything, "BTCUSDT", exchange.ConditionalStop, exchange.SideSell, 5.0, 98.0).Return(int64(101), nil)
	venue.On("PlaceConditionalOrder", mock.Anything, "BTCUSDT", exchange.ConditionalTakeProfit, exchange.SideSell, 5.0, 104.0).Return(int64(102), nil)
	store.On("RecordTradeOpened", mock.Anything, mock.MatchedBy(func(tr ledger.Trade) bool {
		return tr.Direction == oracle.DirectionLong &&
			tr.Quantity == 5.0 &&
			tr.EntryPrice == 100.0 &&
			tr.Leverage == 5 &&
			tr.StopLoss == 98.0 &&
			tr.TakeProfit == 104.0 &&
			tr.StopLossPct == 0.02 &&
			tr.TakeProfitPct == 0.04 &&
			tr.PositionSizeFraction == 0.5
	})).Return(int64(31), nil)
	store.On("LinkAnalysisToTrade", mock.Anything, int64(21), int64(31)).Return(nil)
	notif.On("TradeOpened", mock.MatchedBy(func(tr ledger.Trade) bool { return tr.ID == 31 })).Return().Once()

	p := newTestPipeline(venue, store, mkt, orc)
	p.Notifier = notif
	require.NoError(t, p.RunOnce(context.Background()))
	venue.AssertExpectations(t)
	store.AssertExpectations(t)
	notif.AssertExpectations(t)
}

func TestRunOnceInvalidSizingSkipsTrade(t *testing.T) {
	venue := new(mockExchange)
	store := new(mockStore)
	mkt := new(mockMarket)
	orc := new(mockOracle)

	expectFlatReconcile(venue, store)
	expectSnapshot(venue, store, mkt, 100)
	orc.On("Chat", mock.Anything, mock.Anything, mock.Anything).
		Return(`{"direction":"SHORT","recommended_position_size":0.5,"recommended_leverage":5,"stop_loss_percentage":0.02,"take_profit_percentage":0.04,"reasoning":"rollover"}`, nil)
	store.On("RecordAnalysis", mock.Anything, mock.Anything).Return(int64(41), nil)
	venue.On("GetBalance", mock.Anything).Return(exchange.Balance{Asset: "USDT", Available: 0, Total: 0}, nil)

	p := newTestPipeline(venue, store, mkt, orc)
	// The analysis stays on record; the unsizable trade is simply skipped.
	require.NoError(t, p.RunOnce(context.Background()))
	venue.AssertNotCalled(t, "PlaceMarketOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

func TestRunOnceShortUsesMirroredSides(t *testing.T) {
	venue := new(mockExchange)
	store := new(mockStore)
	mkt := new(mockMarket)
	orc := new(mockOracle)

	expectFlatReconcile(venue, store)
	expectSnapshot(venue, store, mkt, 100)
	orc.On("Chat", mock.Anything, mock.Anything, mock.Anything).
		Return(`{"direction":"SHORT","recommended_position_size":0.5,"recommended_leverage":3,"stop_loss_percentage":0.02,"take_profit_percentage":0.04,"reasoning":"rejection"}`, nil)
	store.On("RecordAnalysis", mock.Anything, mock.Anything).Return(int64(51), nil)

	venue.On("GetBalance", mock.Anything).Return(exchange.Balance{Asset: "USDT", Available: 1000, Total: 1000}, nil)
	venue.On("SetLeverage", mock.Anything, "BTCUSDT", 3).Return(nil)
	venue.On("PlaceMarketOrder", mock.Anything, "BTCUSDT", exchange.SideSell, 5.0).Return(int64(200), nil)
	venue.On("PlaceConditionalOrder", mock.Anything, "BTCUSDT", exchange.ConditionalStop, exchange.SideBuy, 5.0, 102.0).Return(int64(201), nil)
	venue.On("PlaceConditionalOrder", mock.Anything, "BTCUSDT", exchange.ConditionalTakeProfit, exchange.SideBuy, 5.0, 96.0).Return(int64(202), nil)
	store.On("RecordTradeOpened", mock.Anything, mock.Anything).Return(int64(61), nil)
	store.On("LinkAnalysisToTrade", mock.Anything, int64(51), int64(61)).Return(nil)

	p := newTestPipeline(venue, store, mkt, orc)
	require.NoError(t, p.RunOnce(context.Background()))
	venue.AssertExpectations(t)

	assert.Equal(t, "mock", venue.Name())
}
