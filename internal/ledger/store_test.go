package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	store, err := NewSQLStore(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func openTestTrade(t *testing.T, store *SQLStore, direction string, openedAt time.Time) int64 {
	t.Helper()
	id, err := store.RecordTradeOpened(context.Background(), Trade{
		Symbol:               "BTCUSDT",
		Direction:            direction,
		Quantity:             0.5,
		EntryPrice:           100,
		Leverage:             5,
		StopLoss:             98,
		TakeProfit:           104,
		StopLossPct:          0.02,
		TakeProfitPct:        0.04,
		PositionSizeFraction: 0.25,
		Notional:             50,
		OpenedAt:             openedAt,
	})
	require.NoError(t, err)
	return id
}

func TestTradeLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	open, err := store.OpenTrade(ctx)
	require.NoError(t, err)
	assert.Nil(t, open)

	id := openTestTrade(t, store, "LONG", time.Now().UTC())

	open, err = store.OpenTrade(ctx)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, id, open.ID)
	assert.Equal(t, StatusOpen, open.Status)
	assert.Equal(t, "LONG", open.Direction)
	assert.Equal(t, 0.02, open.StopLossPct)
	assert.Equal(t, 0.04, open.TakeProfitPct)
	assert.Equal(t, 0.25, open.PositionSizeFraction)

	closedAt := time.Now().UTC()
	require.NoError(t, store.RecordTradeClosed(ctx, id, 110, 5, 10, closedAt))

	open, err = store.OpenTrade(ctx)
	require.NoError(t, err)
	assert.Nil(t, open)

	closed, err := store.RecentClosedTrades(ctx, 5)
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.Equal(t, StatusClosed, closed[0].Status)
	assert.Equal(t, 110.0, closed[0].ExitPrice)
	assert.Equal(t, 5.0, closed[0].PnL)
	assert.Equal(t, 10.0, closed[0].PnLPct)
}

func TestDoubleCloseRejected(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id := openTestTrade(t, store, "SHORT", time.Now().UTC())
	require.NoError(t, store.RecordTradeClosed(ctx, id, 90, 5, 10, time.Now().UTC()))

	err := store.RecordTradeClosed(ctx, id, 80, 10, 20, time.Now().UTC())
	var serr *StorageError
	require.ErrorAs(t, err, &serr)

	closed, err := store.RecentClosedTrades(ctx, 1)
	require.NoError(t, err)
	require.Len(t, closed, 1)
	// The first close sticks.
	assert.Equal(t, 90.0, closed[0].ExitPrice)
}

func TestCloseUnknownTrade(t *testing.T) {
	store := newTestStore(t)
	err := store.RecordTradeClosed(context.Background(), 999, 100, 0, 0, time.Now().UTC())
	var serr *StorageError
	require.ErrorAs(t, err, &serr)
}

func TestAnalysisLinking(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	analysisID, err := store.RecordAnalysis(ctx, AnalysisRecord{
		Symbol:      "BTCUSDT",
		Price:       64250.5,
		Direction:   "LONG",
		Reasoning:   "trend continuation",
		RawResponse: `{"direction":"LONG"}`,
	})
	require.NoError(t, err)

	tradeID := openTestTrade(t, store, "LONG", time.Now().UTC())
	require.NoError(t, store.LinkAnalysisToTrade(ctx, analysisID, tradeID))

	analyses, err := store.RecentAnalyses(ctx, 5)
	require.NoError(t, err)
	require.Len(t, analyses, 1)
	assert.Equal(t, 64250.5, analyses[0].Price)
	require.NotNil(t, analyses[0].TradeID)
	assert.Equal(t, tradeID, *analyses[0].TradeID)

	err = store.LinkAnalysisToTrade(ctx, 999, tradeID)
	var serr *StorageError
	require.ErrorAs(t, err, &serr)
}

func TestPerformanceMetrics(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	win := openTestTrade(t, store, "LONG", now.Add(-3*time.Hour))
	require.NoError(t, store.RecordTradeClosed(ctx, win, 110, 5, 10, now.Add(-2*time.Hour)))

	loss := openTestTrade(t, store, "SHORT", now.Add(-2*time.Hour))
	require.NoError(t, store.RecordTradeClosed(ctx, loss, 105, -2.5, -5, now.Add(-time.Hour)))

	// An open trade must not count toward any closed-trade aggregate.
	openTestTrade(t, store, "LONG", now)

	m, err := store.PerformanceMetrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Overall.Trades)
	assert.Equal(t, 1, m.Overall.Wins)
	assert.Equal(t, 1, m.Overall.Losses)
	assert.InDelta(t, 50.0, m.Overall.WinRate, 1e-9)
	assert.InDelta(t, 2.5, m.Overall.TotalPnL, 1e-9)

	assert.Equal(t, 1, m.Long.Trades)
	assert.InDelta(t, 5.0, m.Long.TotalPnL, 1e-9)
	assert.Equal(t, 1, m.Short.Trades)
	assert.InDelta(t, -2.5, m.Short.TotalPnL, 1e-9)
}

func TestTradeSummaryWindow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	recent := openTestTrade(t, store, "LONG", now.Add(-24*time.Hour))
	require.NoError(t, store.RecordTradeClosed(ctx, recent, 110, 5, 10, now.Add(-23*time.Hour)))

	old := openTestTrade(t, store, "LONG", now.AddDate(0, 0, -30))
	require.NoError(t, store.RecordTradeClosed(ctx, old, 90, -5, -10, now.AddDate(0, 0, -29)))

	sum, err := store.TradeSummary(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, sum.Days)
	assert.Equal(t, 1, sum.Trades)
	assert.Equal(t, 1, sum.Wins)
	assert.InDelta(t, 100.0, sum.WinRate, 1e-9)
	assert.InDelta(t, 5.0, sum.TotalPnL, 1e-9)
	assert.InDelta(t, 5.0, sum.BestPnL, 1e-9)
}

func TestTradeHistoryJoinsAnalyses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	linked := openTestTrade(t, store, "LONG", now.Add(-time.Hour))
	analysisID, err := store.RecordAnalysis(ctx, AnalysisRecord{
		Symbol: "BTCUSDT", Direction: "LONG", Reasoning: "breakout",
		RawResponse: `{"direction":"LONG"}`,
	})
	require.NoError(t, err)
	require.NoError(t, store.LinkAnalysisToTrade(ctx, analysisID, linked))

	openTestTrade(t, store, "SHORT", now)

	history, err := store.TradeHistory(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)

	// Newest first: the unlinked short, then the long with its analysis.
	assert.Equal(t, "SHORT", history[0].Trade.Direction)
	assert.Nil(t, history[0].Analysis)
	assert.Equal(t, linked, history[1].Trade.ID)
	require.NotNil(t, history[1].Analysis)
	assert.Equal(t, "breakout", history[1].Analysis.Reasoning)
}

func TestListAndCount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 3; i++ {
		openTestTrade(t, store, "LONG", now.Add(time.Duration(i)*time.Minute))
	}

	n, err := store.CountTrades(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	page, err := store.ListTrades(ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	page, err = store.ListTrades(ctx, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page, 1)
}
