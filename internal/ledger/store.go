package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SQLStore implements Store on SQLite through gorm.
type SQLStore struct {
	db *gorm.DB
}

var _ Store = (*SQLStore)(nil)

func NewSQLStore(path string) (*SQLStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, &StorageError{Op: "open", Err: fmt.Errorf("database path is empty")}
	}
	if err := ensureDir(path); err != nil {
		return nil, &StorageError{Op: "open", Err: err}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, &StorageError{Op: "open", Err: err}
	}
	if err := db.AutoMigrate(&tradeModel{}, &analysisModel{}); err != nil {
		return nil, &StorageError{Op: "migrate", Err: err}
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, &StorageError{Op: "open", Err: err}
	}
	// WAL allows the dashboard to read while the trading loop writes.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &SQLStore{db: db}, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLStore) RecordTradeOpened(ctx context.Context, t Trade) (int64, error) {
	if t.OpenedAt.IsZero() {
		t.OpenedAt = time.Now().UTC()
	}
	t.Status = StatusOpen
	m := newTradeModel(t)
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return 0, &StorageError{Op: "record-open", Err: err}
	}
	return m.ID, nil
}

// RecordTradeClosed guards on status so a duplicate close observation cannot
// overwrite the first recorded exit.
func (s *SQLStore) RecordTradeClosed(ctx context.Context, id int64, exitPrice, pnl, pnlPct float64, closedAt time.Time) error {
	if closedAt.IsZero() {
		closedAt = time.Now().UTC()
	}
	res := s.db.WithContext(ctx).Model(&tradeModel{}).
		Where("id = ? AND status = ?", id, StatusOpen).
		Updates(map[string]any{
			"status":     StatusClosed,
			"exit_price": exitPrice,
			"pnl":        pnl,
			"pnl_pct":    pnlPct,
			"closed_at":  closedAt.Unix(),
		})
	if res.Error != nil {
		return &StorageError{Op: "record-close", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return &StorageError{Op: "record-close", Err: fmt.Errorf("trade %d is not open", id)}
	}
	return nil
}

func (s *SQLStore) OpenTrade(ctx context.Context) (*Trade, error) {
	var m tradeModel
	err := s.db.WithContext(ctx).
		Where("status = ?", StatusOpen).
		Order("opened_at DESC").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "open-trade", Err: err}
	}
	t := m.toTrade()
	return &t, nil
}

func (s *SQLStore) RecordAnalysis(ctx context.Context, a AnalysisRecord) (int64, error) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	m := newAnalysisModel(a)
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return 0, &StorageError{Op: "record-analysis", Err: err}
	}
	return m.ID, nil
}

func (s *SQLStore) LinkAnalysisToTrade(ctx context.Context, analysisID, tradeID int64) error {
	res := s.db.WithContext(ctx).Model(&analysisModel{}).
		Where("id = ?", analysisID).
		Update("trade_id", tradeID)
	if res.Error != nil {
		return &StorageError{Op: "link-analysis", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return &StorageError{Op: "link-analysis", Err: fmt.Errorf("analysis %d not found", analysisID)}
	}
	return nil
}

func (s *SQLStore) RecentClosedTrades(ctx context.Context, limit int) ([]Trade, error) {
	if limit <= 0 {
		limit = 10
	}
	var models []tradeModel
	err := s.db.WithContext(ctx).
		Where("status = ?", StatusClosed).
		Order("closed_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, &StorageError{Op: "recent-trades", Err: err}
	}
	out := make([]Trade, 0, len(models))
	for _, m := range models {
		out = append(out, m.toTrade())
	}
	return out, nil
}

func (s *SQLStore) RecentAnalyses(ctx context.Context, limit int) ([]AnalysisRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	var models []analysisModel
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, &StorageError{Op: "recent-analyses", Err: err}
	}
	out := make([]AnalysisRecord, 0, len(models))
	for _, m := range models {
		out = append(out, m.toRecord())
	}
	return out, nil
}

func (s *SQLStore) ListTrades(ctx context.Context, limit, offset int) ([]Trade, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	var models []tradeModel
	err := s.db.WithContext(ctx).
		Order("opened_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, &StorageError{Op: "list-trades", Err: err}
	}
	out := make([]Trade, 0, len(models))
	for _, m := range models {
		out = append(out, m.toTrade())
	}
	return out, nil
}

func (s *SQLStore) TradeHistory(ctx context.Context, limit int) ([]TradeWithAnalysis, error) {
	trades, err := s.ListTrades(ctx, limit, 0)
	if err != nil {
		return nil, err
	}
	if len(trades) == 0 {
		return []TradeWithAnalysis{}, nil
	}
	ids := make([]int64, 0, len(trades))
	for _, t := range trades {
		ids = append(ids, t.ID)
	}
	var models []analysisModel
	if err := s.db.WithContext(ctx).Where("trade_id IN ?", ids).Find(&models).Error; err != nil {
		return nil, &StorageError{Op: "trade-history", Err: err}
	}
	byTrade := make(map[int64]AnalysisRecord, len(models))
	for _, m := range models {
		if m.TradeID != nil {
			byTrade[*m.TradeID] = m.toRecord()
		}
	}
	out := make([]TradeWithAnalysis, 0, len(trades))
	for _, t := range trades {
		entry := TradeWithAnalysis{Trade: t}
		if a, ok := byTrade[t.ID]; ok {
			rec := a
			entry.Analysis = &rec
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *SQLStore) CountTrades(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&tradeModel{}).Count(&n).Error; err != nil {
		return 0, &StorageError{Op: "count-trades", Err: err}
	}
	return n, nil
}

func (s *SQLStore) PerformanceMetrics(ctx context.Context) (PerformanceMetrics, error) {
	overall, err := s.directionStats(ctx, "")
	if err != nil {
		return PerformanceMetrics{}, err
	}
	long, err := s.directionStats(ctx, "LONG")
	if err != nil {
		return PerformanceMetrics{}, err
	}
	short, err := s.directionStats(ctx, "SHORT")
	if err != nil {
		return PerformanceMetrics{}, err
	}
	return PerformanceMetrics{Overall: overall, Long: long, Short: short}, nil
}

func (s *SQLStore) directionStats(ctx context.Context, direction string) (DirectionStats, error) {
	var row struct {
		Trades   int
		Wins     int
		Losses   int
		TotalPnL float64
	}
	q := s.db.WithContext(ctx).Model(&tradeModel{}).
		Select(`COUNT(*) AS trades,
			SUM(CASE WHEN pnl > 0 THEN 1 ELSE 0 END) AS wins,
			SUM(CASE WHEN pnl <= 0 THEN 1 ELSE 0 END) AS losses,
			COALESCE(SUM(pnl), 0) AS total_pn_l`).
		Where("status = ?", StatusClosed)
	if direction != "" {
		q = q.Where("direction = ?", direction)
	}
	if err := q.Scan(&row).Error; err != nil {
		return DirectionStats{}, &StorageError{Op: "metrics", Err: err}
	}
	stats := DirectionStats{
		Trades:   row.Trades,
		Wins:     row.Wins,
		Losses:   row.Losses,
		TotalPnL: row.TotalPnL,
	}
	if stats.Trades > 0 {
		stats.WinRate = float64(stats.Wins) / float64(stats.Trades) * 100
		stats.AvgPnL = stats.TotalPnL / float64(stats.Trades)
	}
	return stats, nil
}

func (s *SQLStore) TradeSummary(ctx context.Context, days int) (Summary, error) {
	if days <= 0 {
		days = 7
	}
	since := time.Now().UTC().AddDate(0, 0, -days).Unix()
	var row struct {
		Trades   int
		Wins     int
		Losses   int
		TotalPnL float64
		BestPnL  float64
		WorstPnL float64
	}
	err := s.db.WithContext(ctx).Model(&tradeModel{}).
		Select(`COUNT(*) AS trades,
			SUM(CASE WHEN pnl > 0 THEN 1 ELSE 0 END) AS wins,
			SUM(CASE WHEN pnl <= 0 THEN 1 ELSE 0 END) AS losses,
			COALESCE(SUM(pnl), 0) AS total_pn_l,
			COALESCE(MAX(pnl), 0) AS best_pn_l,
			COALESCE(MIN(pnl), 0) AS worst_pn_l`).
		Where("status = ? AND closed_at >= ?", StatusClosed, since).
		Scan(&row).Error
	if err != nil {
		return Summary{}, &StorageError{Op: "summary", Err: err}
	}
	sum := Summary{
		Days:     days,
		Trades:   row.Trades,
		Wins:     row.Wins,
		Losses:   row.Losses,
		TotalPnL: row.TotalPnL,
		BestPnL:  row.BestPnL,
		WorstPnL: row.WorstPnL,
	}
	if sum.Trades > 0 {
		sum.WinRate = float64(sum.Wins) / float64(sum.Trades) * 100
	}
	return sum, nil
}
