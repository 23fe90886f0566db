package ledger

import (
	"time"

	"gorm.io/datatypes"
)

type tradeModel struct {
	ID               int64   `gorm:"column:id;primaryKey"`
	Symbol           string  `gorm:"column:symbol;index"`
	Direction        string  `gorm:"column:direction"`
	Quantity         float64 `gorm:"column:quantity"`
	EntryPrice       float64 `gorm:"column:entry_price"`
	ExitPrice        float64 `gorm:"column:exit_price"`
	Leverage         int     `gorm:"column:leverage"`
	StopLoss         float64 `gorm:"column:stop_loss"`
	TakeProfit       float64 `gorm:"column:take_profit"`
	StopLossPct      float64 `gorm:"column:stop_loss_pct"`
	TakeProfitPct    float64 `gorm:"column:take_profit_pct"`
	PositionSizeFrac float64 `gorm:"column:position_size_fraction"`
	Notional         float64 `gorm:"column:notional"`
	PnL              float64 `gorm:"column:pnl"`
	PnLPct           float64 `gorm:"column:pnl_pct"`
	Status           string  `gorm:"column:status;index"`
	OpenedAtUnix     int64   `gorm:"column:opened_at"`
	ClosedAtUnix     int64   `gorm:"column:closed_at"`
}

func (tradeModel) TableName() string { return "trades" }

type analysisModel struct {
	ID            int64          `gorm:"column:id;primaryKey"`
	Symbol        string         `gorm:"column:symbol;index"`
	Price         float64        `gorm:"column:price"`
	Direction     string         `gorm:"column:direction"`
	PositionSize  float64        `gorm:"column:position_size"`
	Leverage      int            `gorm:"column:leverage"`
	StopLossPct   float64        `gorm:"column:stop_loss_pct"`
	TakeProfitPct float64        `gorm:"column:take_profit_pct"`
	Reasoning     string         `gorm:"column:reasoning;type:TEXT"`
	RawResponse   datatypes.JSON `gorm:"column:raw_response;type:TEXT"`
	TradeID       *int64         `gorm:"column:trade_id;index"`
	CreatedAtUnix int64          `gorm:"column:created_at"`
}

func (analysisModel) TableName() string { return "oracle_analyses" }

func newTradeModel(t Trade) tradeModel {
	return tradeModel{
		ID:               t.ID,
		Symbol:           t.Symbol,
		Direction:        t.Direction,
		Quantity:         t.Quantity,
		EntryPrice:       t.EntryPrice,
		ExitPrice:        t.ExitPrice,
		Leverage:         t.Leverage,
		StopLoss:         t.StopLoss,
		TakeProfit:       t.TakeProfit,
		StopLossPct:      t.StopLossPct,
		TakeProfitPct:    t.TakeProfitPct,
		PositionSizeFrac: t.PositionSizeFraction,
		Notional:         t.Notional,
		PnL:              t.PnL,
		PnLPct:           t.PnLPct,
		Status:           t.Status,
		OpenedAtUnix:     unixOrZero(t.OpenedAt),
		ClosedAtUnix:     unixOrZero(t.ClosedAt),
	}
}

func (m tradeModel) toTrade() Trade {
	return Trade{
		ID:                   m.ID,
		Symbol:               m.Symbol,
		Direction:            m.Direction,
		Quantity:             m.Quantity,
		EntryPrice:           m.EntryPrice,
		ExitPrice:            m.ExitPrice,
		Leverage:             m.Leverage,
		StopLoss:             m.StopLoss,
		TakeProfit:           m.TakeProfit,
		StopLossPct:          m.StopLossPct,
		TakeProfitPct:        m.TakeProfitPct,
		PositionSizeFraction: m.PositionSizeFrac,
		Notional:             m.Notional,
		PnL:                  m.PnL,
		PnLPct:               m.PnLPct,
		Status:               m.Status,
		OpenedAt:             timeOrZero(m.OpenedAtUnix),
		ClosedAt:             timeOrZero(m.ClosedAtUnix),
	}
}

func newAnalysisModel(a AnalysisRecord) analysisModel {
	raw := a.RawResponse
	if raw == "" {
		raw = "{}"
	}
	return analysisModel{
		ID:            a.ID,
		Symbol:        a.Symbol,
		Price:         a.Price,
		Direction:     a.Direction,
		PositionSize:  a.PositionSize,
		Leverage:      a.Leverage,
		StopLossPct:   a.StopLossPct,
		TakeProfitPct: a.TakeProfitPct,
		Reasoning:     a.Reasoning,
		RawResponse:   datatypes.JSON(raw),
		TradeID:       a.TradeID,
		CreatedAtUnix: unixOrZero(a.CreatedAt),
	}
}

func (m analysisModel) toRecord() AnalysisRecord {
	return AnalysisRecord{
		ID:            m.ID,
		Symbol:        m.Symbol,
		Price:         m.Price,
		Direction:     m.Direction,
		PositionSize:  m.PositionSize,
		Leverage:      m.Leverage,
		StopLossPct:   m.StopLossPct,
		TakeProfitPct: m.TakeProfitPct,
		Reasoning:     m.Reasoning,
		RawResponse:   string(m.RawResponse),
		TradeID:       m.TradeID,
		CreatedAt:     timeOrZero(m.CreatedAtUnix),
	}
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func timeOrZero(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
