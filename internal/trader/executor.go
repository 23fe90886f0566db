package trader

import (
	"context"
	"errors"
	"time"

	"tradepilot/internal/exchange"
	"tradepilot/internal/ledger"
	"tradepilot/internal/logger"
	"tradepilot/internal/oracle"
	"tradepilot/internal/risk"
)

// execute sizes the recommendation and walks the order sequence: leverage,
// market entry, then both bracket legs. The ledger write follows the entry
// fill so an adopted restart can never miss an open position.
func (p *Pipeline) execute(ctx context.Context, decision oracle.Decision, price float64, analysisID int64) error {
	balance, err := p.Venue.GetBalance(ctx)
	if err != nil {
		return err
	}

	sized, err := p.Sizer.Size(decision, balance.Available, price)
	if err != nil {
		var invalid *oracle.InvalidRecommendation
		if errors.As(err, &invalid) {
			// The analysis is already on record; only the trade is skipped.
			logger.Warnf("[trader] not trading: %s", invalid.Reason)
			return nil
		}
		return err
	}

	if err := p.Venue.SetLeverage(ctx, p.Symbol, sized.Leverage); err != nil {
		return err
	}

	entrySide, exitSide := exchange.SideBuy, exchange.SideSell
	if sized.Direction == oracle.DirectionShort {
		entrySide, exitSide = exchange.SideSell, exchange.SideBuy
	}

	entryID, err := p.Venue.PlaceMarketOrder(ctx, p.Symbol, entrySide, sized.Quantity)
	if err != nil {
		return err
	}
	logger.Infof("[trader] %s entry filled: order=%d qty=%v @ ~%v lev=%dx",
		sized.Direction, entryID, sized.Quantity, price, sized.Leverage)

	trade := ledger.Trade{
		Symbol:               p.Symbol,
		Direction:            sized.Direction,
		Quantity:             sized.Quantity,
		EntryPrice:           price,
		Leverage:             sized.Leverage,
		StopLoss:             sized.StopLoss,
		TakeProfit:           sized.TakeProfit,
		StopLossPct:          decision.StopLossPct,
		TakeProfitPct:        decision.TakeProfitPct,
		PositionSizeFraction: sized.PositionSizeFraction,
		Notional:             sized.Notional,
		OpenedAt:             time.Now().UTC(),
	}
	tradeID, err := p.Store.RecordTradeOpened(ctx, trade)
	if err != nil {
		// The position exists on the venue either way; the next
		// reconciliation pass adopts it if this write was lost.
		return err
	}
	trade.ID = tradeID
	trade.Status = ledger.StatusOpen

	p.placeBrackets(ctx, sized, exitSide)

	if err := p.Store.LinkAnalysisToTrade(ctx, analysisID, tradeID); err != nil {
		logger.Warnf("[trader] analysis link failed: %v", err)
	}
	if p.Notifier != nil {
		p.Notifier.TradeOpened(trade)
	}
	return nil
}

// placeBrackets attaches the stop and take-profit legs. A failed leg is
// logged and left to the next cycle's reconciliation rather than unwinding
// the position.
func (p *Pipeline) placeBrackets(ctx context.Context, sized risk.Decision, exitSide string) {
	if _, err := p.Venue.PlaceConditionalOrder(ctx, p.Symbol, exchange.ConditionalStop, exitSide, sized.Quantity, sized.StopLoss); err != nil {
		logger.Errorf("[trader] stop-loss placement failed: %v", err)
	} else {
		logger.Infof("[trader] stop-loss set @ %v", sized.StopLoss)
	}
	if _, err := p.Venue.PlaceConditionalOrder(ctx, p.Symbol, exchange.ConditionalTakeProfit, exitSide, sized.Quantity, sized.TakeProfit); err != nil {
		logger.Errorf("[trader] take-profit placement failed: %v", err)
	} else {
		logger.Infof("[trader] take-profit set @ %v", sized.TakeProfit)
	}
}
