// Package risk turns an oracle recommendation plus account state into
// concrete order parameters: contract quantity, bracket prices, leverage.
package risk

import (
	"fmt"

	"github.com/shopspring/decimal"

	"tradepilot/internal/oracle"
)

// Decision is the fully sized trade ready for execution.
type Decision struct {
	Direction            string
	Quantity             float64
	StopLoss             float64
	TakeProfit           float64
	Leverage             int
	Notional             float64
	PositionSizeFraction float64
}

type Sizer struct {
	// MinNotional is the exchange's minimum order value in quote currency.
	// Smaller sized orders are bumped up to it.
	MinNotional float64
}

func NewSizer(minNotional float64) *Sizer {
	if minNotional <= 0 {
		minNotional = 100
	}
	return &Sizer{MinNotional: minNotional}
}

// Size converts the recommendation into order parameters. Precondition
// failures return *oracle.InvalidRecommendation: the analysis stands, the
// trade does not happen.
func (s *Sizer) Size(rec oracle.Decision, availableCapital, currentPrice float64) (Decision, error) {
	if !rec.WantsTrade() {
		return Decision{}, &oracle.InvalidRecommendation{Reason: "direction is not tradeable"}
	}
	if currentPrice <= 0 {
		return Decision{}, &oracle.InvalidRecommendation{Reason: fmt.Sprintf("current price %v not positive", currentPrice)}
	}
	if availableCapital <= 0 {
		return Decision{}, &oracle.InvalidRecommendation{Reason: fmt.Sprintf("available capital %v not positive", availableCapital)}
	}

	notional := availableCapital * rec.PositionSizeFraction
	if notional < s.MinNotional {
		notional = s.MinNotional
	}

	// Quantity rounds up at the 3rd decimal so the order never lands below
	// the intended notional.
	quantity, _ := decimal.NewFromFloat(notional).
		Div(decimal.NewFromFloat(currentPrice)).
		RoundCeil(3).
		Float64()

	stop, take := bracketPrices(rec.Direction, currentPrice, rec.StopLossPct, rec.TakeProfitPct)

	return Decision{
		Direction:            rec.Direction,
		Quantity:             quantity,
		StopLoss:             stop,
		TakeProfit:           take,
		Leverage:             rec.Leverage,
		Notional:             notional,
		PositionSizeFraction: rec.PositionSizeFraction,
	}, nil
}

// bracketPrices places the protective levels around the entry. A long stops
// below and takes profit above; a short mirrors that. Prices carry 2 decimals.
func bracketPrices(direction string, entry, slPct, tpPct float64) (stop, take float64) {
	e := decimal.NewFromFloat(entry)
	one := decimal.NewFromInt(1)
	sl := decimal.NewFromFloat(slPct)
	tp := decimal.NewFromFloat(tpPct)
	if direction == oracle.DirectionShort {
		stop, _ = e.Mul(one.Add(sl)).Round(2).Float64()
		take, _ = e.Mul(one.Sub(tp)).Round(2).Float64()
		return stop, take
	}
	stop, _ = e.Mul(one.Sub(sl)).Round(2).Float64()
	take, _ = e.Mul(one.Add(tp)).Round(2).Float64()
	return stop, take
}
