// Package oracle obtains a trading recommendation from an OpenAI-compatible
// chat model and turns the free-form reply into a validated Decision.
package oracle

// Directions the model may recommend.
const (
	DirectionLong  = "LONG"
	DirectionShort = "SHORT"
	DirectionNone  = "NO_POSITION"
)

// Decision is the structured recommendation extracted from the model reply.
// Field names follow the JSON contract the prompt demands.
type Decision struct {
	Direction            string  `json:"direction"`
	PositionSizeFraction float64 `json:"recommended_position_size"`
	Leverage             int     `json:"recommended_leverage"`
	StopLossPct          float64 `json:"stop_loss_percentage"`
	TakeProfitPct        float64 `json:"take_profit_percentage"`
	Reasoning            string  `json:"reasoning"`
}

// WantsTrade reports whether the decision asks for a new position.
func (d Decision) WantsTrade() bool {
	return d.Direction == DirectionLong || d.Direction == DirectionShort
}
