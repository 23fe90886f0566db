package oracle

import (
	"fmt"
	"strings"
)

// systemPrompt carries the trading policy: capital preservation first, trade
// only above the conviction bar, size with half Kelly, answer in JSON only.
const systemPrompt = `You are a disciplined cryptocurrency futures trading analyst.

Policy:
- Capital preservation comes before profit. When in doubt, stay flat.
- Only recommend LONG or SHORT when your conviction is at least 55%. Below
  that, recommend NO_POSITION.
- Size positions with the half-Kelly criterion: f = (p - (1-p)/b) / 2, where
  p is your win probability and b is the reward-to-risk ratio implied by your
  take-profit and stop-loss levels. Never recommend more than the half-Kelly
  fraction of available capital.
- Stop-loss and take-profit are fractions of the entry price (0.02 means 2%).
- Leverage must be a positive integer and conservative for the volatility you
  observe.

Respond with a single JSON object and nothing else:
{
  "direction": "LONG" | "SHORT" | "NO_POSITION",
  "recommended_position_size": <fraction of capital, 0..1>,
  "recommended_leverage": <integer>,
  "stop_loss_percentage": <fraction of entry price>,
  "take_profit_percentage": <fraction of entry price>,
  "reasoning": "<short explanation>"
}

For NO_POSITION set the numeric fields to 0.`

func SystemPrompt() string { return systemPrompt }

// BuildUserPrompt wraps the serialized market snapshot with instructions the
// model sees every cycle.
func BuildUserPrompt(snapshotJSON string) string {
	var b strings.Builder
	b.WriteString("Current market snapshot (candles, indicators, headlines, recent trade history):\n\n")
	b.WriteString(snapshotJSON)
	b.WriteString("\n\nAnalyze the snapshot and produce your recommendation as the JSON object described in the policy.")
	return b.String()
}

// HalfKelly computes the position fraction for win probability p and
// reward-to-risk ratio b. Returns 0 when the edge is not positive.
func HalfKelly(p, b float64) float64 {
	if b <= 0 || p <= 0 || p >= 1 {
		return 0
	}
	f := (p - (1-p)/b) / 2
	if f < 0 {
		return 0
	}
	return f
}

// DescribeDecision renders a one-line log summary.
func DescribeDecision(d Decision) string {
	if !d.WantsTrade() {
		return "no position"
	}
	return fmt.Sprintf("%s size=%.4f lev=%d sl=%.2f%% tp=%.2f%%",
		d.Direction, d.PositionSizeFraction, d.Leverage, d.StopLossPct*100, d.TakeProfitPct*100)
}
