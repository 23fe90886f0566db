package notifier

import (
	"fmt"
	"strings"

	"tradepilot/internal/ledger"
)

// FormatOpened renders the message sent right after a trade is entered.
func FormatOpened(t ledger.Trade) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Trade opened* %s %s\n", directionEmoji(t.Direction), t.Symbol)
	fmt.Fprintf(&b, "Direction: %s\n", t.Direction)
	fmt.Fprintf(&b, "Entry: %.2f  Qty: %v  Leverage: %dx\n", t.EntryPrice, t.Quantity, t.Leverage)
	fmt.Fprintf(&b, "Stop: %.2f  Take profit: %.2f", t.StopLoss, t.TakeProfit)
	return b.String()
}

// FormatClosed renders the settlement message, with the trailing-week recap
// appended when available.
func FormatClosed(t ledger.Trade, sum *ledger.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Trade closed* %s %s\n", pnlEmoji(t.PnL), t.Symbol)
	fmt.Fprintf(&b, "Direction: %s\n", t.Direction)
	fmt.Fprintf(&b, "Entry: %.2f  Exit: %.2f\n", t.EntryPrice, t.ExitPrice)
	fmt.Fprintf(&b, "P/L: %.2f USDT (%.2f%%)", t.PnL, t.PnLPct)
	if sum != nil && sum.Trades > 0 {
		fmt.Fprintf(&b, "\n\n*Last %d days*: %d trades, %.0f%% win rate, %.2f USDT",
			sum.Days, sum.Trades, sum.WinRate, sum.TotalPnL)
	}
	return b.String()
}

func directionEmoji(direction string) string {
	if direction == "SHORT" {
		return "🔻"
	}
	return "🔺"
}

func pnlEmoji(pnl float64) string {
	if pnl < 0 {
		return "🔴"
	}
	return "🟢"
}
