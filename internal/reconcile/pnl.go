// Package reconcile keeps the ledger's view of the position in lockstep with
// what the venue actually holds, adopting untracked positions and settling
// trades the venue closed behind our back.
package reconcile

// RealizedPnL computes profit for a finished trade. Longs profit when exit
// is above entry, shorts when it is below. The percentage is unleveraged
// price movement.
func RealizedPnL(direction string, entry, exit, quantity float64) (pnl, pct float64) {
	if entry <= 0 {
		return 0, 0
	}
	if direction == "SHORT" {
		pnl = (entry - exit) * quantity
		pct = (1 - exit/entry) * 100
		return pnl, pct
	}
	pnl = (exit - entry) * quantity
	pct = (exit/entry - 1) * 100
	return pnl, pct
}
