package exchange

import "fmt"

// QueryError wraps read-path failures (position, ticker, balance, orders).
// The scheduler treats it as transient: abort the iteration, short backoff.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string { return fmt.Sprintf("exchange query %s: %v", e.Op, e.Err) }
func (e *QueryError) Unwrap() error { return e.Err }

// OrderError wraps write-path failures. Already-placed legs are not rolled
// back; the next reconciliation pass observes whatever actually happened.
type OrderError struct {
	Op  string
	Err error
}

func (e *OrderError) Error() string { return fmt.Sprintf("exchange order %s: %v", e.Op, e.Err) }
func (e *OrderError) Unwrap() error { return e.Err }
