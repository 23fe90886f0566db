package oracle

import "fmt"

// ParseError means the model reply could not be turned into a Decision at
// all: no JSON found, malformed JSON, or a field of the wrong shape. The raw
// reply travels with the error for the dump log. Nothing is persisted and
// the scheduler applies the longer backoff.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("oracle reply unusable: %v", e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// InvalidRecommendation means the reply parsed cleanly but the recommendation
// fails a trading precondition, for example a position size above 1. The
// analysis is still persisted; only the trade is skipped.
type InvalidRecommendation struct {
	Reason string
}

func (e *InvalidRecommendation) Error() string {
	return fmt.Sprintf("recommendation rejected: %s", e.Reason)
}
