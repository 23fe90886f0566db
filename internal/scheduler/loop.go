// Package scheduler drives the trading cycle on a fixed cadence, backing
// off when an iteration fails.
package scheduler

import (
	"context"
	"time"

	"tradepilot/internal/logger"
)

// State describes how the previous iteration ended and therefore how long
// to wait before the next one.
type State int

const (
	// StateNormal is a clean iteration; wait the full cadence.
	StateNormal State = iota
	// StateErrorBackoff is a transient fault; retry quickly.
	StateErrorBackoff
	// StateParseBackoff is an unusable oracle reply; give the model a
	// longer pause before asking again.
	StateParseBackoff
)

func (s State) String() string {
	switch s {
	case StateErrorBackoff:
		return "error-backoff"
	case StateParseBackoff:
		return "parse-backoff"
	default:
		return "normal"
	}
}

// Delays maps each state to its wait.
type Delays struct {
	Normal time.Duration
	Error  time.Duration
	Parse  time.Duration
}

func (d Delays) withDefaults() Delays {
	if d.Normal <= 0 {
		d.Normal = 60 * time.Second
	}
	if d.Error <= 0 {
		d.Error = 5 * time.Second
	}
	if d.Parse <= 0 {
		d.Parse = 30 * time.Second
	}
	return d
}

func (d Delays) forState(s State) time.Duration {
	switch s {
	case StateErrorBackoff:
		return d.Error
	case StateParseBackoff:
		return d.Parse
	default:
		return d.Normal
	}
}

// Classifier maps an iteration error to the backoff state. A nil error must
// map to StateNormal.
type Classifier func(err error) State

// Loop repeatedly runs a task, sleeping per the classified outcome between
// iterations.
type Loop struct {
	delays   Delays
	classify Classifier
}

func NewLoop(delays Delays, classify Classifier) *Loop {
	if classify == nil {
		classify = func(err error) State {
			if err != nil {
				return StateErrorBackoff
			}
			return StateNormal
		}
	}
	return &Loop{delays: delays.withDefaults(), classify: classify}
}

// Run blocks until ctx is canceled. The first iteration starts immediately.
func (l *Loop) Run(ctx context.Context, task func(ctx context.Context) error) error {
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		err := task(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		state := l.classify(err)
		wait := l.delays.forState(state)
		if err != nil {
			logger.Errorf("[scheduler] cycle failed (%s, next in %s): %v", state, wait, err)
		} else {
			logger.Debugf("[scheduler] cycle done, next in %s", wait)
		}
		timer.Reset(wait)
	}
}
