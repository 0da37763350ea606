package roulette

import (
	"sync/atomic"
	"time"
)

// TurnClock starts the timed waits that bound every decision point. A
// session has at most one outstanding Wait at a time.
type TurnClock struct {
	tick time.Duration
}

// NewTurnClock creates a TurnClock. tick is the coarse interval for
// time-remaining notifications; 0 disables them.
func NewTurnClock(tick time.Duration) *TurnClock {
	return &TurnClock{tick: tick}
}

// Wait is a single-resolution countdown. Exactly one of two things is ever
// observed by the caller: Cancel returns true, or Timeout fires. The losing
// path is suppressed, so an action arriving at the same instant the
// duration elapses can never produce both an accepted action and a timeout.
type Wait struct {
	timeout  chan struct{}
	ticks    chan time.Duration
	stop     chan struct{}
	resolved atomic.Bool
	deadline time.Time
}

// Start begins a countdown of the given duration.
func (tc *TurnClock) Start(d time.Duration) *Wait {
	w := &Wait{
		timeout:  make(chan struct{}),
		ticks:    make(chan time.Duration, 1),
		stop:     make(chan struct{}),
		deadline: time.Now().Add(d),
	}
	go w.run(d, tc.tick)
	return w
}

func (w *Wait) run(d, tick time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	var tickC <-chan time.Time
	if tick > 0 {
		ticker := time.NewTicker(tick)
		defer ticker.Stop()
		tickC = ticker.C
	}

	for {
		select {
		case <-timer.C:
			if w.resolved.CompareAndSwap(false, true) {
				close(w.timeout)
			}
			return
		case <-tickC:
			// Drop the tick if the consumer is busy; ticks are
			// best-effort display hints.
			select {
			case w.ticks <- time.Until(w.deadline):
			default:
			}
		case <-w.stop:
			return
		}
	}
}

// Cancel resolves the wait in favor of a player action and reports whether
// cancellation won. false means the timeout already fired and the caller
// must treat the decision as timed out. Ticks stop immediately on a
// successful cancel.
func (w *Wait) Cancel() bool {
	if w.resolved.CompareAndSwap(false, true) {
		close(w.stop)
		return true
	}
	return false
}

// Timeout is closed when the countdown elapses without cancellation.
func (w *Wait) Timeout() <-chan struct{} {
	return w.timeout
}

// Ticks delivers coarse time-remaining notifications until the wait
// resolves.
func (w *Wait) Ticks() <-chan time.Duration {
	return w.ticks
}

// Remaining returns the time left before the deadline.
func (w *Wait) Remaining() time.Duration {
	rem := time.Until(w.deadline)
	if rem < 0 {
		return 0
	}
	return rem
}
