package roulette

import (
	"context"
	"time"
)

// inboxSize bounds queued actions per session. The model is one pending
// decision at a time, so anything beyond a couple of queued inputs is
// already stale.
const inboxSize = 8

// inbox is the one-way action channel from the UI into a session.
type inbox struct {
	actions chan Action
	done    chan struct{}
}

func newInbox() *inbox {
	return &inbox{
		actions: make(chan Action, inboxSize),
		done:    make(chan struct{}),
	}
}

// submit queues an action for the session goroutine. It never blocks: a
// closed session or a full queue rejects the action.
func (in *inbox) submit(a Action) error {
	select {
	case <-in.done:
		return ErrSessionClosed
	default:
	}
	select {
	case in.actions <- a:
		return nil
	default:
		return ErrSessionClosed
	}
}

// awaitDecision runs one Turn Clock wait. It delivers the first action that
// validate accepts, discarding rejected ones without state change, and
// reports a timeout when the clock wins. The clock's single-resolution
// guarantee means an accepted action and a timeout can never both be
// observed for the same decision. onTick receives coarse time-remaining
// notifications; it stops as soon as the wait resolves.
//
// The returned error is non-nil only for a session-level forced abort via
// ctx.
func awaitDecision(
	ctx context.Context,
	clock *TurnClock,
	d time.Duration,
	in *inbox,
	validate func(Action) error,
	onReject func(Action, error),
	onTick func(time.Duration),
) (Action, bool, error) {
	w := clock.Start(d)
	for {
		select {
		case <-ctx.Done():
			w.Cancel()
			return Action{}, false, ctx.Err()
		case <-w.Timeout():
			return Action{}, true, nil
		case rem := <-w.Ticks():
			if onTick != nil {
				onTick(rem)
			}
		case a := <-in.actions:
			if err := validate(a); err != nil {
				if onReject != nil {
					onReject(a, err)
				}
				continue
			}
			if !w.Cancel() {
				// The timeout fired while this action was in
				// flight; the timeout wins.
				return Action{}, true, nil
			}
			return a, false, nil
		}
	}
}
