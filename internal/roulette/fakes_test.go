package roulette

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeLedger is an in-memory escrow backend for session tests. It keeps the
// per-user credit bookkeeping split by kind so tests can tell a payout from
// a refund.
type fakeLedger struct {
	mu        sync.Mutex
	balances  map[int64]int64
	deposits  map[int64]int64
	refunds   map[int64]int64
	withdrawn map[int64]int64
}

func newFakeLedger(balances map[int64]int64) *fakeLedger {
	if balances == nil {
		balances = make(map[int64]int64)
	}
	return &fakeLedger{
		balances:  balances,
		deposits:  make(map[int64]int64),
		refunds:   make(map[int64]int64),
		withdrawn: make(map[int64]int64),
	}
}

func (l *fakeLedger) Withdraw(_ context.Context, userID, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[userID] < amount {
		return ErrInsufficientFunds
	}
	l.balances[userID] -= amount
	l.withdrawn[userID] += amount
	return nil
}

func (l *fakeLedger) Deposit(_ context.Context, userID, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[userID] += amount
	l.deposits[userID] += amount
	return nil
}

func (l *fakeLedger) Refund(_ context.Context, userID, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[userID] += amount
	l.refunds[userID] += amount
	return nil
}

func (l *fakeLedger) Balance(_ context.Context, userID int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[userID], nil
}

func (l *fakeLedger) depositedTo(userID int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.deposits[userID]
}

func (l *fakeLedger) refundedTo(userID int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.refunds[userID]
}

func (l *fakeLedger) balanceOf(userID int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[userID]
}

// rejectedAction is one Notifier.Reject call.
type rejectedAction struct {
	userID int64
	reason error
}

// fakeNotifier records every snapshot and rejection and streams snapshots
// to the test over a channel so flows can be driven prompt by prompt.
type fakeNotifier struct {
	mu      sync.Mutex
	snaps   []Snapshot
	rejects []rejectedAction
	updates chan Snapshot
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{updates: make(chan Snapshot, 256)}
}

func (n *fakeNotifier) Update(snap Snapshot) {
	n.mu.Lock()
	n.snaps = append(n.snaps, snap)
	n.mu.Unlock()
	select {
	case n.updates <- snap:
	default:
	}
}

func (n *fakeNotifier) Reject(userID int64, reason error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rejects = append(n.rejects, rejectedAction{userID: userID, reason: reason})
}

func (n *fakeNotifier) rejections() []rejectedAction {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]rejectedAction(nil), n.rejects...)
}

func (n *fakeNotifier) lastSnapshot() Snapshot {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.snaps) == 0 {
		return Snapshot{}
	}
	return n.snaps[len(n.snaps)-1]
}

// waitForPrompt consumes snapshots until one asks userID to choose among
// actions including want.
func (n *fakeNotifier) waitForPrompt(t *testing.T, userID int64, want ActionKind) Snapshot {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case snap := <-n.updates:
			if snap.TurnUserID != userID {
				continue
			}
			for _, c := range snap.Choices {
				if c == want {
					return snap
				}
			}
		case <-deadline:
			t.Fatalf("no prompt for user %d offering %s", userID, want)
		}
	}
}

// statEvent is one StatRecorder.Record call.
type statEvent struct {
	chatID  int64
	userID  int64
	outcome Outcome
	amount  int64
}

type fakeStats struct {
	mu     sync.Mutex
	events []statEvent
}

func (f *fakeStats) Record(_ context.Context, chatID, userID int64, outcome Outcome, amount int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, statEvent{chatID: chatID, userID: userID, outcome: outcome, amount: amount})
}

func (f *fakeStats) recorded() []statEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]statEvent(nil), f.events...)
}

func (f *fakeStats) countOutcome(userID int64, outcome Outcome) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e.userID == userID && e.outcome == outcome {
			n++
		}
	}
	return n
}

// riggedCylinder returns a cylinder builder that deals the given chambers in
// order, ignoring the weapon.
func riggedCylinder(chambers ...Chamber) func(WeaponSpec) Cylinder {
	return func(WeaponSpec) Cylinder {
		return Cylinder{chambers: append([]Chamber(nil), chambers...)}
	}
}

// riggedCylinders deals one rigged cylinder per build call, repeating the
// last one if the session rebuilds more often than expected.
func riggedCylinders(builds ...[]Chamber) func(WeaponSpec) Cylinder {
	var mu sync.Mutex
	next := 0
	return func(WeaponSpec) Cylinder {
		mu.Lock()
		defer mu.Unlock()
		i := next
		if i >= len(builds) {
			i = len(builds) - 1
		} else {
			next++
		}
		return Cylinder{chambers: append([]Chamber(nil), builds[i]...)}
	}
}

// waitDone blocks until the session goroutine terminates.
func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("session did not terminate")
	}
}

// testConfig returns engine timings generous enough that only explicit
// timeout tests ever hit the clock.
func testConfig() Config {
	return Config{
		MinBet:       10,
		MaxBet:       10000,
		WeaponSelect: 2 * time.Second,
		Accept:       2 * time.Second,
		Turn:         2 * time.Second,
		Tick:         0,
	}
}
