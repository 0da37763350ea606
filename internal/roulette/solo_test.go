package roulette

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	soloChatID   = int64(-1001)
	soloPlayerID = int64(7)
)

// startSoloSession wires a solo session the way the manager does, with the
// bet already escrowed and the player admitted to the registry.
func startSoloSession(t *testing.T, cfg Config, bet int64, build func(WeaponSpec) Cylinder, led Ledger, nt Notifier, st StatRecorder) (*SoloSession, *Registry) {
	t.Helper()

	reg := NewRegistry()
	require.True(t, reg.TryAdmit(soloPlayerID))

	ctx, cancel := context.WithCancel(context.Background())
	s := &SoloSession{
		id:     "solo-test",
		chatID: soloChatID,
		player: Participant{
			UserID:   soloPlayerID,
			Username: "alice",
			Bet:      bet,
			Active:   true,
		},
		cfg:           cfg,
		clock:         NewTurnClock(cfg.Tick),
		registry:      reg,
		ledger:        led,
		stats:         st,
		notifier:      nt,
		in:            newInbox(),
		cancel:        cancel,
		onFinish:      func() {},
		buildCylinder: build,
	}

	go s.run(ctx)
	return s, reg
}

// derringerIndex is the catalog position of the three-chamber weapon the
// deterministic tests select.
func derringerIndex(t *testing.T) int {
	t.Helper()
	for i, w := range Weapons {
		if w.Chambers == 3 {
			return i
		}
	}
	t.Fatal("no three-chamber weapon in the catalog")
	return -1
}

func TestSoloSurviveAndCashOut(t *testing.T) {
	led := newFakeLedger(nil)
	nt := newFakeNotifier()
	st := &fakeStats{}

	// Two safe chambers up front, so two draws survive.
	s, reg := startSoloSession(t, testConfig(), 300,
		riggedCylinder(ChamberEmpty, ChamberEmpty, ChamberLive), led, nt, st)

	require.NoError(t, s.Submit(Action{UserID: soloPlayerID, Kind: ActionSelectWeapon, Weapon: derringerIndex(t)}))
	require.NoError(t, s.Submit(Action{UserID: soloPlayerID, Kind: ActionDraw}))
	require.NoError(t, s.Submit(Action{UserID: soloPlayerID, Kind: ActionDraw}))
	require.NoError(t, s.Submit(Action{UserID: soloPlayerID, Kind: ActionCashOut}))

	waitDone(t, s.Done())

	// Derringer reward is bet/2 per round: 150*2 plus the bet back.
	assert.Equal(t, int64(600), led.depositedTo(soloPlayerID))
	assert.Equal(t, int64(0), led.refundedTo(soloPlayerID))
	assert.False(t, reg.Active(soloPlayerID))
	assert.Equal(t, 1, st.countOutcome(soloPlayerID, OutcomeWin))

	final := nt.lastSnapshot()
	assert.Equal(t, StatusWin, final.Status)
	assert.Equal(t, int64(600), final.Payout)
	assert.Equal(t, 2, final.RoundsSurvived)
}

func TestSoloDeathForfeitsBet(t *testing.T) {
	led := newFakeLedger(nil)
	nt := newFakeNotifier()
	st := &fakeStats{}

	s, reg := startSoloSession(t, testConfig(), 300,
		riggedCylinder(ChamberLive, ChamberEmpty, ChamberEmpty), led, nt, st)

	require.NoError(t, s.Submit(Action{UserID: soloPlayerID, Kind: ActionSelectWeapon, Weapon: derringerIndex(t)}))
	require.NoError(t, s.Submit(Action{UserID: soloPlayerID, Kind: ActionDraw}))

	waitDone(t, s.Done())

	// The escrowed bet stays gone: no payout, no refund.
	assert.Equal(t, int64(0), led.depositedTo(soloPlayerID))
	assert.Equal(t, int64(0), led.refundedTo(soloPlayerID))
	assert.False(t, reg.Active(soloPlayerID))
	assert.Equal(t, 1, st.countOutcome(soloPlayerID, OutcomeDeath))
	assert.Equal(t, StatusDeath, nt.lastSnapshot().Status)
}

func TestSoloEarlyCashOutRejected(t *testing.T) {
	led := newFakeLedger(nil)
	nt := newFakeNotifier()
	st := &fakeStats{}

	s, _ := startSoloSession(t, testConfig(), 300,
		riggedCylinder(ChamberEmpty, ChamberLive, ChamberEmpty), led, nt, st)

	require.NoError(t, s.Submit(Action{UserID: soloPlayerID, Kind: ActionSelectWeapon, Weapon: derringerIndex(t)}))
	// Cashing out before surviving a round is refused without ending the
	// session; the draw and cash-out behind it still play.
	require.NoError(t, s.Submit(Action{UserID: soloPlayerID, Kind: ActionCashOut}))
	require.NoError(t, s.Submit(Action{UserID: soloPlayerID, Kind: ActionDraw}))
	require.NoError(t, s.Submit(Action{UserID: soloPlayerID, Kind: ActionCashOut}))

	waitDone(t, s.Done())

	rejects := nt.rejections()
	require.NotEmpty(t, rejects)
	assert.Equal(t, soloPlayerID, rejects[0].userID)
	assert.ErrorIs(t, rejects[0].reason, ErrNothingToCashOut)

	assert.Equal(t, int64(450), led.depositedTo(soloPlayerID)) // 150*1 + 300
	assert.Equal(t, StatusWin, nt.lastSnapshot().Status)
}

func TestSoloOtherUserActionsRejected(t *testing.T) {
	led := newFakeLedger(nil)
	nt := newFakeNotifier()
	st := &fakeStats{}

	s, _ := startSoloSession(t, testConfig(), 300,
		riggedCylinder(ChamberEmpty, ChamberLive, ChamberEmpty), led, nt, st)

	require.NoError(t, s.Submit(Action{UserID: 999, Kind: ActionSelectWeapon, Weapon: 0}))
	require.NoError(t, s.Submit(Action{UserID: soloPlayerID, Kind: ActionSelectWeapon, Weapon: derringerIndex(t)}))
	require.NoError(t, s.Submit(Action{UserID: soloPlayerID, Kind: ActionDraw}))
	require.NoError(t, s.Submit(Action{UserID: soloPlayerID, Kind: ActionCashOut}))

	waitDone(t, s.Done())

	rejects := nt.rejections()
	require.NotEmpty(t, rejects)
	assert.Equal(t, int64(999), rejects[0].userID)
	assert.ErrorIs(t, rejects[0].reason, ErrNotYourTurn)
	assert.Equal(t, StatusWin, nt.lastSnapshot().Status)
}

func TestSoloTurnTimeoutSettlesAsChicken(t *testing.T) {
	cfg := testConfig()
	cfg.Turn = 100 * time.Millisecond

	led := newFakeLedger(nil)
	nt := newFakeNotifier()
	st := &fakeStats{}

	s, reg := startSoloSession(t, cfg, 300,
		riggedCylinder(ChamberEmpty, ChamberLive, ChamberEmpty), led, nt, st)

	require.NoError(t, s.Submit(Action{UserID: soloPlayerID, Kind: ActionSelectWeapon, Weapon: derringerIndex(t)}))
	require.NoError(t, s.Submit(Action{UserID: soloPlayerID, Kind: ActionDraw}))
	// No further action: the turn clock runs out with one round survived.

	waitDone(t, s.Done())

	// Freezing up with rounds banked settles like a cash-out.
	assert.Equal(t, int64(450), led.depositedTo(soloPlayerID))
	assert.False(t, reg.Active(soloPlayerID))
	assert.Equal(t, 1, st.countOutcome(soloPlayerID, OutcomeChicken))
	assert.Equal(t, StatusChicken, nt.lastSnapshot().Status)
}

func TestSoloTurnTimeoutWithoutRoundsPaysNothing(t *testing.T) {
	cfg := testConfig()
	cfg.Turn = 100 * time.Millisecond

	led := newFakeLedger(nil)
	nt := newFakeNotifier()
	st := &fakeStats{}

	s, _ := startSoloSession(t, cfg, 300,
		riggedCylinder(ChamberEmpty, ChamberLive, ChamberEmpty), led, nt, st)

	require.NoError(t, s.Submit(Action{UserID: soloPlayerID, Kind: ActionSelectWeapon, Weapon: derringerIndex(t)}))
	// No draw at all before the clock runs out.

	waitDone(t, s.Done())

	assert.Equal(t, int64(0), led.depositedTo(soloPlayerID))
	assert.Equal(t, int64(0), led.refundedTo(soloPlayerID))
	assert.Equal(t, StatusChicken, nt.lastSnapshot().Status)
}

func TestSoloWeaponSelectTimeoutRefunds(t *testing.T) {
	cfg := testConfig()
	cfg.WeaponSelect = 100 * time.Millisecond

	led := newFakeLedger(nil)
	nt := newFakeNotifier()
	st := &fakeStats{}

	s, reg := startSoloSession(t, cfg, 300,
		riggedCylinder(ChamberEmpty), led, nt, st)

	waitDone(t, s.Done())

	// Never picking a weapon aborts the session with the bet returned.
	assert.Equal(t, int64(300), led.refundedTo(soloPlayerID))
	assert.Equal(t, int64(0), led.depositedTo(soloPlayerID))
	assert.False(t, reg.Active(soloPlayerID))
	assert.Equal(t, StatusAborted, nt.lastSnapshot().Status)
}

func TestSoloAbortRefundsBet(t *testing.T) {
	led := newFakeLedger(nil)
	nt := newFakeNotifier()
	st := &fakeStats{}

	s, reg := startSoloSession(t, testConfig(), 300,
		riggedCylinder(ChamberEmpty), led, nt, st)

	nt.waitForPrompt(t, soloPlayerID, ActionSelectWeapon)
	s.Abort()

	waitDone(t, s.Done())

	assert.Equal(t, int64(300), led.refundedTo(soloPlayerID))
	assert.False(t, reg.Active(soloPlayerID))
	assert.Equal(t, StatusAborted, nt.lastSnapshot().Status)

	// A closed session refuses further actions.
	err := s.Submit(Action{UserID: soloPlayerID, Kind: ActionDraw})
	assert.ErrorIs(t, err, ErrSessionClosed)
}
