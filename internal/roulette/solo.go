package roulette

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// SoloSession is the single-player push-your-luck state machine. The player
// escrows a bet, picks a weapon, then repeatedly chooses between drawing
// the next chamber and cashing out the rounds survived so far.
type SoloSession struct {
	id     string
	chatID int64
	player Participant

	weapon   WeaponSpec
	cylinder Cylinder
	rounds   int
	reward   int64
	status   Status

	cfg      Config
	clock    *TurnClock
	registry *Registry
	ledger   Ledger
	stats    StatRecorder
	notifier Notifier

	in       *inbox
	cancel   context.CancelFunc
	onFinish func()

	// buildCylinder is swappable so tests can rig chamber order.
	buildCylinder func(WeaponSpec) Cylinder
}

// ID returns the session id.
func (s *SoloSession) ID() string { return s.id }

// Submit feeds a player action into the session.
func (s *SoloSession) Submit(a Action) error { return s.in.submit(a) }

// Abort forces the session down its abort path. Escrowed funds of the
// not-yet-eliminated player are refunded exactly once.
func (s *SoloSession) Abort() { s.cancel() }

// Done is closed when the session goroutine has fully terminated.
func (s *SoloSession) Done() <-chan struct{} { return s.in.done }

// run drives the state machine. It owns all session state; nothing outside
// this goroutine mutates the session.
func (s *SoloSession) run(ctx context.Context) {
	defer close(s.in.done)
	defer s.onFinish()

	s.status = StatusSelectingWeapon
	s.publish(s.weaponSelectSeconds())

	act, timedOut, err := awaitDecision(ctx, s.clock, s.cfg.WeaponSelect, s.in,
		s.validateWeaponSelect, s.reject, s.tick)
	if err != nil || timedOut {
		s.abortWithRefund(err)
		return
	}

	s.weapon, _ = WeaponAt(act.Weapon)
	s.cylinder = s.buildCylinder(s.weapon)
	s.reward = RewardPerRound(s.player.Bet, s.weapon)
	s.status = StatusPlayerTurn

	for {
		s.publish(int(s.cfg.Turn.Seconds()))

		act, timedOut, err := awaitDecision(ctx, s.clock, s.cfg.Turn, s.in,
			s.validateTurn, s.reject, s.tick)
		if err != nil {
			s.abortWithRefund(err)
			return
		}
		if timedOut {
			// Timing out after surviving rounds settles like a
			// cash-out; timing out cold forfeits the whole bet.
			s.settle(StatusChicken, OutcomeChicken, s.payout())
			return
		}

		switch act.Kind {
		case ActionCashOut:
			s.settle(StatusWin, OutcomeWin, s.payout())
			return
		case ActionDraw:
			chamber, err := s.cylinder.Draw()
			if err != nil {
				// validateTurn refuses draws on an exhausted
				// cylinder, so this is unreachable.
				log.Error().
					Str("session_id", s.id).
					Int64("chat_id", s.chatID).
					Msg("Draw on exhausted cylinder slipped past validation")
				continue
			}
			if chamber == ChamberLive {
				s.settle(StatusDeath, OutcomeDeath, 0)
				return
			}
			s.rounds++
		}
	}
}

// payout is the cash-out amount: the per-round reward for every survived
// round plus the original bet. Zero rounds pay nothing.
func (s *SoloSession) payout() int64 {
	if s.rounds == 0 {
		return 0
	}
	return s.reward*int64(s.rounds) + s.player.Bet
}

func (s *SoloSession) validateWeaponSelect(a Action) error {
	if a.UserID != s.player.UserID {
		return ErrNotYourTurn
	}
	if a.Kind != ActionSelectWeapon {
		return ErrInvalidAction
	}
	if _, ok := WeaponAt(a.Weapon); !ok {
		return ErrInvalidWeapon
	}
	return nil
}

func (s *SoloSession) validateTurn(a Action) error {
	if a.UserID != s.player.UserID {
		return ErrNotYourTurn
	}
	switch a.Kind {
	case ActionDraw:
		if s.cylinder.Exhausted() {
			return ErrInvalidAction
		}
		return nil
	case ActionCashOut:
		if s.rounds == 0 {
			return ErrNothingToCashOut
		}
		return nil
	default:
		return ErrInvalidAction
	}
}

// settle finishes the session on a terminal status, pays out, records the
// outcome and releases the player from the registry.
func (s *SoloSession) settle(status Status, outcome Outcome, payout int64) {
	s.status = status

	// Monetary operations run on a fresh context: a shutdown-driven
	// cancellation must not strand a confirmed payout.
	ctx := context.Background()
	creditWithRetry(ctx, s.ledger.Deposit, s.chatID, s.player.UserID, payout)
	s.stats.Record(ctx, s.chatID, s.player.UserID, outcome, payout)
	s.registry.Release(s.player.UserID)
	s.publishFinal(payout)

	log.Info().
		Str("session_id", s.id).
		Int64("chat_id", s.chatID).
		Int64("user_id", s.player.UserID).
		Str("status", string(status)).
		Int("rounds", s.rounds).
		Int64("payout", payout).
		Msg("Solo session settled")
}

// abortWithRefund terminates before any chamber risk was resolved against
// the player: the full bet goes back exactly once.
func (s *SoloSession) abortWithRefund(cause error) {
	s.status = StatusAborted

	ctx := context.Background()
	creditWithRetry(ctx, s.ledger.Refund, s.chatID, s.player.UserID, s.player.Bet)
	s.registry.Release(s.player.UserID)
	s.publishFinal(0)

	log.Info().
		Str("session_id", s.id).
		Int64("chat_id", s.chatID).
		Int64("user_id", s.player.UserID).
		AnErr("cause", cause).
		Msg("Solo session aborted, bet refunded")
}

func (s *SoloSession) weaponSelectSeconds() int {
	return int(s.cfg.WeaponSelect.Seconds())
}

func (s *SoloSession) reject(a Action, reason error) {
	s.notifier.Reject(a.UserID, reason)
}

func (s *SoloSession) tick(remaining time.Duration) {
	s.publish(int(remaining.Seconds()))
}

func (s *SoloSession) publish(secondsLeft int) {
	s.notifier.Update(s.snapshot(secondsLeft, 0))
}

func (s *SoloSession) publishFinal(payout int64) {
	s.notifier.Update(s.snapshot(0, payout))
}

func (s *SoloSession) snapshot(secondsLeft int, payout int64) Snapshot {
	snap := Snapshot{
		SessionID:      s.id,
		ChatID:         s.chatID,
		Mode:           ModeSolo,
		Status:         s.status,
		Participants:   []Participant{s.player},
		RoundsSurvived: s.rounds,
		RewardPerRound: s.reward,
		Bet:            s.player.Bet,
		SecondsLeft:    secondsLeft,
		Payout:         payout,
	}
	switch s.status {
	case StatusSelectingWeapon:
		snap.TurnUserID = s.player.UserID
		snap.Choices = []ActionKind{ActionSelectWeapon}
	case StatusPlayerTurn:
		weapon := s.weapon
		snap.Weapon = &weapon
		snap.ChambersLeft = s.cylinder.Remaining()
		snap.TurnUserID = s.player.UserID
		if s.cylinder.Exhausted() {
			// Draws past exhaustion are denied; cashing out is
			// the only move left.
			snap.Choices = []ActionKind{ActionCashOut}
		} else if s.rounds == 0 {
			snap.Choices = []ActionKind{ActionDraw}
		} else {
			snap.Choices = []ActionKind{ActionDraw, ActionCashOut}
		}
	default:
		if s.weapon.Chambers > 0 {
			weapon := s.weapon
			snap.Weapon = &weapon
			snap.ChambersLeft = s.cylinder.Remaining()
		}
	}
	return snap
}
