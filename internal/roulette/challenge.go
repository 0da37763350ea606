package roulette

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
)

// ChallengeSession is the multi-player elimination state machine. An
// initiator escrows a bet and challenges other users; those who accept
// escrow the same bet. Players then take turns drawing from a shared
// cylinder until a single survivor takes the whole pot.
type ChallengeSession struct {
	id        string
	chatID    int64
	initiator Entrant
	targets   []Entrant
	bet       int64

	participants []Participant // active turn order
	eliminated   []Participant
	turn         int
	pot          int64

	weapon   WeaponSpec
	cylinder Cylinder
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

	// Test seams: cylinder construction and starting-turn selection.
	buildCylinder func(WeaponSpec) Cylinder
	pickStart     func(n int) int
}

// ID returns the session id.
func (s *ChallengeSession) ID() string { return s.id }

// Submit feeds a player action into the session.
func (s *ChallengeSession) Submit(a Action) error { return s.in.submit(a) }

// Abort forces the session down its abort path. Every participant with
// funds still in escrow who has not been eliminated is refunded exactly
// once.
func (s *ChallengeSession) Abort() { s.cancel() }

// Done is closed when the session goroutine has fully terminated.
func (s *ChallengeSession) Done() <-chan struct{} { return s.in.done }

// run drives the state machine. Participant admission, eliminations and
// every registry mutation happen on this goroutine only.
func (s *ChallengeSession) run(ctx context.Context) {
	defer close(s.in.done)
	defer s.onFinish()

	if aborted := s.negotiate(ctx); aborted {
		return
	}

	// Fewer than two players means no game: only the initiator ever had
	// funds withdrawn among the non-accepting side, so only accepted
	// participants (the initiator included) are refunded.
	if len(s.participants) < 2 {
		s.abortWithRefunds(nil)
		return
	}

	if aborted := s.selectWeapon(ctx); aborted {
		return
	}

	s.cylinder = s.buildCylinder(s.weapon)
	s.turn = s.pickStart(len(s.participants))
	s.pot = s.bet * int64(len(s.participants))
	s.status = StatusPlayerTurn

	s.playRounds(ctx)
}

// negotiate runs the sequential acceptance phase. It returns true when the
// session terminated (forced abort).
func (s *ChallengeSession) negotiate(ctx context.Context) bool {
	s.status = StatusNegotiating

	for _, target := range s.targets {
		// Users already wagering elsewhere or too broke to cover the
		// bet are skipped without a prompt.
		if s.registry.Active(target.UserID) {
			s.recordRejection(target.UserID)
			continue
		}
		balance, err := s.ledger.Balance(ctx, target.UserID)
		if err != nil || balance < s.bet {
			s.recordRejection(target.UserID)
			continue
		}

		s.publishPrompt(target.UserID, int(s.cfg.Accept.Seconds()),
			[]ActionKind{ActionAccept, ActionDecline})

		act, timedOut, err := awaitDecision(ctx, s.clock, s.cfg.Accept, s.in,
			validateAcceptDecline(target.UserID), s.reject,
			s.tickFor(target.UserID, []ActionKind{ActionAccept, ActionDecline}))
		if err != nil {
			s.abortWithRefunds(err)
			return true
		}
		if timedOut || act.Kind == ActionDecline {
			s.recordRejection(target.UserID)
			continue
		}

		s.admit(ctx, target)
	}
	return false
}

// admit escrows an accepting user's bet and appends them to the turn
// order. Admission to the registry happens before the withdrawal so no
// other session can race the same user in between; a failed withdrawal
// releases the registry slot again and counts as a rejection. A rejection
// here never touches the escrow of players already admitted.
func (s *ChallengeSession) admit(ctx context.Context, target Entrant) {
	if !s.registry.TryAdmit(target.UserID) {
		s.recordRejection(target.UserID)
		return
	}
	if err := s.ledger.Withdraw(ctx, target.UserID, s.bet); err != nil {
		s.registry.Release(target.UserID)
		s.recordRejection(target.UserID)
		return
	}
	s.participants = append(s.participants, Participant{
		UserID:   target.UserID,
		Username: target.Username,
		Bet:      s.bet,
		Active:   true,
	})
}

// selectWeapon lets the initiator pick the weapon. It returns true when
// the session terminated (timeout, invalid negotiation or forced abort all
// refund every accepted participant individually).
func (s *ChallengeSession) selectWeapon(ctx context.Context) bool {
	s.status = StatusSelectingWeapon
	s.publishPrompt(s.initiator.UserID, int(s.cfg.WeaponSelect.Seconds()),
		[]ActionKind{ActionSelectWeapon})

	act, timedOut, err := awaitDecision(ctx, s.clock, s.cfg.WeaponSelect, s.in,
		s.validateWeaponSelect, s.reject,
		s.tickFor(s.initiator.UserID, []ActionKind{ActionSelectWeapon}))
	if err != nil || timedOut {
		s.abortWithRefunds(err)
		return true
	}

	s.weapon, _ = WeaponAt(act.Weapon)
	return false
}

// playRounds runs the turn loop until one participant remains.
func (s *ChallengeSession) playRounds(ctx context.Context) {
	for len(s.participants) > 1 {
		current := s.participants[s.turn]
		s.publishPrompt(current.UserID, int(s.cfg.Turn.Seconds()),
			[]ActionKind{ActionDraw, ActionForfeit})

		act, timedOut, err := awaitDecision(ctx, s.clock, s.cfg.Turn, s.in,
			validateTurnDecision(current.UserID), s.reject,
			s.tickFor(current.UserID, []ActionKind{ActionDraw, ActionForfeit}))
		if err != nil {
			s.abortWithRefunds(err)
			return
		}
		if timedOut || act.Kind == ActionForfeit {
			// A timed-out turn is a forfeit: out of the game, no
			// refund.
			s.eliminate(s.turn, OutcomeChicken)
			continue
		}

		chamber, err := s.cylinder.Draw()
		if err != nil {
			// The live round is always among the undrawn chambers,
			// so the cylinder cannot exhaust without a death first.
			log.Error().
				Str("session_id", s.id).
				Int64("chat_id", s.chatID).
				Msg("Challenge cylinder exhausted without a live draw; rebuilding")
			s.cylinder = s.buildCylinder(s.weapon)
			continue
		}

		if chamber == ChamberLive {
			s.eliminate(s.turn, OutcomeDeath)
			if len(s.participants) > 1 {
				// The one case where the cylinder resets
				// mid-game: a fresh build for the same weapon.
				s.cylinder = s.buildCylinder(s.weapon)
			}
			continue
		}

		// Survived draws keep depleting the same cylinder across
		// turns; no reload, no reshuffle.
		s.turn = (s.turn + 1) % len(s.participants)
	}

	s.finish()
}

// eliminate removes the participant at index from the turn order, releases
// them from the registry and records the outcome. Their escrow stays in
// the pot. The turn index is re-normalized against the shrunken order.
func (s *ChallengeSession) eliminate(index int, outcome Outcome) {
	p := s.participants[index]
	p.Active = false
	s.eliminated = append(s.eliminated, p)
	s.participants = append(s.participants[:index], s.participants[index+1:]...)
	s.registry.Release(p.UserID)
	s.stats.Record(context.Background(), s.chatID, p.UserID, outcome, 0)

	if len(s.participants) > 0 {
		s.turn %= len(s.participants)
	} else {
		s.turn = 0
	}

	log.Info().
		Str("session_id", s.id).
		Int64("chat_id", s.chatID).
		Int64("user_id", p.UserID).
		Str("outcome", string(outcome)).
		Int("remaining", len(s.participants)).
		Msg("Challenge participant eliminated")
}

// finish settles the terminal state: the sole survivor takes the pot. An
// empty participant list cannot be reached through correct sequencing and
// is logged as an anomaly instead of paying anyone.
func (s *ChallengeSession) finish() {
	ctx := context.Background()

	if len(s.participants) != 1 {
		s.status = StatusNoWinner
		s.publishFinal(0)
		log.Error().
			Str("session_id", s.id).
			Int64("chat_id", s.chatID).
			Int("participants", len(s.participants)).
			Msg("Challenge ended with no survivor; this is a bug, not an outcome")
		return
	}

	winner := s.participants[0]
	s.status = StatusWinner
	creditWithRetry(ctx, s.ledger.Deposit, s.chatID, winner.UserID, s.pot)
	s.stats.Record(ctx, s.chatID, winner.UserID, OutcomeWin, s.pot)
	s.registry.Release(winner.UserID)
	s.publishFinal(s.pot)

	log.Info().
		Str("session_id", s.id).
		Int64("chat_id", s.chatID).
		Int64("user_id", winner.UserID).
		Int64("pot", s.pot).
		Msg("Challenge session settled")
}

// abortWithRefunds terminates before or outside regular elimination: every
// accepted participant still in the game gets their own bet back and is
// released. Challenged users who never accepted have nothing in escrow.
func (s *ChallengeSession) abortWithRefunds(cause error) {
	s.status = StatusAborted
	ctx := context.Background()

	for _, p := range s.participants {
		creditWithRetry(ctx, s.ledger.Refund, s.chatID, p.UserID, p.Bet)
		s.registry.Release(p.UserID)
	}
	s.participants = nil
	s.publishFinal(0)

	log.Info().
		Str("session_id", s.id).
		Int64("chat_id", s.chatID).
		AnErr("cause", cause).
		Msg("Challenge session aborted, escrowed bets refunded")
}

func (s *ChallengeSession) recordRejection(userID int64) {
	s.stats.Record(context.Background(), s.chatID, userID, OutcomeRejection, 0)
}

func (s *ChallengeSession) validateWeaponSelect(a Action) error {
	if a.UserID != s.initiator.UserID {
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

func validateAcceptDecline(userID int64) func(Action) error {
	return func(a Action) error {
		if a.UserID != userID {
			return ErrNotYourTurn
		}
		if a.Kind != ActionAccept && a.Kind != ActionDecline {
			return ErrInvalidAction
		}
		return nil
	}
}

func validateTurnDecision(userID int64) func(Action) error {
	return func(a Action) error {
		if a.UserID != userID {
			return ErrNotYourTurn
		}
		if a.Kind != ActionDraw && a.Kind != ActionForfeit {
			return ErrInvalidAction
		}
		return nil
	}
}

func (s *ChallengeSession) reject(a Action, reason error) {
	s.notifier.Reject(a.UserID, reason)
}

func (s *ChallengeSession) tickFor(userID int64, choices []ActionKind) func(time.Duration) {
	return func(remaining time.Duration) {
		s.publishPrompt(userID, int(remaining.Seconds()), choices)
	}
}

func (s *ChallengeSession) publishPrompt(turnUserID int64, secondsLeft int, choices []ActionKind) {
	snap := s.snapshot()
	snap.TurnUserID = turnUserID
	snap.SecondsLeft = secondsLeft
	snap.Choices = choices
	s.notifier.Update(snap)
}

func (s *ChallengeSession) publishFinal(payout int64) {
	snap := s.snapshot()
	snap.Payout = payout
	s.notifier.Update(snap)
}

func (s *ChallengeSession) snapshot() Snapshot {
	snap := Snapshot{
		SessionID:    s.id,
		ChatID:       s.chatID,
		Mode:         ModeChallenge,
		Status:       s.status,
		Participants: append([]Participant(nil), s.participants...),
		Eliminated:   append([]Participant(nil), s.eliminated...),
		Bet:          s.bet,
		Pot:          s.pot,
	}
	if s.weapon.Chambers > 0 {
		weapon := s.weapon
		snap.Weapon = &weapon
		snap.ChambersLeft = s.cylinder.Remaining()
	}
	return snap
}

// defaultPickStart selects a uniformly random starting turn.
func defaultPickStart(n int) int {
	return rand.Intn(n)
}
