package roulette

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Mode identifies which state machine drives a session.
type Mode string

// Session modes.
const (
	ModeSolo      Mode = "solo"
	ModeChallenge Mode = "challenge"
)

// Status is the externally visible state of a session.
type Status string

// Session statuses. The resolved_* values are terminal.
const (
	StatusNegotiating     Status = "negotiating_acceptance"
	StatusSelectingWeapon Status = "selecting_weapon"
	StatusPlayerTurn      Status = "player_turn"
	StatusWin             Status = "resolved_win"
	StatusDeath           Status = "resolved_death"
	StatusChicken         Status = "resolved_chicken"
	StatusWinner          Status = "resolved_winner"
	StatusNoWinner        Status = "resolved_no_winner"
	StatusAborted         Status = "aborted"
)

// Outcome is a recordable stat event.
type Outcome string

// Stat outcomes.
const (
	OutcomeWin       Outcome = "win"
	OutcomeDeath     Outcome = "death"
	OutcomeChicken   Outcome = "chicken"
	OutcomeChallenge Outcome = "challenge"
	OutcomeRejection Outcome = "rejection"
)

// Entrant identifies a user entering a session.
type Entrant struct {
	UserID   int64
	Username string
}

// Participant is a player admitted to a session. Eliminated players stay in
// the session history but leave the active turn order.
type Participant struct {
	UserID   int64
	Username string
	Bet      int64
	Active   bool
}

// Ledger is the escrow adapter. Withdraw must be atomic per account and
// return ErrInsufficientFunds without moving money when the balance does
// not cover the amount. Deposit credits winnings; Refund returns escrowed
// bets. Both credit the same balance but book differently.
type Ledger interface {
	Withdraw(ctx context.Context, userID, amount int64) error
	Deposit(ctx context.Context, userID, amount int64) error
	Refund(ctx context.Context, userID, amount int64) error
	Balance(ctx context.Context, userID int64) (int64, error)
}

// StatRecorder receives outcome events. Calls are fire-and-forget: a
// failing recorder must never roll back game state, so implementations log
// and swallow their own errors.
type StatRecorder interface {
	Record(ctx context.Context, chatID, userID int64, outcome Outcome, amount int64)
}

// Notifier renders session state for the players. The engine emits
// immutable snapshots and local rejections; it never reads anything back
// through this interface.
type Notifier interface {
	// Update is called on every externally observable state change,
	// including coarse time-remaining ticks.
	Update(snap Snapshot)

	// Reject reports an action that was refused without a state change,
	// such as acting out of turn.
	Reject(userID int64, reason error)
}

// Config holds the tunable parameters of the session engine.
type Config struct {
	MinBet       int64
	MaxBet       int64
	WeaponSelect time.Duration
	Accept       time.Duration
	Turn         time.Duration
	Tick         time.Duration
}

// creditRetries bounds how often a payout or refund is retried before the
// failure is escalated to the operator log.
const creditRetries = 3

// creditWithRetry pushes a credit that must happen (payout or refund).
// The engine never advances past an unconfirmed monetary operation, and it
// never drops one silently: after the retries are exhausted the failure is
// logged at error level for manual correction.
func creditWithRetry(ctx context.Context, credit func(context.Context, int64, int64) error, chatID, userID, amount int64) error {
	if amount <= 0 {
		return nil
	}
	backoff := 200 * time.Millisecond
	var err error
	for attempt := 0; attempt < creditRetries; attempt++ {
		if err = credit(ctx, userID, amount); err == nil {
			return nil
		}
		time.Sleep(backoff)
		backoff *= 2
	}
	log.Error().
		Err(err).
		Int64("chat_id", chatID).
		Int64("user_id", userID).
		Int64("amount", amount).
		Msg("Credit could not be confirmed after retries; manual correction required")
	return err
}
