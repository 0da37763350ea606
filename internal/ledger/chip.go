package ledger

import (
	"context"
	"errors"
	"fmt"

	"roulette-game-bot/internal/repository"
	"roulette-game-bot/internal/roulette"
)

// ChipLedger escrows bets against the chat-local chip balance. Each
// instance is bound to one chat; a user's first touch in that chat seeds
// their row with the configured initial stack. Chips carry no transaction
// history — the transactions table is coin-scoped.
type ChipLedger struct {
	chatID  int64
	initial int64
	chips   *repository.ChipRepository
}

// NewChipLedger creates a ChipLedger for one chat.
func NewChipLedger(chatID, initial int64, chips *repository.ChipRepository) *ChipLedger {
	return &ChipLedger{chatID: chatID, initial: initial, chips: chips}
}

// Withdraw moves amount into escrow. The row is seeded first so a newcomer
// bets out of their initial stack instead of failing on a missing row.
func (l *ChipLedger) Withdraw(ctx context.Context, userID, amount int64) error {
	if _, err := l.chips.GetOrCreate(ctx, l.chatID, userID, l.initial); err != nil {
		return fmt.Errorf("chip withdraw: %w", err)
	}
	_, err := l.chips.Withdraw(ctx, l.chatID, userID, amount)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientBalance) {
			return roulette.ErrInsufficientFunds
		}
		return fmt.Errorf("chip withdraw: %w", err)
	}
	return nil
}

// Deposit credits winnings or a cash-out payout.
func (l *ChipLedger) Deposit(ctx context.Context, userID, amount int64) error {
	if _, err := l.chips.Add(ctx, l.chatID, userID, amount); err != nil {
		return fmt.Errorf("chip deposit: %w", err)
	}
	return nil
}

// Refund returns an escrowed bet from an aborted or never-started game.
func (l *ChipLedger) Refund(ctx context.Context, userID, amount int64) error {
	if _, err := l.chips.Add(ctx, l.chatID, userID, amount); err != nil {
		return fmt.Errorf("chip refund: %w", err)
	}
	return nil
}

// Balance reads the current chip balance, seeding the initial stack on a
// user's first touch in the chat.
func (l *ChipLedger) Balance(ctx context.Context, userID int64) (int64, error) {
	cb, err := l.chips.GetOrCreate(ctx, l.chatID, userID, l.initial)
	if err != nil {
		return 0, fmt.Errorf("chip balance: %w", err)
	}
	return cb.Balance, nil
}
