// Package ledger adapts persistent balances to the session engine's escrow
// interface. Two currencies exist: platform-wide coins on the users table
// and chat-local chips on chat_chips. A chat plays in exactly one of them,
// chosen by configuration, and the two never convert.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"roulette-game-bot/internal/model"
	"roulette-game-bot/internal/repository"
	"roulette-game-bot/internal/roulette"
)

// CoinLedger escrows bets against the platform-wide coin balance. Every
// movement is booked in the transactions table so daily rankings can be
// computed from the records alone.
type CoinLedger struct {
	users *repository.UserRepository
	txs   *repository.TransactionRepository
}

// NewCoinLedger creates a CoinLedger backed by the given repositories.
func NewCoinLedger(users *repository.UserRepository, txs *repository.TransactionRepository) *CoinLedger {
	return &CoinLedger{users: users, txs: txs}
}

// Withdraw moves amount into escrow. The conditional update either debits
// the full amount or touches nothing.
func (l *CoinLedger) Withdraw(ctx context.Context, userID, amount int64) error {
	_, err := l.users.WithdrawBalance(ctx, userID, amount)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientBalance) {
			return roulette.ErrInsufficientFunds
		}
		return fmt.Errorf("coin withdraw: %w", err)
	}
	l.record(ctx, userID, -amount, model.TxTypeRouletteBet)
	return nil
}

// Deposit credits winnings or a cash-out payout.
func (l *CoinLedger) Deposit(ctx context.Context, userID, amount int64) error {
	if _, err := l.users.UpdateBalance(ctx, userID, amount); err != nil {
		return fmt.Errorf("coin deposit: %w", err)
	}
	l.record(ctx, userID, amount, model.TxTypeRouletteWin)
	return nil
}

// Refund returns an escrowed bet from an aborted or never-started game.
func (l *CoinLedger) Refund(ctx context.Context, userID, amount int64) error {
	if _, err := l.users.UpdateBalance(ctx, userID, amount); err != nil {
		return fmt.Errorf("coin refund: %w", err)
	}
	l.record(ctx, userID, amount, model.TxTypeRouletteBack)
	return nil
}

// Balance reads the current coin balance. A user without an account reads
// as zero rather than an error, so challenge eligibility checks treat them
// as broke instead of failing.
func (l *CoinLedger) Balance(ctx context.Context, userID int64) (int64, error) {
	user, err := l.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("coin balance: %w", err)
	}
	return user.Balance, nil
}

// record books a transaction. The balance has already moved at this point,
// so a failed record is logged for correction rather than unwound.
func (l *CoinLedger) record(ctx context.Context, userID, amount int64, txType string) {
	if _, err := l.txs.Create(ctx, userID, amount, txType, nil); err != nil {
		log.Error().
			Err(err).
			Int64("user_id", userID).
			Int64("amount", amount).
			Str("type", txType).
			Msg("Failed to record transaction")
	}
}
