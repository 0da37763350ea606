package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"roulette-game-bot/internal/model"
)

// ChipRepository handles chat-local chip balances. Chips live in a
// (chat_id, user_id) keyed table, fully separate from the coin balance
// on users.
type ChipRepository struct {
	pool *pgxpool.Pool
}

// NewChipRepository creates a new ChipRepository instance.
func NewChipRepository(pool *pgxpool.Pool) *ChipRepository {
	return &ChipRepository{pool: pool}
}

// GetOrCreate retrieves a user's chip balance in a chat, seeding a new row
// with the given initial amount when none exists. The upsert keeps
// concurrent first-touches from racing each other.
func (r *ChipRepository) GetOrCreate(ctx context.Context, chatID, userID int64, initial int64) (*model.ChipBalance, error) {
	const query = `
		INSERT INTO chat_chips (chat_id, user_id, balance, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (chat_id, user_id) DO UPDATE SET chat_id = chat_chips.chat_id
		RETURNING chat_id, user_id, balance, updated_at
	`

	var cb model.ChipBalance
	err := r.pool.QueryRow(ctx, query, chatID, userID, initial).Scan(
		&cb.ChatID,
		&cb.UserID,
		&cb.Balance,
		&cb.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create chip balance: %w", err)
	}

	return &cb, nil
}

// Get retrieves a user's chip balance in a chat.
// Returns ErrUserNotFound if no row exists.
func (r *ChipRepository) Get(ctx context.Context, chatID, userID int64) (*model.ChipBalance, error) {
	const query = `
		SELECT chat_id, user_id, balance, updated_at
		FROM chat_chips
		WHERE chat_id = $1 AND user_id = $2
	`

	var cb model.ChipBalance
	err := r.pool.QueryRow(ctx, query, chatID, userID).Scan(
		&cb.ChatID,
		&cb.UserID,
		&cb.Balance,
		&cb.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get chip balance: %w", err)
	}

	return &cb, nil
}

// Add credits chips to a user's balance in a chat, creating the row on
// first touch.
func (r *ChipRepository) Add(ctx context.Context, chatID, userID int64, amount int64) (*model.ChipBalance, error) {
	const query = `
		INSERT INTO chat_chips (chat_id, user_id, balance, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (chat_id, user_id)
		DO UPDATE SET balance = chat_chips.balance + $3, updated_at = NOW()
		RETURNING chat_id, user_id, balance, updated_at
	`

	var cb model.ChipBalance
	err := r.pool.QueryRow(ctx, query, chatID, userID, amount).Scan(
		&cb.ChatID,
		&cb.UserID,
		&cb.Balance,
		&cb.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add chips: %w", err)
	}

	return &cb, nil
}

// Withdraw atomically subtracts amount from a user's chip balance in a
// chat, but only when the balance covers it. Returns ErrInsufficientBalance
// otherwise; a missing row reads as a zero balance.
func (r *ChipRepository) Withdraw(ctx context.Context, chatID, userID int64, amount int64) (*model.ChipBalance, error) {
	const query = `
		UPDATE chat_chips
		SET balance = balance - $3, updated_at = NOW()
		WHERE chat_id = $1 AND user_id = $2 AND balance >= $3
		RETURNING chat_id, user_id, balance, updated_at
	`

	var cb model.ChipBalance
	err := r.pool.QueryRow(ctx, query, chatID, userID, amount).Scan(
		&cb.ChatID,
		&cb.UserID,
		&cb.Balance,
		&cb.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInsufficientBalance
		}
		return nil, fmt.Errorf("failed to withdraw chips: %w", err)
	}

	return &cb, nil
}

// GetTopByChat retrieves the top N chip holders in a chat.
func (r *ChipRepository) GetTopByChat(ctx context.Context, chatID int64, limit int) ([]*model.ChipBalance, error) {
	const query = `
		SELECT chat_id, user_id, balance, updated_at
		FROM chat_chips
		WHERE chat_id = $1
		ORDER BY balance DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top chip holders: %w", err)
	}
	defer rows.Close()

	var balances []*model.ChipBalance
	for rows.Next() {
		var cb model.ChipBalance
		err := rows.Scan(
			&cb.ChatID,
			&cb.UserID,
			&cb.Balance,
			&cb.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chip balance: %w", err)
		}
		balances = append(balances, &cb)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chip balances: %w", err)
	}

	return balances, nil
}
