package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"roulette-game-bot/internal/model"
)

// ErrUnknownStatColumn is returned when a stats query names a counter that
// is not part of the fixed player_stats column set.
var ErrUnknownStatColumn = errors.New("unknown stat column")

// Stat counter columns on player_stats. Queries interpolate column names,
// so every caller-supplied column goes through this whitelist first.
const (
	StatColumnWins       = "wins"
	StatColumnDeaths     = "deaths"
	StatColumnChickens   = "chickens"
	StatColumnChallenges = "challenges"
	StatColumnRejections = "rejections"
	StatColumnNetAmount  = "net_amount"
)

var statColumns = map[string]struct{}{
	StatColumnWins:       {},
	StatColumnDeaths:     {},
	StatColumnChickens:   {},
	StatColumnChallenges: {},
	StatColumnRejections: {},
	StatColumnNetAmount:  {},
}

// StatsRepository handles per-chat player outcome aggregates.
type StatsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository creates a new StatsRepository instance.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

// Increment bumps one outcome counter for a user in a chat by one and
// adjusts the running net amount, creating the row on first touch. A
// non-empty username refreshes the stored one so leaderboards show current
// names.
func (r *StatsRepository) Increment(ctx context.Context, chatID, userID int64, username, column string, netDelta int64) error {
	if _, ok := statColumns[column]; !ok || column == StatColumnNetAmount {
		return fmt.Errorf("%w: %s", ErrUnknownStatColumn, column)
	}

	query := fmt.Sprintf(`
		INSERT INTO player_stats (chat_id, user_id, username, %[1]s, net_amount, updated_at)
		VALUES ($1, $2, $3, 1, $4, NOW())
		ON CONFLICT (chat_id, user_id)
		DO UPDATE SET %[1]s = player_stats.%[1]s + 1,
		              net_amount = player_stats.net_amount + $4,
		              username = CASE WHEN $3 <> '' THEN $3 ELSE player_stats.username END,
		              updated_at = NOW()
	`, column)

	if _, err := r.pool.Exec(ctx, query, chatID, userID, username, netDelta); err != nil {
		return fmt.Errorf("failed to increment stat %s: %w", column, err)
	}

	return nil
}

// Get retrieves a user's aggregate in a chat.
// Returns ErrUserNotFound if the user has no recorded outcomes there.
func (r *StatsRepository) Get(ctx context.Context, chatID, userID int64) (*model.PlayerStats, error) {
	const query = `
		SELECT chat_id, user_id, username, wins, deaths, chickens, challenges, rejections, net_amount, updated_at
		FROM player_stats
		WHERE chat_id = $1 AND user_id = $2
	`

	var ps model.PlayerStats
	err := r.pool.QueryRow(ctx, query, chatID, userID).Scan(
		&ps.ChatID,
		&ps.UserID,
		&ps.Username,
		&ps.Wins,
		&ps.Deaths,
		&ps.Chickens,
		&ps.Challenges,
		&ps.Rejections,
		&ps.NetAmount,
		&ps.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get player stats: %w", err)
	}

	return &ps, nil
}

// GetTopBy retrieves the top N players in a chat ordered by one counter
// column, descending. The column must be in the fixed whitelist.
func (r *StatsRepository) GetTopBy(ctx context.Context, chatID int64, column string, limit int) ([]*model.PlayerStats, error) {
	if _, ok := statColumns[column]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStatColumn, column)
	}

	query := fmt.Sprintf(`
		SELECT chat_id, user_id, username, wins, deaths, chickens, challenges, rejections, net_amount, updated_at
		FROM player_stats
		WHERE chat_id = $1 AND %[1]s > 0
		ORDER BY %[1]s DESC
		LIMIT $2
	`, column)

	rows, err := r.pool.Query(ctx, query, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top players by %s: %w", column, err)
	}
	defer rows.Close()

	var stats []*model.PlayerStats
	for rows.Next() {
		var ps model.PlayerStats
		err := rows.Scan(
			&ps.ChatID,
			&ps.UserID,
			&ps.Username,
			&ps.Wins,
			&ps.Deaths,
			&ps.Chickens,
			&ps.Challenges,
			&ps.Rejections,
			&ps.NetAmount,
			&ps.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player stats: %w", err)
		}
		stats = append(stats, &ps)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating player stats: %w", err)
	}

	return stats, nil
}
