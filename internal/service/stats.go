package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"roulette-game-bot/internal/model"
	"roulette-game-bot/internal/repository"
	"roulette-game-bot/internal/roulette"
)

// outcomeColumns maps a recordable outcome to its player_stats counter.
var outcomeColumns = map[roulette.Outcome]string{
	roulette.OutcomeWin:       repository.StatColumnWins,
	roulette.OutcomeDeath:     repository.StatColumnDeaths,
	roulette.OutcomeChicken:   repository.StatColumnChickens,
	roulette.OutcomeChallenge: repository.StatColumnChallenges,
	roulette.OutcomeRejection: repository.StatColumnRejections,
}

// StatsService aggregates per-chat player outcomes and serves leaderboard
// queries over them. Record is the session engine's fire-and-forget sink:
// it must never fail the game, so every error stops here in the log.
type StatsService struct {
	statsRepo *repository.StatsRepository
	userRepo  *repository.UserRepository
}

// NewStatsService creates a new StatsService instance.
func NewStatsService(statsRepo *repository.StatsRepository, userRepo *repository.UserRepository) *StatsService {
	return &StatsService{statsRepo: statsRepo, userRepo: userRepo}
}

// Record persists one outcome for a user in a chat. The amount is the
// credited payout; the user's escrowed bet has already been booked as a
// withdrawal, so wins carry the gross payout and losses carry zero.
func (s *StatsService) Record(ctx context.Context, chatID, userID int64, outcome roulette.Outcome, amount int64) {
	column, ok := outcomeColumns[outcome]
	if !ok {
		log.Error().
			Int64("chat_id", chatID).
			Int64("user_id", userID).
			Str("outcome", string(outcome)).
			Msg("Unknown outcome, not recorded")
		return
	}

	username := s.lookupUsername(ctx, userID)
	if err := s.statsRepo.Increment(ctx, chatID, userID, username, column, amount); err != nil {
		log.Error().
			Err(err).
			Int64("chat_id", chatID).
			Int64("user_id", userID).
			Str("outcome", string(outcome)).
			Msg("Failed to record outcome")
	}
}

// GetPlayerStats retrieves a user's aggregate in a chat. A user with no
// recorded outcomes gets a zeroed aggregate instead of an error.
func (s *StatsService) GetPlayerStats(ctx context.Context, chatID, userID int64) (*model.PlayerStats, error) {
	ps, err := s.statsRepo.Get(ctx, chatID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return &model.PlayerStats{
				ChatID:   chatID,
				UserID:   userID,
				Username: s.lookupUsername(ctx, userID),
			}, nil
		}
		return nil, err
	}
	return ps, nil
}

// GetTopSurvivors retrieves the chat's top players by wins.
func (s *StatsService) GetTopSurvivors(ctx context.Context, chatID int64, limit int) ([]*model.PlayerStats, error) {
	return s.statsRepo.GetTopBy(ctx, chatID, repository.StatColumnWins, limit)
}

// GetTopDeaths retrieves the chat's most frequently eliminated players.
func (s *StatsService) GetTopDeaths(ctx context.Context, chatID int64, limit int) ([]*model.PlayerStats, error) {
	return s.statsRepo.GetTopBy(ctx, chatID, repository.StatColumnDeaths, limit)
}

// GetTopEarners retrieves the chat's top players by net credited amount.
func (s *StatsService) GetTopEarners(ctx context.Context, chatID int64, limit int) ([]*model.PlayerStats, error) {
	return s.statsRepo.GetTopBy(ctx, chatID, repository.StatColumnNetAmount, limit)
}

func (s *StatsService) lookupUsername(ctx context.Context, userID int64) string {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return ""
	}
	return user.Username
}
