// Package main is the entry point for the roulette game bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"roulette-game-bot/internal/bot"
	"roulette-game-bot/internal/config"
	"roulette-game-bot/internal/ledger"
	"roulette-game-bot/internal/pkg/db"
	"roulette-game-bot/internal/pkg/lock"
	"roulette-game-bot/internal/repository"
	"roulette-game-bot/internal/roulette"
	"roulette-game-bot/internal/service"
)

// shutdownTimeout bounds how long live sessions get to run their refund
// paths after a termination signal.
const shutdownTimeout = 10 * time.Second

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Run database migrations
	if err := runMigrations(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(dbPool.Pool)
	txRepo := repository.NewTransactionRepository(dbPool.Pool)
	chipRepo := repository.NewChipRepository(dbPool.Pool)
	statsRepo := repository.NewStatsRepository(dbPool.Pool)

	// Initialize services
	accountService := service.NewAccountService(
		userRepo,
		txRepo,
		cfg.Daily.Reward,
		cfg.Daily.CooldownHours,
	)
	transferService := service.NewTransferService(userRepo, txRepo)
	rankingService := service.NewRankingService(userRepo, txRepo, time.Local)
	statsService := service.NewStatsService(statsRepo, userRepo)

	// Initialize user lock
	userLock := lock.NewUserLock()

	// Initialize the roulette session engine
	coinLedger := ledger.NewCoinLedger(userRepo, txRepo)
	manager := roulette.NewManager(roulette.Config{
		MinBet:       cfg.Roulette.MinBet,
		MaxBet:       cfg.Roulette.MaxBet,
		WeaponSelect: time.Duration(cfg.Roulette.WeaponSelectSeconds) * time.Second,
		Accept:       time.Duration(cfg.Roulette.AcceptSeconds) * time.Second,
		Turn:         time.Duration(cfg.Roulette.TurnSeconds) * time.Second,
		Tick:         time.Duration(cfg.Roulette.TickSeconds) * time.Second,
	}, roulette.NewRegistry(), statsService)

	// Create bot dependencies
	deps := &bot.Dependencies{
		Config:          cfg,
		AccountService:  accountService,
		TransferService: transferService,
		RankingService:  rankingService,
		StatsService:    statsService,
		RouletteManager: manager,
		CoinLedger:      coinLedger,
		ChipRepo:        chipRepo,
		UserLock:        userLock,
	}

	// Initialize bot
	telegramBot, err := bot.New(deps)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start bot in a goroutine
	go func() {
		log.Info().Msg("Bot is starting...")
		telegramBot.Start()
	}()

	// Wait for shutdown signal
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	// Abort live sessions first so their refund paths run before the
	// pool closes.
	manager.Shutdown(shutdownTimeout)
	telegramBot.Stop()
	log.Info().Msg("Bot stopped gracefully")
}

// runMigrations executes database migrations.
func runMigrations(ctx context.Context, pool *db.Pool) error {
	log.Info().Msg("Running database migrations...")

	// Migration 1: Create users table
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			telegram_id BIGINT PRIMARY KEY,
			username VARCHAR(255) NOT NULL,
			balance BIGINT NOT NULL DEFAULT 1000,
			last_daily_claim BIGINT DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_users_balance ON users(balance DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 1: users table created")

	// Migration 2: Create transactions table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS transactions (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(telegram_id) ON DELETE CASCADE,
			amount BIGINT NOT NULL,
			type VARCHAR(50) NOT NULL,
			description TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_transactions_user_time ON transactions(user_id, created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_transactions_type_time ON transactions(type, created_at DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 2: transactions table created")

	// Migration 3: Create chat-local chip balances
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS chat_chips (
			chat_id BIGINT NOT NULL,
			user_id BIGINT NOT NULL,
			balance BIGINT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (chat_id, user_id)
		);
		CREATE INDEX IF NOT EXISTS idx_chat_chips_balance ON chat_chips(chat_id, balance DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 3: chat_chips table created")

	// Migration 4: Create per-chat player outcome aggregates
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS player_stats (
			chat_id BIGINT NOT NULL,
			user_id BIGINT NOT NULL,
			username VARCHAR(255) NOT NULL DEFAULT '',
			wins BIGINT NOT NULL DEFAULT 0,
			deaths BIGINT NOT NULL DEFAULT 0,
			chickens BIGINT NOT NULL DEFAULT 0,
			challenges BIGINT NOT NULL DEFAULT 0,
			rejections BIGINT NOT NULL DEFAULT 0,
			net_amount BIGINT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (chat_id, user_id)
		);
		CREATE INDEX IF NOT EXISTS idx_player_stats_wins ON player_stats(chat_id, wins DESC);
		CREATE INDEX IF NOT EXISTS idx_player_stats_net ON player_stats(chat_id, net_amount DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 4: player_stats table created")

	log.Info().Msg("All migrations completed successfully")
	return nil
}
