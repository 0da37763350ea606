// Package bot provides the Telegram bot initialization and handler registration.
package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"roulette-game-bot/internal/config"
	"roulette-game-bot/internal/handler"
	"roulette-game-bot/internal/ledger"
	"roulette-game-bot/internal/pkg/lock"
	"roulette-game-bot/internal/repository"
	"roulette-game-bot/internal/roulette"
	"roulette-game-bot/internal/service"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot *tele.Bot
	cfg *config.Config

	accountHandler  *handler.AccountHandler
	transferHandler *handler.TransferHandler
	adminHandler    *handler.AdminHandler
	rankingHandler  *handler.RankingHandler
	rouletteHandler *handler.RouletteHandler
}

// Dependencies holds everything the bot handlers need.
type Dependencies struct {
	Config          *config.Config
	AccountService  *service.AccountService
	TransferService *service.TransferService
	RankingService  *service.RankingService
	StatsService    *service.StatsService
	RouletteManager *roulette.Manager
	CoinLedger      *ledger.CoinLedger
	ChipRepo        *repository.ChipRepository
	UserLock        *lock.UserLock
}

// New creates a new Bot instance with the given dependencies.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		bot: teleBot,
		cfg: deps.Config,
	}

	b.accountHandler = handler.NewAccountHandler(deps.AccountService, deps.RankingService, deps.UserLock)
	b.transferHandler = handler.NewTransferHandler(deps.AccountService, deps.TransferService, deps.UserLock)
	b.adminHandler = handler.NewAdminHandler(deps.AccountService, deps.UserLock)
	b.rankingHandler = handler.NewRankingHandler(deps.RankingService, deps.StatsService)
	b.rouletteHandler = handler.NewRouletteHandler(deps.Config, deps.RouletteManager, deps.AccountService, deps.CoinLedger, deps.ChipRepo)

	b.registerMiddleware()
	b.registerHandlers()

	return b, nil
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware() {
	b.bot.Use(WhitelistMiddleware(b.cfg))
	b.bot.Use(LoggingMiddleware())
}

// registerHandlers registers all command and callback handlers.
func (b *Bot) registerHandlers() {
	// Account handlers
	b.bot.Handle("/start", b.accountHandler.HandleStart)
	b.bot.Handle("/balance", b.accountHandler.HandleBalance)
	b.bot.Handle("/my", b.accountHandler.HandleMy)
	b.bot.Handle("/daily", b.accountHandler.HandleDaily)
	b.bot.Handle("/top", b.accountHandler.HandleTop)

	// Transfer handler
	b.bot.Handle("/pay", b.transferHandler.HandlePay)

	// Admin handlers (with admin middleware)
	adminGroup := b.bot.Group()
	adminGroup.Use(AdminMiddleware(b.cfg))
	adminGroup.Handle("/admin_add", b.adminHandler.HandleAdminAdd)
	adminGroup.Handle("/admin_sub", b.adminHandler.HandleAdminSub)
	adminGroup.Handle("/admin_set", b.adminHandler.HandleAdminSet)
	adminGroup.Handle("/admin_gift_all", b.adminHandler.HandleAdminGiftAll)

	// Ranking handlers
	b.bot.Handle("/daily_top", b.rankingHandler.HandleDailyTop)
	b.bot.Handle("/stats", b.rankingHandler.HandleStats)
	b.bot.Handle("/leaderboard", b.rankingHandler.HandleLeaderboard)

	// Roulette handlers
	b.bot.Handle("/roulette", b.rouletteHandler.HandleRoulette)
	b.bot.Handle("/challenge", b.rouletteHandler.HandleChallenge)

	// Generic callback handler for roulette buttons
	b.bot.Handle(tele.OnCallback, b.handleCallback)
}

// handleCallback routes callbacks to appropriate handlers.
func (b *Bot) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		return nil
	}

	data := callback.Data
	// Telebot v3 may add a \f prefix to callback data
	data = strings.TrimPrefix(data, "\f")

	if strings.HasPrefix(data, "roul_") {
		return b.rouletteHandler.HandleRouletteCallback(c)
	}

	log.Debug().Str("data", data).Msg("Unrouted callback")
	return c.Respond(&tele.CallbackResponse{})
}

// Start starts the bot polling.
func (b *Bot) Start() {
	log.Info().Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}

// GetBot returns the underlying telebot instance.
func (b *Bot) GetBot() *tele.Bot {
	return b.bot
}
