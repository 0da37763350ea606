// Package handler provides Telegram bot command handlers.
package handler

import (
	"context"
	"fmt"

	tele "gopkg.in/telebot.v3"

	"roulette-game-bot/internal/pkg/lock"
	"roulette-game-bot/internal/service"
)

// AccountHandler handles account-related commands.
type AccountHandler struct {
	accountService *service.AccountService
	rankingService *service.RankingService
	userLock       *lock.UserLock
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountService *service.AccountService, rankingService *service.RankingService, userLock *lock.UserLock) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		rankingService: rankingService,
		userLock:       userLock,
	}
}

// HandleStart handles the /start command.
// Creates a new account with the initial coin balance if needed.
func (h *AccountHandler) HandleStart(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	username := displayName(sender)

	h.userLock.Lock(sender.ID)
	defer h.userLock.Unlock(sender.ID)

	user, created, err := h.accountService.EnsureUser(ctx, sender.ID, username)
	if err != nil {
		return c.Reply("❌ Failed to create account, please try again")
	}

	if created {
		return c.Reply(fmt.Sprintf(
			"🎉 Welcome @%s!\n\n"+
				"Your account is ready, starting balance: %d\n\n"+
				"Commands:\n"+
				"/balance - show balance\n"+
				"/daily - claim daily reward\n"+
				"/top - richest players\n"+
				"/roulette <bet> - solo roulette\n"+
				"/challenge <bet> @user - challenge players\n"+
				"/stats - your roulette record\n"+
				"/pay @user <amount> - transfer coins",
			username, user.Balance,
		))
	}

	return c.Reply(fmt.Sprintf(
		"👋 Welcome back @%s!\n\nCurrent balance: %d coins",
		username, user.Balance,
	))
}

// HandleBalance handles the /balance command.
func (h *AccountHandler) HandleBalance(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	balance, err := h.accountService.GetBalance(ctx, sender.ID)
	if err != nil {
		// User might not exist yet, try to create
		user, _, err := h.accountService.EnsureUser(ctx, sender.ID, displayName(sender))
		if err != nil {
			return c.Reply("❌ Failed to fetch balance, please try again")
		}
		balance = user.Balance
	}

	return c.Reply(fmt.Sprintf("💰 Current balance: %d coins", balance))
}

// HandleMy handles the /my command.
// Displays the user's account information.
func (h *AccountHandler) HandleMy(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	user, err := h.accountService.GetUser(ctx, sender.ID)
	if err != nil {
		// User might not exist yet, try to create
		user, _, err = h.accountService.EnsureUser(ctx, sender.ID, displayName(sender))
		if err != nil {
			return c.Reply("❌ Failed to fetch account, please try again")
		}
	}

	dailyProfit, _ := h.rankingService.GetUserDailyProfit(ctx, sender.ID)

	profitStr := fmt.Sprintf("%d", dailyProfit)
	if dailyProfit > 0 {
		profitStr = "+" + profitStr
	}

	return c.Reply(fmt.Sprintf(
		"📊 Account\n"+
			"━━━━━━━━━━━━━━━\n"+
			"👤 User: @%s\n"+
			"💰 Balance: %d coins\n"+
			"📈 Today's net: %s\n"+
			"━━━━━━━━━━━━━━━",
		user.Username, user.Balance, profitStr,
	))
}

// HandleDaily handles the /daily command.
func (h *AccountHandler) HandleDaily(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	h.userLock.Lock(sender.ID)
	defer h.userLock.Unlock(sender.ID)

	_, _, err := h.accountService.EnsureUser(ctx, sender.ID, displayName(sender))
	if err != nil {
		return c.Reply("❌ Something went wrong, please try again")
	}

	success, msg, err := h.accountService.ClaimDaily(ctx, sender.ID)
	if err != nil {
		return c.Reply("❌ Claim failed, please try again")
	}

	if success {
		return c.Reply(fmt.Sprintf("✅ %s", msg))
	}

	return c.Reply(fmt.Sprintf("⏰ %s", msg))
}

// HandleTop handles the /top command.
// Displays the top 10 users by balance.
func (h *AccountHandler) HandleTop(c tele.Context) error {
	ctx := context.Background()

	users, err := h.rankingService.GetTopUsers(ctx, 10)
	if err != nil {
		return c.Reply("❌ Failed to fetch leaderboard, please try again")
	}

	if len(users) == 0 {
		return c.Reply("📊 No rankings yet")
	}

	msg := "🏆 Richest Players TOP 10\n"
	msg += "━━━━━━━━━━━━━━━\n"

	medals := []string{"🥇", "🥈", "🥉"}
	for i, user := range users {
		rank := fmt.Sprintf("%d.", i+1)
		if i < 3 {
			rank = medals[i]
		}

		name := user.Username
		if name == "" {
			name = fmt.Sprintf("User%d", user.TelegramID)
		}

		msg += fmt.Sprintf("%s @%s: %d\n", rank, name, user.Balance)
	}

	msg += "━━━━━━━━━━━━━━━"

	return c.Reply(msg)
}
