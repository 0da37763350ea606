package handler

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"roulette-game-bot/internal/model"
	"roulette-game-bot/internal/pkg/lock"
	"roulette-game-bot/internal/service"
)

// AdminHandler handles admin-related commands.
type AdminHandler struct {
	accountService *service.AccountService
	userLock       *lock.UserLock
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(accountService *service.AccountService, userLock *lock.UserLock) *AdminHandler {
	return &AdminHandler{
		accountService: accountService,
		userLock:       userLock,
	}
}

// HandleAdminAdd handles the /admin_add command.
// Format: /admin_add <user_id> <amount>
func (h *AdminHandler) HandleAdminAdd(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	targetID, amount, err := h.parseAdminArgs(c)
	if err != nil {
		return c.Reply(err.Error())
	}

	if amount <= 0 {
		return c.Reply("❌ Amount must be greater than 0")
	}

	h.userLock.Lock(targetID)
	defer h.userLock.Unlock(targetID)

	desc := fmt.Sprintf("added by admin %d", sender.ID)
	user, err := h.accountService.UpdateBalance(ctx, targetID, amount, model.TxTypeAdminAdd, &desc)
	if err != nil {
		return c.Reply("❌ Operation failed, the user may not exist")
	}

	log.Info().
		Int64("admin_id", sender.ID).
		Int64("target_id", targetID).
		Int64("amount", amount).
		Str("operation", "admin_add").
		Msg("Admin operation executed")

	name := user.Username
	if name == "" {
		name = fmt.Sprintf("%d", targetID)
	}

	return c.Reply(fmt.Sprintf(
		"✅ Done\n\n"+
			"👤 User: %s (ID: %d)\n"+
			"➕ Added: %d coins\n"+
			"💰 New balance: %d coins",
		name, targetID, amount, user.Balance,
	))
}

// HandleAdminSub handles the /admin_sub command.
// Format: /admin_sub <user_id> <amount>
func (h *AdminHandler) HandleAdminSub(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	targetID, amount, err := h.parseAdminArgs(c)
	if err != nil {
		return c.Reply(err.Error())
	}

	if amount <= 0 {
		return c.Reply("❌ Amount must be greater than 0")
	}

	h.userLock.Lock(targetID)
	defer h.userLock.Unlock(targetID)

	desc := fmt.Sprintf("deducted by admin %d", sender.ID)
	user, err := h.accountService.UpdateBalance(ctx, targetID, -amount, model.TxTypeAdminSub, &desc)
	if err != nil {
		return c.Reply("❌ Operation failed, the user may not exist")
	}

	log.Info().
		Int64("admin_id", sender.ID).
		Int64("target_id", targetID).
		Int64("amount", amount).
		Str("operation", "admin_sub").
		Msg("Admin operation executed")

	name := user.Username
	if name == "" {
		name = fmt.Sprintf("%d", targetID)
	}

	return c.Reply(fmt.Sprintf(
		"✅ Done\n\n"+
			"👤 User: %s (ID: %d)\n"+
			"➖ Deducted: %d coins\n"+
			"💰 New balance: %d coins",
		name, targetID, amount, user.Balance,
	))
}

// HandleAdminSet handles the /admin_set command.
// Format: /admin_set <user_id> <amount>
func (h *AdminHandler) HandleAdminSet(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	targetID, newBalance, err := h.parseAdminArgs(c)
	if err != nil {
		return c.Reply(err.Error())
	}

	if newBalance < 0 {
		return c.Reply("❌ Balance cannot be negative")
	}

	h.userLock.Lock(targetID)
	defer h.userLock.Unlock(targetID)

	currentBalance, err := h.accountService.GetBalance(ctx, targetID)
	if err != nil {
		return c.Reply("❌ User not found")
	}

	diff := newBalance - currentBalance
	desc := fmt.Sprintf("set by admin %d", sender.ID)
	user, err := h.accountService.UpdateBalance(ctx, targetID, diff, model.TxTypeAdminSet, &desc)
	if err != nil {
		return c.Reply("❌ Operation failed, please try again")
	}

	log.Info().
		Int64("admin_id", sender.ID).
		Int64("target_id", targetID).
		Int64("old_balance", currentBalance).
		Int64("new_balance", newBalance).
		Str("operation", "admin_set").
		Msg("Admin operation executed")

	name := user.Username
	if name == "" {
		name = fmt.Sprintf("%d", targetID)
	}

	return c.Reply(fmt.Sprintf(
		"✅ Done\n\n"+
			"👤 User: %s (ID: %d)\n"+
			"📝 Old balance: %d coins\n"+
			"💰 New balance: %d coins",
		name, targetID, currentBalance, user.Balance,
	))
}

// parseAdminArgs parses admin command arguments.
// Format: <user_id> <amount>
func (h *AdminHandler) parseAdminArgs(c tele.Context) (int64, int64, error) {
	args := c.Args()
	if len(args) < 2 {
		return 0, 0, fmt.Errorf("❌ Usage: /admin_add <user_id> <amount>\nExample: /admin_add 123456789 100")
	}

	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("❌ User ID must be numeric")
	}

	amount, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("❌ Amount must be an integer")
	}

	return targetID, amount, nil
}

// HandleAdminGiftAll handles the /admin_gift_all command.
// Format: /admin_gift_all <amount>
// Adds the specified amount to every user's balance.
func (h *AdminHandler) HandleAdminGiftAll(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	args := c.Args()
	if len(args) < 1 {
		return c.Reply("❌ Usage: /admin_gift_all <amount>\nExample: /admin_gift_all 100")
	}

	amount, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || amount <= 0 {
		return c.Reply("❌ Amount must be a positive integer")
	}

	count, err := h.accountService.AddBalanceToAllUsers(ctx, amount)
	if err != nil {
		return c.Reply("❌ Operation failed, please try again")
	}

	log.Info().
		Int64("admin_id", sender.ID).
		Int64("amount", amount).
		Int64("user_count", count).
		Str("operation", "admin_gift_all").
		Msg("Admin gift all operation executed")

	return c.Reply(fmt.Sprintf(
		"✅ Gift sent\n\n"+
			"🎁 Amount: %d coins\n"+
			"👥 Recipients: %d users",
		amount, count,
	))
}
