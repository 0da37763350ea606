package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"roulette-game-bot/internal/pkg/lock"
	"roulette-game-bot/internal/service"
)

// TransferHandler handles transfer-related commands.
type TransferHandler struct {
	accountService  *service.AccountService
	transferService *service.TransferService
	userLock        *lock.UserLock
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(
	accountService *service.AccountService,
	transferService *service.TransferService,
	userLock *lock.UserLock,
) *TransferHandler {
	return &TransferHandler{
		accountService:  accountService,
		transferService: transferService,
		userLock:        userLock,
	}
}

// HandlePay handles the /pay command.
// Format: /pay @username <amount>, or /pay <amount> as a reply to the
// recipient's message.
func (h *TransferHandler) HandlePay(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	args := c.Args()

	// /pay <amount> replying to the recipient
	if len(args) == 1 && c.Message() != nil && c.Message().ReplyTo != nil {
		return h.handlePayReply(c)
	}

	if len(args) < 2 {
		return c.Reply("❌ Usage: /pay @username <amount>\nExample: /pay @alice 100")
	}

	targetStr := args[0]
	if !strings.HasPrefix(targetStr, "@") {
		return c.Reply("❌ Name the recipient as @username")
	}
	targetUsername := strings.TrimPrefix(targetStr, "@")

	amount, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return c.Reply("❌ Amount must be a positive integer")
	}
	if amount <= 0 {
		return c.Reply("❌ Amount must be greater than 0")
	}

	// Resolve the recipient from message mentions or the replied-to
	// message. Telegram offers no username lookup, so an unseen user
	// cannot be resolved.
	var targetID int64
	if c.Message() != nil && len(c.Message().Entities) > 0 {
		for _, entity := range c.Message().Entities {
			if entity.Type == tele.EntityMention && entity.User != nil {
				if entity.User.Username == targetUsername {
					targetID = entity.User.ID
					break
				}
			}
		}
	}
	if targetID == 0 && c.Message() != nil && c.Message().ReplyTo != nil {
		replyUser := c.Message().ReplyTo.Sender
		if replyUser != nil && replyUser.Username == targetUsername {
			targetID = replyUser.ID
		}
	}
	if targetID == 0 {
		return c.Reply("❌ Could not find @" + targetUsername + "\nMake sure they have used this bot, or reply to their message instead")
	}

	if sender.ID == targetID {
		return c.Reply("❌ You cannot pay yourself")
	}

	if _, _, err := h.accountService.EnsureUser(ctx, sender.ID, displayName(sender)); err != nil {
		return c.Reply("❌ Something went wrong, please try again")
	}

	h.userLock.Lock(sender.ID)
	defer h.userLock.Unlock(sender.ID)

	return h.execute(ctx, c, sender.ID, targetID, targetUsername, amount)
}

// handlePayReply handles /pay <amount> sent as a reply to the recipient.
func (h *TransferHandler) handlePayReply(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()

	replyTo := c.Message().ReplyTo
	if replyTo.Sender == nil {
		return c.Reply("❌ Could not identify the recipient")
	}

	targetID := replyTo.Sender.ID
	targetUsername := displayName(replyTo.Sender)

	args := c.Args()
	amount, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return c.Reply("❌ Amount must be a positive integer")
	}
	if amount <= 0 {
		return c.Reply("❌ Amount must be greater than 0")
	}

	if sender.ID == targetID {
		return c.Reply("❌ You cannot pay yourself")
	}

	if _, _, err := h.accountService.EnsureUser(ctx, sender.ID, displayName(sender)); err != nil {
		return c.Reply("❌ Something went wrong, please try again")
	}

	h.userLock.Lock(sender.ID)
	defer h.userLock.Unlock(sender.ID)

	return h.execute(ctx, c, sender.ID, targetID, targetUsername, amount)
}

// execute runs the transfer and renders the outcome. Callers hold the
// sender's lock.
func (h *TransferHandler) execute(ctx context.Context, c tele.Context, fromID, toID int64, targetUsername string, amount int64) error {
	err := h.transferService.Transfer(ctx, fromID, toID, amount)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInsufficientBalance):
			return c.Reply("❌ Insufficient balance")
		case errors.Is(err, service.ErrInvalidAmount):
			return c.Reply("❌ Amount must be greater than 0")
		case errors.Is(err, service.ErrSelfTransfer):
			return c.Reply("❌ You cannot pay yourself")
		case errors.Is(err, service.ErrUserNotFound):
			return c.Reply("❌ Recipient not found, make sure they have used this bot")
		default:
			return c.Reply("❌ Transfer failed, please try again")
		}
	}

	newBalance, _ := h.accountService.GetBalance(ctx, fromID)

	return c.Reply(fmt.Sprintf(
		"✅ Transfer complete!\n\n"+
			"💸 Sent %d coins to @%s\n"+
			"💰 Current balance: %d coins",
		amount, targetUsername, newBalance,
	))
}
