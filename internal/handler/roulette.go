package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"roulette-game-bot/internal/config"
	"roulette-game-bot/internal/ledger"
	"roulette-game-bot/internal/repository"
	"roulette-game-bot/internal/roulette"
	"roulette-game-bot/internal/service"
)

// Callback data prefixes for roulette inline buttons.
const (
	CallbackRouletteWeapon  = "roul_weapon:" // roul_weapon:<index>
	CallbackRouletteDraw    = "roul_draw"
	CallbackRouletteCashOut = "roul_cashout"
	CallbackRouletteForfeit = "roul_forfeit"
	CallbackRouletteAccept  = "roul_accept"
	CallbackRouletteDecline = "roul_decline"
)

// RouletteHandler handles the roulette game commands and callbacks.
type RouletteHandler struct {
	cfg            *config.Config
	manager        *roulette.Manager
	accountService *service.AccountService
	coinLedger     *ledger.CoinLedger
	chipRepo       *repository.ChipRepository
}

// NewRouletteHandler creates a new RouletteHandler.
func NewRouletteHandler(
	cfg *config.Config,
	manager *roulette.Manager,
	accountService *service.AccountService,
	coinLedger *ledger.CoinLedger,
	chipRepo *repository.ChipRepository,
) *RouletteHandler {
	return &RouletteHandler{
		cfg:            cfg,
		manager:        manager,
		accountService: accountService,
		coinLedger:     coinLedger,
		chipRepo:       chipRepo,
	}
}

// ledgerFor picks the escrow currency configured for the chat. The choice
// is fixed for the lifetime of any session started with it.
func (h *RouletteHandler) ledgerFor(chatID int64) roulette.Ledger {
	if h.cfg.Roulette.BettingModeFor(chatID) == config.BettingModeChips {
		return ledger.NewChipLedger(chatID, h.cfg.Roulette.InitialChips, h.chipRepo)
	}
	return h.coinLedger
}

// HandleRoulette handles the /roulette command to start a solo session.
func (h *RouletteHandler) HandleRoulette(c tele.Context) error {
	ctx := context.Background()
	chat := c.Chat()
	sender := c.Sender()
	if chat == nil || sender == nil {
		return nil
	}

	if chat.Type == tele.ChatPrivate {
		return c.Reply("❌ Roulette can only be played in group chats")
	}

	bet, err := parseBet(c.Args())
	if err != nil {
		return c.Reply("❌ Usage: /roulette <bet>\nExample: /roulette 100")
	}
	if bet < h.cfg.Roulette.MinBet || bet > h.cfg.Roulette.MaxBet {
		return c.Reply(fmt.Sprintf("❌ Bet must be between %d and %d", h.cfg.Roulette.MinBet, h.cfg.Roulette.MaxBet))
	}

	username := displayName(sender)
	if _, _, err := h.accountService.EnsureUser(ctx, sender.ID, username); err != nil {
		return c.Reply("❌ Something went wrong, please try again")
	}

	entrant := roulette.Entrant{UserID: sender.ID, Username: username}
	board := newSessionBoard(c.Bot(), chat)

	_, err = h.manager.StartSolo(ctx, chat.ID, entrant, bet, h.ledgerFor(chat.ID), board)
	if err != nil {
		return c.Reply(startErrorMessage(err))
	}
	return nil
}

// HandleChallenge handles the /challenge command to start a multi-player
// session. Opponents are taken from text mentions and the replied-to
// message.
func (h *RouletteHandler) HandleChallenge(c tele.Context) error {
	ctx := context.Background()
	chat := c.Chat()
	sender := c.Sender()
	if chat == nil || sender == nil {
		return nil
	}

	if chat.Type == tele.ChatPrivate {
		return c.Reply("❌ Challenges can only be played in group chats")
	}

	bet, err := parseBet(c.Args())
	if err != nil {
		return c.Reply("❌ Usage: /challenge <bet> (mention opponents or reply to one)\nExample: /challenge 200 @rival")
	}
	if bet < h.cfg.Roulette.MinBet || bet > h.cfg.Roulette.MaxBet {
		return c.Reply(fmt.Sprintf("❌ Bet must be between %d and %d", h.cfg.Roulette.MinBet, h.cfg.Roulette.MaxBet))
	}

	targets := extractTargets(c.Message())
	if len(targets) == 0 {
		return c.Reply("❌ Mention at least one opponent or reply to their message\nNote: plain @mentions only resolve for users this bot has seen")
	}

	username := displayName(sender)
	if _, _, err := h.accountService.EnsureUser(ctx, sender.ID, username); err != nil {
		return c.Reply("❌ Something went wrong, please try again")
	}
	for _, t := range targets {
		_, _, _ = h.accountService.EnsureUser(ctx, t.UserID, t.Username)
	}

	entrant := roulette.Entrant{UserID: sender.ID, Username: username}
	board := newSessionBoard(c.Bot(), chat)

	_, err = h.manager.StartChallenge(ctx, chat.ID, entrant, targets, bet, h.ledgerFor(chat.ID), board)
	if err != nil {
		return c.Reply(startErrorMessage(err))
	}
	return nil
}

// HandleRouletteCallback routes roulette inline button presses into the
// chat's live session. Turn and state validation happens inside the
// session; the callback is acknowledged immediately.
func (h *RouletteHandler) HandleRouletteCallback(c tele.Context) error {
	callback := c.Callback()
	sender := c.Sender()
	chat := c.Chat()
	if callback == nil || sender == nil || chat == nil {
		return nil
	}

	data := strings.TrimPrefix(callback.Data, "\f")

	action := roulette.Action{UserID: sender.ID}
	switch {
	case strings.HasPrefix(data, CallbackRouletteWeapon):
		idx, err := strconv.Atoi(strings.TrimPrefix(data, CallbackRouletteWeapon))
		if err != nil {
			return c.Respond(&tele.CallbackResponse{Text: "❌ Invalid action"})
		}
		action.Kind = roulette.ActionSelectWeapon
		action.Weapon = idx
	case data == CallbackRouletteDraw:
		action.Kind = roulette.ActionDraw
	case data == CallbackRouletteCashOut:
		action.Kind = roulette.ActionCashOut
	case data == CallbackRouletteForfeit:
		action.Kind = roulette.ActionForfeit
	case data == CallbackRouletteAccept:
		action.Kind = roulette.ActionAccept
	case data == CallbackRouletteDecline:
		action.Kind = roulette.ActionDecline
	default:
		return c.Respond(&tele.CallbackResponse{Text: "❌ Invalid action"})
	}

	if err := h.manager.Submit(chat.ID, action); err != nil {
		if errors.Is(err, roulette.ErrNoSession) || errors.Is(err, roulette.ErrSessionClosed) {
			return c.Respond(&tele.CallbackResponse{Text: "❌ This game is over"})
		}
		return c.Respond(&tele.CallbackResponse{Text: "❌ Try again"})
	}
	return c.Respond(&tele.CallbackResponse{})
}

// parseBet parses the bet argument of a game command.
func parseBet(args []string) (int64, error) {
	if len(args) < 1 {
		return 0, errors.New("missing bet")
	}
	bet, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || bet <= 0 {
		return 0, errors.New("invalid bet")
	}
	return bet, nil
}

// extractTargets collects challenge opponents from message entities and the
// replied-to message. Telegram only attaches user objects to text mentions,
// so plain @username mentions of unseen users cannot be resolved.
func extractTargets(msg *tele.Message) []roulette.Entrant {
	if msg == nil {
		return nil
	}

	var targets []roulette.Entrant
	for _, entity := range msg.Entities {
		if entity.User == nil {
			continue
		}
		targets = append(targets, roulette.Entrant{
			UserID:   entity.User.ID,
			Username: displayName(entity.User),
		})
	}
	if msg.ReplyTo != nil && msg.ReplyTo.Sender != nil {
		targets = append(targets, roulette.Entrant{
			UserID:   msg.ReplyTo.Sender.ID,
			Username: displayName(msg.ReplyTo.Sender),
		})
	}
	return targets
}

// displayName picks the best human-readable name for a user.
func displayName(u *tele.User) string {
	if u.Username != "" {
		return u.Username
	}
	return u.FirstName
}

// startErrorMessage maps session start failures to user-facing replies.
func startErrorMessage(err error) string {
	switch {
	case errors.Is(err, roulette.ErrSessionActive):
		return "❌ A game is already running in this chat"
	case errors.Is(err, roulette.ErrAlreadyInSession):
		return "❌ You are already in a game"
	case errors.Is(err, roulette.ErrInsufficientFunds):
		return "❌ Insufficient balance"
	case errors.Is(err, roulette.ErrBetOutOfBounds):
		return "❌ Bet is out of bounds"
	case errors.Is(err, roulette.ErrNoOpponents):
		return "❌ No valid opponents found"
	default:
		return "❌ Could not start the game, please try again"
	}
}
