package handler

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"roulette-game-bot/internal/roulette"
)

// sessionBoard renders a session's snapshot stream into a single chat
// message that is edited in place as the game progresses. It implements
// roulette.Notifier; the session goroutine is its only caller besides the
// constructor.
type sessionBoard struct {
	bot  *tele.Bot
	chat *tele.Chat

	mu   sync.Mutex
	msg  *tele.Message
	last roulette.Snapshot
}

func newSessionBoard(bot *tele.Bot, chat *tele.Chat) *sessionBoard {
	return &sessionBoard{bot: bot, chat: chat}
}

// Update renders the snapshot into the board message, sending it on the
// first call and editing afterwards. Render failures are logged and
// swallowed; the game never blocks on Telegram.
func (b *sessionBoard) Update(snap roulette.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last = snap

	text, markup := renderSnapshot(snap)

	if b.msg == nil {
		msg, err := b.bot.Send(b.chat, text, markup)
		if err != nil {
			log.Error().Err(err).Int64("chat_id", b.chat.ID).Msg("Failed to send game board")
			return
		}
		b.msg = msg
		return
	}

	msg, err := b.bot.Edit(b.msg, text, markup)
	if err != nil {
		// Telegram rejects no-op edits; anything else is worth a log line.
		if !strings.Contains(err.Error(), "message is not modified") {
			log.Debug().Err(err).Int64("chat_id", b.chat.ID).Msg("Failed to edit game board")
		}
		return
	}
	b.msg = msg
}

// Reject reports a refused action back to the chat. The board message
// itself stays untouched.
func (b *sessionBoard) Reject(userID int64, reason error) {
	b.mu.Lock()
	name := b.nameFor(userID)
	b.mu.Unlock()

	text := fmt.Sprintf("⚠️ @%s: %s", name, rejectText(reason))
	if _, err := b.bot.Send(b.chat, text); err != nil {
		log.Debug().Err(err).Int64("chat_id", b.chat.ID).Msg("Failed to send rejection notice")
	}
}

// nameFor resolves a display name from the last snapshot. Callers hold the
// mutex.
func (b *sessionBoard) nameFor(userID int64) string {
	for _, p := range b.last.Participants {
		if p.UserID == userID {
			return p.Username
		}
	}
	for _, p := range b.last.Eliminated {
		if p.UserID == userID {
			return p.Username
		}
	}
	return fmt.Sprintf("%d", userID)
}

// rejectText maps engine rejections to user-facing phrasing.
func rejectText(reason error) string {
	switch {
	case errors.Is(reason, roulette.ErrNotYourTurn):
		return "it's not your turn"
	case errors.Is(reason, roulette.ErrNothingToCashOut):
		return "nothing to cash out yet, draw first"
	case errors.Is(reason, roulette.ErrInvalidWeapon):
		return "pick a weapon from the list"
	case errors.Is(reason, roulette.ErrInvalidAction):
		return "that move isn't available right now"
	default:
		return "action refused"
	}
}

// renderSnapshot builds the board text and inline keyboard for a snapshot.
// Terminal statuses render without a keyboard.
func renderSnapshot(snap roulette.Snapshot) (string, *tele.ReplyMarkup) {
	var sb strings.Builder

	switch snap.Mode {
	case roulette.ModeSolo:
		renderSolo(&sb, snap)
	case roulette.ModeChallenge:
		renderChallenge(&sb, snap)
	}

	return sb.String(), buildKeyboard(snap)
}

func renderSolo(sb *strings.Builder, snap roulette.Snapshot) {
	player := "?"
	if len(snap.Participants) > 0 {
		player = snap.Participants[0].Username
	}

	sb.WriteString("🔫 Cylinder Roulette\n")
	fmt.Fprintf(sb, "Player: @%s | Bet: %d\n", player, snap.Bet)

	switch snap.Status {
	case roulette.StatusSelectingWeapon:
		fmt.Fprintf(sb, "\nChoose your weapon (%ds left)", snap.SecondsLeft)
	case roulette.StatusPlayerTurn:
		writeWeaponLine(sb, snap)
		fmt.Fprintf(sb, "Rounds survived: %d | Reward per round: %d\n", snap.RoundsSurvived, snap.RewardPerRound)
		fmt.Fprintf(sb, "\n@%s, draw or cash out? (%ds left)", player, snap.SecondsLeft)
	case roulette.StatusWin:
		writeWeaponLine(sb, snap)
		fmt.Fprintf(sb, "\n💰 @%s cashed out after %d round(s) and won %d!", player, snap.RoundsSurvived, snap.Payout)
	case roulette.StatusDeath:
		writeWeaponLine(sb, snap)
		fmt.Fprintf(sb, "\n💥 BANG! @%s found the live round. Bet lost.", player)
	case roulette.StatusChicken:
		writeWeaponLine(sb, snap)
		if snap.Payout > 0 {
			fmt.Fprintf(sb, "\n🐔 @%s froze up and was cashed out for %d.", player, snap.Payout)
		} else {
			fmt.Fprintf(sb, "\n🐔 @%s froze up before drawing. Bet lost.", player)
		}
	case roulette.StatusAborted:
		sb.WriteString("\n🚫 Game cancelled, bet refunded.")
	}
}

func renderChallenge(sb *strings.Builder, snap roulette.Snapshot) {
	sb.WriteString("🔫 Roulette Challenge\n")
	fmt.Fprintf(sb, "Bet: %d | Pot: %d\n", snap.Bet, snap.Pot)

	if len(snap.Participants) > 0 {
		names := make([]string, 0, len(snap.Participants))
		for _, p := range snap.Participants {
			names = append(names, "@"+p.Username)
		}
		fmt.Fprintf(sb, "Players: %s\n", strings.Join(names, " "))
	}
	if len(snap.Eliminated) > 0 {
		names := make([]string, 0, len(snap.Eliminated))
		for _, p := range snap.Eliminated {
			names = append(names, "@"+p.Username)
		}
		fmt.Fprintf(sb, "Out: %s\n", strings.Join(names, " "))
	}

	turnName := turnUsername(snap)

	switch snap.Status {
	case roulette.StatusNegotiating:
		fmt.Fprintf(sb, "\n@%s, you've been challenged. Accept? (%ds left)", turnName, snap.SecondsLeft)
	case roulette.StatusSelectingWeapon:
		fmt.Fprintf(sb, "\n@%s, choose the weapon (%ds left)", turnName, snap.SecondsLeft)
	case roulette.StatusPlayerTurn:
		writeWeaponLine(sb, snap)
		fmt.Fprintf(sb, "\n@%s, your draw. (%ds left)", turnName, snap.SecondsLeft)
	case roulette.StatusWinner:
		writeWeaponLine(sb, snap)
		winner := turnName
		if len(snap.Participants) == 1 {
			winner = snap.Participants[0].Username
		}
		fmt.Fprintf(sb, "\n🏆 @%s survives and takes the pot: %d!", winner, snap.Payout)
	case roulette.StatusNoWinner:
		sb.WriteString("\n⚠️ The game ended with no winner.")
	case roulette.StatusAborted:
		sb.WriteString("\n🚫 Challenge cancelled, bets refunded.")
	}
}

func writeWeaponLine(sb *strings.Builder, snap roulette.Snapshot) {
	if snap.Weapon == nil {
		return
	}
	fmt.Fprintf(sb, "Weapon: %s (%d chambers) | Chambers left: %d\n", snap.Weapon.DisplayName, snap.Weapon.Chambers, snap.ChambersLeft)
}

func turnUsername(snap roulette.Snapshot) string {
	if snap.TurnUserID == 0 {
		return "?"
	}
	for _, p := range snap.Participants {
		if p.UserID == snap.TurnUserID {
			return p.Username
		}
	}
	return fmt.Sprintf("%d", snap.TurnUserID)
}

// buildKeyboard maps the snapshot's legal choices to inline buttons.
func buildKeyboard(snap roulette.Snapshot) *tele.ReplyMarkup {
	if len(snap.Choices) == 0 {
		return &tele.ReplyMarkup{}
	}

	markup := &tele.ReplyMarkup{}
	var buttons []tele.Btn

	for _, choice := range snap.Choices {
		switch choice {
		case roulette.ActionSelectWeapon:
			var rows []tele.Row
			for i, w := range roulette.Weapons {
				btn := markup.Data(
					fmt.Sprintf("%s (%d chambers)", w.DisplayName, w.Chambers),
					CallbackRouletteWeapon+fmt.Sprintf("%d", i),
				)
				rows = append(rows, markup.Row(btn))
			}
			markup.Inline(rows...)
			return markup
		case roulette.ActionDraw:
			buttons = append(buttons, markup.Data("🔫 Draw", CallbackRouletteDraw))
		case roulette.ActionCashOut:
			buttons = append(buttons, markup.Data("💰 Cash out", CallbackRouletteCashOut))
		case roulette.ActionForfeit:
			buttons = append(buttons, markup.Data("🐔 Forfeit", CallbackRouletteForfeit))
		case roulette.ActionAccept:
			buttons = append(buttons, markup.Data("✅ Accept", CallbackRouletteAccept))
		case roulette.ActionDecline:
			buttons = append(buttons, markup.Data("❌ Decline", CallbackRouletteDecline))
		}
	}

	markup.Inline(markup.Row(buttons...))
	return markup
}
