package handler

import (
	"context"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"

	"roulette-game-bot/internal/model"
	"roulette-game-bot/internal/service"
)

// RankingHandler handles ranking and roulette leaderboard commands.
type RankingHandler struct {
	rankingService *service.RankingService
	statsService   *service.StatsService
}

// NewRankingHandler creates a new RankingHandler.
func NewRankingHandler(rankingService *service.RankingService, statsService *service.StatsService) *RankingHandler {
	return &RankingHandler{
		rankingService: rankingService,
		statsService:   statsService,
	}
}

// HandleDailyTop handles the /daily_top command.
// Displays today's top winners and losers by net coin profit.
func (h *RankingHandler) HandleDailyTop(c tele.Context) error {
	ctx := context.Background()

	winners, err := h.rankingService.GetDailyWinners(ctx, 10)
	if err != nil {
		return c.Reply("❌ Failed to fetch rankings, please try again")
	}

	losers, err := h.rankingService.GetDailyLosers(ctx, 10)
	if err != nil {
		return c.Reply("❌ Failed to fetch rankings, please try again")
	}

	msg := "📊 Today's Games\n"
	msg += "━━━━━━━━━━━━━━━\n"

	msg += "🏆 Winners TOP 10\n"
	if len(winners) == 0 {
		msg += "No data yet\n"
	} else {
		medals := []string{"🥇", "🥈", "🥉"}
		for i, winner := range winners {
			rank := fmt.Sprintf("%d.", i+1)
			if i < 3 {
				rank = medals[i]
			}
			msg += fmt.Sprintf("%s %s: +%d\n", rank, rankName(winner), winner.NetProfit)
		}
	}

	msg += "\n━━━━━━━━━━━━━━━\n"

	msg += "😢 Losers TOP 10\n"
	if len(losers) == 0 {
		msg += "No data yet\n"
	} else {
		for i, loser := range losers {
			msg += fmt.Sprintf("%d. %s: %d\n", i+1, rankName(loser), loser.NetProfit)
		}
	}

	msg += "━━━━━━━━━━━━━━━"

	return c.Reply(msg)
}

// HandleStats handles the /stats command.
// Displays the sender's roulette record in this chat.
func (h *RankingHandler) HandleStats(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	chat := c.Chat()
	if sender == nil || chat == nil {
		return nil
	}

	ps, err := h.statsService.GetPlayerStats(ctx, chat.ID, sender.ID)
	if err != nil {
		return c.Reply("❌ Failed to fetch stats, please try again")
	}

	netStr := fmt.Sprintf("%d", ps.NetAmount)
	if ps.NetAmount > 0 {
		netStr = "+" + netStr
	}

	return c.Reply(fmt.Sprintf(
		"🔫 Roulette record for @%s\n"+
			"━━━━━━━━━━━━━━━\n"+
			"🏆 Wins: %d\n"+
			"💥 Deaths: %d\n"+
			"🐔 Chickened out: %d\n"+
			"⚔️ Challenged: %d\n"+
			"🙅 Rejections: %d\n"+
			"💰 Net winnings: %s\n"+
			"━━━━━━━━━━━━━━━",
		displayName(sender), ps.Wins, ps.Deaths, ps.Chickens, ps.Challenges, ps.Rejections, netStr,
	))
}

// HandleLeaderboard handles the /leaderboard command.
// Displays the chat's top survivors, top earners and most frequent deaths.
func (h *RankingHandler) HandleLeaderboard(c tele.Context) error {
	ctx := context.Background()
	chat := c.Chat()
	if chat == nil {
		return nil
	}

	survivors, err := h.statsService.GetTopSurvivors(ctx, chat.ID, 5)
	if err != nil {
		return c.Reply("❌ Failed to fetch leaderboard, please try again")
	}
	earners, err := h.statsService.GetTopEarners(ctx, chat.ID, 5)
	if err != nil {
		return c.Reply("❌ Failed to fetch leaderboard, please try again")
	}
	deaths, err := h.statsService.GetTopDeaths(ctx, chat.ID, 5)
	if err != nil {
		return c.Reply("❌ Failed to fetch leaderboard, please try again")
	}

	if len(survivors) == 0 && len(earners) == 0 && len(deaths) == 0 {
		return c.Reply("📊 No roulette games played here yet")
	}

	var sb strings.Builder
	sb.WriteString("🔫 Roulette Leaderboard\n")
	sb.WriteString("━━━━━━━━━━━━━━━\n")

	writeStatSection(&sb, "🏆 Most wins", survivors, func(ps *model.PlayerStats) int64 { return ps.Wins })
	writeStatSection(&sb, "💰 Top earners", earners, func(ps *model.PlayerStats) int64 { return ps.NetAmount })
	writeStatSection(&sb, "💀 Most deaths", deaths, func(ps *model.PlayerStats) int64 { return ps.Deaths })

	sb.WriteString("━━━━━━━━━━━━━━━")

	return c.Reply(sb.String())
}

func writeStatSection(sb *strings.Builder, title string, stats []*model.PlayerStats, value func(*model.PlayerStats) int64) {
	if len(stats) == 0 {
		return
	}
	sb.WriteString(title + "\n")
	for i, ps := range stats {
		name := ps.Username
		if name == "" {
			name = fmt.Sprintf("User%d", ps.UserID)
		}
		fmt.Fprintf(sb, "%d. @%s: %d\n", i+1, name, value(ps))
	}
	sb.WriteString("\n")
}

func rankName(rank *model.DailyRank) string {
	if rank.Username == "" {
		return fmt.Sprintf("User%d", rank.UserID)
	}
	return rank.Username
}
