// Package model defines the data models for the roulette game bot.
package model

import "time"

// User represents a Telegram user account in the game system.
type User struct {
	TelegramID     int64     `db:"telegram_id"`
	Username       string    `db:"username"`
	Balance        int64     `db:"balance"`
	LastDailyClaim int64     `db:"last_daily_claim"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// ChipBalance represents a chat-local token balance. Chips are scoped to a
// single group chat and never mix with the platform-wide coin balance.
type ChipBalance struct {
	ChatID    int64     `db:"chat_id"`
	UserID    int64     `db:"user_id"`
	Balance   int64     `db:"balance"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Transaction represents a balance change record.
type Transaction struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	Amount      int64     `db:"amount"`
	Type        string    `db:"type"`
	Description *string   `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

// PlayerStats is the typed per-user outcome aggregate for a chat. Every
// counter maps to exactly one recordable outcome; there is no free-form
// key space.
type PlayerStats struct {
	ChatID     int64     `db:"chat_id"`
	UserID     int64     `db:"user_id"`
	Username   string    `db:"username"`
	Wins       int64     `db:"wins"`
	Deaths     int64     `db:"deaths"`
	Chickens   int64     `db:"chickens"`
	Challenges int64     `db:"challenges"`
	Rejections int64     `db:"rejections"`
	NetAmount  int64     `db:"net_amount"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// DailyRank represents a user's daily game performance for ranking.
type DailyRank struct {
	UserID    int64  `db:"user_id"`
	Username  string `db:"username"`
	NetProfit int64  `db:"net_profit"`
}

// Transaction types for categorizing balance changes.
const (
	TxTypeInitial      = "initial"       // Initial balance on account creation
	TxTypeDaily        = "daily"         // Daily reward claim
	TxTypeTransfer     = "transfer"      // User-to-user transfer
	TxTypeRouletteBet  = "roulette_bet"  // Bet escrowed into a roulette session
	TxTypeRouletteWin  = "roulette_win"  // Roulette winnings or cash-out payout
	TxTypeRouletteBack = "roulette_back" // Bet refunded from an aborted session
	TxTypeAdminAdd     = "admin_add"     // Admin added balance
	TxTypeAdminSub     = "admin_sub"     // Admin subtracted balance
	TxTypeAdminSet     = "admin_set"     // Admin set balance
)

// GameTransactionTypes returns the transaction types that count towards
// daily game rankings (transfers and daily rewards are excluded).
func GameTransactionTypes() []string {
	return []string{TxTypeRouletteBet, TxTypeRouletteWin, TxTypeRouletteBack}
}
