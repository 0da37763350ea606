package roulette

// ActionKind enumerates the discrete player inputs a session understands.
type ActionKind string

// Player actions.
const (
	ActionSelectWeapon ActionKind = "select_weapon"
	ActionDraw         ActionKind = "draw"
	ActionCashOut      ActionKind = "cash_out"
	ActionForfeit      ActionKind = "forfeit"
	ActionAccept       ActionKind = "accept"
	ActionDecline      ActionKind = "decline"
)

// Action is a player input event, tagged with the acting user. The session
// validates the user against whose decision is pending before accepting it.
type Action struct {
	UserID int64
	Kind   ActionKind
	// Weapon is the catalog index for ActionSelectWeapon.
	Weapon int
}

// Snapshot is an immutable view of session state emitted to the UI
// collaborator. The engine owns all mutation; renderers only read.
type Snapshot struct {
	SessionID string
	ChatID    int64
	Mode      Mode
	Status    Status

	// Weapon is nil until one has been selected.
	Weapon *WeaponSpec

	// Participants is the active turn order (challenge) or the single
	// player (solo). Eliminated holds former participants for display.
	Participants []Participant
	Eliminated   []Participant

	// TurnUserID is the user whose decision is pending, 0 when none.
	TurnUserID int64

	// Choices lists the actions currently legal for TurnUserID.
	Choices []ActionKind

	ChambersLeft   int
	RoundsSurvived int
	RewardPerRound int64
	Bet            int64
	Pot            int64

	// SecondsLeft is the coarse time remaining for the pending decision.
	SecondsLeft int

	// Payout is the settled amount on a terminal snapshot.
	Payout int64
}
