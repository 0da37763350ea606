package roulette

import "errors"

// Errors surfaced by the session engine.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAlreadyInSession  = errors.New("user is already in a session")
	ErrSessionActive     = errors.New("a session is already running in this chat")
	ErrNoSession         = errors.New("no session is running in this chat")
	ErrSessionClosed     = errors.New("session is no longer accepting actions")
	ErrCylinderEmpty     = errors.New("cylinder has no chambers left")
	ErrNotYourTurn       = errors.New("it is not your decision to make")
	ErrInvalidAction     = errors.New("action is not valid in the current state")
	ErrNothingToCashOut  = errors.New("cannot cash out before surviving a round")
	ErrInvalidWeapon     = errors.New("invalid weapon selection")
	ErrBetOutOfBounds    = errors.New("bet is outside the allowed bounds")
	ErrNoOpponents       = errors.New("challenge needs at least one opponent")
)
