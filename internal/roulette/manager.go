package roulette

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// runner is the manager's handle on a live session of either mode.
type runner interface {
	ID() string
	Submit(a Action) error
	Abort()
	Done() <-chan struct{}
}

// Manager owns every live session, enforces one session per chat, and runs
// the escrowed entry sequence for both modes. The ledger in force and the
// notifier are supplied per call because the betting mode is a per-chat
// choice and rendering is bound to the chat.
type Manager struct {
	cfg      Config
	registry *Registry
	clock    *TurnClock
	stats    StatRecorder

	mu       sync.Mutex
	sessions map[int64]runner
}

// NewManager creates a session manager.
func NewManager(cfg Config, registry *Registry, stats StatRecorder) *Manager {
	return &Manager{
		cfg:      cfg,
		registry: registry,
		clock:    NewTurnClock(cfg.Tick),
		stats:    stats,
		sessions: make(map[int64]runner),
	}
}

// Registry exposes the session registry for membership checks.
func (m *Manager) Registry() *Registry { return m.registry }

// validateBet re-checks the configured bet bounds. The command surface
// validates these before calling in; funds must never move on a bad bet.
func (m *Manager) validateBet(bet int64) error {
	if bet < m.cfg.MinBet || bet > m.cfg.MaxBet {
		return ErrBetOutOfBounds
	}
	return nil
}

// claimChat reserves the chat slot for a new session.
func (m *Manager) claimChat(chatID int64, r runner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[chatID]; ok {
		return ErrSessionActive
	}
	m.sessions[chatID] = r
	return nil
}

func (m *Manager) releaseChat(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, chatID)
}

// StartSolo runs the solo entry sequence: admit the initiator to the
// registry, escrow the bet, then hand off to the state machine goroutine.
// Insufficient funds fail before anything is registered or withdrawn-and-
// kept; the registry admission is rolled back.
func (m *Manager) StartSolo(ctx context.Context, chatID int64, player Entrant, bet int64, ledger Ledger, notifier Notifier) (*SoloSession, error) {
	if err := m.validateBet(bet); err != nil {
		return nil, err
	}

	sessionCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &SoloSession{
		id:     uuid.New().String(),
		chatID: chatID,
		player: Participant{
			UserID:   player.UserID,
			Username: player.Username,
			Bet:      bet,
			Active:   true,
		},
		cfg:           m.cfg,
		clock:         m.clock,
		registry:      m.registry,
		ledger:        ledger,
		stats:         m.stats,
		notifier:      notifier,
		in:            newInbox(),
		cancel:        cancel,
		buildCylinder: NewCylinder,
	}
	s.onFinish = func() { m.releaseChat(chatID) }

	if err := m.claimChat(chatID, s); err != nil {
		cancel()
		return nil, err
	}
	if !m.registry.TryAdmit(player.UserID) {
		m.releaseChat(chatID)
		cancel()
		return nil, ErrAlreadyInSession
	}
	if err := ledger.Withdraw(ctx, player.UserID, bet); err != nil {
		m.registry.Release(player.UserID)
		m.releaseChat(chatID)
		cancel()
		return nil, err
	}

	log.Info().
		Str("session_id", s.id).
		Int64("chat_id", chatID).
		Int64("user_id", player.UserID).
		Int64("bet", bet).
		Msg("Solo session started")

	go s.run(sessionCtx)
	return s, nil
}

// StartChallenge runs the challenge entry sequence: admit the initiator,
// record one challenge event per challenged user, escrow the initiator's
// bet, then hand negotiation and play to the state machine goroutine. A
// failed withdrawal aborts before any challenged user is involved further.
func (m *Manager) StartChallenge(ctx context.Context, chatID int64, initiator Entrant, targets []Entrant, bet int64, ledger Ledger, notifier Notifier) (*ChallengeSession, error) {
	if err := m.validateBet(bet); err != nil {
		return nil, err
	}

	targets = dedupeTargets(initiator.UserID, targets)
	if len(targets) == 0 {
		return nil, ErrNoOpponents
	}

	sessionCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &ChallengeSession{
		id:        uuid.New().String(),
		chatID:    chatID,
		initiator: initiator,
		targets:   targets,
		bet:       bet,
		participants: []Participant{{
			UserID:   initiator.UserID,
			Username: initiator.Username,
			Bet:      bet,
			Active:   true,
		}},
		cfg:           m.cfg,
		clock:         m.clock,
		registry:      m.registry,
		ledger:        ledger,
		stats:         m.stats,
		notifier:      notifier,
		in:            newInbox(),
		cancel:        cancel,
		buildCylinder: NewCylinder,
		pickStart:     defaultPickStart,
	}
	s.onFinish = func() { m.releaseChat(chatID) }

	if err := m.claimChat(chatID, s); err != nil {
		cancel()
		return nil, err
	}
	if !m.registry.TryAdmit(initiator.UserID) {
		m.releaseChat(chatID)
		cancel()
		return nil, ErrAlreadyInSession
	}
	for _, t := range targets {
		m.stats.Record(ctx, chatID, t.UserID, OutcomeChallenge, 0)
	}
	if err := ledger.Withdraw(ctx, initiator.UserID, bet); err != nil {
		m.registry.Release(initiator.UserID)
		m.releaseChat(chatID)
		cancel()
		return nil, err
	}

	log.Info().
		Str("session_id", s.id).
		Int64("chat_id", chatID).
		Int64("user_id", initiator.UserID).
		Int("targets", len(targets)).
		Int64("bet", bet).
		Msg("Challenge session started")

	go s.run(sessionCtx)
	return s, nil
}

// Submit routes a player action to the chat's live session.
func (m *Manager) Submit(chatID int64, a Action) error {
	m.mu.Lock()
	r, ok := m.sessions[chatID]
	m.mu.Unlock()
	if !ok {
		return ErrNoSession
	}
	return r.Submit(a)
}

// SessionActive reports whether a session is running in the chat.
func (m *Manager) SessionActive(chatID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[chatID]
	return ok
}

// Shutdown force-aborts every live session and waits for their refund
// paths to finish, up to the given timeout.
func (m *Manager) Shutdown(timeout time.Duration) {
	m.mu.Lock()
	running := make([]runner, 0, len(m.sessions))
	for _, r := range m.sessions {
		running = append(running, r)
	}
	m.mu.Unlock()

	for _, r := range running {
		r.Abort()
	}

	deadline := time.After(timeout)
	for _, r := range running {
		select {
		case <-r.Done():
		case <-deadline:
			log.Warn().Str("session_id", r.ID()).Msg("Session did not stop before shutdown deadline")
			return
		}
	}
}

// dedupeTargets drops duplicate challenge targets and the initiator
// challenging themselves, preserving order.
func dedupeTargets(initiatorID int64, targets []Entrant) []Entrant {
	seen := map[int64]struct{}{initiatorID: {}}
	out := make([]Entrant, 0, len(targets))
	for _, t := range targets {
		if _, ok := seen[t.UserID]; ok {
			continue
		}
		seen[t.UserID] = struct{}{}
		out = append(out, t)
	}
	return out
}
