package roulette

import "sync"

// Registry is the process-wide record of which users are currently inside a
// running session. Membership spans from bet withdrawal to session
// termination and is what prevents a user from wagering in two sessions at
// once.
type Registry struct {
	mu     sync.Mutex
	active map[int64]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{active: make(map[int64]struct{})}
}

// TryAdmit atomically admits a user. It returns false, without side
// effects, when the user is already in a session.
func (r *Registry) TryAdmit(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.active[userID]; ok {
		return false
	}
	r.active[userID] = struct{}{}
	return true
}

// Release removes a user. Releasing a user who is not admitted is a no-op.
func (r *Registry) Release(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, userID)
}

// Active reports whether a user is currently in a session.
func (r *Registry) Active(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.active[userID]
	return ok
}
