// Package lock provides per-user locking for concurrent balance operations.
// Handlers hold a user's lock across read-check-write sequences against the
// ledger so parallel commands cannot interleave on the same account.
package lock

import "sync"

// userMutex wraps a mutex with reference counting for cleanup.
type userMutex struct {
	mu       sync.Mutex
	refCount int
}

// UserLock provides per-user locking to prevent race conditions during
// balance operations.
type UserLock struct {
	locks sync.Map // map[int64]*userMutex
	pool  sync.Pool
}

// NewUserLock creates a new UserLock instance.
func NewUserLock() *UserLock {
	return &UserLock{
		pool: sync.Pool{
			New: func() any {
				return &userMutex{}
			},
		},
	}
}

// getLock retrieves or creates a mutex for the given user ID.
func (ul *UserLock) getLock(userID int64) *userMutex {
	if v, ok := ul.locks.Load(userID); ok {
		return v.(*userMutex)
	}

	newLock := ul.pool.Get().(*userMutex)
	newLock.refCount = 0

	actual, loaded := ul.locks.LoadOrStore(userID, newLock)
	if loaded {
		// Another goroutine created the lock first, return ours to pool
		ul.pool.Put(newLock)
	}
	return actual.(*userMutex)
}

// Lock acquires the lock for a user. This should be called before any
// balance-modifying operation.
func (ul *UserLock) Lock(userID int64) {
	lock := ul.getLock(userID)
	lock.mu.Lock()
	lock.refCount++
}

// Unlock releases the lock for a user.
func (ul *UserLock) Unlock(userID int64) {
	if v, ok := ul.locks.Load(userID); ok {
		lock := v.(*userMutex)
		lock.refCount--
		lock.mu.Unlock()
	}
}

// TryLock attempts to acquire the lock without blocking.
// Returns true if the lock was acquired, false otherwise.
func (ul *UserLock) TryLock(userID int64) bool {
	lock := ul.getLock(userID)
	if lock.mu.TryLock() {
		lock.refCount++
		return true
	}
	return false
}

// WithLock executes a function while holding the user's lock.
// This is a convenience method that ensures proper lock/unlock.
func (ul *UserLock) WithLock(userID int64, fn func() error) error {
	ul.Lock(userID)
	defer ul.Unlock(userID)
	return fn()
}
