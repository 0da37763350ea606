package roulette

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryAdmitRelease(t *testing.T) {
	r := NewRegistry()

	assert.False(t, r.Active(1))
	assert.True(t, r.TryAdmit(1))
	assert.True(t, r.Active(1))

	// A user in a session cannot be admitted again.
	assert.False(t, r.TryAdmit(1))

	r.Release(1)
	assert.False(t, r.Active(1))
	assert.True(t, r.TryAdmit(1))

	// Releasing an unknown user is a no-op.
	r.Release(42)
}

// TestRegistryConcurrentAdmit hammers TryAdmit for the same user from many
// goroutines: exactly one may win the slot.
func TestRegistryConcurrentAdmit(t *testing.T) {
	r := NewRegistry()

	const goroutines = 64
	var admitted atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if r.TryAdmit(7) {
				admitted.Add(1)
			}
		}()
	}

	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), admitted.Load())
	assert.True(t, r.Active(7))
}

func TestRegistryIndependentUsers(t *testing.T) {
	r := NewRegistry()

	assert.True(t, r.TryAdmit(1))
	assert.True(t, r.TryAdmit(2))

	r.Release(1)
	assert.False(t, r.Active(1))
	assert.True(t, r.Active(2))
}
