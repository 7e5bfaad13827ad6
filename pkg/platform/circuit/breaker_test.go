package circuit

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBreaker_Defaults(t *testing.T) {
	b := New("verify-actor")

	assert.Equal(t, "verify-actor", b.Name())
	assert.Equal(t, StateClosed, b.State())
	assert.False(t, b.IsOpen())

	// Default failure threshold is 5.
	for i := 0; i < 4; i++ {
		useFallback, change := b.RecordFailure()
		assert.False(t, useFallback)
		assert.False(t, change.Opened)
	}
	useFallback, change := b.RecordFailure()
	assert.True(t, useFallback)
	assert.True(t, change.Opened)

	// Default success threshold is 1.
	usePrimary, change := b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)
}

func TestBreaker_OpensOnlyAtThreshold(t *testing.T) {
	b := New("verify-actor", WithFailureThreshold(3))

	outcomes := []struct {
		wantFallback bool
		wantOpened   bool
	}{
		{false, false},
		{false, false},
		{true, true},
	}
	for i, want := range outcomes {
		useFallback, change := b.RecordFailure()
		assert.Equal(t, want.wantFallback, useFallback, "failure %d", i+1)
		assert.Equal(t, want.wantOpened, change.Opened, "failure %d", i+1)
	}
	assert.True(t, b.IsOpen())

	// Further failures report fallback without a second transition.
	useFallback, change := b.RecordFailure()
	assert.True(t, useFallback)
	assert.False(t, change.Opened)
}

func TestBreaker_ClosesAfterSuccessThreshold(t *testing.T) {
	b := New("verify-actor", WithFailureThreshold(1), WithSuccessThreshold(2))

	b.RecordFailure()
	assert.True(t, b.IsOpen())

	usePrimary, change := b.RecordSuccess()
	assert.False(t, usePrimary)
	assert.False(t, change.Closed)
	assert.True(t, b.IsOpen())

	usePrimary, change = b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)
	assert.False(t, b.IsOpen())
}

func TestBreaker_CountersAreConsecutive(t *testing.T) {
	t.Run("success clears the failure streak", func(t *testing.T) {
		b := New("verify-actor", WithFailureThreshold(3))

		b.RecordFailure()
		b.RecordFailure()
		b.RecordSuccess()

		b.RecordFailure()
		b.RecordFailure()
		assert.False(t, b.IsOpen())
		b.RecordFailure()
		assert.True(t, b.IsOpen())
	})

	t.Run("failure clears the success streak", func(t *testing.T) {
		b := New("verify-actor", WithFailureThreshold(1), WithSuccessThreshold(3))

		b.RecordFailure()
		b.RecordSuccess()
		b.RecordSuccess()
		b.RecordFailure()

		// The streak restarts; two successes are no longer enough.
		b.RecordSuccess()
		b.RecordSuccess()
		assert.True(t, b.IsOpen())
		b.RecordSuccess()
		assert.False(t, b.IsOpen())
	})
}

func TestBreaker_ResetClearsStateAndCounters(t *testing.T) {
	b := New("verify-actor", WithFailureThreshold(2))

	b.RecordFailure()
	b.RecordFailure()
	assert.True(t, b.IsOpen())

	b.Reset()
	assert.False(t, b.IsOpen())
	assert.Equal(t, StateClosed, b.State())

	// Counters restart from zero: one failure must not reopen.
	_, change := b.RecordFailure()
	assert.False(t, change.Opened)
	assert.False(t, b.IsOpen())
	_, change = b.RecordFailure()
	assert.True(t, change.Opened)
}

func TestBreaker_ResetMidStreak(t *testing.T) {
	b := New("verify-actor", WithFailureThreshold(1), WithSuccessThreshold(3))

	b.RecordFailure()
	b.RecordSuccess()
	assert.True(t, b.IsOpen(), "one success of three")

	// Reset closes immediately without waiting out the success threshold.
	b.Reset()
	usePrimary, change := b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.False(t, change.Closed, "already closed, no transition")
}

func TestBreaker_ConcurrentRecording(t *testing.T) {
	b := New("verify-actor", WithFailureThreshold(3))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(fail bool) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if fail {
					b.RecordFailure()
				} else {
					b.RecordSuccess()
				}
				b.IsOpen()
			}
		}(i%2 == 0)
	}
	wg.Wait()

	// Whatever interleaving happened, the breaker lands in a defined state.
	state := b.State()
	assert.True(t, state == StateOpen || state == StateClosed)
}