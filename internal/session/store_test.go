// SPDX-License-Identifier: MIT

package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCreatesOncePerUser(t *testing.T) {
	st := NewStore()

	const goroutines = 64
	ids := make([]string, goroutines)
	var wg sync.WaitGroup
	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids[i] = st.Resolve("user-1").ID
		}()
	}
	wg.Wait()

	require.Equal(t, 1, st.Len())
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestResolveIsPerUser(t *testing.T) {
	st := NewStore()
	a := st.Resolve("user-a")
	b := st.Resolve("user-b")

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, st.Len())
	assert.Same(t, a, st.Resolve("user-a"))
}

func TestUpdateContextIsTransactional(t *testing.T) {
	st := NewStore()
	s := st.Resolve("user-1")

	require.True(t, st.UpdateContext(s.ID, Context{"missingLocation": true}))

	// A handle taken before the update must not leak mutations back in.
	snapshot := s.Context()
	snapshot["forecast"] = "tampered"
	assert.NotContains(t, s.Context(), "forecast")

	assert.Equal(t, true, s.Context()["missingLocation"])
	assert.False(t, st.UpdateContext("no-such-session", Context{}))
}

func TestUpdateContextCopiesInput(t *testing.T) {
	st := NewStore()
	s := st.Resolve("user-1")

	in := Context{"k": "v1"}
	st.UpdateContext(s.ID, in)
	in["k"] = "v2"

	assert.Equal(t, "v1", s.Context()["k"])
}

func TestTurnGateSerializes(t *testing.T) {
	st := NewStore()
	s := st.Resolve("user-1")

	require.NoError(t, s.Acquire(context.Background()))

	acquired := make(chan struct{})
	go func() {
		_ = s.Acquire(context.Background())
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second turn started while first was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	s.Release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second turn never started after release")
	}
	s.Release()
}

func TestAcquireHonorsContext(t *testing.T) {
	st := NewStore()
	s := st.Resolve("user-1")
	require.NoError(t, s.Acquire(context.Background()))
	defer s.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Acquire(ctx), context.DeadlineExceeded)
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	st := NewStore()
	now := time.Now()
	st.now = func() time.Time { return now }

	st.Resolve("idle-user")
	st.now = func() time.Time { return now.Add(2 * time.Hour) }
	fresh := st.Resolve("fresh-user")

	evicted := st.Sweep(time.Hour)
	assert.Equal(t, 1, evicted)
	assert.Equal(t, 1, st.Len())
	_, ok := st.Get(fresh.ID)
	assert.True(t, ok)
}

func TestSweepSkipsInFlightTurn(t *testing.T) {
	st := NewStore()
	now := time.Now()
	st.now = func() time.Time { return now }

	s := st.Resolve("user-1")
	require.NoError(t, s.Acquire(context.Background()))

	st.now = func() time.Time { return now.Add(2 * time.Hour) }
	assert.Equal(t, 0, st.Sweep(time.Hour))
	assert.Equal(t, 1, st.Len())

	s.Release()
	assert.Equal(t, 1, st.Sweep(time.Hour))
	assert.Equal(t, 0, st.Len())
}

func TestSweepZeroTTLIsDisabled(t *testing.T) {
	st := NewStore()
	st.Resolve("user-1")
	assert.Equal(t, 0, st.Sweep(0))
	assert.Equal(t, 1, st.Len())
}
