// SPDX-License-Identifier: MIT

// Package session holds per-user conversation state. One live session
// exists per external user id; creation is atomic with respect to
// concurrent lookups.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/zwlin/pagebot/internal/log"
	"github.com/zwlin/pagebot/internal/metrics"
)

// Context is the open key-value scratchpad attached to a session. Valid keys
// are defined by the registered action set, not by this package.
type Context map[string]any

// Clone returns an independent shallow copy. A nil receiver clones to an
// empty, usable map.
func (c Context) Clone() Context {
	out := make(Context, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Session is one ongoing conversation with one external user.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time

	mu       sync.Mutex
	context  Context
	lastSeen time.Time

	// turn serializes dialogue turns for this session. Capacity one:
	// holder of the token owns the read-modify-write cycle.
	turn chan struct{}
}

// Context returns a copy of the session context. Mutations must go through
// Store.UpdateContext, never through the returned map.
func (s *Session) Context() Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.context.Clone()
}

// LastSeen reports when the session last saw an inbound event.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Acquire takes the session's turn gate, blocking until the prior turn has
// completed or ctx is done.
func (s *Session) Acquire(ctx context.Context) error {
	select {
	case s.turn <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns the turn gate. Must be called exactly once per
// successful Acquire.
func (s *Session) Release() {
	<-s.turn
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// Store is the process-scoped session index.
type Store struct {
	mu     sync.RWMutex
	byUser map[string]*Session
	byID   map[string]*Session

	logger zerolog.Logger
	now    func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		byUser: make(map[string]*Session),
		byID:   make(map[string]*Session),
		logger: log.WithComponent("session"),
		now:    time.Now,
	}
}

// Resolve returns the session for userID, creating it if absent. For any
// interleaving of concurrent calls exactly one session is ever created per
// user id.
func (st *Store) Resolve(userID string) *Session {
	st.mu.RLock()
	s, ok := st.byUser[userID]
	st.mu.RUnlock()
	if ok {
		s.touch(st.now())
		return s
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.byUser[userID]; ok {
		s.touch(st.now())
		return s
	}

	now := st.now()
	s = &Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: now,
		context:   make(Context),
		lastSeen:  now,
		turn:      make(chan struct{}, 1),
	}
	st.byUser[userID] = s
	st.byID[s.ID] = s
	metrics.SetSessionsLive(len(st.byID))

	st.logger.Debug().
		Str(log.FieldSessionID, s.ID).
		Str(log.FieldUserID, userID).
		Msg("session created")
	return s
}

// Get looks a session up by its id.
func (st *Store) Get(sessionID string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.byID[sessionID]
	return s, ok
}

// UpdateContext transactionally replaces the session's context. A concurrent
// Context() observes either the previous or the new value, never a partial
// write. Returns false if the session is unknown.
func (st *Store) UpdateContext(sessionID string, ctx Context) bool {
	s, ok := st.Get(sessionID)
	if !ok {
		return false
	}
	next := ctx.Clone()
	s.mu.Lock()
	s.context = next
	s.mu.Unlock()
	return true
}

// Len reports how many sessions are live.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.byID)
}
