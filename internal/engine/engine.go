// SPDX-License-Identifier: MIT

package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/zwlin/pagebot/internal/log"
	"github.com/zwlin/pagebot/internal/metrics"
	"github.com/zwlin/pagebot/internal/session"
)

// Engine executes dialogue turns against the session store.
type Engine struct {
	store    *session.Store
	resolver Resolver
	registry *Registry
	logger   zerolog.Logger

	// turnTimeout bounds the resolver call and all action work of one
	// turn. Zero disables the bound.
	turnTimeout time.Duration
}

// New wires an engine.
func New(store *session.Store, resolver Resolver, registry *Registry, turnTimeout time.Duration) *Engine {
	return &Engine{
		store:       store,
		resolver:    resolver,
		registry:    registry,
		logger:      log.WithComponent("engine"),
		turnTimeout: turnTimeout,
	}
}

// RunTurn advances the user's session by one turn for the given inbound
// text and returns the reply to deliver.
//
// Turns for the same session are strictly serialized: a second concurrent
// call blocks until the first has written its context back. On any resolver
// or action failure the session context is left exactly as it was before
// the turn.
func (e *Engine) RunTurn(ctx context.Context, userID, text string) (Reply, error) {
	s := e.store.Resolve(userID)

	if err := s.Acquire(ctx); err != nil {
		metrics.RecordTurn("gate_timeout")
		return Reply{}, fmt.Errorf("acquire turn gate: %w", err)
	}
	defer s.Release()

	if e.turnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.turnTimeout)
		defer cancel()
	}

	working := s.Context()
	logger := e.logger.With().
		Str(log.FieldSessionID, s.ID).
		Str(log.FieldUserID, userID).
		Logger()

	plan, err := e.resolver.Plan(ctx, s.ID, working, text)
	if err != nil {
		metrics.RecordTurn("resolver_error")
		logger.Warn().Err(err).Msg("resolver rejected turn")
		return Reply{}, fmt.Errorf("resolve plan: %w", err)
	}

	var reply *Reply
	for _, step := range plan.Steps {
		action, ok := e.registry.Get(step.Action)
		if !ok {
			logger.Warn().Str(log.FieldAction, step.Action).Msg("unknown action in plan, skipping")
			continue
		}

		tc := TurnContext{
			SessionID: s.ID,
			UserID:    userID,
			Context:   working,
			Step:      step,
		}
		outcome, err := action.Apply(ctx, &tc)
		if err != nil {
			metrics.RecordTurn("action_error")
			logger.Warn().Err(err).Str(log.FieldAction, step.Action).Msg("action failed")
			return Reply{}, fmt.Errorf("action %q: %w", step.Action, err)
		}
		working = tc.Context

		if outcome.Done {
			reply = &outcome.Reply
			break
		}
	}

	e.store.UpdateContext(s.ID, working)

	if reply == nil {
		// Plan exhausted without a terminal reply: echo the input.
		metrics.RecordTurn("fallback")
		return Reply{Text: text}, nil
	}
	metrics.RecordTurn("ok")
	return *reply, nil
}
