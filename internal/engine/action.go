// SPDX-License-Identifier: MIT

// Package engine advances one session's conversation by one turn. The
// external NLP resolver decides which named actions run and in what order;
// the engine only implements the invocation protocol and effect
// propagation.
package engine

import (
	"context"
	"sort"

	"github.com/zwlin/pagebot/internal/session"
)

// Entity is one extracted value for a named entity slot.
type Entity struct {
	Value string `json:"value"`
}

// Entities maps an entity name to its extracted candidates, best first.
type Entities map[string][]Entity

// FirstEntityValue returns the top candidate for the named entity, or "".
func FirstEntityValue(e Entities, name string) string {
	if vals, ok := e[name]; ok && len(vals) > 0 {
		return vals[0].Value
	}
	return ""
}

// Step is one planned action invocation: the action name plus whatever the
// resolver extracted for it.
type Step struct {
	Action   string   `json:"action"`
	Message  string   `json:"message"`
	Entities Entities `json:"entities"`
}

// Plan is the ordered action sequence the resolver chose for a turn.
type Plan struct {
	Steps []Step `json:"steps"`
}

// Resolver is the external NLP collaborator.
type Resolver interface {
	Plan(ctx context.Context, sessionID string, sessCtx session.Context, text string) (Plan, error)
}

// Reply is the outbound text a turn produced.
type Reply struct {
	Text string
}

// TurnContext is handed to each action of a turn. Context is the working
// copy of the session scratchpad; actions mutate it in place and later
// actions of the same turn observe those writes.
type TurnContext struct {
	SessionID string
	UserID    string
	Context   session.Context
	Step      Step
}

// Outcome is what an action returns: either "keep going" or a terminal
// reply that ends the turn.
type Outcome struct {
	Done  bool
	Reply Reply
}

// Continue signals the engine to run the next planned step.
func Continue() Outcome { return Outcome{} }

// Terminal ends the turn with the given reply text.
func Terminal(text string) Outcome {
	return Outcome{Done: true, Reply: Reply{Text: text}}
}

// Action is one named unit of dialogue logic.
type Action interface {
	Name() string
	Apply(ctx context.Context, tc *TurnContext) (Outcome, error)
}

// Registry holds the registered action set keyed by name.
type Registry struct {
	actions map[string]Action
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{actions: make(map[string]Action)}
}

// Register adds or replaces an action.
func (r *Registry) Register(a Action) {
	r.actions[a.Name()] = a
}

// Get looks an action up by name.
func (r *Registry) Get(name string) (Action, bool) {
	a, ok := r.actions[name]
	return a, ok
}

// Names lists the registered action names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.actions))
	for name := range r.actions {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
