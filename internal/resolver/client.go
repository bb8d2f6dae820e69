// SPDX-License-Identifier: MIT

// Package resolver talks to the external NLP service that turns free text
// plus session context into an ordered action plan.
package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/zwlin/pagebot/internal/engine"
	"github.com/zwlin/pagebot/internal/session"
)

// ErrUnavailable marks any resolver failure: transport error, non-2xx
// status, or an undecodable response. The engine aborts the turn with the
// session context unchanged.
var ErrUnavailable = errors.New("resolver unavailable")

// Client is an HTTP client for the resolver's plan endpoint.
type Client struct {
	base  string
	token string
	http  *http.Client
}

// New returns a client for the resolver at base.
func New(base, token string) *Client {
	return &Client{
		base:  strings.TrimRight(base, "/"),
		token: token,
		http:  &http.Client{Timeout: 15 * time.Second},
	}
}

type planRequest struct {
	SessionID string          `json:"session_id"`
	Text      string          `json:"text"`
	Context   session.Context `json:"context"`
}

// Plan implements engine.Resolver.
func (c *Client) Plan(ctx context.Context, sessionID string, sessCtx session.Context, text string) (engine.Plan, error) {
	body, err := json.Marshal(planRequest{
		SessionID: sessionID,
		Text:      text,
		Context:   sessCtx,
	})
	if err != nil {
		return engine.Plan{}, fmt.Errorf("%w: encode request: %v", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/plan", bytes.NewReader(body))
	if err != nil {
		return engine.Plan{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return engine.Plan{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return engine.Plan{}, fmt.Errorf("%w: status %d", ErrUnavailable, res.StatusCode)
	}

	var plan engine.Plan
	if err := json.NewDecoder(res.Body).Decode(&plan); err != nil {
		return engine.Plan{}, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return plan, nil
}
