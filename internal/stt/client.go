// SPDX-License-Identifier: MIT

// Package stt is an HTTP client for the external speech recognition
// service.
package stt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrService marks any provider-side failure: transport error, non-2xx
// status, or an undecodable response.
var ErrService = errors.New("speech service error")

// Alternative is one recognition hypothesis.
type Alternative struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
}

// Utterance is one recognized result with its hypotheses, best first.
type Utterance struct {
	Alternatives []Alternative `json:"alternatives"`
}

// Result is the provider's full response for one audio submission.
type Result struct {
	Results []Utterance `json:"results"`
}

// Client submits WAV audio for recognition with a fixed language model.
type Client struct {
	base     string
	username string
	password string
	model    string
	http     *http.Client
}

// New returns a client for the recognition service at base.
func New(base, username, password, model string) *Client {
	return &Client{
		base:     strings.TrimRight(base, "/"),
		username: username,
		password: password,
		model:    model,
		http:     &http.Client{Timeout: 60 * time.Second},
	}
}

// Recognize submits the audio stream and returns the provider's result set.
func (c *Client) Recognize(ctx context.Context, audio io.Reader) (Result, error) {
	endpoint := c.base + "/v1/recognize?model=" + url.QueryEscape(c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, audio)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrService, err)
	}
	req.Header.Set("Content-Type", "audio/wav")
	req.SetBasicAuth(c.username, c.password)

	res, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrService, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return Result{}, fmt.Errorf("%w: status %d", ErrService, res.StatusCode)
	}

	var out Result
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return Result{}, fmt.Errorf("%w: decode response: %v", ErrService, err)
	}
	return out, nil
}
