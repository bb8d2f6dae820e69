// SPDX-License-Identifier: MIT

// Package gateway performs the actual outbound send to the messaging
// platform. Failures are reported, never retried: there is no channel left
// to surface them on.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/zwlin/pagebot/internal/log"
	"github.com/zwlin/pagebot/internal/metrics"
)

// ErrDelivery marks a failed outbound send.
var ErrDelivery = errors.New("delivery failed")

// TypingOn is the sender action shown while the bot works on a reply.
const TypingOn = "typing_on"

// Client posts messages to the platform send endpoint.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
	limiter  *rate.Limiter
	logger   zerolog.Logger
}

// New returns a send client. ratePerSec/burst pace outbound calls against
// the platform's send quota; a non-positive rate disables pacing.
func New(endpoint, token string, ratePerSec float64, burst int) *Client {
	var limiter *rate.Limiter
	if ratePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(ratePerSec), max(burst, 1))
	}
	return &Client{
		endpoint: endpoint,
		token:    token,
		http:     &http.Client{Timeout: 15 * time.Second},
		limiter:  limiter,
		logger:   log.WithComponent("gateway"),
	}
}

type sendEnvelope struct {
	Recipient    Recipient `json:"recipient"`
	Message      *Message  `json:"message,omitempty"`
	SenderAction string    `json:"sender_action,omitempty"`
}

type sendResponse struct {
	RecipientID string `json:"recipient_id"`
	MessageID   string `json:"message_id"`
}

// Send delivers one message and returns the platform message id.
func (c *Client) Send(ctx context.Context, recipientID string, msg Message) (string, error) {
	res, err := c.post(ctx, sendEnvelope{
		Recipient: Recipient{ID: recipientID},
		Message:   &msg,
	})
	if err != nil {
		metrics.RecordDelivery("error")
		return "", err
	}
	metrics.RecordDelivery("ok")
	c.logger.Debug().
		Str(log.FieldRecipient, recipientID).
		Str(log.FieldMessageID, res.MessageID).
		Msg("message delivered")
	return res.MessageID, nil
}

// SenderAction delivers a typing indicator or similar non-message action.
func (c *Client) SenderAction(ctx context.Context, recipientID, action string) error {
	_, err := c.post(ctx, sendEnvelope{
		Recipient:    Recipient{ID: recipientID},
		SenderAction: action,
	})
	return err
}

func (c *Client) post(ctx context.Context, env sendEnvelope) (sendResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return sendResponse{}, fmt.Errorf("%w: %v", ErrDelivery, err)
		}
	}

	body, err := json.Marshal(env)
	if err != nil {
		return sendResponse{}, fmt.Errorf("%w: encode: %v", ErrDelivery, err)
	}

	endpoint := c.endpoint + "?access_token=" + url.QueryEscape(c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return sendResponse{}, fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return sendResponse{}, fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		return sendResponse{}, fmt.Errorf("%w: status %d", ErrDelivery, res.StatusCode)
	}

	var out sendResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return sendResponse{}, fmt.Errorf("%w: decode response: %v", ErrDelivery, err)
	}
	return out, nil
}
