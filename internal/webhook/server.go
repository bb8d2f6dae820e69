// SPDX-License-Identifier: MIT

// Package webhook is the HTTP ingress: the platform verification handshake,
// the signed batch intake, and the operator routes.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/zwlin/pagebot/internal/config"
	"github.com/zwlin/pagebot/internal/events"
	"github.com/zwlin/pagebot/internal/gateway"
	"github.com/zwlin/pagebot/internal/log"
)

// maxBodyBytes bounds a webhook batch payload.
const maxBodyBytes = 1 << 20

// Dispatcher consumes decoded batches. It is invoked after the platform
// acknowledgment has been written; its errors never reach the platform.
type Dispatcher interface {
	HandleBatch(ctx context.Context, batch []events.Event)
}

// ManualSender backs the operator send route.
type ManualSender interface {
	Send(ctx context.Context, recipientID string, msg gateway.Message) (string, error)
}

// Server is the webhook HTTP server.
type Server struct {
	cfg        config.Config
	dispatcher Dispatcher
	sender     ManualSender
	logger     zerolog.Logger
}

// NewServer wires the ingress.
func NewServer(cfg config.Config, dispatcher Dispatcher, sender ManualSender) *Server {
	return &Server{
		cfg:        cfg,
		dispatcher: dispatcher,
		sender:     sender,
		logger:     log.WithComponent("webhook"),
	}
}

// Handler builds the route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(recoverer)
	r.Use(requestID)
	r.Use(requestLogger)
	if s.cfg.WebhookRateRPM > 0 {
		r.Use(httprate.LimitByIP(s.cfg.WebhookRateRPM, time.Minute))
	}

	r.Get("/webhook", s.handleVerify)
	r.Post("/webhook", s.handleBatch)
	r.Get("/send", s.handleManualSend)
	r.Get("/healthz", handleHealthz)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// handleVerify answers the platform's subscription handshake.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") == "subscribe" && q.Get("hub.verify_token") == s.cfg.VerifyToken {
		s.logger.Info().Msg("webhook validated")
		_, _ = w.Write([]byte(q.Get("hub.challenge")))
		return
	}
	s.logger.Warn().Msg("webhook validation failed, verify token mismatch")
	w.WriteHeader(http.StatusForbidden)
}

// handleBatch accepts one signed batch. The 200 acknowledgment is written
// as soon as the events are accepted; processing continues in the
// background regardless of how long downstream work takes.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if !ValidSignature(s.cfg.AppSecret, r.Header.Get("X-Hub-Signature"), body) {
		s.logger.Warn().Msg("request signature invalid")
		w.WriteHeader(http.StatusForbidden)
		return
	}

	batch, err := events.DecodeBatch(body)
	if err != nil {
		if errors.Is(err, events.ErrNotPageObject) {
			w.WriteHeader(http.StatusOK)
			return
		}
		s.logger.Warn().Err(err).Msg("undecodable webhook payload")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	// Detach from the request so the platform's timeout cannot cancel
	// downstream work.
	bg := context.WithoutCancel(r.Context())
	go s.dispatcher.HandleBatch(bg, batch)

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("EVENT_RECEIVED"))
}

// handleManualSend lets an operator push a text message to a user.
func (s *Server) handleManualSend(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	message := r.URL.Query().Get("message")
	if userID == "" || message == "" {
		http.Error(w, "user_id and message are required", http.StatusBadRequest)
		return
	}

	messageID, err := s.sender.Send(r.Context(), userID, gateway.Text(message))
	if err != nil {
		s.logger.Error().Err(err).Str(log.FieldRecipient, userID).Msg("manual send failed")
		http.Error(w, "send failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"message_id": messageID})
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// Run serves until ctx is done, then drains within the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("listen", s.cfg.Listen).Msg("webhook server started")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info().Msg("webhook server stopped")
	return nil
}
