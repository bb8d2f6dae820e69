// SPDX-License-Identifier: MIT

// Package dispatch classifies inbound events and routes them to the action
// engine, the media pipeline, or the static rule tables. Events are
// processed independently: one failing event never blocks its siblings,
// and nothing here propagates an error back to the webhook layer.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/zwlin/pagebot/internal/engine"
	"github.com/zwlin/pagebot/internal/events"
	"github.com/zwlin/pagebot/internal/gateway"
	"github.com/zwlin/pagebot/internal/log"
	"github.com/zwlin/pagebot/internal/media"
	"github.com/zwlin/pagebot/internal/metrics"
)

// Fixed user-facing replies.
const (
	replyCannotUnderstand = "Sorry, I could not make out what you said."
	replyAttachmentAck    = "Thanks, I received your attachment."
	replyTurnFailed       = "Something went wrong on my side. Please try again."
)

// Engine runs one dialogue turn.
type Engine interface {
	RunTurn(ctx context.Context, userID, text string) (engine.Reply, error)
}

// Pipeline transcribes one voice attachment.
type Pipeline interface {
	Transcribe(ctx context.Context, jobID, sourceURL string) (string, error)
}

// Sender is the delivery gateway.
type Sender interface {
	Send(ctx context.Context, recipientID string, msg gateway.Message) (string, error)
	SenderAction(ctx context.Context, recipientID, action string) error
}

// Dispatcher routes inbound events.
type Dispatcher struct {
	engine      Engine
	pipeline    Pipeline
	sender      Sender
	concurrency int
	logger      zerolog.Logger
	orderID     func() string
}

// New wires a dispatcher. concurrency bounds how many events of one batch
// are in flight at once; per-user ordering is enforced separately by the
// session turn gate.
func New(eng Engine, pipeline Pipeline, sender Sender, concurrency int) *Dispatcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Dispatcher{
		engine:      eng,
		pipeline:    pipeline,
		sender:      sender,
		concurrency: concurrency,
		logger:      log.WithComponent("dispatch"),
		orderID:     func() string { return fmt.Sprintf("%03d", rand.Intn(1000)) },
	}
}

// HandleBatch processes every event of one webhook batch and returns when
// all of them have concluded. The webhook layer calls this asynchronously,
// after the platform acknowledgment has already been written.
func (d *Dispatcher) HandleBatch(ctx context.Context, batch []events.Event) {
	g := new(errgroup.Group)
	g.SetLimit(d.concurrency)
	for _, ev := range batch {
		g.Go(func() error {
			d.handle(ctx, ev)
			return nil
		})
	}
	_ = g.Wait()
}

func (d *Dispatcher) handle(ctx context.Context, ev events.Event) {
	metrics.RecordEvent(string(ev.Kind()))

	switch ev := ev.(type) {
	case events.TextMessage:
		d.handleText(ctx, ev)
	case events.AttachmentMessage:
		if ev.AttachmentKind == events.AttachmentAudio {
			d.handleAudio(ctx, ev)
			return
		}
		d.send(ctx, ev.SenderID, gateway.Text(replyAttachmentAck))
	case events.DeliveryReceipt:
		d.logger.Info().
			Str(log.FieldUserID, ev.SenderID).
			Strs("message_ids", ev.MessageIDs).
			Int64("watermark", ev.Watermark).
			Msg("delivery confirmed")
	case events.Postback:
		d.logger.Info().
			Str(log.FieldUserID, ev.SenderID).
			Str(log.FieldPayload, ev.Payload).
			Msg("postback received")
		d.send(ctx, ev.SenderID, postbackReply(ev.Payload))
	case events.Unknown:
		d.logger.Warn().
			Str(log.FieldUserID, ev.SenderID).
			RawJSON("raw", ev.Raw).
			Msg("unrecognized event, dropping")
	}
}

func (d *Dispatcher) handleText(ctx context.Context, ev events.TextMessage) {
	if msg, ok := d.commandReply(ev.Text); ok {
		d.send(ctx, ev.SenderID, msg)
		return
	}

	d.typingOn(ctx, ev.SenderID)
	d.runTurn(ctx, ev.SenderID, ev.Text)
}

func (d *Dispatcher) handleAudio(ctx context.Context, ev events.AttachmentMessage) {
	d.typingOn(ctx, ev.SenderID)

	jobID := uuid.New().String()
	ctx = log.ContextWithJobID(ctx, jobID)

	text, err := d.pipeline.Transcribe(ctx, jobID, ev.AttachmentURL)
	if err != nil {
		d.logger.Warn().Err(err).
			Str(log.FieldJobID, jobID).
			Str(log.FieldUserID, ev.SenderID).
			Str("failure", pipelineFailure(err)).
			Msg("transcription job failed")
		d.send(ctx, ev.SenderID, gateway.Text(replyCannotUnderstand))
		return
	}

	// The transcript becomes the inbound text of a synthetic turn.
	d.runTurn(ctx, ev.SenderID, text)
}

func (d *Dispatcher) runTurn(ctx context.Context, userID, text string) {
	reply, err := d.engine.RunTurn(ctx, userID, text)
	if err != nil {
		d.logger.Warn().Err(err).
			Str(log.FieldUserID, userID).
			Msg("turn failed")
		d.send(ctx, userID, gateway.Text(replyTurnFailed))
		return
	}
	d.send(ctx, userID, gateway.Text(reply.Text))
}

// send delivers a message and gives up on failure. No retry: a failed send
// has no channel left to surface on.
func (d *Dispatcher) send(ctx context.Context, recipientID string, msg gateway.Message) {
	if _, err := d.sender.Send(ctx, recipientID, msg); err != nil {
		d.logger.Error().Err(err).
			Str(log.FieldRecipient, recipientID).
			Msg("unable to deliver message")
	}
}

func (d *Dispatcher) typingOn(ctx context.Context, recipientID string) {
	if err := d.sender.SenderAction(ctx, recipientID, gateway.TypingOn); err != nil {
		d.logger.Debug().Err(err).
			Str(log.FieldRecipient, recipientID).
			Msg("typing indicator not delivered")
	}
}

// pipelineFailure maps a pipeline error to its telemetry label.
func pipelineFailure(err error) string {
	switch {
	case errors.Is(err, media.ErrDownload):
		return "download"
	case errors.Is(err, media.ErrTranscode):
		return "transcode"
	case errors.Is(err, media.ErrTranscription):
		return "transcription_service"
	case errors.Is(err, media.ErrNoSpeech):
		return "no_speech"
	default:
		return "unknown"
	}
}
