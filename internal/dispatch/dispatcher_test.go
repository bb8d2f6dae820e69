// SPDX-License-Identifier: MIT

package dispatch

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/zwlin/pagebot/internal/engine"
	"github.com/zwlin/pagebot/internal/events"
	"github.com/zwlin/pagebot/internal/gateway"
	"github.com/zwlin/pagebot/internal/media"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type sentMessage struct {
	recipient string
	msg       gateway.Message
}

type fakeSender struct {
	mu      sync.Mutex
	sent    []sentMessage
	actions []string
	sendErr error
}

func (f *fakeSender) Send(_ context.Context, recipientID string, msg gateway.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.sent = append(f.sent, sentMessage{recipient: recipientID, msg: msg})
	return fmt.Sprintf("mid.%d", len(f.sent)), nil
}

func (f *fakeSender) SenderAction(_ context.Context, recipientID, action string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action)
	return nil
}

func (f *fakeSender) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

type fakeEngine struct {
	mu    sync.Mutex
	turns []string
	err   error
}

func (f *fakeEngine) RunTurn(_ context.Context, userID, text string) (engine.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.turns = append(f.turns, text)
	if f.err != nil {
		return engine.Reply{}, f.err
	}
	return engine.Reply{Text: "echo: " + text}, nil
}

func (f *fakeEngine) turnCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.turns)
}

type fakePipeline struct {
	text string
	err  error
}

func (f *fakePipeline) Transcribe(context.Context, string, string) (string, error) {
	return f.text, f.err
}

func newTestDispatcher(eng Engine, p Pipeline, s Sender) *Dispatcher {
	d := New(eng, p, s, 4)
	d.orderID = func() string { return "042" }
	return d
}

func TestTextMessageRunsTurn(t *testing.T) {
	sender := &fakeSender{}
	eng := &fakeEngine{}
	d := newTestDispatcher(eng, &fakePipeline{}, sender)

	d.HandleBatch(context.Background(), []events.Event{
		events.TextMessage{SenderID: "user-1", Text: "hello"},
	})

	require.Equal(t, []string{"hello"}, eng.turns)
	msgs := sender.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "user-1", msgs[0].recipient)
	assert.Equal(t, "echo: hello", msgs[0].msg.Text)
	assert.Contains(t, sender.actions, gateway.TypingOn)
}

func TestTextCommandBypassesEngine(t *testing.T) {
	sender := &fakeSender{}
	eng := &fakeEngine{}
	d := newTestDispatcher(eng, &fakePipeline{}, sender)

	d.HandleBatch(context.Background(), []events.Event{
		events.TextMessage{SenderID: "user-1", Text: "catalog"},
	})

	assert.Zero(t, eng.turnCount())
	msgs := sender.messages()
	require.Len(t, msgs, 1)
	require.NotNil(t, msgs[0].msg.Attachment)
	assert.Equal(t, "generic", msgs[0].msg.Attachment.Payload.TemplateType)
}

func TestPostbackIndependentOfSessions(t *testing.T) {
	sender := &fakeSender{}
	eng := &fakeEngine{}
	d := newTestDispatcher(eng, &fakePipeline{}, sender)

	d.HandleBatch(context.Background(), []events.Event{
		events.Postback{SenderID: "user-1", Payload: PostbackCatalog},
	})

	assert.Zero(t, eng.turnCount(), "postback must not touch the engine or any session")
	msgs := sender.messages()
	require.Len(t, msgs, 1)
	require.NotNil(t, msgs[0].msg.Attachment)
	assert.Equal(t, "generic", msgs[0].msg.Attachment.Payload.TemplateType)
}

func TestUnknownPostbackGetsFixedReply(t *testing.T) {
	sender := &fakeSender{}
	d := newTestDispatcher(&fakeEngine{}, &fakePipeline{}, sender)

	d.HandleBatch(context.Background(), []events.Event{
		events.Postback{SenderID: "user-1", Payload: "cart:4919020"},
	})

	msgs := sender.messages()
	require.Len(t, msgs, 1)
	assert.NotEmpty(t, msgs[0].msg.Text)
}

func TestDeliveryReceiptIsLogOnly(t *testing.T) {
	sender := &fakeSender{}
	eng := &fakeEngine{}
	d := newTestDispatcher(eng, &fakePipeline{}, sender)

	d.HandleBatch(context.Background(), []events.Event{
		events.DeliveryReceipt{SenderID: "user-1", MessageIDs: []string{"m1"}, Watermark: 42},
	})

	assert.Zero(t, eng.turnCount())
	assert.Empty(t, sender.messages())
}

func TestBatchIsolation(t *testing.T) {
	sender := &fakeSender{}
	eng := &fakeEngine{}
	d := newTestDispatcher(eng, &fakePipeline{}, sender)

	d.HandleBatch(context.Background(), []events.Event{
		events.Unknown{SenderID: "user-9", Raw: []byte(`{"weird":true}`)},
		events.TextMessage{SenderID: "user-1", Text: "hello"},
	})

	require.Equal(t, 1, eng.turnCount())
	msgs := sender.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "echo: hello", msgs[0].msg.Text)
}

func TestAudioAttachmentBecomesSyntheticTurn(t *testing.T) {
	sender := &fakeSender{}
	eng := &fakeEngine{}
	d := newTestDispatcher(eng, &fakePipeline{text: "what's the weather"}, sender)

	d.HandleBatch(context.Background(), []events.Event{
		events.AttachmentMessage{
			SenderID:       "user-1",
			AttachmentURL:  "https://cdn.example.com/voice.mp4",
			AttachmentKind: events.AttachmentAudio,
		},
	})

	require.Equal(t, []string{"what's the weather"}, eng.turns)
	msgs := sender.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "echo: what's the weather", msgs[0].msg.Text)
}

func TestAudioFailureShortCircuitsEngine(t *testing.T) {
	for name, err := range map[string]error{
		"download":      fmt.Errorf("%w: status 404", media.ErrDownload),
		"transcode":     fmt.Errorf("%w: boom", media.ErrTranscode),
		"transcription": fmt.Errorf("%w: provider", media.ErrTranscription),
		"no speech":     media.ErrNoSpeech,
	} {
		t.Run(name, func(t *testing.T) {
			sender := &fakeSender{}
			eng := &fakeEngine{}
			d := newTestDispatcher(eng, &fakePipeline{err: err}, sender)

			d.HandleBatch(context.Background(), []events.Event{
				events.AttachmentMessage{
					SenderID:       "user-1",
					AttachmentURL:  "https://cdn.example.com/voice.mp4",
					AttachmentKind: events.AttachmentAudio,
				},
			})

			assert.Zero(t, eng.turnCount(), "failed pipeline must not reach the engine")
			msgs := sender.messages()
			require.Len(t, msgs, 1)
			assert.Equal(t, replyCannotUnderstand, msgs[0].msg.Text)
		})
	}
}

func TestNonAudioAttachmentAcknowledged(t *testing.T) {
	sender := &fakeSender{}
	eng := &fakeEngine{}
	d := newTestDispatcher(eng, &fakePipeline{}, sender)

	d.HandleBatch(context.Background(), []events.Event{
		events.AttachmentMessage{SenderID: "user-1", AttachmentKind: events.AttachmentImage},
	})

	assert.Zero(t, eng.turnCount())
	msgs := sender.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, replyAttachmentAck, msgs[0].msg.Text)
}

func TestTurnFailureSendsGenericAck(t *testing.T) {
	sender := &fakeSender{}
	eng := &fakeEngine{err: fmt.Errorf("resolver down")}
	d := newTestDispatcher(eng, &fakePipeline{}, sender)

	d.HandleBatch(context.Background(), []events.Event{
		events.TextMessage{SenderID: "user-1", Text: "hello"},
	})

	msgs := sender.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, replyTurnFailed, msgs[0].msg.Text)
}

func TestPipelineFailureLabels(t *testing.T) {
	assert.Equal(t, "download", pipelineFailure(fmt.Errorf("%w: x", media.ErrDownload)))
	assert.Equal(t, "transcode", pipelineFailure(media.ErrTranscode))
	assert.Equal(t, "transcription_service", pipelineFailure(media.ErrTranscription))
	assert.Equal(t, "no_speech", pipelineFailure(media.ErrNoSpeech))
	assert.Equal(t, "unknown", pipelineFailure(fmt.Errorf("other")))
}
