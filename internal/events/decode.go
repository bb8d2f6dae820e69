// SPDX-License-Identifier: MIT

package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotPageObject reports a webhook payload that does not belong to a page
// subscription; the whole batch is ignored in that case.
var ErrNotPageObject = errors.New("webhook payload is not a page object")

// Wire format of the platform envelope.
type envelope struct {
	Object string `json:"object"`
	Entry  []struct {
		ID        string            `json:"id"`
		Time      int64             `json:"time"`
		Messaging []json.RawMessage `json:"messaging"`
	} `json:"entry"`
}

type wireEvent struct {
	Sender    struct{ ID string } `json:"sender"`
	Recipient struct{ ID string } `json:"recipient"`
	Timestamp int64               `json:"timestamp"`
	Message   *struct {
		MID         string `json:"mid"`
		Text        string `json:"text"`
		Attachments []struct {
			Type    string `json:"type"`
			Payload struct {
				URL string `json:"url"`
			} `json:"payload"`
		} `json:"attachments"`
	} `json:"message"`
	Delivery *struct {
		MIDs      []string `json:"mids"`
		Watermark int64    `json:"watermark"`
	} `json:"delivery"`
	Postback *struct {
		Payload string `json:"payload"`
	} `json:"postback"`
}

// DecodeBatch turns a raw webhook body into the flat list of events it
// carries. A malformed or unclassifiable entry decodes to Unknown so that
// one bad entry never blocks its siblings.
func DecodeBatch(body []byte) ([]Event, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode webhook envelope: %w", err)
	}
	if env.Object != "page" {
		return nil, ErrNotPageObject
	}

	var out []Event
	for _, entry := range env.Entry {
		for _, raw := range entry.Messaging {
			out = append(out, decodeOne(raw))
		}
	}
	return out, nil
}

func decodeOne(raw json.RawMessage) Event {
	var w wireEvent
	if err := json.Unmarshal(raw, &w); err != nil {
		return Unknown{Raw: raw}
	}

	ts := time.UnixMilli(w.Timestamp)

	switch {
	case w.Message != nil && w.Message.Text != "":
		return TextMessage{
			SenderID:    w.Sender.ID,
			RecipientID: w.Recipient.ID,
			Timestamp:   ts,
			MessageID:   w.Message.MID,
			Text:        w.Message.Text,
		}
	case w.Message != nil && len(w.Message.Attachments) > 0:
		att := w.Message.Attachments[0]
		return AttachmentMessage{
			SenderID:       w.Sender.ID,
			RecipientID:    w.Recipient.ID,
			Timestamp:      ts,
			MessageID:      w.Message.MID,
			AttachmentURL:  att.Payload.URL,
			AttachmentKind: AttachmentKind(att.Type),
		}
	case w.Delivery != nil:
		return DeliveryReceipt{
			SenderID:    w.Sender.ID,
			RecipientID: w.Recipient.ID,
			MessageIDs:  w.Delivery.MIDs,
			Watermark:   w.Delivery.Watermark,
		}
	case w.Postback != nil:
		return Postback{
			SenderID:    w.Sender.ID,
			RecipientID: w.Recipient.ID,
			Timestamp:   ts,
			Payload:     w.Postback.Payload,
		}
	default:
		return Unknown{SenderID: w.Sender.ID, Raw: raw}
	}
}
