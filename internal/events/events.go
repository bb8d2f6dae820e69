// SPDX-License-Identifier: MIT

// Package events defines the inbound event variants extracted from a
// platform webhook batch.
package events

import (
	"encoding/json"
	"time"
)

// Kind classifies an inbound event.
type Kind string

const (
	KindText       Kind = "text"
	KindAttachment Kind = "attachment"
	KindDelivery   Kind = "delivery"
	KindPostback   Kind = "postback"
	KindUnknown    Kind = "unknown"
)

// AttachmentKind classifies the payload of an attachment message.
type AttachmentKind string

const (
	AttachmentAudio    AttachmentKind = "audio"
	AttachmentImage    AttachmentKind = "image"
	AttachmentVideo    AttachmentKind = "video"
	AttachmentFile     AttachmentKind = "file"
	AttachmentLocation AttachmentKind = "location"
)

// Event is the tagged variant over everything a webhook batch can carry.
// Implementations are immutable once decoded.
type Event interface {
	Kind() Kind
	Sender() string
}

// TextMessage is a free-text message from a user.
type TextMessage struct {
	SenderID    string
	RecipientID string
	Timestamp   time.Time
	MessageID   string
	Text        string
}

func (TextMessage) Kind() Kind       { return KindText }
func (m TextMessage) Sender() string { return m.SenderID }

// AttachmentMessage is a message carrying a binary attachment. Only the
// first attachment of the platform message is retained.
type AttachmentMessage struct {
	SenderID       string
	RecipientID    string
	Timestamp      time.Time
	MessageID      string
	AttachmentURL  string
	AttachmentKind AttachmentKind
}

func (AttachmentMessage) Kind() Kind       { return KindAttachment }
func (m AttachmentMessage) Sender() string { return m.SenderID }

// DeliveryReceipt confirms outbound messages up to a watermark.
type DeliveryReceipt struct {
	SenderID    string
	RecipientID string
	MessageIDs  []string
	Watermark   int64
}

func (DeliveryReceipt) Kind() Kind       { return KindDelivery }
func (m DeliveryReceipt) Sender() string { return m.SenderID }

// Postback is a button press carrying an opaque payload.
type Postback struct {
	SenderID    string
	RecipientID string
	Timestamp   time.Time
	Payload     string
}

func (Postback) Kind() Kind       { return KindPostback }
func (m Postback) Sender() string { return m.SenderID }

// Unknown wraps an entry the decoder could not classify. It is logged and
// dropped by the dispatcher; it must never fail the batch.
type Unknown struct {
	SenderID string
	Raw      json.RawMessage
}

func (Unknown) Kind() Kind       { return KindUnknown }
func (m Unknown) Sender() string { return m.SenderID }
