// SPDX-License-Identifier: MIT

package gateway

// Recipient addresses an outbound message.
type Recipient struct {
	ID string `json:"id"`
}

// Button is one pressable element of a template.
type Button struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	URL     string `json:"url,omitempty"`
	Payload string `json:"payload,omitempty"`
}

// Element is one card of a generic template.
type Element struct {
	Title    string   `json:"title"`
	Subtitle string   `json:"subtitle,omitempty"`
	ItemURL  string   `json:"item_url,omitempty"`
	ImageURL string   `json:"image_url,omitempty"`
	Buttons  []Button `json:"buttons,omitempty"`
}

// ReceiptItem is one line of a receipt template.
type ReceiptItem struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Quantity int    `json:"quantity"`
	Price    int    `json:"price"`
	Currency string `json:"currency"`
}

// ReceiptSummary totals a receipt template.
type ReceiptSummary struct {
	Subtotal     int `json:"subtotal"`
	ShippingCost int `json:"shipping_cost"`
	TotalTax     int `json:"total_tax"`
	TotalCost    int `json:"total_cost"`
}

// AttachmentPayload is the polymorphic payload of an outbound attachment.
type AttachmentPayload struct {
	URL          string `json:"url,omitempty"`
	TemplateType string `json:"template_type,omitempty"`
	Text         string `json:"text,omitempty"`

	Buttons  []Button  `json:"buttons,omitempty"`
	Elements []Element `json:"elements,omitempty"`

	// Receipt fields
	RecipientName string          `json:"recipient_name,omitempty"`
	OrderNumber   string          `json:"order_number,omitempty"`
	Currency      string          `json:"currency,omitempty"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	ReceiptItems  []ReceiptItem   `json:"receipt_elements,omitempty"`
	Summary       *ReceiptSummary `json:"summary,omitempty"`
}

// Attachment is an outbound media or template attachment.
type Attachment struct {
	Type    string            `json:"type"`
	Payload AttachmentPayload `json:"payload"`
}

// Message is the outbound message body handed to Send.
type Message struct {
	Text       string      `json:"text,omitempty"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

// Text builds a plain text message.
func Text(text string) Message {
	return Message{Text: text}
}

// Image builds an image attachment message.
func Image(url string) Message {
	return Message{Attachment: &Attachment{
		Type:    "image",
		Payload: AttachmentPayload{URL: url},
	}}
}

// ButtonMenu builds a button template message.
func ButtonMenu(text string, buttons ...Button) Message {
	return Message{Attachment: &Attachment{
		Type: "template",
		Payload: AttachmentPayload{
			TemplateType: "button",
			Text:         text,
			Buttons:      buttons,
		},
	}}
}

// Generic builds a generic (carousel) template message.
func Generic(elements ...Element) Message {
	return Message{Attachment: &Attachment{
		Type: "template",
		Payload: AttachmentPayload{
			TemplateType: "generic",
			Elements:     elements,
		},
	}}
}

// Receipt builds a receipt template message.
func Receipt(recipientName, orderNumber, currency, paymentMethod string, items []ReceiptItem, summary ReceiptSummary) Message {
	return Message{Attachment: &Attachment{
		Type: "template",
		Payload: AttachmentPayload{
			TemplateType:  "receipt",
			RecipientName: recipientName,
			OrderNumber:   orderNumber,
			Currency:      currency,
			PaymentMethod: paymentMethod,
			ReceiptItems:  items,
			Summary:       &summary,
		},
	}}
}
