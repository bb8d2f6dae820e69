// SPDX-License-Identifier: MIT

package dispatch

import "github.com/zwlin/pagebot/internal/gateway"

// Keyword commands answered with a fixed template, bypassing the action
// engine entirely.
const (
	cmdLucky   = "lucky"
	cmdOracle  = "oracle"
	cmdCatalog = "catalog"
	cmdReceipt = "receipt"
)

// PostbackCatalog is the payload the catalog button posts back.
const PostbackCatalog = "View [catalog]"

func catalogMessage() gateway.Message {
	return gateway.Generic(
		gateway.Element{
			Title:    "Canon 5D Mark III 24-70mm zoom kit",
			Subtitle: "22MP full frame, dual SD/CF slots, 6 fps burst, 61-point AF",
			ItemURL:  "https://shop.example.com/items/4919020",
			ImageURL: "https://shop.example.com/images/4919020.jpg",
			Buttons: []gateway.Button{
				{Type: "web_url", URL: "https://shop.example.com/items/4919020", Title: "Open listing"},
				{Type: "postback", Title: "Add to cart", Payload: "cart:4919020"},
			},
		},
		gateway.Element{
			Title:    "SONY A7 II 24-70mm zoom kit",
			Subtitle: "5-axis in-body stabilization, full frame",
			ItemURL:  "https://shop.example.com/items/5858008",
			ImageURL: "https://shop.example.com/images/5858008.jpg",
			Buttons: []gateway.Button{
				{Type: "web_url", URL: "https://shop.example.com/items/5858008", Title: "Open listing"},
				{Type: "postback", Title: "Add to cart", Payload: "cart:5858008"},
			},
		},
	)
}

func receiptMessage(orderNumber string) gateway.Message {
	return gateway.Receipt(
		"Zheng-Wei Lin",
		orderNumber,
		"TWD",
		"Visa 1234",
		[]gateway.ReceiptItem{
			{
				Title:    "SONY A7 II 24-70mm zoom kit",
				Subtitle: "5-axis in-body stabilization, full frame",
				Quantity: 1,
				Price:    79980,
				Currency: "TWD",
			},
		},
		gateway.ReceiptSummary{
			Subtotal:  79980,
			TotalCost: 67183,
		},
	)
}

func oracleMessage() gateway.Message {
	return gateway.ButtonMenu(
		"Dear subject, what would you like?",
		gateway.Button{
			Type:  "web_url",
			Title: "Show me the current sale",
			URL:   "https://shop.example.com/sale",
		},
		gateway.Button{
			Type:    "postback",
			Title:   "Show me the newest cameras",
			Payload: PostbackCatalog,
		},
	)
}

// commandReply resolves a keyword command to its fixed reply. The second
// return is false for ordinary text, which goes to the action engine
// instead.
func (d *Dispatcher) commandReply(text string) (gateway.Message, bool) {
	switch text {
	case cmdLucky:
		return gateway.Image("https://i.imgur.com/zYIlgBl.png"), true
	case cmdOracle:
		return oracleMessage(), true
	case cmdCatalog:
		return catalogMessage(), true
	case cmdReceipt:
		return receiptMessage("order" + d.orderID()), true
	default:
		return gateway.Message{}, false
	}
}
