// SPDX-License-Identifier: MIT

package dispatch

import "github.com/zwlin/pagebot/internal/gateway"

// postbackReply resolves a postback payload through the static rule table.
// Postbacks never touch session state.
func postbackReply(payload string) gateway.Message {
	switch payload {
	case PostbackCatalog:
		return catalogMessage()
	default:
		return gateway.Text("I don't know what to do with that button yet.")
	}
}
