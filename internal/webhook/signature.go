// SPDX-License-Identifier: MIT

package webhook

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// ValidSignature checks the platform's X-Hub-Signature header (sha1=<hex>)
// against the request body using the shared app secret. Comparison is
// constant time.
func ValidSignature(secret, header string, body []byte) bool {
	method, wantHex, ok := strings.Cut(header, "=")
	if !ok || method != "sha1" {
		return false
	}
	want, err := hex.DecodeString(wantHex)
	if err != nil {
		return false
	}

	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(want, mac.Sum(nil))
}
