// internal/webhook/verify.go
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignatureHeader is the header the provider signs event deliveries with.
const SignatureHeader = "X-Hub-Signature-256"

// VerifySignature checks the sha256=<hex> header against an HMAC-SHA256
// digest of the exact raw body. It must be called on the unparsed bytes,
// before anything is persisted. Comparison is constant time.
func VerifySignature(rawBody []byte, signature, secret string) bool {
	if signature == "" {
		return false
	}
	shaType, sigHex, found := strings.Cut(signature, "=")
	if !found || shaType != "sha256" {
		return false
	}
	expected, err := hex.DecodeString(sigHex)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	return hmac.Equal(mac.Sum(nil), expected)
}

// Sign computes the signature header value for a body. Used by tests and by
// anything replaying stored payloads.
func Sign(rawBody []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
