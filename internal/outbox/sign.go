package outbox

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
)

// Sign returns the "sha512=<hex>" value carried in X-Hub-Signature-256.
// The header name keeps the GitHub-style convention even though the
// algorithm is HMAC-SHA512 rather than SHA-256; the "sha512=" prefix makes
// the actual algorithm explicit to consumers.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha512.New, secret)
	mac.Write(body)
	return "sha512=" + hex.EncodeToString(mac.Sum(nil))
}

// Verify constant-time compares body's expected signature against header.
func Verify(secret, body []byte, header string) bool {
	expected := Sign(secret, body)
	return hmac.Equal([]byte(expected), []byte(header))
}
