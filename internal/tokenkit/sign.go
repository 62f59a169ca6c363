package tokenkit

import (
	"crypto/hmac"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
)

// sign computes Base64(HMAC-SHA512(secret, canonical_bean_concat || extraData))
// over beans (excluding any SIG bean) in canonical order. extraData is the
// issuer binding — a literal string suffix on the signed message, never a
// bean, so it is absent from the wire form.
func sign(beans []Bean, secret []byte, extraData string) string {
	message := canonicalConcat(beans) + extraData
	mac := hmac.New(sha512.New, secret)
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// verifySignature recomputes the signature over beans (excluding SIG) plus
// extraData and constant-time compares it against the provided SIG bean's
// value.
func verifySignature(beans []Bean, secret []byte, extraData, sig string) bool {
	expected := sign(beans, secret, extraData)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(sig)) == 1
}
