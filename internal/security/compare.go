package security

import "crypto/subtle"

// ConstantTimeEquals performs a constant-time comparison of two strings,
// preventing timing attacks against token/signature comparisons.
func ConstantTimeEquals(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
