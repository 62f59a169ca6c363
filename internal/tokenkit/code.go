package tokenkit

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateConfirmationCode returns a cryptographically random 6-digit code
// for email-confirmation and password-change tokens.
func GenerateConfirmationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("tokenkit: failed to generate confirmation code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
