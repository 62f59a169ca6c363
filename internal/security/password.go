// Package security implements the credential- and secret-protection
// primitives: memory-hard password and email-confirmation-code hashing,
// constant-time comparison, and the symmetric key derivation that encrypts
// a TOTP secret at rest.
package security

import (
	"fmt"

	"github.com/alexedwards/argon2id"
)

// Hasher defines the contract for password/code hashing, so use-cases
// depend on an interface rather than a concrete algorithm.
type Hasher interface {
	Hash(secret string) (string, error)
	Verify(secret, hash string) (bool, error)
}

// Argon2Hasher implements Hasher with argon2id, a memory-hard KDF.
type Argon2Hasher struct {
	params *argon2id.Params
}

// NewArgon2Hasher builds a Hasher with argon2id's recommended interactive
// parameters (64MB memory, 1 iteration, 4 threads).
func NewArgon2Hasher() *Argon2Hasher {
	return &Argon2Hasher{params: argon2id.DefaultParams}
}

// Hash returns the encoded argon2id hash of secret.
func (h *Argon2Hasher) Hash(secret string) (string, error) {
	hash, err := argon2id.CreateHash(secret, h.params)
	if err != nil {
		return "", fmt.Errorf("security: failed to hash secret: %w", err)
	}
	return hash, nil
}

// Verify reports whether secret matches hash. A malformed hash is not a
// password mismatch — it's surfaced as an error so callers can distinguish
// "wrong password" from "corrupt stored hash".
func (h *Argon2Hasher) Verify(secret, hash string) (bool, error) {
	match, err := argon2id.ComparePasswordAndHash(secret, hash)
	if err != nil {
		return false, fmt.Errorf("security: failed to verify secret: %w", err)
	}
	return match, nil
}
