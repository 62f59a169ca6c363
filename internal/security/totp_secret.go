package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// SecretBox encrypts/decrypts a secret at rest with AES-256-GCM, under a
// key derived via HKDF-SHA256 from the life-cycle root secret. Deriving a
// purpose-scoped subkey per use means the same root secret can't be
// replayed against a different encryption use.
type SecretBox struct {
	key [32]byte
}

// NewSecretBox derives a 32-byte AES-256 key from root via HKDF-SHA256,
// scoped to the "mycelium-totp-secret-v1" info label so it never collides with a
// subkey derived from the same root for another purpose.
func NewSecretBox(root []byte) (*SecretBox, error) {
	return NewSecretBoxFor(root, "mycelium-totp-secret-v1")
}

// NewSecretBoxFor derives a purpose-scoped AES-256 key from root, keyed by
// info so unrelated at-rest secrets (a TOTP secret, a webhook secret) never
// share a derived key even though they share a root. internal/outbox uses
// this to decrypt WebHook.Secret with a distinct label from the TOTP box.
func NewSecretBoxFor(root []byte, info string) (*SecretBox, error) {
	kdf := hkdf.New(sha256.New, root, nil, []byte(info))
	var key [32]byte
	if _, err := io.ReadFull(kdf, key[:]); err != nil {
		return nil, fmt.Errorf("security: failed to derive secret box key for %q: %w", info, err)
	}
	return &SecretBox{key: key}, nil
}

// Encrypt returns a base64-encoded AES-256-GCM ciphertext of plaintext,
// with a fresh random nonce prepended. Unique-nonce-per-encryption is the
// load-bearing invariant.
func (b *SecretBox) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(b.key[:])
	if err != nil {
		return "", fmt.Errorf("security: failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("security: failed to create gcm: %w", err)
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("security: failed to generate nonce: %w", err)
	}
	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt, failing closed (GCM authentication error) on
// any tampering.
func (b *SecretBox) Decrypt(encoded string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("security: invalid base64 encoding: %w", err)
	}
	block, err := aes.NewCipher(b.key[:])
	if err != nil {
		return "", fmt.Errorf("security: failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("security: failed to create gcm: %w", err)
	}
	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", fmt.Errorf("security: ciphertext too short")
	}
	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("security: decryption failed (invalid key or tampered data): %w", err)
	}
	return string(plaintext), nil
}
