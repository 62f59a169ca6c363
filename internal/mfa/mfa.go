// Package mfa implements TOTP activation and verification: RFC-6238 TOTP
// over SHA1, 6 digits, 30s step — pquerna/otp's defaults.
package mfa

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"image/png"
	"math/big"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/lepista/mycelium/internal/merr"
)

// Service generates and validates TOTP secrets for one issuer, "mycelium"
// in production wiring.
type Service struct {
	issuer string
}

func NewService(issuer string) *Service {
	return &Service{issuer: issuer}
}

// GenerateSecret creates a new TOTP key for accountName (typically the
// user's email) and a PNG-encoded QR code for its otpauth URL.
func (s *Service) GenerateSecret(accountName string) (*otp.Key, []byte, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: accountName,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("mfa: failed to generate totp key: %w", err)
	}

	var buf bytes.Buffer
	img, err := key.Image(200, 200)
	if err != nil {
		return nil, nil, fmt.Errorf("mfa: failed to create qr code: %w", err)
	}
	if err := png.Encode(&buf, img); err != nil {
		return nil, nil, fmt.Errorf("mfa: failed to encode png: %w", err)
	}

	return key, buf.Bytes(), nil
}

// ValidateCode checks code against secret at the current time step,
// surfacing the TotpInvalid kind on mismatch rather than a bare bool
// so use-cases don't have to re-derive the error taxonomy at every call
// site.
func (s *Service) ValidateCode(code, secret string) error {
	if !totp.Validate(code, secret) {
		return merr.New(merr.TotpInvalid, "totp code invalid or expired")
	}
	return nil
}

// GenerateCode produces the current TOTP code for secret. Only tests call
// it; no use-case or endpoint does.
func (s *Service) GenerateCode(secret string) (string, error) {
	return totp.GenerateCode(secret, time.Now())
}

// GenerateBackupCodes creates count cryptographically secure recovery codes
// in XXXX-XXXX form, excluding visually ambiguous characters (I, O, 0, 1).
// Callers hash them before storage, same as password hashing.
func (s *Service) GenerateBackupCodes(count int) ([]string, error) {
	const chars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codes := make([]string, count)

	for i := 0; i < count; i++ {
		code := make([]byte, 8)
		for j := 0; j < 8; j++ {
			num, err := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
			if err != nil {
				return nil, fmt.Errorf("mfa: crypto/rand failed: %w", err)
			}
			code[j] = chars[num.Int64()]
		}
		codes[i] = string(code[:4]) + "-" + string(code[4:])
	}
	return codes, nil
}
