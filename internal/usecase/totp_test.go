package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepista/mycelium/internal/domain"
	"github.com/lepista/mycelium/internal/merr"
)

func TestTotpActivationFlow(t *testing.T) {
	env := newTestEnv(t)
	user := seedInternalUser(t, env, "alice@example.com")

	activation, err := TotpStartActivation(context.Background(), env.deps, user.Email)
	require.NoError(t, err)
	assert.Contains(t, activation.OtpauthURL, "issuer=mycelium")
	assert.NotEmpty(t, activation.QRCodePNG)

	stored, err := env.deps.Users.Get(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TotpEnabled, stored.MFA.Kind)
	assert.False(t, stored.MFA.Verified)

	// Derive the current code from the stored (encrypted) secret, the way
	// an enrolled authenticator would from the QR.
	secret, err := env.deps.SecretBox.Decrypt(stored.MFA.EncryptedSecret)
	require.NoError(t, err)
	code, err := env.deps.MFA.GenerateCode(secret)
	require.NoError(t, err)

	verified, err := TotpCheckToken(context.Background(), env.deps, user.Email, code)
	require.NoError(t, err)
	assert.Equal(t, user.ID, verified.ID)
	assert.True(t, verified.MFA.Verified)

	// Re-starting activation after verification is a conflict.
	_, err = TotpStartActivation(context.Background(), env.deps, user.Email)
	assert.True(t, merr.Is(err, merr.TotpAlreadyEnabled))
}

func TestTotpCheckToken_WrongCode(t *testing.T) {
	env := newTestEnv(t)
	user := seedInternalUser(t, env, "bob@example.com")

	_, err := TotpStartActivation(context.Background(), env.deps, user.Email)
	require.NoError(t, err)

	_, err = TotpCheckToken(context.Background(), env.deps, user.Email, "000000")
	assert.True(t, merr.Is(err, merr.TotpInvalid))
}

func TestTotpCheckToken_NotConfigured(t *testing.T) {
	env := newTestEnv(t)
	user := seedInternalUser(t, env, "carol@example.com")

	_, err := TotpCheckToken(context.Background(), env.deps, user.Email, "123456")
	assert.True(t, merr.Is(err, merr.TotpNotConfigured))
}
