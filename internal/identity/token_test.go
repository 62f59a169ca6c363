package identity

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProvider(t *testing.T) *JWTProvider {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return NewJWTProviderFromKey(key, "mycelium.example", "test-kid")
}

func TestIssueValidate(t *testing.T) {
	p := newProvider(t)

	token, err := p.Issue("alice@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := p.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "mycelium.example", claims.Issuer)
}

func TestValidate_Expired(t *testing.T) {
	p := newProvider(t)

	token, err := p.Issue("alice@example.com", -2*time.Minute)
	require.NoError(t, err)

	_, err = p.Validate(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidate_WrongKey(t *testing.T) {
	a := newProvider(t)
	b := newProvider(t)

	token, err := a.Issue("alice@example.com", time.Hour)
	require.NoError(t, err)

	_, err = b.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_Garbage(t *testing.T) {
	p := newProvider(t)
	_, err := p.Validate("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWKS(t *testing.T) {
	p := newProvider(t)
	jwks, err := p.JWKS()
	require.NoError(t, err)
	require.Len(t, jwks.Keys, 1)
	assert.Equal(t, "RSA", jwks.Keys[0].Kty)
	assert.Equal(t, "test-kid", jwks.Keys[0].Kid)
	assert.Equal(t, "RS256", jwks.Keys[0].Alg)
	assert.NotEmpty(t, jwks.Keys[0].N)
}
