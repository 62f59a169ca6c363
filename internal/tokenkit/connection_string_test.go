package tokenkit

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepista/mycelium/internal/domain"
	"github.com/lepista/mycelium/internal/merr"
)

func TestSignVerify_RoundTrip(t *testing.T) {
	tenantID := uuid.New()
	scope := TenantScopedConnectionString{
		TenantID:          tenantID,
		PermissionedRoles: []domain.PermissionedRole{{RoleName: "Reader", Permission: domain.PermissionRead}},
		Expiration:        time.Now().Add(time.Hour),
	}
	issuer := uuid.New()

	wire := Sign(scope, []byte("k"), issuer, "alice@example.com")
	require.True(t, strings.HasPrefix(wire, string(KindTenantScoped)+"&"))
	require.Contains(t, wire, "SIG=")

	// The issuer binding is signed but never carried on the wire.
	assert.NotContains(t, wire, issuer.String())
	assert.NotContains(t, wire, "alice@example.com")

	decoded, err := Verify(wire, []byte("k"), time.Now(), issuer, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, KindTenantScoped, decoded.Kind)

	tid, ok := decoded.TenantID()
	require.True(t, ok)
	assert.Equal(t, tenantID, tid)

	prs := decoded.PermissionedRoles()
	require.Len(t, prs, 1)
	assert.Equal(t, "Reader", prs[0].RoleName)
}

func TestVerify_WrongSecret(t *testing.T) {
	issuer := uuid.New()
	scope := TenantScopedConnectionString{
		TenantID:          uuid.New(),
		PermissionedRoles: []domain.PermissionedRole{{RoleName: "Reader", Permission: domain.PermissionRead}},
		Expiration:        time.Now().Add(time.Hour),
	}
	wire := Sign(scope, []byte("k"), issuer, "alice@example.com")

	_, err := Verify(wire, []byte("k2"), time.Now(), issuer, "alice@example.com")
	assert.True(t, merr.Is(err, merr.TokenInvalidOrExpired))
}

func TestVerify_WrongIssuerBinding(t *testing.T) {
	issuer := uuid.New()
	scope := TenantScopedConnectionString{
		TenantID:   uuid.New(),
		Expiration: time.Now().Add(time.Hour),
	}
	wire := Sign(scope, []byte("k"), issuer, "alice@example.com")

	// Same secret, different issuer account or email: the extra-data
	// suffix no longer matches the signed message.
	_, err := Verify(wire, []byte("k"), time.Now(), uuid.New(), "alice@example.com")
	assert.True(t, merr.Is(err, merr.TokenInvalidOrExpired))

	_, err = Verify(wire, []byte("k"), time.Now(), issuer, "mallory@example.com")
	assert.True(t, merr.Is(err, merr.TokenInvalidOrExpired))
}

func TestVerify_Expired(t *testing.T) {
	issuer := uuid.New()
	scope := UserAccountConnectionString{
		AccountID:  uuid.New(),
		Expiration: time.Now().Add(-time.Minute),
	}
	wire := Sign(scope, []byte("k"), issuer, "alice@example.com")

	_, err := Verify(wire, []byte("k"), time.Now(), issuer, "alice@example.com")
	assert.True(t, merr.Is(err, merr.TokenInvalidOrExpired))
}

func TestVerify_Tampered(t *testing.T) {
	issuer := uuid.New()
	scope := AccountScopedConnectionString{
		TenantID:   uuid.New(),
		AccountID:  uuid.New(),
		Expiration: time.Now().Add(time.Hour),
	}
	wire := Sign(scope, []byte("k"), issuer, "alice@example.com")

	// Swap the target account id for a different one; the signature must
	// stop verifying.
	tampered := strings.Replace(wire, "AID="+scope.AccountID.String(), "AID="+uuid.New().String(), 1)
	_, err := Verify(tampered, []byte("k"), time.Now(), issuer, "alice@example.com")
	assert.True(t, merr.Is(err, merr.TokenInvalidOrExpired))
}

func TestVerify_Malformed(t *testing.T) {
	issuer := uuid.New()
	for _, wire := range []string{"", "tscs", "tscs&nosig=1", "tscs&EXP=notatime&SIG=x"} {
		_, err := Verify(wire, []byte("k"), time.Now(), issuer, "a@b.co")
		assert.True(t, merr.Is(err, merr.TokenInvalidOrExpired), "wire %q", wire)
	}
}

func TestSignatureIgnoresBeanOrder(t *testing.T) {
	beans := []Bean{
		{Tag: TagTID, Value: "t"},
		{Tag: TagAID, Value: "a"},
		{Tag: TagPR, Value: "Reader:0"},
	}
	reversed := []Bean{beans[2], beans[1], beans[0]}
	extra := extraData(uuid.Nil, "a@b.co")
	assert.Equal(t, sign(beans, []byte("k"), extra), sign(reversed, []byte("k"), extra))
}

func TestDecodedSatisfies(t *testing.T) {
	issuer := uuid.New()
	scope := TenantScopedConnectionString{
		TenantID: uuid.New(),
		PermissionedRoles: []domain.PermissionedRole{
			{RoleName: "Reader", Permission: domain.PermissionReadWrite},
			{RoleName: "Auditor", Permission: domain.PermissionRead},
		},
		Expiration: time.Now().Add(time.Hour),
	}
	wire := Sign(scope, []byte("k"), issuer, "a@b.co")
	decoded, err := Verify(wire, []byte("k"), time.Now(), issuer, "a@b.co")
	require.NoError(t, err)

	assert.True(t, decoded.Satisfies(nil))
	assert.True(t, decoded.Satisfies([]domain.PermissionedRole{
		{RoleName: "Reader", Permission: domain.PermissionWrite},
	}))
	assert.False(t, decoded.Satisfies([]domain.PermissionedRole{
		{RoleName: "Auditor", Permission: domain.PermissionWrite},
	}))
	assert.False(t, decoded.Satisfies([]domain.PermissionedRole{
		{RoleName: "Unknown", Permission: domain.PermissionRead},
	}))
}

func TestGenerateConfirmationCode(t *testing.T) {
	code, err := GenerateConfirmationCode()
	require.NoError(t, err)
	assert.Len(t, code, 6)
	for _, c := range code {
		assert.True(t, c >= '0' && c <= '9')
	}
}
