package domain

import (
	"time"

	"github.com/google/uuid"
)

// TokenMetaKind tags which variant a Token's Meta payload carries.
type TokenMetaKind string

const (
	TokenEmailConfirmation            TokenMetaKind = "email_confirmation"
	TokenPasswordChange                TokenMetaKind = "password_change"
	TokenUserAccountConnectionString   TokenMetaKind = "user_account_connection_string"
	TokenRoleScopedConnectionString    TokenMetaKind = "role_scoped_connection_string"
	TokenAccountScopedConnectionString TokenMetaKind = "account_scoped_connection_string"
	TokenTenantScopedConnectionString  TokenMetaKind = "tenant_scoped_connection_string"
)

// TokenMeta is the tagged payload of a Token row. Only the fields matching
// Kind are meaningful; connection-string variants carry their scope already
// serialized (see internal/tokenkit) since the wire form is what gets
// verified, not a reconstructed Go value.
type TokenMeta struct {
	Kind TokenMetaKind

	// EmailConfirmation / PasswordChange fields.
	UserID     uuid.UUID
	Email      Email
	HashedCode string

	// Connection-string variants: the already-serialized wire form plus
	// the issuing account. The issuer rides on the row, not the wire —
	// signature verification re-derives the issuer binding from here.
	ConnectionString string
	AccountID        uuid.UUID
}

// Token is a single-purpose, expiring row: email/password tokens are
// consumed-and-deleted by the use-case that redeems them; connection-string
// variants are issued and left to expire.
type Token struct {
	ID         uuid.UUID
	Meta       TokenMeta
	Expiration time.Time
	CreatedAt  time.Time
}

// Expired reports whether the token's expiration has passed as of now.
func (t Token) Expired(now time.Time) bool { return !now.Before(t.Expiration) }
