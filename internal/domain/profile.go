package domain

import (
	"time"

	"github.com/google/uuid"
)

// Owner is one user who can administer an account or tenant — the subject
// identity a Profile is built around.
type Owner struct {
	ID        uuid.UUID
	Email     Email
	FirstName string
	LastName  string
	IsActive  bool
}

// TenantOwnership is one tenant the Profile's principal co-owns.
type TenantOwnership struct {
	TenantID uuid.UUID
	Name     string
	Since    time.Time
}

// LicensedResource is one row of delegated authority (guest access) a
// subject holds over an account: one row per (guest_user x account x role).
type LicensedResource struct {
	TenantID    uuid.UUID
	AccountID   uuid.UUID
	AccountName string
	RoleName    string
	RoleID      uuid.UUID
	Permission  Permission
	PermitFlags []string
	DenyFlags   []string
	WasVerified bool
}

// Profile is the materialized authorization view for one principal, derived
// fresh per request — never cached or persisted.
type Profile struct {
	Owners []Owner
	AccID  uuid.UUID

	IsSubscription    bool
	IsManager         bool
	IsStaff           bool
	OwnerIsActive     bool
	AccountIsActive   bool
	AccountWasApproved bool
	AccountWasArchived bool
	VerboseStatus     VerboseStatus

	TenantsOwnership  []TenantOwnership
	LicensedResources []LicensedResource
}

// PrincipalOwner returns the profile's canonical owner identity, i.e. the
// first Owner marked principal by construction order. Profile assembly
// always places the principal first; create_connection_string
// requires one to exist.
func (p *Profile) PrincipalOwner() (Owner, bool) {
	if len(p.Owners) == 0 {
		return Owner{}, false
	}
	return p.Owners[0], true
}

// RelatedAccountsKind tags which variant GetIDsOrError/GetRelatedAccountOrError
// returned.
type RelatedAccountsKind string

const (
	RelatedAllowedAccounts      RelatedAccountsKind = "allowed_accounts"
	RelatedHasTenantWidePrivilege RelatedAccountsKind = "tenant_wide"
	RelatedHasStaffPrivilege    RelatedAccountsKind = "staff"
)

// RelatedAccounts is the terminal result of narrowing a Profile down to the
// account ids a subject may act upon, or a privilege tier that supersedes
// any specific account list.
type RelatedAccounts struct {
	Kind       RelatedAccountsKind
	AccountIDs []uuid.UUID // meaningful when Kind == RelatedAllowedAccounts
}
