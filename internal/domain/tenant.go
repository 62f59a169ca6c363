package domain

import (
	"time"

	"github.com/google/uuid"
)

// TenantStatusKind is one state in a Tenant's status sequence.
type TenantStatusKind string

const (
	TenantVerified TenantStatusKind = "verified"
	TenantTrashed  TenantStatusKind = "trashed"
	TenantArchived TenantStatusKind = "archived"
)

// ModifierKind tags who recorded a TenantStatusEntry: a human account or the
// system acting on its own (e.g. an automated archival sweep).
type ModifierKind string

const (
	ModifierAccount ModifierKind = "account"
	ModifierSystem  ModifierKind = "system"
)

// Modifier identifies who wrote a TenantStatusEntry.
type Modifier struct {
	Kind      ModifierKind
	AccountID uuid.UUID // set when Kind == ModifierAccount
}

func AccountModifier(accountID uuid.UUID) Modifier {
	return Modifier{Kind: ModifierAccount, AccountID: accountID}
}

func SystemModifier() Modifier { return Modifier{Kind: ModifierSystem} }

// TenantStatusEntry is one entry in a Tenant's append-only status sequence.
type TenantStatusEntry struct {
	Status TenantStatusKind
	At     time.Time
	By     Modifier
}

// Tenant is the top-level isolation boundary: accounts, guest roles and
// licensed resources are always scoped to exactly one tenant.
//
// INV: the last entry of Status by At is authoritative — Tenant.CurrentStatus
// never looks at entry order in the slice, only timestamps.
type Tenant struct {
	ID          uuid.UUID
	Name        string
	Description string
	Meta        map[string]string
	Status      []TenantStatusEntry
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CurrentStatus returns the most recent status entry by At. A Tenant with
// no status entries is not well-formed; callers that construct a Tenant
// must seed it with at least one Verified entry at creation time.
func (t Tenant) CurrentStatus() (TenantStatusEntry, bool) {
	var latest TenantStatusEntry
	found := false
	for _, entry := range t.Status {
		if !found || entry.At.After(latest.At) {
			latest = entry
			found = true
		}
	}
	return latest, found
}

// IsArchived reports whether the tenant's authoritative status is Archived.
func (t Tenant) IsArchived() bool {
	status, ok := t.CurrentStatus()
	return ok && status.Status == TenantArchived
}

// OwnerOnTenant records one owning account for a Tenant. A tenant may have
// more than one owner; owners are always AccountTypeUser accounts.
//
// INV: a live tenant always has at least one OwnerOnTenant row — enforced by
// the tenant-creation use-case, not by this type.
type OwnerOnTenant struct {
	TenantID  uuid.UUID
	OwnerID   uuid.UUID
	GrantedAt time.Time
}
