package domain

import (
	"time"

	"github.com/google/uuid"
)

// Permission orders the access a GuestRole carries on a resource.
// Read < Write < ReadWrite; "has permission p" iff own.Rank() >= p.Rank().
type Permission int

const (
	PermissionRead Permission = iota
	PermissionWrite
	PermissionReadWrite
)

func (p Permission) String() string {
	switch p {
	case PermissionRead:
		return "read"
	case PermissionWrite:
		return "write"
	case PermissionReadWrite:
		return "read_write"
	default:
		return "unknown"
	}
}

// Satisfies reports whether p grants at least the access that required
// demands: own.rank >= required.rank.
func (p Permission) Satisfies(required Permission) bool { return p >= required }

// PermissionedRole pairs a role name with the permission required on it.
type PermissionedRole struct {
	RoleName   string
	Permission Permission
}

// GuestRole is a named permission bundle a tenant can grant to guest users.
// Parent/child edges live in a separate adjacency relation
// (guest_role_children) rather than a single-parent field, so a
// role can have more than one parent; ChildIDs here is the loaded-children
// projection a repository returns, not the storage shape itself.
type GuestRole struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Name        string
	Slug        string
	Description string
	Permission  Permission
	ChildIDs    []uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// GuestUser is a guest identity (not a User, not tied to any Account
// directly) associated to accounts through GuestUserOnAccount rows.
type GuestUser struct {
	ID          uuid.UUID
	Email       Email
	GuestRoleID uuid.UUID
	WasVerified bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// GuestUserOnAccount is the natural-keyed association
// (guest_user_id, account_id) granting a GuestUser delegated authority over
// one Account, optionally narrowed/widened by bit-flag permit/deny sets.
type GuestUserOnAccount struct {
	GuestUserID uuid.UUID
	AccountID   uuid.UUID
	PermitFlags []string
	DenyFlags   []string
	CreatedAt   time.Time
}
