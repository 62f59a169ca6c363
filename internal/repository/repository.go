// Package repository defines the narrow capability interfaces use-cases
// depend on, supplied by constructor injection. These are contracts only —
// no SQL or queue-broker adapter lives in this module.
// internal/repository/memory provides in-memory fakes used by tests and by
// the reference cmd/ binaries when no external store is wired.
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/lepista/mycelium/internal/domain"
)

// ErrNotFound is returned by any Get-style method when the row doesn't
// exist. Use-cases translate it into the appropriate merr.Kind.
var ErrNotFound = notFoundError{}

type notFoundError struct{}

func (notFoundError) Error() string { return "repository: not found" }

// ErrAlreadyExists is returned by a Create-style method when a uniqueness
// constraint (e.g. slug-within-tenant) is violated.
var ErrAlreadyExists = alreadyExistsError{}

type alreadyExistsError struct{}

func (alreadyExistsError) Error() string { return "repository: already exists" }

// TenantRepository owns Tenant and OwnerOnTenant rows.
type TenantRepository interface {
	Create(ctx context.Context, t domain.Tenant) (domain.Tenant, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Tenant, error)
	Update(ctx context.Context, t domain.Tenant) (domain.Tenant, error)
	AddOwner(ctx context.Context, o domain.OwnerOnTenant) error
	RemoveOwner(ctx context.Context, tenantID, ownerID uuid.UUID) error
	Owners(ctx context.Context, tenantID uuid.UUID) ([]domain.OwnerOnTenant, error)
	IsOwner(ctx context.Context, tenantID, ownerID uuid.UUID) (bool, error)
	OwnershipsOf(ctx context.Context, ownerID uuid.UUID) ([]domain.TenantOwnership, error)
}

// AccountRepository owns Account rows.
type AccountRepository interface {
	Create(ctx context.Context, a domain.Account) (domain.Account, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Account, error)
	GetBySlug(ctx context.Context, tenantID uuid.UUID, slug string) (domain.Account, error)
	Update(ctx context.Context, a domain.Account) (domain.Account, error)
	SoftDelete(ctx context.Context, id uuid.UUID, by uuid.UUID) error
	// HardDelete permanently removes the row. Admin-only; never called
	// from a tenant-owner-scoped use-case.
	HardDelete(ctx context.Context, id uuid.UUID) error
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]domain.Account, error)
}

// UserRepository owns User rows.
type UserRepository interface {
	Create(ctx context.Context, u domain.User) (domain.User, error)
	Get(ctx context.Context, id uuid.UUID) (domain.User, error)
	GetByEmail(ctx context.Context, email domain.Email) (domain.User, error)
	Update(ctx context.Context, u domain.User) (domain.User, error)
}

// GuestRoleRepository owns GuestRole rows and the guest_role_children
// adjacency relation.
type GuestRoleRepository interface {
	Create(ctx context.Context, r domain.GuestRole) (domain.GuestRole, error)
	Get(ctx context.Context, id uuid.UUID) (domain.GuestRole, error)
	Update(ctx context.Context, r domain.GuestRole) (domain.GuestRole, error)
	AddChild(ctx context.Context, parentID, childID uuid.UUID) error
	Children(ctx context.Context, parentID uuid.UUID) ([]uuid.UUID, error)
	Ancestors(ctx context.Context, roleID uuid.UUID) ([]uuid.UUID, error)
}

// GuestUserRepository owns GuestUser rows and their account associations.
type GuestUserRepository interface {
	Create(ctx context.Context, g domain.GuestUser) (domain.GuestUser, error)
	GetByEmailAndRole(ctx context.Context, email domain.Email, roleID uuid.UUID) (domain.GuestUser, error)
	AttachToAccount(ctx context.Context, assoc domain.GuestUserOnAccount) error
	DetachFromAccount(ctx context.Context, guestUserID, accountID uuid.UUID) error
	ExistsOnAccount(ctx context.Context, guestUserID, accountID uuid.UUID) (bool, error)
	LicensedResourcesForEmail(ctx context.Context, email domain.Email) ([]domain.LicensedResource, error)
}

// TokenRepository owns Token rows.
type TokenRepository interface {
	Create(ctx context.Context, t domain.Token) (domain.Token, error)
	// GetAndInvalidate atomically fetches and deletes a token by id, so a
	// successful call can only ever happen once.
	GetAndInvalidate(ctx context.Context, id uuid.UUID) (domain.Token, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Token, error)
	// GetByConnectionString resolves an inbound wire string to its issued
	// Token row — the single repository read on the gateway's verify path.
	GetByConnectionString(ctx context.Context, wire string) (domain.Token, error)
}

// WebHookRepository owns WebHook rows.
type WebHookRepository interface {
	Create(ctx context.Context, w domain.WebHook) (domain.WebHook, error)
	ListActiveByTrigger(ctx context.Context, trigger domain.WebHookTrigger) ([]domain.WebHook, error)
}

// OutboxRepository owns the webhook and message outboxes. Insertion of an
// event and the business mutation it accompanies must share one
// transaction; TxFunc exposes that boundary without depending on
// a concrete driver.
type OutboxRepository interface {
	EnqueueWebhookEvent(ctx context.Context, e domain.WebhookDispatchEvent) error
	EnqueueMessageEvent(ctx context.Context, e domain.MessageSendingEvent) error

	OldestPendingWebhookEvents(ctx context.Context, limit int) ([]domain.WebhookDispatchEvent, error)
	UpdateWebhookEvent(ctx context.Context, e domain.WebhookDispatchEvent) error

	OldestPendingMessageEvents(ctx context.Context, limit int) ([]domain.MessageSendingEvent, error)
	UpdateMessageEvent(ctx context.Context, e domain.MessageSendingEvent) error
}

// TxFunc runs fn within one transaction, committing iff fn returns nil. The
// in-memory fake treats this as a no-op boundary (all writes are already
// atomic under its mutex); a SQL adapter would begin/commit/rollback here.
type TxFunc func(ctx context.Context, fn func(ctx context.Context) error) error
