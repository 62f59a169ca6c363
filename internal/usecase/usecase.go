// Package usecase implements Mycelium's authorization operations, one file
// per operation. Operations that take a writtenBy argument record that
// actor on the rows they write or in their audit entry, and an operation's
// webhook/email side-effect is enqueued in the same logical transaction as
// the business mutation.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lepista/mycelium/internal/audit"
	"github.com/lepista/mycelium/internal/mfa"
	"github.com/lepista/mycelium/internal/repository"
	"github.com/lepista/mycelium/internal/security"
)

// LifeCycle bundles the tenant-wide configuration operations need beyond
// their repositories: mail identity, locale, and the connection-string
// token secret, all sourced from the life_cycle config block.
type LifeCycle struct {
	DomainName    string
	DomainURL     string
	SupportEmail  string
	NoreplyEmail  string
	NoreplyName   string
	Locale        string
	TokenSecret   []byte // HMAC-SHA512 key for connection-string signing
	TokenExpiration time.Duration
}

// Deps bundles every repository and collaborator the use-cases in this
// package are constructed with.
type Deps struct {
	Tenants    repository.TenantRepository
	Accounts   repository.AccountRepository
	Users      repository.UserRepository
	GuestRoles repository.GuestRoleRepository
	GuestUsers repository.GuestUserRepository
	Tokens     repository.TokenRepository
	WebHooks   repository.WebHookRepository
	Outbox     repository.OutboxRepository
	Tx         repository.TxFunc

	Hasher    security.Hasher
	SecretBox *security.SecretBox
	// WebhookSecrets seals WebHook.Secret at rest; derived from the same
	// root as SecretBox but under a distinct HKDF label, and shared with
	// internal/outbox's dispatcher, which decrypts before signing.
	WebhookSecrets *security.SecretBox
	MFA            *mfa.Service

	// Templates renders the locale-scoped notification bodies use-cases
	// enqueue; satisfied by internal/notify.Renderer.
	Templates TemplateRenderer

	// Audit records the mutation trail; nil disables it (tests).
	Audit audit.Logger

	LifeCycle LifeCycle
}

// auditLog records through deps.Audit when one is wired.
func auditLog(ctx context.Context, deps Deps, actorID uuid.UUID, action audit.EventType, resource string, metadata map[string]string) {
	if deps.Audit == nil {
		return
	}
	deps.Audit.Log(ctx, actorID, action, resource, metadata)
}

// TemplateRenderer is the narrow capability use-cases need from
// internal/notify: render a named template for a locale against a data
// context, returning the rendered subject and body.
type TemplateRenderer interface {
	Render(locale, prefix string, data map[string]any) (subject, body string, err error)
}
