// Package memory provides in-memory implementations of internal/repository's
// narrow capability interfaces: substitutes for the interface contracts
// used by tests and the reference binaries, not a persistence adapter in
// their own right. A mutex-guarded map per entity, no background eviction
// since rows here live for a process's lifetime.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/lepista/mycelium/internal/domain"
	"github.com/lepista/mycelium/internal/repository"
)

// Store is an in-memory backing for every repository interface Mycelium's
// use-cases depend on. A single Store instance satisfies all of them, the
// same way one Postgres connection pool would back every SQL adapter.
type Store struct {
	mu sync.Mutex

	tenants       map[uuid.UUID]domain.Tenant
	owners        map[uuid.UUID][]domain.OwnerOnTenant // tenantID -> owners
	accounts      map[uuid.UUID]domain.Account
	users         map[uuid.UUID]domain.User
	guestRoles    map[uuid.UUID]domain.GuestRole
	roleChildren  map[uuid.UUID][]uuid.UUID // parentID -> childIDs
	guestUsers    map[uuid.UUID]domain.GuestUser
	guestOnAcct   map[uuid.UUID][]domain.GuestUserOnAccount // guestUserID -> assocs
	tokens        map[uuid.UUID]domain.Token
	webhooks      map[uuid.UUID]domain.WebHook
	webhookEvents map[uuid.UUID]domain.WebhookDispatchEvent
	messageEvents map[uuid.UUID]domain.MessageSendingEvent
}

// New returns an empty Store ready for use.
func New() *Store {
	return &Store{
		tenants:       make(map[uuid.UUID]domain.Tenant),
		owners:        make(map[uuid.UUID][]domain.OwnerOnTenant),
		accounts:      make(map[uuid.UUID]domain.Account),
		users:         make(map[uuid.UUID]domain.User),
		guestRoles:    make(map[uuid.UUID]domain.GuestRole),
		roleChildren:  make(map[uuid.UUID][]uuid.UUID),
		guestUsers:    make(map[uuid.UUID]domain.GuestUser),
		guestOnAcct:   make(map[uuid.UUID][]domain.GuestUserOnAccount),
		tokens:        make(map[uuid.UUID]domain.Token),
		webhooks:      make(map[uuid.UUID]domain.WebHook),
		webhookEvents: make(map[uuid.UUID]domain.WebhookDispatchEvent),
		messageEvents: make(map[uuid.UUID]domain.MessageSendingEvent),
	}
}

// WithTx is the in-memory analogue of repository.TxFunc: every Store method
// already mutates under mu atomically, so the transaction boundary here is
// a no-op wrapper that simply runs fn — a SQL adapter would begin/commit
// here instead.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

var _ repository.TxFunc = (*Store)(nil).WithTx
