package tokenkit

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lepista/mycelium/internal/domain"
)

// ScopeKind tags which connection-string variant a Scope carries — the
// wire-form kind prefix.
type ScopeKind string

const (
	KindUserAccount ScopeKind = "uacs"
	KindRoleScoped  ScopeKind = "rscs"
	KindAccountScoped ScopeKind = "ascs"
	KindTenantScoped ScopeKind = "tscs"
)

// Scope is any of the four connection-string variants, each of which
// exposes its own ordered bean list via Beans().
type Scope interface {
	Kind() ScopeKind
	Expires() time.Time
	Beans() []Bean
}

func expBean(t time.Time) Bean { return Bean{Tag: TagEXP, Value: t.UTC().Format(time.RFC3339)} }

func prBean(pr domain.PermissionedRole) Bean {
	return Bean{Tag: TagPR, Value: pr.RoleName + ":" + strconv.Itoa(int(pr.Permission))}
}

func parsePR(value string) (domain.PermissionedRole, bool) {
	idx := strings.LastIndex(value, ":")
	if idx < 0 {
		return domain.PermissionedRole{}, false
	}
	rank, err := strconv.Atoi(value[idx+1:])
	if err != nil {
		return domain.PermissionedRole{}, false
	}
	return domain.PermissionedRole{RoleName: value[:idx], Permission: domain.Permission(rank)}, true
}

// UserAccountConnectionString carries the same privileges as the user who
// issued it, scoped to one account.
type UserAccountConnectionString struct {
	AccountID  uuid.UUID
	Expiration time.Time
}

func (s UserAccountConnectionString) Kind() ScopeKind    { return KindUserAccount }
func (s UserAccountConnectionString) Expires() time.Time { return s.Expiration }
func (s UserAccountConnectionString) Beans() []Bean {
	return []Bean{{Tag: TagAID, Value: s.AccountID.String()}, expBean(s.Expiration)}
}

// RoleScopedConnectionString carries authority scoped to a guest role within
// a tenant, further narrowed by its permissioned-roles list.
type RoleScopedConnectionString struct {
	TenantID          uuid.UUID
	GuestRoleID       uuid.UUID
	PermissionedRoles []domain.PermissionedRole
	Expiration        time.Time
}

func (s RoleScopedConnectionString) Kind() ScopeKind    { return KindRoleScoped }
func (s RoleScopedConnectionString) Expires() time.Time { return s.Expiration }
func (s RoleScopedConnectionString) Beans() []Bean {
	beans := []Bean{
		{Tag: TagTID, Value: s.TenantID.String()},
		{Tag: TagRID, Value: s.GuestRoleID.String()},
	}
	for _, pr := range s.PermissionedRoles {
		beans = append(beans, prBean(pr))
	}
	beans = append(beans, expBean(s.Expiration))
	return beans
}

// AccountScopedConnectionString carries authority scoped to one account
// within a tenant, narrowed by its permissioned-roles list.
type AccountScopedConnectionString struct {
	TenantID          uuid.UUID
	AccountID         uuid.UUID
	PermissionedRoles []domain.PermissionedRole
	Expiration        time.Time
}

func (s AccountScopedConnectionString) Kind() ScopeKind    { return KindAccountScoped }
func (s AccountScopedConnectionString) Expires() time.Time { return s.Expiration }
func (s AccountScopedConnectionString) Beans() []Bean {
	beans := []Bean{
		{Tag: TagTID, Value: s.TenantID.String()},
		{Tag: TagAID, Value: s.AccountID.String()},
	}
	for _, pr := range s.PermissionedRoles {
		beans = append(beans, prBean(pr))
	}
	beans = append(beans, expBean(s.Expiration))
	return beans
}

// TenantScopedConnectionString carries authority scoped to an entire tenant,
// narrowed by its permissioned-roles list.
type TenantScopedConnectionString struct {
	TenantID          uuid.UUID
	PermissionedRoles []domain.PermissionedRole
	Expiration        time.Time
}

func (s TenantScopedConnectionString) Kind() ScopeKind    { return KindTenantScoped }
func (s TenantScopedConnectionString) Expires() time.Time { return s.Expiration }
func (s TenantScopedConnectionString) Beans() []Bean {
	beans := []Bean{{Tag: TagTID, Value: s.TenantID.String()}}
	for _, pr := range s.PermissionedRoles {
		beans = append(beans, prBean(pr))
	}
	beans = append(beans, expBean(s.Expiration))
	return beans
}
