// Package profile implements Profile assembly: resolving an
// email to the materialized authorization view every downstream request
// consumes. The gating methods that narrow it for a specific
// authorization check are methods on domain.Profile. Assembly is pure
// and non-mutating: it never writes to a repository, and it must filter before returning — never return a
// fuller profile than the caller is authorized to see.
package profile

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/lepista/mycelium/internal/domain"
	"github.com/lepista/mycelium/internal/merr"
	"github.com/lepista/mycelium/internal/repository"
)

// Filter narrows the licensed resources assembly considers. It is applied
// to the fetched resources before the Profile is built, so the returned
// Profile never carries a resource the filter excludes.
type Filter struct {
	TenantID          uuid.NullUUID
	Roles             []string
	PermissionedRoles []domain.PermissionedRole
}

// Assembler resolves an email into a Profile using the repositories it was
// built from.
type Assembler struct {
	Users       repository.UserRepository
	Accounts    repository.AccountRepository
	GuestUsers  repository.GuestUserRepository
	Tenants     repository.TenantRepository
}

// Assemble builds the Profile for email, applying filter during resource
// collection (step 3). It is idempotent and pure given repository state.
func (a *Assembler) Assemble(ctx context.Context, email domain.Email, filter Filter) (*domain.Profile, error) {
	user, err := a.Users.GetByEmail(ctx, email)
	if err != nil {
		return nil, merr.Wrap(merr.UserNotFound, fmt.Sprintf("unregistered user %q", domain.RedactEmail(email.Email())), err)
	}

	var account domain.Account
	if user.AccountID.Valid {
		account, err = a.Accounts.Get(ctx, user.AccountID.UUID)
		if err != nil {
			// A soft-deleted or missing account behind the user row is
			// treated as the user not existing at all.
			return nil, merr.Wrap(merr.UserNotFound, "account for user not found or deleted", err)
		}
	}

	isSub, isMgr, isStaff := RolesFromAccountType(account.Type)

	resources, err := a.GuestUsers.LicensedResourcesForEmail(ctx, email)
	if err != nil {
		return nil, merr.Wrap(merr.InfrastructureUnavailable, "failed to load licensed resources", err)
	}
	resources = applyFilter(resources, filter)

	var ownerships []domain.TenantOwnership
	if user.IsPrincipal {
		ownerships, err = a.Tenants.OwnershipsOf(ctx, account.ID)
		if err != nil {
			return nil, merr.Wrap(merr.InfrastructureUnavailable, "failed to load tenant ownerships", err)
		}
	}

	owner := domain.Owner{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		IsActive:  user.IsActive,
	}

	p := &domain.Profile{
		Owners:             []domain.Owner{owner},
		AccID:              account.ID,
		IsSubscription:     isSub,
		IsManager:          isMgr,
		IsStaff:            isStaff,
		OwnerIsActive:      user.IsActive,
		AccountIsActive:    account.IsActive,
		AccountWasApproved: account.IsChecked,
		AccountWasArchived: account.IsArchived,
		VerboseStatus:      account.VerboseStatus(),
		TenantsOwnership:   ownerships,
		LicensedResources:  resources,
	}
	return p, nil
}

// applyFilter applies the three independent narrowings: tenant, role-name
// set, and permissioned-role set.
func applyFilter(resources []domain.LicensedResource, f Filter) []domain.LicensedResource {
	out := make([]domain.LicensedResource, 0, len(resources))
	for _, r := range resources {
		if f.TenantID.Valid && r.TenantID != f.TenantID.UUID {
			continue
		}
		if len(f.Roles) > 0 && !containsRole(f.Roles, r.RoleName) {
			continue
		}
		if len(f.PermissionedRoles) > 0 && !matchesPermissionedRoles(f.PermissionedRoles, r) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func containsRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func matchesPermissionedRoles(required []domain.PermissionedRole, r domain.LicensedResource) bool {
	for _, req := range required {
		if req.RoleName == r.RoleName && r.Permission.Satisfies(req.Permission) {
			return true
		}
	}
	return false
}

// RolesFromAccountType maps an AccountType to the Profile's
// is_subscription/is_manager/is_staff booleans.
func RolesFromAccountType(t domain.AccountType) (isSubscription, isManager, isStaff bool) {
	switch {
	case t.Kind == domain.AccountTypeStaff:
		return false, true, true
	case t.Kind == domain.AccountTypeTenantManager:
		return false, true, false
	case t.Kind == domain.AccountTypeActorAssociated && t.Actor == domain.ActorTenantManager:
		return false, true, false
	case t.Kind == domain.AccountTypeSubscription || t.Kind == domain.AccountTypeRoleAssociated:
		return true, false, false
	default:
		return false, false, false
	}
}
