package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/lepista/mycelium/internal/domain"
	"github.com/lepista/mycelium/internal/repository"
)

type guestUserRepo struct{ *Store }

// GuestUsers returns the GuestUserRepository view of the shared Store.
func (s *Store) GuestUsers() repository.GuestUserRepository { return guestUserRepo{s} }

func (r guestUserRepo) Create(ctx context.Context, g domain.GuestUser) (domain.GuestUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guestUsers[g.ID] = g
	return g, nil
}

func (r guestUserRepo) GetByEmailAndRole(ctx context.Context, email domain.Email, roleID uuid.UUID) (domain.GuestUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range r.guestUsers {
		if g.Email.Email() == email.Email() && g.GuestRoleID == roleID {
			return g, nil
		}
	}
	return domain.GuestUser{}, repository.ErrNotFound
}

func (r guestUserRepo) AttachToAccount(ctx context.Context, assoc domain.GuestUserOnAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.guestOnAcct[assoc.GuestUserID] {
		if existing.AccountID == assoc.AccountID {
			return repository.ErrAlreadyExists
		}
	}
	r.guestOnAcct[assoc.GuestUserID] = append(r.guestOnAcct[assoc.GuestUserID], assoc)
	return nil
}

func (r guestUserRepo) DetachFromAccount(ctx context.Context, guestUserID, accountID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	assocs := r.guestOnAcct[guestUserID]
	for i, a := range assocs {
		if a.AccountID == accountID {
			r.guestOnAcct[guestUserID] = append(assocs[:i], assocs[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r guestUserRepo) ExistsOnAccount(ctx context.Context, guestUserID, accountID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.guestOnAcct[guestUserID] {
		if a.AccountID == accountID {
			return true, nil
		}
	}
	return false, nil
}

// LicensedResourcesForEmail joins guest_user x guest_role x account for the
// given email, one LicensedResource per (guest_user x account) association.
func (r guestUserRepo) LicensedResourcesForEmail(ctx context.Context, email domain.Email) ([]domain.LicensedResource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.LicensedResource
	for _, g := range r.guestUsers {
		if g.Email.Email() != email.Email() {
			continue
		}
		role, hasRole := r.guestRoles[g.GuestRoleID]
		for _, assoc := range r.guestOnAcct[g.ID] {
			acct, ok := r.accounts[assoc.AccountID]
			if !ok || acct.IsDeleted {
				continue
			}
			var tenantID uuid.UUID
			if acct.TenantID.Valid {
				tenantID = acct.TenantID.UUID
			}
			lr := domain.LicensedResource{
				TenantID:    tenantID,
				AccountID:   acct.ID,
				AccountName: acct.Name,
				PermitFlags: assoc.PermitFlags,
				DenyFlags:   assoc.DenyFlags,
				WasVerified: g.WasVerified,
			}
			if hasRole {
				lr.RoleName = role.Name
				lr.RoleID = role.ID
				lr.Permission = role.Permission
			}
			out = append(out, lr)
		}
	}
	return out, nil
}

var _ repository.GuestUserRepository = guestUserRepo{}
