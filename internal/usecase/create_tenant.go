package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lepista/mycelium/internal/audit"
	"github.com/lepista/mycelium/internal/domain"
	"github.com/lepista/mycelium/internal/merr"
)

// CreateTenant provisions a tenant with its first owner and an initial
// Verified status entry, in one transaction — a live tenant must never exist
// without at least one owner.
//
// Pre: staff privilege. Tenants are the platform's isolation boundary;
// tenant-owners administer what exists, they don't mint siblings.
func CreateTenant(ctx context.Context, deps Deps, profile *domain.Profile, name, description string, ownerAccountID uuid.UUID) (domain.Tenant, error) {
	if !profile.IsStaff {
		return domain.Tenant{}, merr.New(merr.ForbiddenCreate, "tenant creation requires staff privilege")
	}

	now := time.Now().UTC()
	tenant := domain.Tenant{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		Status: []domain.TenantStatusEntry{{
			Status: domain.TenantVerified,
			At:     now,
			By:     domain.AccountModifier(profile.AccID),
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	var created domain.Tenant
	err := deps.Tx(ctx, func(ctx context.Context) error {
		var cerr error
		created, cerr = deps.Tenants.Create(ctx, tenant)
		if cerr != nil {
			return merr.Wrap(merr.InfrastructureUnavailable, "failed to create tenant", cerr)
		}
		if cerr := deps.Tenants.AddOwner(ctx, domain.OwnerOnTenant{
			TenantID:  created.ID,
			OwnerID:   ownerAccountID,
			GrantedAt: now,
		}); cerr != nil {
			return merr.Wrap(merr.InfrastructureUnavailable, "failed to seed tenant owner", cerr)
		}
		return nil
	})
	if err != nil {
		return domain.Tenant{}, err
	}

	auditLog(ctx, deps, profile.AccID, audit.EventTenantCreated, created.ID.String(), map[string]string{
		"owner": ownerAccountID.String(),
	})
	return created, nil
}
