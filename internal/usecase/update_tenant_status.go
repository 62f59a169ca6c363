package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lepista/mycelium/internal/domain"
	"github.com/lepista/mycelium/internal/merr"
)

// UpdateTenantStatus appends a status entry to the tenant's sequence.
//
// Pre: profile is tenant owner. Rejects with PreconditionOnState
// (AlreadyInTargetState) if the most-recent status already equals
// next_status.
func UpdateTenantStatus(ctx context.Context, deps Deps, profile *domain.Profile, tenantID uuid.UUID, next domain.TenantStatusKind, by domain.Modifier) (domain.Tenant, error) {
	if !profile.IsStaff {
		isOwner, err := deps.Tenants.IsOwner(ctx, tenantID, profile.AccID)
		if err != nil {
			return domain.Tenant{}, merr.Wrap(merr.InfrastructureUnavailable, "failed to check tenant ownership", err)
		}
		if !isOwner {
			return domain.Tenant{}, merr.New(merr.InsufficientPrivileges, "profile does not own this tenant")
		}
	}

	tenant, err := deps.Tenants.Get(ctx, tenantID)
	if err != nil {
		return domain.Tenant{}, merr.Wrap(merr.UserNotFound, "tenant not found", err)
	}

	if current, ok := tenant.CurrentStatus(); ok && current.Status == next {
		return domain.Tenant{}, merr.New(merr.PreconditionOnState, "tenant is already in the target status")
	}

	tenant.Status = append(tenant.Status, domain.TenantStatusEntry{
		Status: next,
		At:     time.Now().UTC(),
		By:     by,
	})
	tenant.UpdatedAt = time.Now().UTC()

	updated, err := deps.Tenants.Update(ctx, tenant)
	if err != nil {
		return domain.Tenant{}, merr.Wrap(merr.InfrastructureUnavailable, "failed to update tenant status", err)
	}
	return updated, nil
}
