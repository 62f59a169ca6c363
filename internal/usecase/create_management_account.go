package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/lepista/mycelium/internal/domain"
	"github.com/lepista/mycelium/internal/merr"
)

// GetOrCreated tags whether CreateManagementAccount found an existing row
// or created a fresh one — the idempotent get-or-create result shape.
type GetOrCreated struct {
	Account Account
	Created bool
}

// Account aliases domain.Account so GetOrCreated reads as a
// self-contained result type.
type Account = domain.Account

// managementAccountName is deterministic: "tid/{tenant_id_no_dashes}/manager".
func managementAccountName(tenantID uuid.UUID) string {
	return "tid/" + strings.ReplaceAll(tenantID.String(), "-", "") + "/manager"
}

// CreateManagementAccount returns the tenant's distinguished management
// account, creating it on first call.
//
// Pre: profile owns the tenant. Name and slug are deterministic from
// tenant_id; idempotent under get-or-create.
func CreateManagementAccount(ctx context.Context, deps Deps, profile *domain.Profile, tenantID uuid.UUID, writtenBy uuid.UUID) (GetOrCreated, error) {
	if !profile.IsStaff {
		isOwner, err := deps.Tenants.IsOwner(ctx, tenantID, profile.AccID)
		if err != nil {
			return GetOrCreated{}, merr.Wrap(merr.InfrastructureUnavailable, "failed to check tenant ownership", err)
		}
		if !isOwner {
			return GetOrCreated{}, merr.New(merr.ForbiddenCreate, "profile does not own this tenant")
		}
	}

	name := managementAccountName(tenantID)
	slug := domain.Slugify(name)

	existing, err := deps.Accounts.GetBySlug(ctx, tenantID, slug)
	if err == nil {
		return GetOrCreated{Account: existing, Created: false}, nil
	}

	var created domain.Account
	txErr := deps.Tx(ctx, func(ctx context.Context) error {
		a := domain.NewAccount(uuid.New(), name, domain.NewTenantManagerAccountType(tenantID))
		a.IsChecked = true
		a.IsDefault = true
		a.WrittenBy = writtenBy

		var createErr error
		created, createErr = deps.Accounts.Create(ctx, a)
		return createErr
	})
	if txErr != nil {
		return GetOrCreated{}, merr.Wrap(merr.AccountAlreadyRegistered, "failed to create management account", txErr)
	}
	return GetOrCreated{Account: created, Created: true}, nil
}
