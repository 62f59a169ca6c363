package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/lepista/mycelium/internal/domain"
	"github.com/lepista/mycelium/internal/merr"
)

// DeleteSubscriptionAccount soft-deletes a subscription account and
// enqueues the matching webhook event. Hard-delete is a distinct,
// explicitly-named admin operation.
func DeleteSubscriptionAccount(ctx context.Context, deps Deps, profile *domain.Profile, tenantID, accountID uuid.UUID, writtenBy uuid.UUID) error {
	if err := requireTenantOwnerOrRoles(ctx, deps, profile, tenantID, subscriptionCreatorRoles); err != nil {
		return err
	}

	account, err := deps.Accounts.Get(ctx, accountID)
	if err != nil {
		return merr.Wrap(merr.UserNotFound, "subscription account not found", err)
	}
	if !account.TenantID.Valid || account.TenantID.UUID != tenantID {
		return merr.New(merr.ForbiddenCreate, "account does not belong to tenant")
	}

	return deps.Tx(ctx, func(ctx context.Context) error {
		if err := deps.Accounts.SoftDelete(ctx, accountID, writtenBy); err != nil {
			return merr.Wrap(merr.InfrastructureUnavailable, "failed to soft-delete account", err)
		}
		return enqueueWebhookEvent(ctx, deps.Outbox, domain.TriggerDeleteSubscriptionAccount, account, account.ID)
	})
}

// HardDeleteAccount permanently removes an account row. Admin-only: it
// requires staff privilege on the profile, so a tenant owner alone is
// rejected with InsufficientPrivileges.
func HardDeleteAccount(ctx context.Context, deps Deps, profile *domain.Profile, accountID uuid.UUID) error {
	if !profile.IsStaff {
		return merr.New(merr.InsufficientPrivileges, "hard delete requires staff privilege")
	}
	account, err := deps.Accounts.Get(ctx, accountID)
	if err != nil {
		return merr.Wrap(merr.UserNotFound, "account not found", err)
	}
	return deps.Tx(ctx, func(ctx context.Context) error {
		if err := deps.Accounts.HardDelete(ctx, account.ID); err != nil {
			return merr.Wrap(merr.InfrastructureUnavailable, "failed to hard-delete account", err)
		}
		return nil
	})
}
