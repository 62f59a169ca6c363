package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/lepista/mycelium/internal/audit"
	"github.com/lepista/mycelium/internal/domain"
	"github.com/lepista/mycelium/internal/merr"
)

// UninviteGuest removes a guest user's association with an account and
// enqueues the UninviteGuestAccount webhook event — the inverse of
// GuestToChildrenAccount's attach step. The GuestUser row itself survives:
// it may still be attached to other accounts.
func UninviteGuest(ctx context.Context, deps Deps, profile *domain.Profile, tenantID, guestUserID, accountID uuid.UUID, writtenBy uuid.UUID) error {
	if err := requireTenantOwnerOrRoles(ctx, deps, profile, tenantID, []string{string(domain.ActorGuestsManager)}); err != nil {
		return err
	}

	exists, err := deps.GuestUsers.ExistsOnAccount(ctx, guestUserID, accountID)
	if err != nil {
		return merr.Wrap(merr.InfrastructureUnavailable, "failed to check guest association", err)
	}
	if !exists {
		return merr.New(merr.UserNotFound, "guest user is not associated with this account")
	}

	err = deps.Tx(ctx, func(ctx context.Context) error {
		if err := deps.GuestUsers.DetachFromAccount(ctx, guestUserID, accountID); err != nil {
			return merr.Wrap(merr.InfrastructureUnavailable, "failed to detach guest user", err)
		}
		return enqueueWebhookEvent(ctx, deps.Outbox, domain.TriggerUninviteGuestAccount, map[string]string{
			"guest_user_id": guestUserID.String(),
			"account_id":    accountID.String(),
		}, guestUserID)
	})
	if err != nil {
		return err
	}

	auditLog(ctx, deps, writtenBy, audit.EventGuestUninvited, guestUserID.String(), map[string]string{
		"account_id": accountID.String(),
	})
	return nil
}
