package usecase

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/lepista/mycelium/internal/audit"
	"github.com/lepista/mycelium/internal/domain"
	"github.com/lepista/mycelium/internal/merr"
)

// accountModeratorRoles may flip approval/archival flags without owning the
// tenant.
var accountModeratorRoles = []string{string(domain.ActorTenantManager), string(domain.ActorAccountManager)}

// ChangeAccountApprovalStatus sets an account's is_checked flag. Rejects
// with PreconditionOnState when the flag already holds the target value, so
// a replayed request is distinguishable from a state change.
func ChangeAccountApprovalStatus(ctx context.Context, deps Deps, profile *domain.Profile, tenantID, accountID uuid.UUID, approved bool, writtenBy uuid.UUID) (domain.Account, error) {
	return changeAccountFlag(ctx, deps, profile, tenantID, accountID, writtenBy,
		func(a domain.Account) bool { return a.IsChecked == approved },
		func(a *domain.Account) { a.IsChecked = approved },
		"approved", approved,
	)
}

// ChangeAccountArchivalStatus sets an account's is_archived flag.
func ChangeAccountArchivalStatus(ctx context.Context, deps Deps, profile *domain.Profile, tenantID, accountID uuid.UUID, archived bool, writtenBy uuid.UUID) (domain.Account, error) {
	return changeAccountFlag(ctx, deps, profile, tenantID, accountID, writtenBy,
		func(a domain.Account) bool { return a.IsArchived == archived },
		func(a *domain.Account) { a.IsArchived = archived },
		"archived", archived,
	)
}

func changeAccountFlag(
	ctx context.Context,
	deps Deps,
	profile *domain.Profile,
	tenantID, accountID, writtenBy uuid.UUID,
	alreadyThere func(domain.Account) bool,
	mutate func(*domain.Account),
	flagName string,
	flagValue bool,
) (domain.Account, error) {
	if err := requireTenantOwnerOrRoles(ctx, deps, profile, tenantID, accountModeratorRoles); err != nil {
		return domain.Account{}, err
	}

	account, err := deps.Accounts.Get(ctx, accountID)
	if err != nil {
		return domain.Account{}, merr.Wrap(merr.UserNotFound, "account not found", err)
	}
	if !account.TenantID.Valid || account.TenantID.UUID != tenantID {
		return domain.Account{}, merr.New(merr.InsufficientPrivileges, "account does not belong to tenant")
	}
	if alreadyThere(account) {
		return domain.Account{}, merr.New(merr.PreconditionOnState, "account is already in the target state")
	}

	mutate(&account)
	account.UpdatedAt = time.Now().UTC()
	account.WrittenBy = writtenBy

	var updated domain.Account
	err = deps.Tx(ctx, func(ctx context.Context) error {
		var uerr error
		updated, uerr = deps.Accounts.Update(ctx, account)
		if uerr != nil {
			return merr.Wrap(merr.InfrastructureUnavailable, "failed to update account", uerr)
		}
		trigger := domain.TriggerUpdateUserAccount
		if account.Type.IsSubscription() {
			trigger = domain.TriggerUpdateSubscriptionAccount
		}
		return enqueueWebhookEvent(ctx, deps.Outbox, trigger, updated, updated.ID)
	})
	if err != nil {
		return domain.Account{}, err
	}

	auditLog(ctx, deps, writtenBy, audit.EventAccountStatusChanged, updated.ID.String(), map[string]string{
		flagName: strconv.FormatBool(flagValue),
	})
	return updated, nil
}
