package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/lepista/mycelium/internal/domain"
	"github.com/lepista/mycelium/internal/merr"
)

// subscriptionCreatorRoles are the system actors a non-owner may hold to
// still be allowed to create a subscription account.
var subscriptionCreatorRoles = []string{string(domain.ActorTenantManager), string(domain.ActorSubscriptionsManager)}

// CreateSubscriptionAccount creates a checked subscription account under
// tenantID.
//
// Pre: profile is tenant-owner, or has system-accounts write access via a
// TenantManager/SubscriptionsManager role. Post: is_checked=true, and a
// SubscriptionAccountCreated webhook event is enqueued with a fresh
// correspondence id.
func CreateSubscriptionAccount(ctx context.Context, deps Deps, profile *domain.Profile, tenantID uuid.UUID, name string, writtenBy uuid.UUID) (domain.Account, error) {
	if err := requireTenantOwnerOrRoles(ctx, deps, profile, tenantID, subscriptionCreatorRoles); err != nil {
		return domain.Account{}, err
	}

	var created domain.Account
	err := deps.Tx(ctx, func(ctx context.Context) error {
		a := domain.NewAccount(uuid.New(), name, domain.NewSubscriptionAccountType(tenantID))
		a.IsChecked = true
		a.WrittenBy = writtenBy

		var err error
		created, err = deps.Accounts.Create(ctx, a)
		if err != nil {
			return merr.Wrap(merr.AccountAlreadyRegistered, "account with this slug already exists in tenant", err)
		}

		return enqueueWebhookEvent(ctx, deps.Outbox, domain.TriggerCreateSubscriptionAccount, created, created.ID)
	})
	if err != nil {
		return domain.Account{}, err
	}
	return created, nil
}

// requireTenantOwnerOrRoles is the shared precondition of most tenant-scoped
// mutations: the profile must either own the tenant directly, or carry one
// of allowedRoles as a system-accounts-write licensed resource (or outrank
// the check entirely via staff privilege).
func requireTenantOwnerOrRoles(ctx context.Context, deps Deps, profile *domain.Profile, tenantID uuid.UUID, allowedRoles []string) error {
	if profile.IsStaff {
		return nil
	}
	isOwner, err := deps.Tenants.IsOwner(ctx, tenantID, profile.AccID)
	if err != nil {
		return merr.Wrap(merr.InfrastructureUnavailable, "failed to check tenant ownership", err)
	}
	if isOwner {
		return nil
	}
	narrowed := profile.OnTenant(tenantID).WithRoles(allowedRoles...).WithWriteAccess()
	if len(narrowed.LicensedResources) > 0 {
		return nil
	}
	return merr.New(merr.ForbiddenCreate, "profile is neither tenant owner nor holds a permitted management role")
}
