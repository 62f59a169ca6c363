package usecase

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepista/mycelium/internal/domain"
	"github.com/lepista/mycelium/internal/merr"
)

func TestCreateSubscriptionAccount_AsTenantOwner(t *testing.T) {
	env := newTestEnv(t)
	tenant := env.seedTenant(t)
	profile := env.ownerProfile(t, tenant.ID)

	account, err := CreateSubscriptionAccount(context.Background(), env.deps, profile, tenant.ID, "Acme", profile.AccID)
	require.NoError(t, err)

	assert.Equal(t, "Acme", account.Name)
	assert.Equal(t, "acme", account.Slug)
	assert.True(t, account.IsChecked)
	assert.Equal(t, domain.AccountTypeSubscription, account.Type.Kind)
	assert.Equal(t, tenant.ID, account.TenantID.UUID)
	assert.Equal(t, profile.AccID, account.WrittenBy)

	events := env.pendingWebhookEvents(t)
	require.Len(t, events, 1)
	assert.Equal(t, domain.TriggerCreateSubscriptionAccount, events[0].Trigger)
	assert.Equal(t, account.ID, events[0].PayloadID)
	assert.NotEqual(t, uuid.Nil, events[0].CorrespondenceID)
}

func TestCreateSubscriptionAccount_InsufficientPrivilege(t *testing.T) {
	env := newTestEnv(t)
	tenant := env.seedTenant(t)

	// A profile with no ownership and no management roles.
	stranger := &domain.Profile{AccID: uuid.New()}

	_, err := CreateSubscriptionAccount(context.Background(), env.deps, stranger, tenant.ID, "Acme", stranger.AccID)
	assert.True(t, merr.Is(err, merr.ForbiddenCreate))

	assert.Empty(t, env.pendingWebhookEvents(t))
	accounts, lerr := env.deps.Accounts.ListByTenant(context.Background(), tenant.ID)
	require.NoError(t, lerr)
	assert.Empty(t, accounts)
}

func TestCreateSubscriptionAccount_ViaManagerRole(t *testing.T) {
	env := newTestEnv(t)
	tenant := env.seedTenant(t)

	manager := &domain.Profile{
		AccID: uuid.New(),
		LicensedResources: []domain.LicensedResource{{
			TenantID:   tenant.ID,
			AccountID:  uuid.New(),
			RoleName:   string(domain.ActorSubscriptionsManager),
			RoleID:     uuid.New(),
			Permission: domain.PermissionReadWrite,
		}},
	}

	_, err := CreateSubscriptionAccount(context.Background(), env.deps, manager, tenant.ID, "Beta Corp", manager.AccID)
	require.NoError(t, err)
}

func TestCreateSubscriptionAccount_DuplicateSlug(t *testing.T) {
	env := newTestEnv(t)
	tenant := env.seedTenant(t)
	profile := env.ownerProfile(t, tenant.ID)

	_, err := CreateSubscriptionAccount(context.Background(), env.deps, profile, tenant.ID, "Acme", profile.AccID)
	require.NoError(t, err)

	_, err = CreateSubscriptionAccount(context.Background(), env.deps, profile, tenant.ID, "acme", profile.AccID)
	assert.True(t, merr.Is(err, merr.AccountAlreadyRegistered))
}
