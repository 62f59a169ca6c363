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

func TestGuestToChildrenAccount(t *testing.T) {
	env := newTestEnv(t)
	tenant := env.seedTenant(t)
	profile := env.ownerProfile(t, tenant.ID)

	parent := seedRole(t, env, "Collaborator", domain.PermissionWrite)
	child := seedRole(t, env, "Maintainer", domain.PermissionReadWrite)
	accountID := uuid.New()

	email, err := domain.ParseEmail("guest@example.com")
	require.NoError(t, err)

	guest, err := GuestToChildrenAccount(context.Background(), env.deps, profile, tenant.ID, email, parent.ID, child.ID, accountID)
	require.NoError(t, err)
	assert.Equal(t, child.ID, guest.GuestRoleID)

	exists, err := env.deps.GuestUsers.ExistsOnAccount(context.Background(), guest.ID, accountID)
	require.NoError(t, err)
	assert.True(t, exists)

	webhooks := env.pendingWebhookEvents(t)
	require.Len(t, webhooks, 1)
	assert.Equal(t, domain.TriggerInviteGuestAccount, webhooks[0].Trigger)

	messages := env.pendingMessageEvents(t)
	require.Len(t, messages, 1)
	assert.Equal(t, "guest@example.com", messages[0].Message.To)
	assert.Equal(t, "subject:guest-to-account", messages[0].Message.Subject)
}

func TestGuestToChildrenAccount_DuplicateInvite(t *testing.T) {
	env := newTestEnv(t)
	tenant := env.seedTenant(t)
	profile := env.ownerProfile(t, tenant.ID)

	parent := seedRole(t, env, "Collaborator", domain.PermissionRead)
	child := seedRole(t, env, "Maintainer", domain.PermissionWrite)
	accountID := uuid.New()

	email, err := domain.ParseEmail("guest@example.com")
	require.NoError(t, err)

	_, err = GuestToChildrenAccount(context.Background(), env.deps, profile, tenant.ID, email, parent.ID, child.ID, accountID)
	require.NoError(t, err)

	_, err = GuestToChildrenAccount(context.Background(), env.deps, profile, tenant.ID, email, parent.ID, child.ID, accountID)
	assert.True(t, merr.Is(err, merr.GuestAlreadyExists))
}

func TestGuestToChildrenAccount_WiderChildRejected(t *testing.T) {
	env := newTestEnv(t)
	tenant := env.seedTenant(t)
	profile := env.ownerProfile(t, tenant.ID)

	parent := seedRole(t, env, "Admin", domain.PermissionReadWrite)
	child := seedRole(t, env, "Reader", domain.PermissionRead)

	email, err := domain.ParseEmail("guest@example.com")
	require.NoError(t, err)

	_, err = GuestToChildrenAccount(context.Background(), env.deps, profile, tenant.ID, email, parent.ID, child.ID, uuid.New())
	assert.True(t, merr.Is(err, merr.PreconditionOnState))
}

func TestUninviteGuest(t *testing.T) {
	env := newTestEnv(t)
	tenant := env.seedTenant(t)
	profile := env.ownerProfile(t, tenant.ID)

	parent := seedRole(t, env, "Collaborator", domain.PermissionRead)
	child := seedRole(t, env, "Maintainer", domain.PermissionWrite)
	accountID := uuid.New()

	email, err := domain.ParseEmail("guest@example.com")
	require.NoError(t, err)

	guest, err := GuestToChildrenAccount(context.Background(), env.deps, profile, tenant.ID, email, parent.ID, child.ID, accountID)
	require.NoError(t, err)

	require.NoError(t, UninviteGuest(context.Background(), env.deps, profile, tenant.ID, guest.ID, accountID, profile.AccID))

	exists, err := env.deps.GuestUsers.ExistsOnAccount(context.Background(), guest.ID, accountID)
	require.NoError(t, err)
	assert.False(t, exists)

	// One invite event plus one uninvite event.
	events := env.pendingWebhookEvents(t)
	require.Len(t, events, 2)

	// Removing an association that no longer exists is NotFound, not a
	// silent success.
	err = UninviteGuest(context.Background(), env.deps, profile, tenant.ID, guest.ID, accountID, profile.AccID)
	assert.True(t, merr.Is(err, merr.UserNotFound))
}
