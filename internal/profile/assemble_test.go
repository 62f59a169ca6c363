package profile

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepista/mycelium/internal/domain"
	"github.com/lepista/mycelium/internal/merr"
	"github.com/lepista/mycelium/internal/repository/memory"
)

type fixture struct {
	store     *memory.Store
	assembler *Assembler
	tenantID  uuid.UUID
	email     domain.Email
	user      domain.User
	account   domain.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	ctx := context.Background()

	email, err := domain.ParseEmail("alice@example.com")
	require.NoError(t, err)

	tenantID := uuid.New()
	account := domain.NewAccount(uuid.New(), "Alice", domain.NewUserAccountType())
	account.IsChecked = true
	_, err = store.Accounts().Create(ctx, account)
	require.NoError(t, err)

	user := domain.User{
		ID:          uuid.New(),
		Username:    "alice",
		Email:       email,
		IsActive:    true,
		IsPrincipal: true,
		AccountID:   uuid.NullUUID{UUID: account.ID, Valid: true},
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	_, err = store.Users().Create(ctx, user)
	require.NoError(t, err)

	return &fixture{
		store: store,
		assembler: &Assembler{
			Users:      store.Users(),
			Accounts:   store.Accounts(),
			GuestUsers: store.GuestUsers(),
			Tenants:    store.Tenants(),
		},
		tenantID: tenantID,
		email:    email,
		user:     user,
		account:  account,
	}
}

// grantGuest attaches a guest association for f.email under a fresh role on
// an account in the given tenant.
func (f *fixture) grantGuest(t *testing.T, tenantID uuid.UUID, roleName string, perm domain.Permission) {
	t.Helper()
	ctx := context.Background()

	target := domain.NewAccount(uuid.New(), "Target "+roleName+" "+uuid.NewString()[:8], domain.NewSubscriptionAccountType(tenantID))
	_, err := f.store.Accounts().Create(ctx, target)
	require.NoError(t, err)

	role := domain.GuestRole{ID: uuid.New(), TenantID: tenantID, Name: roleName, Slug: domain.Slugify(roleName), Permission: perm}
	_, err = f.store.GuestRoles().Create(ctx, role)
	require.NoError(t, err)

	guest := domain.GuestUser{ID: uuid.New(), Email: f.email, GuestRoleID: role.ID, WasVerified: true}
	_, err = f.store.GuestUsers().Create(ctx, guest)
	require.NoError(t, err)

	require.NoError(t, f.store.GuestUsers().AttachToAccount(ctx, domain.GuestUserOnAccount{
		GuestUserID: guest.ID,
		AccountID:   target.ID,
	}))
}

func TestAssemble_UnregisteredUser(t *testing.T) {
	f := newFixture(t)
	unknown, err := domain.ParseEmail("nobody@example.com")
	require.NoError(t, err)

	_, err = f.assembler.Assemble(context.Background(), unknown, Filter{})
	assert.True(t, merr.Is(err, merr.UserNotFound))
}

func TestAssemble_BasicProfile(t *testing.T) {
	f := newFixture(t)
	f.grantGuest(t, f.tenantID, "Reader", domain.PermissionRead)

	p, err := f.assembler.Assemble(context.Background(), f.email, Filter{})
	require.NoError(t, err)

	require.Len(t, p.Owners, 1)
	assert.Equal(t, f.user.ID, p.Owners[0].ID)
	assert.Equal(t, f.account.ID, p.AccID)
	assert.True(t, p.OwnerIsActive)
	assert.True(t, p.AccountWasApproved)
	assert.Len(t, p.LicensedResources, 1)
	assert.Equal(t, "Reader", p.LicensedResources[0].RoleName)
}

func TestAssemble_TenantFilter(t *testing.T) {
	f := newFixture(t)
	other := uuid.New()
	f.grantGuest(t, f.tenantID, "Reader", domain.PermissionRead)
	f.grantGuest(t, other, "Reader", domain.PermissionRead)

	p, err := f.assembler.Assemble(context.Background(), f.email, Filter{
		TenantID: uuid.NullUUID{UUID: f.tenantID, Valid: true},
	})
	require.NoError(t, err)
	require.Len(t, p.LicensedResources, 1)
	assert.Equal(t, f.tenantID, p.LicensedResources[0].TenantID)
}

func TestAssemble_RoleAndPermissionFilters(t *testing.T) {
	f := newFixture(t)
	f.grantGuest(t, f.tenantID, "Reader", domain.PermissionRead)
	f.grantGuest(t, f.tenantID, "Editor", domain.PermissionWrite)

	p, err := f.assembler.Assemble(context.Background(), f.email, Filter{Roles: []string{"Editor"}})
	require.NoError(t, err)
	require.Len(t, p.LicensedResources, 1)
	assert.Equal(t, "Editor", p.LicensedResources[0].RoleName)

	p, err = f.assembler.Assemble(context.Background(), f.email, Filter{
		PermissionedRoles: []domain.PermissionedRole{{RoleName: "Reader", Permission: domain.PermissionWrite}},
	})
	require.NoError(t, err)
	assert.Empty(t, p.LicensedResources, "Reader only grants read, write was required")
}

func TestAssemble_SoftDeletedAccount(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Accounts().SoftDelete(context.Background(), f.account.ID, uuid.New()))

	_, err := f.assembler.Assemble(context.Background(), f.email, Filter{})
	assert.True(t, merr.Is(err, merr.UserNotFound))
}

func TestRolesFromAccountType(t *testing.T) {
	isSub, isMgr, isStaff := RolesFromAccountType(domain.NewStaffAccountType())
	assert.False(t, isSub)
	assert.True(t, isMgr)
	assert.True(t, isStaff)

	isSub, isMgr, isStaff = RolesFromAccountType(domain.NewTenantManagerAccountType(uuid.New()))
	assert.False(t, isSub)
	assert.True(t, isMgr)
	assert.False(t, isStaff)

	isSub, isMgr, isStaff = RolesFromAccountType(domain.NewSubscriptionAccountType(uuid.New()))
	assert.True(t, isSub)
	assert.False(t, isMgr)
	assert.False(t, isStaff)

	isSub, isMgr, isStaff = RolesFromAccountType(domain.NewUserAccountType())
	assert.False(t, isSub)
	assert.False(t, isMgr)
	assert.False(t, isStaff)
}
