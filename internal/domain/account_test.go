package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Acme", "acme"},
		{"Acme Corp", "acme-corp"},
		{"  Weird -- Name!!", "weird-name"},
		{"tid/abc123/manager", "tid-abc123-manager"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.name))
	}
	// Deterministic: repeated calls agree.
	assert.Equal(t, Slugify("Some Name"), Slugify("Some Name"))
}

func TestNewAccount_TenantPropagation(t *testing.T) {
	tenantID := uuid.New()
	a := NewAccount(uuid.New(), "Acme", NewSubscriptionAccountType(tenantID))
	assert.True(t, a.TenantID.Valid)
	assert.Equal(t, tenantID, a.TenantID.UUID)
	assert.Equal(t, "acme", a.Slug)

	u := NewAccount(uuid.New(), "Personal", NewUserAccountType())
	assert.False(t, u.TenantID.Valid)
}

func TestVerboseStatus_Precedence(t *testing.T) {
	base := Account{IsActive: true, IsChecked: true}

	assert.Equal(t, VerboseActive, base.VerboseStatus())

	unchecked := base
	unchecked.IsChecked = false
	assert.Equal(t, VerboseUnverified, unchecked.VerboseStatus())

	inactive := unchecked
	inactive.IsActive = false
	assert.Equal(t, VerboseInactive, inactive.VerboseStatus())

	archived := inactive
	archived.IsArchived = true
	assert.Equal(t, VerboseArchived, archived.VerboseStatus())
}

func TestAccountTypeRoleFlags(t *testing.T) {
	assert.True(t, NewStaffAccountType().IsStaff())
	assert.True(t, NewTenantManagerAccountType(uuid.New()).IsManager())
	assert.True(t, NewActorAssociatedAccountType(ActorTenantManager).IsManager())
	assert.True(t, NewSubscriptionAccountType(uuid.New()).IsSubscription())
	assert.False(t, NewUserAccountType().IsSubscription())
	assert.False(t, NewUserAccountType().IsManager())
}
