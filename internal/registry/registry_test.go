package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepista/mycelium/internal/domain"
)

func TestRegistryGetAndReplace(t *testing.T) {
	reg := New([]domain.Service{
		{Name: "svc-a", Host: "a.internal"},
		{Name: "svc-b", Host: "b.internal"},
	})

	svc, ok := reg.Get("svc-a")
	require.True(t, ok)
	assert.Equal(t, "a.internal", svc.Host)

	_, ok = reg.Get("svc-missing")
	assert.False(t, ok)

	reg.Replace([]domain.Service{{Name: "svc-c", Host: "c.internal"}})
	_, ok = reg.Get("svc-a")
	assert.False(t, ok)
	_, ok = reg.Get("svc-c")
	assert.True(t, ok)
	assert.Len(t, reg.All(), 1)
}

func TestRegistryUpdateHealth(t *testing.T) {
	reg := New([]domain.Service{
		{Name: "svc-a", HealthStatus: domain.HealthStatus{Kind: domain.HealthUnknown}},
		{Name: "svc-b", HealthStatus: domain.HealthStatus{Kind: domain.HealthUnknown}},
	})

	now := time.Now().UTC()
	reg.UpdateHealth("svc-a", domain.HealthStatus{Kind: domain.HealthHealthy, At: now})

	a, ok := reg.Get("svc-a")
	require.True(t, ok)
	assert.Equal(t, domain.HealthHealthy, a.HealthStatus.Kind)

	// The sibling keeps its prior status.
	b, ok := reg.Get("svc-b")
	require.True(t, ok)
	assert.Equal(t, domain.HealthUnknown, b.HealthStatus.Kind)

	// Updating an unknown service is a no-op, not a panic.
	reg.UpdateHealth("svc-missing", domain.HealthStatus{Kind: domain.HealthHealthy, At: now})
}
