package usecase

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/lepista/mycelium/internal/domain"
	"github.com/lepista/mycelium/internal/mfa"
	"github.com/lepista/mycelium/internal/repository/memory"
	"github.com/lepista/mycelium/internal/security"
)

// fakeHasher is a transparent stand-in for the argon2id hasher: tests here
// exercise use-case logic, not KDF cost. The real hasher has its own tests
// in internal/security.
type fakeHasher struct{}

func (fakeHasher) Hash(secret string) (string, error) { return "hashed:" + secret, nil }
func (fakeHasher) Verify(secret, hash string) (bool, error) {
	return hash == "hashed:"+secret, nil
}

// stubRenderer returns predictable subject/body pairs.
type stubRenderer struct{}

func (stubRenderer) Render(locale, prefix string, data map[string]any) (string, string, error) {
	body := fmt.Sprintf("body:%s:%v:%v", prefix, data["code"], data["token_id"])
	return "subject:" + prefix, body, nil
}

type testEnv struct {
	store *memory.Store
	deps  Deps
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.New()

	box, err := security.NewSecretBox([]byte("test-root-secret"))
	require.NoError(t, err)
	webhookBox, err := security.NewSecretBoxFor([]byte("test-root-secret"), "mycelium-webhook-secret-v1")
	require.NoError(t, err)

	deps := Deps{
		Tenants:        store.Tenants(),
		Accounts:       store.Accounts(),
		Users:          store.Users(),
		GuestRoles:     store.GuestRoles(),
		GuestUsers:     store.GuestUsers(),
		Tokens:         store.Tokens(),
		WebHooks:       store.WebHooks(),
		Outbox:         store.Outbox(),
		Tx:             store.WithTx,
		Hasher:         fakeHasher{},
		SecretBox:      box,
		WebhookSecrets: webhookBox,
		MFA:            mfa.NewService("mycelium"),
		Templates:      stubRenderer{},
		LifeCycle: LifeCycle{
			DomainName:      "mycelium.example",
			SupportEmail:    "support@mycelium.example",
			NoreplyEmail:    "noreply@mycelium.example",
			Locale:          "en-us",
			TokenSecret:     []byte("connection-string-secret"),
			TokenExpiration: time.Hour,
		},
	}
	return &testEnv{store: store, deps: deps}
}

// ownerProfile builds a Profile whose AccID owns tenantID in the backing
// store.
func (e *testEnv) ownerProfile(t *testing.T, tenantID uuid.UUID) *domain.Profile {
	t.Helper()
	accID := uuid.New()
	require.NoError(t, e.deps.Tenants.AddOwner(context.Background(), domain.OwnerOnTenant{
		TenantID:  tenantID,
		OwnerID:   accID,
		GrantedAt: time.Now().UTC(),
	}))
	email, err := domain.ParseEmail(strings.ToLower("owner-" + accID.String()[:8] + "@example.com"))
	require.NoError(t, err)
	return &domain.Profile{
		Owners: []domain.Owner{{ID: uuid.New(), Email: email, IsActive: true}},
		AccID:  accID,
		TenantsOwnership: []domain.TenantOwnership{
			{TenantID: tenantID, Name: "t", Since: time.Now().UTC()},
		},
	}
}

func (e *testEnv) seedTenant(t *testing.T) domain.Tenant {
	t.Helper()
	now := time.Now().UTC()
	tenant := domain.Tenant{
		ID:   uuid.New(),
		Name: "Tenant One",
		Status: []domain.TenantStatusEntry{
			{Status: domain.TenantVerified, At: now, By: domain.SystemModifier()},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	created, err := e.deps.Tenants.Create(context.Background(), tenant)
	require.NoError(t, err)
	return created
}

func (e *testEnv) pendingWebhookEvents(t *testing.T) []domain.WebhookDispatchEvent {
	t.Helper()
	events, err := e.deps.Outbox.OldestPendingWebhookEvents(context.Background(), 0)
	require.NoError(t, err)
	return events
}

func (e *testEnv) pendingMessageEvents(t *testing.T) []domain.MessageSendingEvent {
	t.Helper()
	events, err := e.deps.Outbox.OldestPendingMessageEvents(context.Background(), 0)
	require.NoError(t, err)
	return events
}
