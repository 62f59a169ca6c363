package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lepista/mycelium/internal/audit"
	"github.com/lepista/mycelium/internal/domain"
	"github.com/lepista/mycelium/internal/merr"
)

// webhookManagerRoles may register webhook subscribers.
var webhookManagerRoles = []string{string(domain.ActorSystemManager), string(domain.ActorGatewayManager)}

// RegisterWebhook creates a webhook subscriber for trigger. The optional
// secret is sealed by the SecretBox before it touches a repository, and the
// returned projection is always redacted.
func RegisterWebhook(ctx context.Context, deps Deps, profile *domain.Profile, tenantID uuid.UUID, name, description, url string, trigger domain.WebHookTrigger, secret string, writtenBy uuid.UUID) (domain.WebHook, error) {
	if err := requireTenantOwnerOrRoles(ctx, deps, profile, tenantID, webhookManagerRoles); err != nil {
		return domain.WebHook{}, err
	}

	hook := domain.WebHook{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		URL:         url,
		Trigger:     trigger,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
		WrittenBy:   writtenBy,
	}
	if secret != "" {
		sealed, err := deps.WebhookSecrets.Encrypt(secret)
		if err != nil {
			return domain.WebHook{}, merr.Wrap(merr.InfrastructureUnavailable, "failed to encrypt webhook secret", err)
		}
		hook.Secret = sealed
	}

	created, err := deps.WebHooks.Create(ctx, hook)
	if err != nil {
		return domain.WebHook{}, merr.Wrap(merr.InfrastructureUnavailable, "failed to register webhook", err)
	}

	auditLog(ctx, deps, writtenBy, audit.EventWebhookRegistered, created.ID.String(), map[string]string{
		"trigger": string(trigger),
	})
	return created.Redacted(), nil
}
