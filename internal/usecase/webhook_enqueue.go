package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/lepista/mycelium/internal/domain"
	"github.com/lepista/mycelium/internal/merr"
)

// enqueueWebhookEvent writes a Pending WebhookDispatchEvent row with a
// fresh correspondence id, for the dispatcher (internal/outbox) to drain.
// Consumers must be idempotent by CorrespondenceID.
func enqueueWebhookEvent(ctx context.Context, outbox interfaceOutbox, trigger domain.WebHookTrigger, payload any, payloadID uuid.UUID) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return merr.Wrap(merr.InfrastructureUnavailable, "failed to marshal webhook payload", err)
	}
	event := domain.WebhookDispatchEvent{
		ID:               uuid.New(),
		CorrespondenceID: uuid.New(),
		Trigger:          trigger,
		Payload:          body,
		PayloadID:        payloadID,
		Status:           domain.DispatchPending,
		CreatedAt:        time.Now().UTC(),
	}
	if err := outbox.EnqueueWebhookEvent(ctx, event); err != nil {
		return merr.Wrap(merr.InfrastructureUnavailable, "failed to enqueue webhook event", err)
	}
	return nil
}

// enqueueMessageEvent writes a Pending MessageSendingEvent row for the
// notification dispatcher (internal/notify) to render and send.
func enqueueMessageEvent(ctx context.Context, outbox interfaceOutbox, msg domain.Message) error {
	event := domain.MessageSendingEvent{
		ID:        uuid.New(),
		Message:   msg,
		Status:    domain.MessagePending,
		CreatedAt: time.Now().UTC(),
	}
	if err := outbox.EnqueueMessageEvent(ctx, event); err != nil {
		return merr.Wrap(merr.InfrastructureUnavailable, "failed to enqueue message event", err)
	}
	return nil
}

// interfaceOutbox is the narrow slice of repository.OutboxRepository these
// helpers need; kept as its own name only so the two enqueue helpers above
// read without the repository package prefix at every call site.
type interfaceOutbox interface {
	EnqueueWebhookEvent(ctx context.Context, e domain.WebhookDispatchEvent) error
	EnqueueMessageEvent(ctx context.Context, e domain.MessageSendingEvent) error
}
