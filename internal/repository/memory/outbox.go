package memory

import (
	"context"
	"sort"

	"github.com/lepista/mycelium/internal/domain"
	"github.com/lepista/mycelium/internal/repository"
)

type outboxRepo struct{ *Store }

// Outbox returns the OutboxRepository view of the shared Store.
func (s *Store) Outbox() repository.OutboxRepository { return outboxRepo{s} }

func (r outboxRepo) EnqueueWebhookEvent(ctx context.Context, e domain.WebhookDispatchEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.webhookEvents[e.ID] = e
	return nil
}

func (r outboxRepo) EnqueueMessageEvent(ctx context.Context, e domain.MessageSendingEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messageEvents[e.ID] = e
	return nil
}

func (r outboxRepo) OldestPendingWebhookEvents(ctx context.Context, limit int) ([]domain.WebhookDispatchEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var pending []domain.WebhookDispatchEvent
	for _, e := range r.webhookEvents {
		if e.Status == domain.DispatchPending {
			pending = append(pending, e)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].CreatedAt.Before(pending[j].CreatedAt) })
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (r outboxRepo) UpdateWebhookEvent(ctx context.Context, e domain.WebhookDispatchEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.webhookEvents[e.ID]; !ok {
		return repository.ErrNotFound
	}
	r.webhookEvents[e.ID] = e
	return nil
}

func (r outboxRepo) OldestPendingMessageEvents(ctx context.Context, limit int) ([]domain.MessageSendingEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var pending []domain.MessageSendingEvent
	for _, e := range r.messageEvents {
		if e.Status == domain.MessagePending {
			pending = append(pending, e)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].CreatedAt.Before(pending[j].CreatedAt) })
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (r outboxRepo) UpdateMessageEvent(ctx context.Context, e domain.MessageSendingEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.messageEvents[e.ID]; !ok {
		return repository.ErrNotFound
	}
	r.messageEvents[e.ID] = e
	return nil
}

var _ repository.OutboxRepository = outboxRepo{}
