package memory

import (
	"context"

	"github.com/lepista/mycelium/internal/domain"
	"github.com/lepista/mycelium/internal/repository"
)

type webhookRepo struct{ *Store }

// WebHooks returns the WebHookRepository view of the shared Store.
func (s *Store) WebHooks() repository.WebHookRepository { return webhookRepo{s} }

func (r webhookRepo) Create(ctx context.Context, w domain.WebHook) (domain.WebHook, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.webhooks[w.ID] = w
	return w, nil
}

func (r webhookRepo) ListActiveByTrigger(ctx context.Context, trigger domain.WebHookTrigger) ([]domain.WebHook, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.WebHook
	for _, w := range r.webhooks {
		if w.IsActive && w.Trigger == trigger {
			out = append(out, w)
		}
	}
	return out, nil
}

var _ repository.WebHookRepository = webhookRepo{}
