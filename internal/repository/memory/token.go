package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/lepista/mycelium/internal/domain"
	"github.com/lepista/mycelium/internal/repository"
)

type tokenRepo struct{ *Store }

// Tokens returns the TokenRepository view of the shared Store.
func (s *Store) Tokens() repository.TokenRepository { return tokenRepo{s} }

func (r tokenRepo) Create(ctx context.Context, t domain.Token) (domain.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[t.ID] = t
	return t, nil
}

// GetAndInvalidate fetches and deletes atomically under the Store's single
// mutex, so two concurrent callers can never both observe the row.
func (r tokenRepo) GetAndInvalidate(ctx context.Context, id uuid.UUID) (domain.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[id]
	if !ok {
		return domain.Token{}, repository.ErrNotFound
	}
	delete(r.tokens, id)
	return t, nil
}

func (r tokenRepo) Get(ctx context.Context, id uuid.UUID) (domain.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[id]
	if !ok {
		return domain.Token{}, repository.ErrNotFound
	}
	return t, nil
}

func (r tokenRepo) GetByConnectionString(ctx context.Context, wire string) (domain.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.Meta.ConnectionString != "" && t.Meta.ConnectionString == wire {
			return t, nil
		}
	}
	return domain.Token{}, repository.ErrNotFound
}

var _ repository.TokenRepository = tokenRepo{}
