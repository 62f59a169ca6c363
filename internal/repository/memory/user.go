package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/lepista/mycelium/internal/domain"
	"github.com/lepista/mycelium/internal/repository"
)

type userRepo struct{ *Store }

// Users returns the UserRepository view of the shared Store.
func (s *Store) Users() repository.UserRepository { return userRepo{s} }

func (r userRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email.Email() == u.Email.Email() {
			return domain.User{}, repository.ErrAlreadyExists
		}
	}
	r.users[u.ID] = u
	return u, nil
}

func (r userRepo) Get(ctx context.Context, id uuid.UUID) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (r userRepo) GetByEmail(ctx context.Context, email domain.Email) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email.Email() == email.Email() {
			return u, nil
		}
	}
	return domain.User{}, repository.ErrNotFound
}

func (r userRepo) Update(ctx context.Context, u domain.User) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return domain.User{}, repository.ErrNotFound
	}
	r.users[u.ID] = u
	return u, nil
}

var _ repository.UserRepository = userRepo{}
