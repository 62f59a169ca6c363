package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/lepista/mycelium/internal/domain"
	"github.com/lepista/mycelium/internal/repository"
)

type accountRepo struct{ *Store }

// Accounts returns the AccountRepository view of the shared Store.
func (s *Store) Accounts() repository.AccountRepository { return accountRepo{s} }

func (r accountRepo) Create(ctx context.Context, a domain.Account) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if existing.IsDeleted {
			continue
		}
		sameTenant := existing.TenantID.Valid && a.TenantID.Valid && existing.TenantID.UUID == a.TenantID.UUID
		if sameTenant && existing.Slug == a.Slug {
			return domain.Account{}, repository.ErrAlreadyExists
		}
	}
	r.accounts[a.ID] = a
	return a, nil
}

func (r accountRepo) Get(ctx context.Context, id uuid.UUID) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok || a.IsDeleted {
		return domain.Account{}, repository.ErrNotFound
	}
	return a, nil
}

func (r accountRepo) GetBySlug(ctx context.Context, tenantID uuid.UUID, slug string) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.IsDeleted {
			continue
		}
		if a.TenantID.Valid && a.TenantID.UUID == tenantID && a.Slug == slug {
			return a, nil
		}
	}
	return domain.Account{}, repository.ErrNotFound
}

func (r accountRepo) Update(ctx context.Context, a domain.Account) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[a.ID]; !ok {
		return domain.Account{}, repository.ErrNotFound
	}
	r.accounts[a.ID] = a
	return a, nil
}

func (r accountRepo) SoftDelete(ctx context.Context, id uuid.UUID, by uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.IsDeleted = true
	a.WrittenBy = by
	r.accounts[id] = a
	return nil
}

func (r accountRepo) HardDelete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.accounts, id)
	return nil
}

func (r accountRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Account
	for _, a := range r.accounts {
		if a.IsDeleted {
			continue
		}
		if a.TenantID.Valid && a.TenantID.UUID == tenantID {
			out = append(out, a)
		}
	}
	return out, nil
}

var _ repository.AccountRepository = accountRepo{}
