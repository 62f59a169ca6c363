package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/lepista/mycelium/internal/domain"
	"github.com/lepista/mycelium/internal/repository"
)

type tenantRepo struct{ *Store }

// Tenants returns the TenantRepository view of the shared Store.
func (s *Store) Tenants() repository.TenantRepository { return tenantRepo{s} }

func (r tenantRepo) Create(ctx context.Context, t domain.Tenant) (domain.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tenants[t.ID] = t
	return t, nil
}

func (r tenantRepo) Get(ctx context.Context, id uuid.UUID) (domain.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[id]
	if !ok {
		return domain.Tenant{}, repository.ErrNotFound
	}
	return t, nil
}

func (r tenantRepo) Update(ctx context.Context, t domain.Tenant) (domain.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tenants[t.ID]; !ok {
		return domain.Tenant{}, repository.ErrNotFound
	}
	r.tenants[t.ID] = t
	return t, nil
}

func (r tenantRepo) AddOwner(ctx context.Context, o domain.OwnerOnTenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.owners[o.TenantID] {
		if existing.OwnerID == o.OwnerID {
			return nil
		}
	}
	r.owners[o.TenantID] = append(r.owners[o.TenantID], o)
	return nil
}

func (r tenantRepo) RemoveOwner(ctx context.Context, tenantID, ownerID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	owners := r.owners[tenantID]
	for i, o := range owners {
		if o.OwnerID == ownerID {
			r.owners[tenantID] = append(owners[:i], owners[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r tenantRepo) Owners(ctx context.Context, tenantID uuid.UUID) ([]domain.OwnerOnTenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.OwnerOnTenant, len(r.owners[tenantID]))
	copy(out, r.owners[tenantID])
	return out, nil
}

func (r tenantRepo) IsOwner(ctx context.Context, tenantID, ownerID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.owners[tenantID] {
		if o.OwnerID == ownerID {
			return true, nil
		}
	}
	return false, nil
}

func (r tenantRepo) OwnershipsOf(ctx context.Context, ownerID uuid.UUID) ([]domain.TenantOwnership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.TenantOwnership
	for tenantID, owners := range r.owners {
		for _, o := range owners {
			if o.OwnerID == ownerID {
				t := r.tenants[tenantID]
				out = append(out, domain.TenantOwnership{
					TenantID: tenantID,
					Name:     t.Name,
					Since:    o.GrantedAt,
				})
			}
		}
	}
	return out, nil
}

var _ repository.TenantRepository = tenantRepo{}
