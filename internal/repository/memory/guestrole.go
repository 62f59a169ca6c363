package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/lepista/mycelium/internal/domain"
	"github.com/lepista/mycelium/internal/repository"
)

type guestRoleRepo struct{ *Store }

// GuestRoles returns the GuestRoleRepository view of the shared Store.
func (s *Store) GuestRoles() repository.GuestRoleRepository { return guestRoleRepo{s} }

func (r guestRoleRepo) Create(ctx context.Context, role domain.GuestRole) (domain.GuestRole, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guestRoles[role.ID] = role
	return role, nil
}

func (r guestRoleRepo) Get(ctx context.Context, id uuid.UUID) (domain.GuestRole, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.guestRoles[id]
	if !ok {
		return domain.GuestRole{}, repository.ErrNotFound
	}
	role.ChildIDs = append([]uuid.UUID(nil), r.roleChildren[id]...)
	return role, nil
}

func (r guestRoleRepo) Update(ctx context.Context, role domain.GuestRole) (domain.GuestRole, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.guestRoles[role.ID]; !ok {
		return domain.GuestRole{}, repository.ErrNotFound
	}
	r.guestRoles[role.ID] = role
	return role, nil
}

func (r guestRoleRepo) AddChild(ctx context.Context, parentID, childID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.roleChildren[parentID] {
		if c == childID {
			return nil
		}
	}
	r.roleChildren[parentID] = append(r.roleChildren[parentID], childID)
	return nil
}

func (r guestRoleRepo) Children(ctx context.Context, parentID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uuid.UUID, len(r.roleChildren[parentID]))
	copy(out, r.roleChildren[parentID])
	return out, nil
}

// Ancestors walks the adjacency table backwards from roleID, returning
// every role that has roleID as a transitive descendant. Used by
// insert_role_child's cycle check.
func (r guestRoleRepo) Ancestors(ctx context.Context, roleID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []uuid.UUID
	visited := map[uuid.UUID]bool{}
	var walk func(uuid.UUID)
	walk = func(target uuid.UUID) {
		for parent, children := range r.roleChildren {
			for _, c := range children {
				if c == target && !visited[parent] {
					visited[parent] = true
					out = append(out, parent)
					walk(parent)
				}
			}
		}
	}
	walk(roleID)
	return out, nil
}

var _ repository.GuestRoleRepository = guestRoleRepo{}
