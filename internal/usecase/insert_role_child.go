package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/lepista/mycelium/internal/domain"
	"github.com/lepista/mycelium/internal/merr"
)

// InsertRoleChild records childID as a child of parentID in the guest-role
// hierarchy.
//
// Pre: parentID != childID, and the child's permission rank >= the
// parent's (a child may only narrow). Beyond the identity check, the
// existing ancestor chain of the parent is walked and the insert rejected
// if childID already appears in it, preventing a transitive cycle.
func InsertRoleChild(ctx context.Context, deps Deps, profile *domain.Profile, parentID, childID uuid.UUID) error {
	if parentID == childID {
		return merr.New(merr.PreconditionOnState, "a role cannot be its own child")
	}
	if !profile.IsStaff && !profile.IsManager {
		return merr.New(merr.InsufficientPrivileges, "profile lacks role-management privilege")
	}

	parent, err := deps.GuestRoles.Get(ctx, parentID)
	if err != nil {
		return merr.Wrap(merr.UserNotFound, "parent role not found", err)
	}
	child, err := deps.GuestRoles.Get(ctx, childID)
	if err != nil {
		return merr.Wrap(merr.UserNotFound, "child role not found", err)
	}
	if child.Permission < parent.Permission {
		return merr.New(merr.PreconditionOnState, "child role must not be wider than its parent")
	}

	// If childID is already an ancestor of parentID, a path
	// childID -> ... -> parentID exists; adding parentID -> childID would
	// close a cycle.
	ancestorsOfParent, err := deps.GuestRoles.Ancestors(ctx, parentID)
	if err != nil {
		return merr.Wrap(merr.InfrastructureUnavailable, "failed to walk role hierarchy", err)
	}
	for _, a := range ancestorsOfParent {
		if a == childID {
			return merr.New(merr.PreconditionOnState, "inserting this child would create a cycle")
		}
	}

	if err := deps.GuestRoles.AddChild(ctx, parentID, childID); err != nil {
		return merr.Wrap(merr.InfrastructureUnavailable, "failed to insert role child", err)
	}
	return nil
}
