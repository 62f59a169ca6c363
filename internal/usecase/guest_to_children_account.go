package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/lepista/mycelium/internal/domain"
	"github.com/lepista/mycelium/internal/merr"
	"github.com/lepista/mycelium/internal/repository"
)

// GuestToChildrenAccount creates or looks up a GuestUser under
// childRoleID, attaches it to accountID, and dispatches the
// "guest-to-account" notification template. The child role must be at
// least as narrow as its parent.
func GuestToChildrenAccount(ctx context.Context, deps Deps, profile *domain.Profile, tenantID uuid.UUID, email domain.Email, parentRoleID, childRoleID, accountID uuid.UUID) (domain.GuestUser, error) {
	if err := requireTenantOwnerOrRoles(ctx, deps, profile, tenantID, []string{string(domain.ActorGuestsManager)}); err != nil {
		return domain.GuestUser{}, err
	}

	parent, err := deps.GuestRoles.Get(ctx, parentRoleID)
	if err != nil {
		return domain.GuestUser{}, merr.Wrap(merr.UserNotFound, "parent role not found", err)
	}
	child, err := deps.GuestRoles.Get(ctx, childRoleID)
	if err != nil {
		return domain.GuestUser{}, merr.Wrap(merr.UserNotFound, "child role not found", err)
	}
	if child.Permission < parent.Permission {
		return domain.GuestUser{}, merr.New(merr.PreconditionOnState, "child role must not be wider than its parent")
	}

	guest, err := deps.GuestUsers.GetByEmailAndRole(ctx, email, childRoleID)
	if errors.Is(err, repository.ErrNotFound) {
		guest = domain.GuestUser{
			ID:          uuid.New(),
			Email:       email,
			GuestRoleID: childRoleID,
			CreatedAt:   time.Now().UTC(),
			UpdatedAt:   time.Now().UTC(),
		}
		guest, err = deps.GuestUsers.Create(ctx, guest)
	}
	if err != nil {
		return domain.GuestUser{}, merr.Wrap(merr.InfrastructureUnavailable, "failed to resolve guest user", err)
	}

	exists, err := deps.GuestUsers.ExistsOnAccount(ctx, guest.ID, accountID)
	if err != nil {
		return domain.GuestUser{}, merr.Wrap(merr.InfrastructureUnavailable, "failed to check existing guest association", err)
	}
	if exists {
		return domain.GuestUser{}, merr.New(merr.GuestAlreadyExists, "guest user is already associated with this account")
	}

	err = deps.Tx(ctx, func(ctx context.Context) error {
		if err := deps.GuestUsers.AttachToAccount(ctx, domain.GuestUserOnAccount{
			GuestUserID: guest.ID,
			AccountID:   accountID,
			CreatedAt:   time.Now().UTC(),
		}); err != nil {
			return merr.Wrap(merr.InfrastructureUnavailable, "failed to attach guest user to account", err)
		}

		if err := enqueueWebhookEvent(ctx, deps.Outbox, domain.TriggerInviteGuestAccount, guest, guest.ID); err != nil {
			return err
		}

		return enqueueGuestInviteEmail(ctx, deps, email, child.Name)
	})
	if err != nil {
		return domain.GuestUser{}, err
	}
	return guest, nil
}

func enqueueGuestInviteEmail(ctx context.Context, deps Deps, to domain.Email, roleName string) error {
	msg, err := renderNotification(deps, "guest-to-account", map[string]any{
		"role_name": roleName,
		"email":     to.Email(),
	}, to.Email())
	if err != nil {
		return err
	}
	return enqueueMessageEvent(ctx, deps.Outbox, msg)
}

// renderNotification renders prefix via deps.Templates and wraps the result
// into a domain.Message addressed to "to", sourced from LifeCycle's
// noreply address.
func renderNotification(deps Deps, prefix string, data map[string]any, to string) (domain.Message, error) {
	locale := deps.LifeCycle.Locale
	if locale == "" {
		locale = "en-us"
	}
	data["domain_name"] = deps.LifeCycle.DomainName
	data["support_email"] = deps.LifeCycle.SupportEmail
	if deps.LifeCycle.DomainURL != "" {
		data["domain_url"] = deps.LifeCycle.DomainURL
	}

	subject, body, err := deps.Templates.Render(locale, prefix, data)
	if err != nil {
		return domain.Message{}, merr.Wrap(merr.NotificationDispatchFailed, "failed to render notification template", err)
	}

	from := deps.LifeCycle.NoreplyEmail
	if deps.LifeCycle.NoreplyName != "" {
		from = deps.LifeCycle.NoreplyName + " <" + from + ">"
	}
	return domain.Message{From: from, To: to, Subject: subject, Body: body}, nil
}
