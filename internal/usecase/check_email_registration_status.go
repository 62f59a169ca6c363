package usecase

import (
	"context"
	"errors"

	"github.com/lepista/mycelium/internal/domain"
	"github.com/lepista/mycelium/internal/merr"
	"github.com/lepista/mycelium/internal/repository"
)

// RegistrationStatusKind tags what CheckEmailRegistrationStatus found.
type RegistrationStatusKind string

const (
	RegistrationNotRegistered      RegistrationStatusKind = "not_registered"
	RegistrationInternal           RegistrationStatusKind = "registered_internal"
	RegistrationExternalProvider   RegistrationStatusKind = "registered_external"
	RegistrationWaitingActivation  RegistrationStatusKind = "waiting_activation"
)

// RegistrationStatus is the pre-login probe result a sign-in flow branches
// on: ask for a password, redirect to an external provider, or offer
// registration.
type RegistrationStatus struct {
	Kind     RegistrationStatusKind
	Provider string // set when Kind == RegistrationExternalProvider
}

// CheckEmailRegistrationStatus reports how (and whether) email can
// authenticate. It never distinguishes an unregistered address by error —
// "not registered" is a result, not a failure, so the probe can't be used
// to enumerate which lookups hit infrastructure problems vs. missing rows.
func CheckEmailRegistrationStatus(ctx context.Context, deps Deps, email domain.Email) (RegistrationStatus, error) {
	user, err := deps.Users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return RegistrationStatus{Kind: RegistrationNotRegistered}, nil
	}
	if err != nil {
		return RegistrationStatus{}, merr.Wrap(merr.InfrastructureUnavailable, "failed to look up user", err)
	}

	if !user.IsActive {
		return RegistrationStatus{Kind: RegistrationWaitingActivation}, nil
	}
	if user.Provider.Kind == domain.IdentityProviderExternal {
		return RegistrationStatus{Kind: RegistrationExternalProvider, Provider: user.Provider.ProviderName}, nil
	}
	return RegistrationStatus{Kind: RegistrationInternal}, nil
}
