package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/lepista/mycelium/internal/audit"
	"github.com/lepista/mycelium/internal/domain"
	"github.com/lepista/mycelium/internal/merr"
	"github.com/lepista/mycelium/internal/repository"
	"github.com/lepista/mycelium/internal/tokenkit"
)

// NewUserArgs carries the registration input for CreateUserAccount.
type NewUserArgs struct {
	Email     domain.Email
	Username  string
	FirstName string
	LastName  string

	// Exactly one of Password / ExternalProvider is set (INV: one identity
	// provider per user).
	Password         string
	ExternalProvider string
}

// CreateUserAccount registers a user and its backing AccountTypeUser
// account. Internally-provided users start inactive and receive an
// EmailConfirmation token (6-digit code, hash stored) plus the
// "user-activation" email; externally-provided users are active immediately
// since their provider already vouched for the address.
//
// Post: a CreateUserAccount webhook event is enqueued in the same
// transaction as the rows.
func CreateUserAccount(ctx context.Context, deps Deps, args NewUserArgs) (domain.User, error) {
	if _, err := deps.Users.GetByEmail(ctx, args.Email); err == nil {
		return domain.User{}, merr.New(merr.UserAlreadyRegistered, "a user with this email already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return domain.User{}, merr.Wrap(merr.InfrastructureUnavailable, "failed to check existing registration", err)
	}

	var provider domain.IdentityProvider
	switch {
	case args.Password != "" && args.ExternalProvider == "":
		hash, err := deps.Hasher.Hash(args.Password)
		if err != nil {
			return domain.User{}, merr.Wrap(merr.InfrastructureUnavailable, "failed to hash password", err)
		}
		provider = domain.NewInternalIdentityProvider(hash)
	case args.ExternalProvider != "" && args.Password == "":
		provider = domain.NewExternalIdentityProvider(args.ExternalProvider)
	default:
		return domain.User{}, merr.New(merr.PreconditionOnState, "exactly one identity provider must be given")
	}

	now := time.Now().UTC()
	account := domain.NewAccount(uuid.New(), args.Username, domain.NewUserAccountType())
	user := domain.User{
		ID:          uuid.New(),
		Username:    args.Username,
		Email:       args.Email,
		FirstName:   args.FirstName,
		LastName:    args.LastName,
		IsActive:    provider.Kind == domain.IdentityProviderExternal,
		IsPrincipal: true,
		MFA:         domain.DisabledTotp(),
		Provider:    provider,
		AccountID:   uuid.NullUUID{UUID: account.ID, Valid: true},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := deps.Tx(ctx, func(ctx context.Context) error {
		if _, err := deps.Accounts.Create(ctx, account); err != nil {
			return merr.Wrap(merr.AccountAlreadyRegistered, "account slug already taken", err)
		}
		if _, err := deps.Users.Create(ctx, user); err != nil {
			return merr.Wrap(merr.UserAlreadyRegistered, "failed to create user", err)
		}
		if err := enqueueWebhookEvent(ctx, deps.Outbox, domain.TriggerCreateUserAccount, user, user.ID); err != nil {
			return err
		}
		if provider.Kind == domain.IdentityProviderInternal {
			return startActivation(ctx, deps, user)
		}
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}

	auditLog(ctx, deps, account.ID, audit.EventAccountCreated, account.ID.String(), map[string]string{
		"kind": string(account.Type.Kind),
	})
	return user, nil
}

// startActivation issues the EmailConfirmation token and its notification.
func startActivation(ctx context.Context, deps Deps, user domain.User) error {
	code, err := tokenkit.GenerateConfirmationCode()
	if err != nil {
		return merr.Wrap(merr.InfrastructureUnavailable, "failed to generate activation code", err)
	}
	hashed, err := deps.Hasher.Hash(code)
	if err != nil {
		return merr.Wrap(merr.InfrastructureUnavailable, "failed to hash activation code", err)
	}

	token := domain.Token{
		ID:         uuid.New(),
		Expiration: time.Now().UTC().Add(deps.LifeCycle.TokenExpiration),
		CreatedAt:  time.Now().UTC(),
		Meta: domain.TokenMeta{
			Kind:       domain.TokenEmailConfirmation,
			UserID:     user.ID,
			Email:      user.Email,
			HashedCode: hashed,
		},
	}
	if _, err := deps.Tokens.Create(ctx, token); err != nil {
		return merr.Wrap(merr.InfrastructureUnavailable, "failed to persist activation token", err)
	}

	msg, err := renderNotification(deps, "user-activation", map[string]any{
		"code":     code,
		"token_id": token.ID.String(),
	}, user.Email.Email())
	if err != nil {
		return err
	}
	return enqueueMessageEvent(ctx, deps.Outbox, msg)
}
