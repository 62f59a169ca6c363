package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lepista/mycelium/internal/domain"
	"github.com/lepista/mycelium/internal/merr"
	"github.com/lepista/mycelium/internal/tokenkit"
)

// StartPasswordRedefinition begins a password reset: generate a 6-digit
// code, store its hash in a PasswordChange token row, and enqueue the
// "password-redefinition" email carrying the code and the token id. Only
// the hash is persisted; the plaintext code exists in the outbox message
// alone.
//
// A user on an external identity provider has no internal password to
// redefine; that is a state precondition, not a missing user.
func StartPasswordRedefinition(ctx context.Context, deps Deps, email domain.Email) (uuid.UUID, error) {
	user, err := deps.Users.GetByEmail(ctx, email)
	if err != nil {
		return uuid.Nil, merr.Wrap(merr.UserNotFound, "user not found", err)
	}
	if user.Provider.Kind != domain.IdentityProviderInternal {
		return uuid.Nil, merr.New(merr.PreconditionOnState, "user authenticates through an external provider")
	}

	code, err := tokenkit.GenerateConfirmationCode()
	if err != nil {
		return uuid.Nil, merr.Wrap(merr.InfrastructureUnavailable, "failed to generate confirmation code", err)
	}
	hashed, err := deps.Hasher.Hash(code)
	if err != nil {
		return uuid.Nil, merr.Wrap(merr.InfrastructureUnavailable, "failed to hash confirmation code", err)
	}

	token := domain.Token{
		ID:         uuid.New(),
		Expiration: time.Now().UTC().Add(deps.LifeCycle.TokenExpiration),
		CreatedAt:  time.Now().UTC(),
		Meta: domain.TokenMeta{
			Kind:       domain.TokenPasswordChange,
			UserID:     user.ID,
			Email:      user.Email,
			HashedCode: hashed,
		},
	}

	err = deps.Tx(ctx, func(ctx context.Context) error {
		if _, err := deps.Tokens.Create(ctx, token); err != nil {
			return merr.Wrap(merr.InfrastructureUnavailable, "failed to persist password-change token", err)
		}
		msg, err := renderNotification(deps, "password-redefinition", map[string]any{
			"code":     code,
			"token_id": token.ID.String(),
		}, user.Email.Email())
		if err != nil {
			return err
		}
		return enqueueMessageEvent(ctx, deps.Outbox, msg)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return token.ID, nil
}
