package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lepista/mycelium/internal/audit"
	"github.com/lepista/mycelium/internal/domain"
	"github.com/lepista/mycelium/internal/merr"
)

// redeemEmailToken is the shared single-use redemption path: fetch and
// delete the token row, check kind/expiry, verify the 6-digit code against
// the stored hash, then run apply — all inside one transaction so a partial
// failure rolls the consumption back. A second redemption of the same id
// observes NotFound.
func redeemEmailToken(ctx context.Context, deps Deps, tokenID uuid.UUID, code string, kind domain.TokenMetaKind, apply func(ctx context.Context, user domain.User) error) error {
	return deps.Tx(ctx, func(ctx context.Context) error {
		token, err := deps.Tokens.GetAndInvalidate(ctx, tokenID)
		if err != nil {
			return merr.Wrap(merr.TokenInvalidOrExpired, "token not found or already used", err)
		}
		if token.Meta.Kind != kind {
			return merr.New(merr.AmbiguousToken, "token is of a different kind")
		}
		if token.Expired(time.Now().UTC()) {
			return merr.New(merr.TokenInvalidOrExpired, "token has expired")
		}

		match, err := deps.Hasher.Verify(code, token.Meta.HashedCode)
		if err != nil {
			return merr.Wrap(merr.InfrastructureUnavailable, "failed to verify confirmation code", err)
		}
		if !match {
			return merr.New(merr.TokenInvalidOrExpired, "confirmation code mismatch")
		}

		user, err := deps.Users.Get(ctx, token.Meta.UserID)
		if err != nil {
			return merr.Wrap(merr.UserNotFound, "user behind token not found", err)
		}
		return apply(ctx, user)
	})
}

// CheckTokenAndResetPassword redeems a PasswordChange token and replaces the
// user's internal password hash with one derived from newPassword.
func CheckTokenAndResetPassword(ctx context.Context, deps Deps, tokenID uuid.UUID, code, newPassword string) error {
	return redeemEmailToken(ctx, deps, tokenID, code, domain.TokenPasswordChange, func(ctx context.Context, user domain.User) error {
		hash, err := deps.Hasher.Hash(newPassword)
		if err != nil {
			return merr.Wrap(merr.InfrastructureUnavailable, "failed to hash new password", err)
		}
		user.Provider = domain.NewInternalIdentityProvider(hash)
		user.UpdatedAt = time.Now().UTC()
		if _, err := deps.Users.Update(ctx, user); err != nil {
			return merr.Wrap(merr.InfrastructureUnavailable, "failed to persist new password", err)
		}
		if user.AccountID.Valid {
			auditLog(ctx, deps, user.AccountID.UUID, audit.EventPasswordReset, user.ID.String(), nil)
		}
		return nil
	})
}

// CheckTokenAndActivateUser redeems an EmailConfirmation token and marks the
// user active.
func CheckTokenAndActivateUser(ctx context.Context, deps Deps, tokenID uuid.UUID, code string) (domain.User, error) {
	var activated domain.User
	err := redeemEmailToken(ctx, deps, tokenID, code, domain.TokenEmailConfirmation, func(ctx context.Context, user domain.User) error {
		user.IsActive = true
		user.UpdatedAt = time.Now().UTC()
		updated, err := deps.Users.Update(ctx, user)
		if err != nil {
			return merr.Wrap(merr.InfrastructureUnavailable, "failed to activate user", err)
		}
		activated = updated
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return activated, nil
}
