package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lepista/mycelium/internal/audit"
	"github.com/lepista/mycelium/internal/domain"
	"github.com/lepista/mycelium/internal/merr"
	"github.com/lepista/mycelium/internal/tokenkit"
)

// ConnectionStringArgs narrows which scope variant CreateConnectionString
// builds. The most specific combination wins: a role id yields a role-scoped
// string, an account id an account-scoped one, a bare tenant id a
// tenant-scoped one, and none of the three a user-account string carrying
// the caller's own privileges.
type ConnectionStringArgs struct {
	TenantID          uuid.NullUUID
	RoleID            uuid.NullUUID
	AccountID         uuid.NullUUID
	PermissionedRoles []domain.PermissionedRole
	Expiration        time.Time
}

// CreateConnectionString builds the most-specific scope variant from args,
// signs it under the life-cycle token secret, persists a Token row, and
// enqueues the "create-connection-string" notification email.
//
// Pre: the profile has a principal owner — the signature binds the issuing
// account and email, so an ownerless profile has
// nothing to sign as.
func CreateConnectionString(ctx context.Context, deps Deps, profile *domain.Profile, args ConnectionStringArgs) (string, error) {
	owner, ok := profile.PrincipalOwner()
	if !ok {
		return "", merr.New(merr.InsufficientPrivileges, "profile has no principal owner to issue as")
	}

	scope, metaKind, err := scopeFromArgs(profile, args)
	if err != nil {
		return "", err
	}

	wire := tokenkit.Sign(scope, deps.LifeCycle.TokenSecret, profile.AccID, owner.Email.Email())

	token := domain.Token{
		ID:         uuid.New(),
		Expiration: args.Expiration,
		CreatedAt:  time.Now().UTC(),
		Meta: domain.TokenMeta{
			Kind:             metaKind,
			UserID:           owner.ID,
			Email:            owner.Email,
			ConnectionString: wire,
			AccountID:        profile.AccID,
		},
	}

	err = deps.Tx(ctx, func(ctx context.Context) error {
		if _, err := deps.Tokens.Create(ctx, token); err != nil {
			return merr.Wrap(merr.InfrastructureUnavailable, "failed to persist connection-string token", err)
		}
		msg, err := renderNotification(deps, "create-connection-string", map[string]any{
			"scope_kind": string(scope.Kind()),
			"expiration": args.Expiration.UTC().Format(time.RFC3339),
		}, owner.Email.Email())
		if err != nil {
			return err
		}
		return enqueueMessageEvent(ctx, deps.Outbox, msg)
	})
	if err != nil {
		return "", err
	}

	auditLog(ctx, deps, profile.AccID, audit.EventConnectionStringIssued, token.ID.String(), map[string]string{
		"scope_kind": string(scope.Kind()),
	})
	return wire, nil
}

func scopeFromArgs(profile *domain.Profile, args ConnectionStringArgs) (tokenkit.Scope, domain.TokenMetaKind, error) {
	switch {
	case args.RoleID.Valid:
		if !args.TenantID.Valid {
			return nil, "", merr.New(merr.AmbiguousToken, "role-scoped connection string requires a tenant id")
		}
		return tokenkit.RoleScopedConnectionString{
			TenantID:          args.TenantID.UUID,
			GuestRoleID:       args.RoleID.UUID,
			PermissionedRoles: args.PermissionedRoles,
			Expiration:        args.Expiration,
		}, domain.TokenRoleScopedConnectionString, nil
	case args.AccountID.Valid:
		if !args.TenantID.Valid {
			return nil, "", merr.New(merr.AmbiguousToken, "account-scoped connection string requires a tenant id")
		}
		return tokenkit.AccountScopedConnectionString{
			TenantID:          args.TenantID.UUID,
			AccountID:         args.AccountID.UUID,
			PermissionedRoles: args.PermissionedRoles,
			Expiration:        args.Expiration,
		}, domain.TokenAccountScopedConnectionString, nil
	case args.TenantID.Valid:
		return tokenkit.TenantScopedConnectionString{
			TenantID:          args.TenantID.UUID,
			PermissionedRoles: args.PermissionedRoles,
			Expiration:        args.Expiration,
		}, domain.TokenTenantScopedConnectionString, nil
	default:
		if len(args.PermissionedRoles) > 0 {
			// A permissioned-role list with no tenant/account/role anchor
			// doesn't name a single scope variant.
			return nil, "", merr.New(merr.AmbiguousToken, "permissioned roles require a tenant, account or role scope")
		}
		return tokenkit.UserAccountConnectionString{
			AccountID:  profile.AccID,
			Expiration: args.Expiration,
		}, domain.TokenUserAccountConnectionString, nil
	}
}
