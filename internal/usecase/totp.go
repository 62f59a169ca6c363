package usecase

import (
	"context"
	"time"

	"github.com/lepista/mycelium/internal/audit"
	"github.com/lepista/mycelium/internal/domain"
	"github.com/lepista/mycelium/internal/merr"
)

// TotpActivation is what TotpStartActivation hands back to the caller: the
// otpauth URL (and its QR rendering) the user enrolls with. The raw secret
// never leaves this struct unencrypted anywhere else — the stored copy on
// the User row is sealed by the SecretBox.
type TotpActivation struct {
	OtpauthURL string
	QRCodePNG  []byte
}

// TotpStartActivation begins TOTP enrollment for the user behind email.
//
// Pre: the user's MFA is Totp::Disabled, or Enabled but not yet verified (a
// stalled prior activation may be restarted). An already-verified TOTP must
// be disabled through a separate recovery path first.
func TotpStartActivation(ctx context.Context, deps Deps, email domain.Email) (TotpActivation, error) {
	user, err := deps.Users.GetByEmail(ctx, email)
	if err != nil {
		return TotpActivation{}, merr.Wrap(merr.UserNotFound, "user not found", err)
	}
	if user.MFA.Kind == domain.TotpEnabled && user.MFA.Verified {
		return TotpActivation{}, merr.New(merr.TotpAlreadyEnabled, "totp is already enabled and verified")
	}

	key, qr, err := deps.MFA.GenerateSecret(user.Email.Email())
	if err != nil {
		return TotpActivation{}, merr.Wrap(merr.InfrastructureUnavailable, "failed to generate totp secret", err)
	}

	sealed, err := deps.SecretBox.Encrypt(key.Secret())
	if err != nil {
		return TotpActivation{}, merr.Wrap(merr.InfrastructureUnavailable, "failed to encrypt totp secret", err)
	}

	user.MFA = domain.Totp{
		Kind:            domain.TotpEnabled,
		Verified:        false,
		Issuer:          key.Issuer(),
		EncryptedSecret: sealed,
	}
	user.UpdatedAt = time.Now().UTC()
	if _, err := deps.Users.Update(ctx, user); err != nil {
		return TotpActivation{}, merr.Wrap(merr.InfrastructureUnavailable, "failed to persist totp state", err)
	}

	return TotpActivation{OtpauthURL: key.URL(), QRCodePNG: qr}, nil
}

// TotpCheckToken validates code against the user's stored secret. A first
// successful check inside the activation window flips Verified to true;
// afterwards it is the per-login second factor.
func TotpCheckToken(ctx context.Context, deps Deps, email domain.Email, code string) (domain.User, error) {
	user, err := deps.Users.GetByEmail(ctx, email)
	if err != nil {
		return domain.User{}, merr.Wrap(merr.UserNotFound, "user not found", err)
	}
	if user.MFA.Kind != domain.TotpEnabled || user.MFA.EncryptedSecret == "" {
		return domain.User{}, merr.New(merr.TotpNotConfigured, "totp has not been configured for this user")
	}

	secret, err := deps.SecretBox.Decrypt(user.MFA.EncryptedSecret)
	if err != nil {
		return domain.User{}, merr.Wrap(merr.InfrastructureUnavailable, "failed to decrypt totp secret", err)
	}

	if err := deps.MFA.ValidateCode(code, secret); err != nil {
		return domain.User{}, err
	}

	if !user.MFA.Verified {
		user.MFA.Verified = true
		user.UpdatedAt = time.Now().UTC()
		if user, err = deps.Users.Update(ctx, user); err != nil {
			return domain.User{}, merr.Wrap(merr.InfrastructureUnavailable, "failed to persist totp verification", err)
		}
		if user.AccountID.Valid {
			auditLog(ctx, deps, user.AccountID.UUID, audit.EventTotpActivated, user.ID.String(), nil)
		}
	}
	return user, nil
}
