package tokenkit

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lepista/mycelium/internal/domain"
	"github.com/lepista/mycelium/internal/merr"
)

// extraData renders the issuer binding "{account_id} <{email}>" appended to
// the canonical bean concatenation before signing. It is a literal string
// suffix, never a bean: it does not appear on the wire, and the issuer is
// recovered from the persisted Token row at verification time, not from the
// string itself.
func extraData(accountID uuid.UUID, email string) string {
	return fmt.Sprintf("%s <%s>", accountID, email)
}

// Sign builds the wire form of a connection string: the scope's beans plus a
// trailing SIG bean computed over the canonical bean concatenation suffixed
// with the issuer binding.
func Sign(scope Scope, secret []byte, accountID uuid.UUID, email string) string {
	beans := scope.Beans()
	sig := sign(beans, secret, extraData(accountID, email))
	beans = append(beans, Bean{Tag: TagSIG, Value: sig})
	return encodeWire(string(scope.Kind()), beans)
}

// Decoded is the verified result of consuming a connection string: its kind
// and beans (SIG excluded), ready for the gateway's sufficiency check.
type Decoded struct {
	Kind  ScopeKind
	Beans []Bean
}

// Verify decodes wire, checks EXP > now, and verifies SIG against secret
// and the issuer binding. accountID/email come from the persisted Token row
// the caller resolved the wire string to — the one repository read on the
// verify path. Every failure — malformed wire, expired, bad signature —
// collapses to the same TokenInvalidOrExpired kind, so a caller can't probe
// which check rejected it.
func Verify(wire string, secret []byte, now time.Time, accountID uuid.UUID, email string) (Decoded, error) {
	kind, beans, err := decodeWire(wire)
	if err != nil {
		return Decoded{}, merr.Wrap(merr.TokenInvalidOrExpired, "malformed connection string", err)
	}

	sigBean, ok := find(beans, TagSIG)
	if !ok {
		return Decoded{}, merr.New(merr.TokenInvalidOrExpired, "connection string missing signature")
	}
	var withoutSig []Bean
	for _, b := range beans {
		if b.Tag != TagSIG {
			withoutSig = append(withoutSig, b)
		}
	}

	expBean, ok := find(withoutSig, TagEXP)
	if !ok {
		return Decoded{}, merr.New(merr.TokenInvalidOrExpired, "connection string missing expiration")
	}
	exp, err := time.Parse(time.RFC3339, expBean.Value)
	if err != nil {
		return Decoded{}, merr.Wrap(merr.TokenInvalidOrExpired, "malformed expiration", err)
	}
	if !now.Before(exp) {
		return Decoded{}, merr.New(merr.TokenInvalidOrExpired, "connection string expired")
	}

	if !verifySignature(withoutSig, secret, extraData(accountID, email), sigBean.Value) {
		return Decoded{}, merr.New(merr.TokenInvalidOrExpired, "connection string signature mismatch")
	}

	return Decoded{Kind: ScopeKind(kind), Beans: withoutSig}, nil
}

// PermissionedRoles extracts every PR bean as a domain.PermissionedRole.
func (d Decoded) PermissionedRoles() []domain.PermissionedRole {
	var out []domain.PermissionedRole
	for _, b := range d.Beans {
		if b.Tag != TagPR {
			continue
		}
		if pr, ok := parsePR(b.Value); ok {
			out = append(out, pr)
		}
	}
	return out
}

// AccountID extracts the AID bean, if present.
func (d Decoded) AccountID() (uuid.UUID, bool) {
	b, ok := find(d.Beans, TagAID)
	if !ok {
		return uuid.UUID{}, false
	}
	id, err := uuid.Parse(b.Value)
	return id, err == nil
}

// TenantID extracts the TID bean, if present.
func (d Decoded) TenantID() (uuid.UUID, bool) {
	b, ok := find(d.Beans, TagTID)
	if !ok {
		return uuid.UUID{}, false
	}
	id, err := uuid.Parse(b.Value)
	return id, err == nil
}

// GuestRoleID extracts the RID bean, if present.
func (d Decoded) GuestRoleID() (uuid.UUID, bool) {
	b, ok := find(d.Beans, TagRID)
	if !ok {
		return uuid.UUID{}, false
	}
	id, err := uuid.Parse(b.Value)
	return id, err == nil
}

// Satisfies reports whether the decoded scope's permissioned roles are a
// superset of required: every required pair must have some PR bean naming
// the same role with permission >= required.
func (d Decoded) Satisfies(required []domain.PermissionedRole) bool {
	owned := d.PermissionedRoles()
	for _, req := range required {
		matched := false
		for _, have := range owned {
			if have.RoleName == req.RoleName && have.Permission.Satisfies(req.Permission) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}
