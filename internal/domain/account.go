package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AccountTypeKind tags which variant an AccountType carries. Modeled as a
// tag-plus-struct instead of an interface{}, matching the narrow, explicit
// variant style used for Scope in the access-control examples this design
// draws from: a switch on Kind, never a type assertion on an empty interface.
type AccountTypeKind string

const (
	AccountTypeUser           AccountTypeKind = "user"
	AccountTypeSubscription   AccountTypeKind = "subscription"
	AccountTypeTenantManager  AccountTypeKind = "tenant_manager"
	AccountTypeRoleAssociated AccountTypeKind = "role_associated"
	AccountTypeActorAssociated AccountTypeKind = "actor_associated"
	AccountTypeStaff          AccountTypeKind = "staff"
)

// SystemActor is a reserved role name with built-in gateway/use-case
// semantics (glossary). CustomRole(name) is any string outside this set.
type SystemActor string

const (
	ActorTenantOwner      SystemActor = "TenantOwner"
	ActorTenantManager    SystemActor = "TenantManager"
	ActorSubscriptionsManager SystemActor = "SubscriptionsManager"
	ActorGuestsManager    SystemActor = "GuestsManager"
	ActorUsersManager     SystemActor = "UsersManager"
	ActorAccountManager   SystemActor = "AccountManager"
	ActorSystemManager    SystemActor = "SystemManager"
	ActorGatewayManager   SystemActor = "GatewayManager"
	ActorBeginner         SystemActor = "Beginner"
)

// AccountType tags an Account with its variant and the variant's payload.
// Only the fields matching Kind are meaningful.
//
// INV: Subscription, TenantManager and RoleAssociated all carry a TenantID
// that must agree with the owning Account.TenantID; this is checked by
// Account.Validate, not by the type itself.
type AccountType struct {
	Kind AccountTypeKind

	// TenantID is set for Subscription, TenantManager and RoleAssociated.
	TenantID uuid.UUID

	// RoleName/RoleID are set when Kind == AccountTypeRoleAssociated.
	RoleName string
	RoleID   uuid.UUID

	// Actor is set when Kind == AccountTypeActorAssociated.
	Actor SystemActor
}

func NewUserAccountType() AccountType { return AccountType{Kind: AccountTypeUser} }

func NewSubscriptionAccountType(tenantID uuid.UUID) AccountType {
	return AccountType{Kind: AccountTypeSubscription, TenantID: tenantID}
}

func NewTenantManagerAccountType(tenantID uuid.UUID) AccountType {
	return AccountType{Kind: AccountTypeTenantManager, TenantID: tenantID}
}

func NewStaffAccountType() AccountType { return AccountType{Kind: AccountTypeStaff} }

func NewRoleAssociatedAccountType(tenantID uuid.UUID, roleName string, roleID uuid.UUID) AccountType {
	return AccountType{Kind: AccountTypeRoleAssociated, TenantID: tenantID, RoleName: roleName, RoleID: roleID}
}

func NewActorAssociatedAccountType(actor SystemActor) AccountType {
	return AccountType{Kind: AccountTypeActorAssociated, Actor: actor}
}

// IsSubscription reports whether this account type represents a
// subscription (paying tenant) account, as opposed to a human user account.
func (t AccountType) IsSubscription() bool {
	return t.Kind == AccountTypeSubscription || t.Kind == AccountTypeRoleAssociated
}

// IsManager reports whether this account type grants tenant-wide management
// privileges (tenant managers, and actor-associated managers).
func (t AccountType) IsManager() bool {
	return t.Kind == AccountTypeTenantManager ||
		(t.Kind == AccountTypeActorAssociated && t.Actor == ActorTenantManager)
}

// IsStaff reports whether this account type grants platform-wide staff
// privileges, bypassing tenant scoping entirely.
func (t AccountType) IsStaff() bool { return t.Kind == AccountTypeStaff }

// VerboseStatus is a derived, human-readable account status label. It is
// never persisted; it is always computed from Account's flag combination.
type VerboseStatus string

const (
	VerboseActive     VerboseStatus = "Active"
	VerboseInactive   VerboseStatus = "Inactive"
	VerboseUnverified VerboseStatus = "Unverified"
	VerboseArchived   VerboseStatus = "Archived"
)

var slugNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives an Account's slug from its name: lowercase,
// non-alphanumeric runs collapsed to a single hyphen, leading/trailing
// hyphens trimmed. Deterministic: equal names always yield equal slugs.
func Slugify(name string) string {
	s := slugNonAlnum.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(s, "-")
}

// Account is a named identity scoped (optionally) to a tenant, tagged with
// an AccountType variant describing what kind of principal it represents.
type Account struct {
	ID         uuid.UUID
	Name       string
	Slug       string
	Meta       map[string]string
	Type       AccountType
	TenantID   uuid.NullUUID
	IsActive   bool
	IsChecked  bool
	IsArchived bool
	IsDefault  bool
	IsDeleted  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
	WrittenBy  uuid.UUID
}

// NewAccount builds an Account with its slug derived from name.
func NewAccount(id uuid.UUID, name string, accType AccountType) Account {
	now := time.Now().UTC()
	a := Account{
		ID:        id,
		Name:      name,
		Slug:      Slugify(name),
		Type:      accType,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if accType.Kind == AccountTypeSubscription || accType.Kind == AccountTypeTenantManager ||
		accType.Kind == AccountTypeRoleAssociated {
		a.TenantID = uuid.NullUUID{UUID: accType.TenantID, Valid: true}
	}
	return a
}

// VerboseStatus derives the display status from an Account's flags.
// Precedence: archived beats inactive beats unchecked beats active.
func (a Account) VerboseStatus() VerboseStatus {
	switch {
	case a.IsArchived:
		return VerboseArchived
	case !a.IsActive:
		return VerboseInactive
	case !a.IsChecked:
		return VerboseUnverified
	default:
		return VerboseActive
	}
}

// IdentityProviderKind tags which variant an IdentityProvider carries.
type IdentityProviderKind string

const (
	IdentityProviderInternal IdentityProviderKind = "internal"
	IdentityProviderExternal IdentityProviderKind = "external"
)

// IdentityProvider tags how a User authenticates: an internally-managed
// password hash, or delegation to a named external provider (SSO/OIDC/etc).
//
// INV: exactly one provider per user.
type IdentityProvider struct {
	Kind IdentityProviderKind

	// PasswordHash is set when Kind == IdentityProviderInternal.
	PasswordHash string

	// ProviderName is set when Kind == IdentityProviderExternal.
	ProviderName string
}

func NewInternalIdentityProvider(passwordHash string) IdentityProvider {
	return IdentityProvider{Kind: IdentityProviderInternal, PasswordHash: passwordHash}
}

func NewExternalIdentityProvider(name string) IdentityProvider {
	return IdentityProvider{Kind: IdentityProviderExternal, ProviderName: name}
}

// TotpKind tags whether a User's MFA is Disabled or Enabled.
type TotpKind string

const (
	TotpDisabled TotpKind = "disabled"
	TotpEnabled  TotpKind = "enabled"
)

// Totp is the tagged MFA state carried by a User.
type Totp struct {
	Kind TotpKind

	// The following are meaningful only when Kind == TotpEnabled.
	Verified       bool
	Issuer         string
	EncryptedSecret string // empty until Verified; encrypted at rest, see internal/security
}

func DisabledTotp() Totp { return Totp{Kind: TotpDisabled} }

// User is the human-facing identity bound 1:1 to an AccountTypeUser Account.
type User struct {
	ID          uuid.UUID
	Username    string
	Email       Email
	FirstName   string
	LastName    string
	IsActive    bool
	IsPrincipal bool
	MFA         Totp
	Provider    IdentityProvider
	AccountID   uuid.NullUUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
