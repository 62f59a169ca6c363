package domain

import (
	"github.com/google/uuid"

	"github.com/lepista/mycelium/internal/merr"
)

// OnTenant narrows LicensedResources to one tenant.
func (p *Profile) OnTenant(tenantID uuid.UUID) *Profile {
	out := *p
	out.LicensedResources = filterResources(p.LicensedResources, func(r LicensedResource) bool {
		return r.TenantID == tenantID
	})
	return &out
}

// WithSystemAccountsAccess restricts LicensedResources to rows backed by a
// tenant-management account class (TenantManager/RoleAssociated) — the
// "system accounts" class.
func (p *Profile) WithSystemAccountsAccess() *Profile {
	out := *p
	if p.IsStaff || p.IsManager {
		return &out // tenant-wide/staff privilege supersedes resource filtering
	}
	out.LicensedResources = filterResources(p.LicensedResources, func(r LicensedResource) bool {
		return r.RoleID != uuid.Nil
	})
	return &out
}

// WithStandardAccountsAccess restricts LicensedResources to
// subscription-class accounts, the complement of WithSystemAccountsAccess.
func (p *Profile) WithStandardAccountsAccess() *Profile {
	out := *p
	out.LicensedResources = filterResources(p.LicensedResources, func(r LicensedResource) bool {
		return r.RoleID == uuid.Nil
	})
	return &out
}

// WithReadAccess restricts LicensedResources to those granting at least
// Read (i.e. all of them, Read being the floor) — kept for symmetry with
// WithWriteAccess/WithReadWriteAccess.
func (p *Profile) WithReadAccess() *Profile { return p.withPermission(PermissionRead) }

// WithWriteAccess restricts LicensedResources to those granting at least
// Write.
func (p *Profile) WithWriteAccess() *Profile { return p.withPermission(PermissionWrite) }

// WithReadWriteAccess restricts LicensedResources to those granting
// exactly ReadWrite.
func (p *Profile) WithReadWriteAccess() *Profile { return p.withPermission(PermissionReadWrite) }

func (p *Profile) withPermission(required Permission) *Profile {
	out := *p
	out.LicensedResources = filterResources(p.LicensedResources, func(r LicensedResource) bool {
		return r.Permission.Satisfies(required)
	})
	return &out
}

// WithRoles restricts LicensedResources to rows whose role name is in
// actors. Applying it twice is idempotent; it never increases the result
// size.
func (p *Profile) WithRoles(actors ...string) *Profile {
	set := make(map[string]struct{}, len(actors))
	for _, a := range actors {
		set[a] = struct{}{}
	}
	out := *p
	out.LicensedResources = filterResources(p.LicensedResources, func(r LicensedResource) bool {
		_, ok := set[r.RoleName]
		return ok
	})
	return &out
}

func filterResources(resources []LicensedResource, keep func(LicensedResource) bool) []LicensedResource {
	out := make([]LicensedResource, 0, len(resources))
	for _, r := range resources {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// GetIDsOrError is the terminal narrowing operation: staff and
// tenant-wide managers get a privilege tier that supersedes any specific
// account list; everyone else must have at least one matching
// LicensedResource or the request is InsufficientPrivileges.
func (p *Profile) GetIDsOrError() (RelatedAccounts, error) {
	if p.IsStaff {
		return RelatedAccounts{Kind: RelatedHasStaffPrivilege}, nil
	}
	if p.IsManager {
		return RelatedAccounts{Kind: RelatedHasTenantWidePrivilege}, nil
	}
	if len(p.LicensedResources) == 0 {
		return RelatedAccounts{}, merr.New(merr.InsufficientPrivileges, "profile has no matching licensed resources")
	}
	ids := make([]uuid.UUID, 0, len(p.LicensedResources))
	seen := make(map[uuid.UUID]struct{}, len(p.LicensedResources))
	for _, r := range p.LicensedResources {
		if _, ok := seen[r.AccountID]; ok {
			continue
		}
		seen[r.AccountID] = struct{}{}
		ids = append(ids, r.AccountID)
	}
	return RelatedAccounts{Kind: RelatedAllowedAccounts, AccountIDs: ids}, nil
}

// GetRelatedAccountOrError is GetIDsOrError narrowed to exactly one
// account id; it errors if the allowed set doesn't contain exactly one
// entry (callers needing "the" account, not "the accounts").
func (p *Profile) GetRelatedAccountOrError() (RelatedAccounts, error) {
	related, err := p.GetIDsOrError()
	if err != nil {
		return RelatedAccounts{}, err
	}
	if related.Kind == RelatedAllowedAccounts && len(related.AccountIDs) != 1 {
		return RelatedAccounts{}, merr.New(merr.InsufficientPrivileges, "profile resolves to more than one account")
	}
	return related, nil
}
