package domain

import "time"

// Protocol is the downstream transport scheme a Service is reached over.
type Protocol string

const (
	ProtocolHTTP  Protocol = "http"
	ProtocolHTTPS Protocol = "https"
)

// HealthStatusKind tags the health state of a Service or Service instance.
type HealthStatusKind string

const (
	HealthUnknown   HealthStatusKind = "unknown"
	HealthHealthy   HealthStatusKind = "healthy"
	HealthUnhealthy HealthStatusKind = "unhealthy"
)

// HealthStatus is the tagged health-transition record the health loop
// maintains per service.
type HealthStatus struct {
	Kind   HealthStatusKind
	At     time.Time
	Reason string // meaningful only when Kind == HealthUnhealthy
}

// SecurityGroupKind tags which protection variant a Route declares.
type SecurityGroupKind string

const (
	SecurityPublic                                  SecurityGroupKind = "public"
	SecurityAuthenticated                            SecurityGroupKind = "authenticated"
	SecurityProtected                                SecurityGroupKind = "protected"
	SecurityProtectedByRoles                         SecurityGroupKind = "protected_by_roles"
	SecurityProtectedByPermissionedRoles             SecurityGroupKind = "protected_by_permissioned_roles"
	SecurityProtectedByServiceTokenWithRole          SecurityGroupKind = "protected_by_service_token_with_role"
	SecurityProtectedByServiceTokenWithPermissionedRoles SecurityGroupKind = "protected_by_service_token_with_permissioned_roles"
)

// SecurityGroup tags a Route's protection variant and its role/permission
// payload, where applicable.
type SecurityGroup struct {
	Kind SecurityGroupKind

	// Roles is set for ProtectedByRoles / ProtectedByServiceTokenWithRole.
	Roles []string

	// PermissionedRoles is set for the two PermissionedRoles variants.
	PermissionedRoles []PermissionedRole
}

func PublicSecurity() SecurityGroup        { return SecurityGroup{Kind: SecurityPublic} }
func AuthenticatedSecurity() SecurityGroup { return SecurityGroup{Kind: SecurityAuthenticated} }
func ProtectedSecurity() SecurityGroup     { return SecurityGroup{Kind: SecurityProtected} }

func ProtectedByRoles(roles ...string) SecurityGroup {
	return SecurityGroup{Kind: SecurityProtectedByRoles, Roles: roles}
}

func ProtectedByPermissionedRoles(prs ...PermissionedRole) SecurityGroup {
	return SecurityGroup{Kind: SecurityProtectedByPermissionedRoles, PermissionedRoles: prs}
}

func ProtectedByServiceTokenWithRole(roles ...string) SecurityGroup {
	return SecurityGroup{Kind: SecurityProtectedByServiceTokenWithRole, Roles: roles}
}

func ProtectedByServiceTokenWithPermissionedRoles(prs ...PermissionedRole) SecurityGroup {
	return SecurityGroup{Kind: SecurityProtectedByServiceTokenWithPermissionedRoles, PermissionedRoles: prs}
}

// IsServiceTokenVariant reports whether this group expects a connection
// string (vs. an interactive identity) in the request's auth header.
func (g SecurityGroup) IsServiceTokenVariant() bool {
	return g.Kind == SecurityProtectedByServiceTokenWithRole ||
		g.Kind == SecurityProtectedByServiceTokenWithPermissionedRoles
}

// RequiresIdentity reports whether this group needs an extractable email at
// all (Public does not).
func (g SecurityGroup) RequiresIdentity() bool { return g.Kind != SecurityPublic }

// RequiresProfile reports whether this group needs a fully assembled
// Profile (vs. just the bare email for Authenticated).
func (g SecurityGroup) RequiresProfile() bool {
	switch g.Kind {
	case SecurityProtected, SecurityProtectedByRoles, SecurityProtectedByPermissionedRoles:
		return true
	default:
		return false
	}
}

// SecretInjectionKind tags how a Route's downstream secret is carried.
type SecretInjectionKind string

const (
	SecretAsAuthorizationHeader SecretInjectionKind = "authorization_header"
	SecretAsQueryParameter      SecretInjectionKind = "query_parameter"
)

// SecretInjection describes where/how a Route's downstream secret is placed
// on the forwarded request.
type SecretInjection struct {
	Kind   SecretInjectionKind
	Name   string // header or query-parameter name
	Prefix string // meaningful only for AuthorizationHeader, e.g. "Bearer"
	Token  string
}

// Route is one path+method combination a Service exposes through the
// gateway.
type Route struct {
	ID                    string
	Path                  string
	Methods               []string
	Security              SecurityGroup
	DownstreamURL         string
	Instances             []string // resolved candidate downstream instances, all probed by the health loop
	AcceptInsecureRouting bool
	AllowedSources         []string
	Secret                *SecretInjection
}

// Service is a registered downstream that the gateway routes to under a
// path prefix equal to its Name.
type Service struct {
	ID           string
	Name         string
	Host         string
	Protocol     Protocol
	Routes       []Route
	HealthCheck  *HealthCheckConfig
	Secret       string
	IsContextAPI bool
	Capabilities []string
	HealthStatus HealthStatus
}

// HealthCheckConfig names the probe path for a Service's health loop.
type HealthCheckConfig struct {
	Path string
}
