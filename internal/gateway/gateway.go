package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lepista/mycelium/internal/domain"
	"github.com/lepista/mycelium/internal/identity"
	"github.com/lepista/mycelium/internal/merr"
	"github.com/lepista/mycelium/internal/profile"
	"github.com/lepista/mycelium/internal/registry"
	"github.com/lepista/mycelium/internal/repository"
	"github.com/lepista/mycelium/internal/support"
	"github.com/lepista/mycelium/internal/tokenkit"
)

// Config bundles the gateway-scoped settings: the downstream timeout and
// the token secret used to verify inbound connection strings.
type Config struct {
	GatewayTimeout time.Duration
	TokenSecret    []byte
}

// Gateway routes, authenticates and forwards incoming requests. It holds no
// per-request state; every field here is shared, read-mostly process state.
type Gateway struct {
	Registry  *registry.Registry
	Identity  identity.Provider
	Profiles  *profile.Assembler
	Tokens    repository.TokenRepository
	Config    Config
	transport http.RoundTripper
}

// New builds a Gateway. tokens resolves inbound connection strings to their
// issued Token rows; transport defaults to http.DefaultTransport when nil.
func New(reg *registry.Registry, idp identity.Provider, assembler *profile.Assembler, tokens repository.TokenRepository, cfg Config, transport http.RoundTripper) *Gateway {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Gateway{Registry: reg, Identity: idp, Profiles: assembler, Tokens: tokens, Config: cfg, transport: transport}
}

// ServeHTTP runs the full pipeline: route resolution, security
// enforcement, downstream URL computation, and the forward itself.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.New()
	ctx := withRequestID(r.Context(), reqID)
	r = r.WithContext(ctx)

	serviceName, rest, ok := splitServiceName(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	svc, ok := g.Registry.Get(serviceName)
	if !ok {
		http.NotFound(w, r)
		return
	}
	// Unknown is routable: a service that hasn't been probed yet (or has no
	// health check at all) must not be blackholed at startup.
	if svc.HealthStatus.Kind == domain.HealthUnhealthy {
		writeError(w, merr.New(merr.InfrastructureUnavailable, "service is unhealthy"))
		return
	}

	route, ok := matchRoute(svc, rest, r.Method)
	if !ok {
		http.NotFound(w, r)
		return
	}

	headers := http.Header{}
	if err := g.enforceSecurity(r, route.Security, headers); err != nil {
		writeError(w, err)
		return
	}

	downstreamURL, err := buildDownstreamURL(svc, route, rest, r.URL.RawQuery)
	if err != nil {
		writeError(w, merr.Wrap(merr.InfrastructureUnavailable, "failed to build downstream url", err))
		return
	}

	g.forward(w, r, downstreamURL, route, svc, headers, reqID)
}

// splitServiceName splits "/{service}/{rest...}" into its two parts.
func splitServiceName(path string) (service, rest string, ok bool) {
	trimmed := strings.TrimPrefix(path, "/")
	idx := strings.IndexByte(trimmed, '/')
	if idx < 0 {
		if trimmed == "" {
			return "", "", false
		}
		return trimmed, "", true
	}
	return trimmed[:idx], trimmed[idx:], true
}

func matchRoute(svc domain.Service, rest, method string) (domain.Route, bool) {
	for _, route := range svc.Routes {
		if methodAllowed(route.Methods, method) && matchPath(route.Path, rest) {
			return route, true
		}
	}
	return domain.Route{}, false
}

// enforceSecurity applies the route's SecurityGroup, writing the identity
// headers that survive to the forwarded request into headers.
func (g *Gateway) enforceSecurity(r *http.Request, sec domain.SecurityGroup, headers http.Header) error {
	if sec.Kind == domain.SecurityPublic {
		return nil
	}

	auth := r.Header.Get("Authorization")
	token := strings.TrimPrefix(auth, "Bearer ")
	if token == "" {
		return merr.New(merr.TokenInvalidOrExpired, "missing authorization header")
	}

	if sec.IsServiceTokenVariant() {
		return g.enforceServiceToken(r.Context(), token, sec, headers)
	}
	return g.enforceIdentity(r.Context(), token, sec, headers)
}

func (g *Gateway) enforceServiceToken(ctx context.Context, token string, sec domain.SecurityGroup, headers http.Header) error {
	// The issuer binding lives on the Token row, not the wire string; an
	// unissued (or revoked-by-deletion) string fails here before any
	// signature work.
	row, err := g.Tokens.GetByConnectionString(ctx, token)
	if err != nil {
		return merr.Wrap(merr.TokenInvalidOrExpired, "connection string is not an issued token", err)
	}
	decoded, err := tokenkit.Verify(token, g.Config.TokenSecret, time.Now(), row.Meta.AccountID, row.Meta.Email.Email())
	if err != nil {
		return err
	}
	if !decoded.Satisfies(sec.PermissionedRoles) {
		return merr.New(merr.InsufficientPrivileges, "connection string scope does not satisfy required permissions")
	}
	scopeJSON, err := json.Marshal(decoded.PermissionedRoles())
	if err != nil {
		return merr.Wrap(merr.InfrastructureUnavailable, "failed to marshal scope", err)
	}
	headers.Set(HeaderScope, string(scopeJSON))
	headers.Set(HeaderConnectionString, token)
	if tid, ok := decoded.TenantID(); ok {
		headers.Set(HeaderTenantID, tid.String())
	}
	return nil
}

func (g *Gateway) enforceIdentity(ctx context.Context, token string, sec domain.SecurityGroup, headers http.Header) error {
	claims, err := g.Identity.Validate(token)
	if err != nil {
		return merr.Wrap(merr.TokenInvalidOrExpired, "identity token invalid", err)
	}
	headers.Set(HeaderEmail, claims.Email)

	if sec.Kind == domain.SecurityAuthenticated {
		return nil
	}

	email, err := domain.ParseEmail(claims.Email)
	if err != nil {
		return merr.Wrap(merr.TokenInvalidOrExpired, "identity token carries malformed email", err)
	}

	filter := profile.Filter{Roles: sec.Roles, PermissionedRoles: sec.PermissionedRoles}
	p, err := g.Profiles.Assemble(ctx, email, filter)
	if err != nil {
		return err
	}

	switch sec.Kind {
	case domain.SecurityProtectedByRoles, domain.SecurityProtectedByPermissionedRoles:
		if len(p.LicensedResources) == 0 && !p.IsStaff && !p.IsManager {
			return merr.New(merr.InsufficientPrivileges, "profile has no matching licensed resources")
		}
	}

	return attachProfileHeaders(headers, p)
}

func attachProfileHeaders(headers http.Header, p *domain.Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return merr.Wrap(merr.InfrastructureUnavailable, "failed to marshal profile", err)
	}
	compressed, err := support.CompressProfile(raw)
	if err != nil {
		return merr.Wrap(merr.InfrastructureUnavailable, "failed to compress profile", err)
	}
	headers.Set(HeaderProfile, base64.StdEncoding.EncodeToString(compressed))

	roles := make([]string, 0, len(p.LicensedResources))
	for _, lr := range p.LicensedResources {
		roles = append(roles, lr.RoleName)
	}
	if rolesJSON, err := json.Marshal(roles); err == nil {
		headers.Set(HeaderRole, string(rolesJSON))
	}
	if owner, ok := p.PrincipalOwner(); ok {
		headers.Set(HeaderEmail, owner.Email.Email())
	}
	return nil
}

func writeError(w http.ResponseWriter, err error) {
	status := merr.HTTPStatus(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// buildDownstreamURL computes the forwarded URL by stripping the gateway
// base path and service name, preserving query.
func buildDownstreamURL(svc domain.Service, route domain.Route, rest, rawQuery string) (*url.URL, error) {
	base := route.DownstreamURL
	if base == "" {
		base = fmt.Sprintf("%s://%s", svc.Protocol, svc.Host)
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid downstream url %q: %w", base, err)
	}
	u.Path = strings.TrimRight(u.Path, "/") + rest
	u.RawQuery = rawQuery
	return u, nil
}

func (g *Gateway) forward(w http.ResponseWriter, r *http.Request, target *url.URL, route domain.Route, svc domain.Service, injected http.Header, reqID uuid.UUID) {
	proxy := &httputil.ReverseProxy{
		Transport: g.transport,
		Director: func(req *http.Request) {
			req.URL = target
			req.Host = target.Host

			stripHopByHop(req.Header)
			for k, vals := range injected {
				for _, v := range vals {
					req.Header.Set(k, v)
				}
			}
			req.Header.Set(HeaderRequestID, reqID.String())
			req.Header.Set(HeaderTargetHost, target.Hostname())
			req.Header.Set(HeaderTargetProtocol, target.Scheme)
			if port := target.Port(); port != "" {
				req.Header.Set(HeaderTargetPort, port)
			}
			req.Header.Set(HeaderRouting, svc.Name)

			// x-forwarded-for is left to ReverseProxy, which appends the
			// client address to any inbound chain after this Director runs;
			// setting it here too would double-record the caller.

			// http.Transport auto-negotiates gzip and silently decompresses
			// the response when Accept-Encoding is unset; an explicit
			// "identity" keeps the stream reaching the client exactly the
			// bytes the downstream sent.
			req.Header.Set("Accept-Encoding", "identity")

			_ = injectSecret(req, route, target.Scheme == "https")
		},
	}

	ctx, cancel := context.WithTimeout(r.Context(), g.Config.GatewayTimeout)
	defer cancel()
	proxy.ServeHTTP(w, r.WithContext(ctx))
}
