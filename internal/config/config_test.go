package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepista/mycelium/internal/domain"
)

const sampleConfig = `
env: production
service_ip: 127.0.0.1
service_port: 9090
gateway_timeout: 45s
health_check_interval: 10s
max_retry_count: 5

life_cycle:
  domain_name: mycelium.example
  support_email: support@mycelium.example
  noreply_email: noreply@mycelium.example
  token_secret: super-secret
  token_expiration: 2h

routes:
  - name: svc-foo
    host: foo.internal
    protocol: https
    health_check_path: /healthz
    routes:
      - path: /items/{id}
        methods: [GET]
        downstream_url: https://foo.internal
        security_group:
          kind: protected_by_permissioned_roles
          permissioned_roles:
            - role: Reader
              permission: read
        secret:
          kind: authorization_header
          prefix: Bearer
          token: tok
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mycelium.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "127.0.0.1:9090", cfg.Addr())
	assert.Equal(t, 45*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, 10*time.Second, cfg.HealthCheckInterval)
	assert.Equal(t, 5, cfg.MaxRetryCount)
	assert.Equal(t, "super-secret", cfg.LifeCycle.TokenSecret)
	assert.Equal(t, 2*time.Hour, cfg.LifeCycle.TokenExpiration)
	// Defaults survive a partial file.
	assert.Equal(t, "en-us", cfg.LifeCycle.Locale)
	assert.Equal(t, 5, cfg.MaxErrorInstances)

	services := cfg.Services()
	require.Len(t, services, 1)
	svc := services[0]
	assert.Equal(t, "svc-foo", svc.Name)
	assert.Equal(t, domain.ProtocolHTTPS, svc.Protocol)
	require.NotNil(t, svc.HealthCheck)
	assert.Equal(t, "/healthz", svc.HealthCheck.Path)
	assert.Equal(t, domain.HealthUnknown, svc.HealthStatus.Kind)

	require.Len(t, svc.Routes, 1)
	route := svc.Routes[0]
	assert.Equal(t, "/items/{id}", route.Path)
	assert.Equal(t, domain.SecurityProtectedByPermissionedRoles, route.Security.Kind)
	require.Len(t, route.Security.PermissionedRoles, 1)
	assert.Equal(t, "Reader", route.Security.PermissionedRoles[0].RoleName)
	assert.Equal(t, domain.PermissionRead, route.Security.PermissionedRoles[0].Permission)
	require.NotNil(t, route.Secret)
	assert.Equal(t, domain.SecretAsAuthorizationHeader, route.Secret.Kind)
}

func TestLoad_MissingTokenSecret(t *testing.T) {
	_, err := Load(writeConfig(t, "service_port: 1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token_secret")
}

func TestLoad_UnknownSecurityKind(t *testing.T) {
	body := `
life_cycle:
  token_secret: s
routes:
  - name: svc
    host: h
    routes:
      - path: /x
        security_group:
          kind: nonsense
`
	_, err := Load(writeConfig(t, body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "security group")
}

func TestParsePermission(t *testing.T) {
	p, err := parsePermission("read_write")
	require.NoError(t, err)
	assert.Equal(t, domain.PermissionReadWrite, p)

	p, err = parsePermission("")
	require.NoError(t, err)
	assert.Equal(t, domain.PermissionRead, p)

	_, err = parsePermission("root")
	assert.Error(t, err)
}

func TestParseSecurityGroup_Defaults(t *testing.T) {
	sec, err := parseSecurityGroup(SecurityEntry{})
	require.NoError(t, err)
	assert.Equal(t, domain.SecurityPublic, sec.Kind)

	sec, err = parseSecurityGroup(SecurityEntry{Kind: "protected_by_service_token_with_role", Roles: []string{"Reader"}})
	require.NoError(t, err)
	assert.Equal(t, domain.SecurityProtectedByServiceTokenWithRole, sec.Kind)
	assert.Equal(t, []string{"Reader"}, sec.Roles)
}
