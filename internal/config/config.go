// Package config loads the process configuration from a YAML file with
// environment-variable overrides. The gateway carries routes, TLS,
// dispatcher tuning and the life_cycle block, which wants viper's
// structured file+env loading rather than a flat env-var reader.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/lepista/mycelium/internal/domain"
)

// Config is the full process configuration, including the ambient blocks
// (redis, smtp, sentry) the reference binaries need.
type Config struct {
	Env string `mapstructure:"env"`

	ServiceIP      string   `mapstructure:"service_ip"`
	ServicePort    int      `mapstructure:"service_port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	ServiceWorkers int      `mapstructure:"service_workers"`
	GatewayTimeout time.Duration `mapstructure:"gateway_timeout"`

	TLS *TLSConfig `mapstructure:"tls"`

	HealthCheckInterval time.Duration `mapstructure:"health_check_interval"`
	HealthProbeTimeout  time.Duration `mapstructure:"health_probe_timeout"`
	MaxRetryCount       int           `mapstructure:"max_retry_count"`
	MaxErrorInstances   int           `mapstructure:"max_error_instances"`

	DispatcherInterval time.Duration `mapstructure:"dispatcher_interval"`
	DispatcherBatch    int           `mapstructure:"dispatcher_batch"`

	LifeCycle LifeCycle      `mapstructure:"life_cycle"`
	Routes    []ServiceEntry `mapstructure:"routes"`

	Redis RedisConfig `mapstructure:"redis"`
	SMTP  SMTPConfig  `mapstructure:"smtp"`

	SentryDSN string `mapstructure:"sentry_dsn"`

	// IdentityKeyPath points at the PEM RSA key identity tokens are signed
	// with; empty means the gateway generates an ephemeral dev key.
	IdentityKeyPath string `mapstructure:"identity_key_path"`
}

// TLSConfig is the optional tls block; absent means plain HTTP.
type TLSConfig struct {
	CertPath string `mapstructure:"tls_cert_path"`
	KeyPath  string `mapstructure:"tls_key_path"`
}

// LifeCycle is the tenant-wide life_cycle block: mail identity, locale and
// token secrets.
type LifeCycle struct {
	DomainName      string        `mapstructure:"domain_name"`
	DomainURL       string        `mapstructure:"domain_url"`
	SupportEmail    string        `mapstructure:"support_email"`
	NoreplyEmail    string        `mapstructure:"noreply_email"`
	NoreplyName     string        `mapstructure:"noreply_name"`
	Locale          string        `mapstructure:"locale"`
	TokenSecret     string        `mapstructure:"token_secret"`
	TokenExpiration time.Duration `mapstructure:"token_expiration"`
	TokenHMACSecret string        `mapstructure:"token_hmac_secret"`
}

// RedisConfig locates the lease store the webhook dispatcher claims events
// through.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SMTPConfig is the single process-wide outbound relay mycelium-maild uses.
type SMTPConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	User    string `mapstructure:"user"`
	Pass    string `mapstructure:"pass"`
	TLSMode string `mapstructure:"tls_mode"`
}

// ServiceEntry is one downstream service in the routes block, converted to a
// domain.Service by Services().
type ServiceEntry struct {
	ID           string       `mapstructure:"id"`
	Name         string       `mapstructure:"name"`
	Host         string       `mapstructure:"host"`
	Protocol     string       `mapstructure:"protocol"`
	HealthCheck  string       `mapstructure:"health_check_path"`
	IsContextAPI bool         `mapstructure:"is_context_api"`
	Capabilities []string     `mapstructure:"capabilities"`
	Routes       []RouteEntry `mapstructure:"routes"`
}

// RouteEntry is one route under a ServiceEntry.
type RouteEntry struct {
	ID                    string         `mapstructure:"id"`
	Path                  string         `mapstructure:"path"`
	Methods               []string       `mapstructure:"methods"`
	DownstreamURL         string         `mapstructure:"downstream_url"`
	Instances             []string       `mapstructure:"instances"`
	AcceptInsecureRouting bool           `mapstructure:"accept_insecure_routing"`
	AllowedSources        []string       `mapstructure:"allowed_sources"`
	Security              SecurityEntry  `mapstructure:"security_group"`
	Secret                *SecretEntry   `mapstructure:"secret"`
}

// SecurityEntry names a SecurityGroup variant and its payload.
type SecurityEntry struct {
	Kind              string                 `mapstructure:"kind"`
	Roles             []string               `mapstructure:"roles"`
	PermissionedRoles []PermissionedRoleEntry `mapstructure:"permissioned_roles"`
}

// PermissionedRoleEntry is one (role, permission) pair.
type PermissionedRoleEntry struct {
	Role       string `mapstructure:"role"`
	Permission string `mapstructure:"permission"`
}

// SecretEntry configures downstream secret injection for one route.
type SecretEntry struct {
	Kind   string `mapstructure:"kind"` // "authorization_header" | "query_parameter"
	Name   string `mapstructure:"name"`
	Prefix string `mapstructure:"prefix"`
	Token  string `mapstructure:"token"`
}

// Load reads the config file at path (or the defaults viper finds when path
// is empty) and applies MYCELIUM_-prefixed environment overrides. A missing
// file with a fully env-provided config is not an error; a malformed file or
// an invalid value is.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("mycelium")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/mycelium")
	}

	v.SetEnvPrefix("MYCELIUM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("env", "development")
	v.SetDefault("service_ip", "0.0.0.0")
	v.SetDefault("service_port", 8080)
	v.SetDefault("service_workers", 0)
	v.SetDefault("gateway_timeout", 30*time.Second)
	v.SetDefault("health_check_interval", 30*time.Second)
	v.SetDefault("health_probe_timeout", 5*time.Second)
	v.SetDefault("max_retry_count", 3)
	v.SetDefault("max_error_instances", 5)
	v.SetDefault("dispatcher_interval", 10*time.Second)
	v.SetDefault("dispatcher_batch", 10)
	v.SetDefault("life_cycle.locale", "en-us")
	v.SetDefault("life_cycle.token_expiration", time.Hour)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.tls_mode", "starttls")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read %q: %w", v.ConfigFileUsed(), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.GatewayTimeout <= 0 {
		return fmt.Errorf("config: gateway_timeout must be positive")
	}
	if c.LifeCycle.TokenSecret == "" {
		return fmt.Errorf("config: life_cycle.token_secret is required")
	}
	for _, svc := range c.Routes {
		if svc.Name == "" {
			return fmt.Errorf("config: every service in routes needs a name")
		}
		for _, route := range svc.Routes {
			if _, err := parseSecurityGroup(route.Security); err != nil {
				return fmt.Errorf("config: service %q route %q: %w", svc.Name, route.Path, err)
			}
		}
	}
	return nil
}

// Addr renders the listen address.
func (c Config) Addr() string { return fmt.Sprintf("%s:%d", c.ServiceIP, c.ServicePort) }

// Services converts the routes block into the domain.Service list the
// registry is seeded with. validate() has already vetted the security
// groups, so conversion cannot fail here.
func (c Config) Services() []domain.Service {
	out := make([]domain.Service, 0, len(c.Routes))
	for _, svc := range c.Routes {
		s := domain.Service{
			ID:           svc.ID,
			Name:         svc.Name,
			Host:         svc.Host,
			Protocol:     domain.Protocol(strings.ToLower(svc.Protocol)),
			IsContextAPI: svc.IsContextAPI,
			Capabilities: svc.Capabilities,
			HealthStatus: domain.HealthStatus{Kind: domain.HealthUnknown},
		}
		if s.Protocol == "" {
			s.Protocol = domain.ProtocolHTTP
		}
		if svc.HealthCheck != "" {
			s.HealthCheck = &domain.HealthCheckConfig{Path: svc.HealthCheck}
		}
		for _, route := range svc.Routes {
			sec, _ := parseSecurityGroup(route.Security)
			r := domain.Route{
				ID:                    route.ID,
				Path:                  route.Path,
				Methods:               route.Methods,
				Security:              sec,
				DownstreamURL:         route.DownstreamURL,
				Instances:             route.Instances,
				AcceptInsecureRouting: route.AcceptInsecureRouting,
				AllowedSources:        route.AllowedSources,
			}
			if route.Secret != nil {
				r.Secret = &domain.SecretInjection{
					Kind:   domain.SecretInjectionKind(route.Secret.Kind),
					Name:   route.Secret.Name,
					Prefix: route.Secret.Prefix,
					Token:  route.Secret.Token,
				}
			}
			s.Routes = append(s.Routes, r)
		}
		out = append(out, s)
	}
	return out
}

func parseSecurityGroup(e SecurityEntry) (domain.SecurityGroup, error) {
	prs := make([]domain.PermissionedRole, 0, len(e.PermissionedRoles))
	for _, pr := range e.PermissionedRoles {
		perm, err := parsePermission(pr.Permission)
		if err != nil {
			return domain.SecurityGroup{}, err
		}
		prs = append(prs, domain.PermissionedRole{RoleName: pr.Role, Permission: perm})
	}

	switch strings.ToLower(e.Kind) {
	case "", "public":
		return domain.PublicSecurity(), nil
	case "authenticated":
		return domain.AuthenticatedSecurity(), nil
	case "protected":
		return domain.ProtectedSecurity(), nil
	case "protected_by_roles":
		return domain.ProtectedByRoles(e.Roles...), nil
	case "protected_by_permissioned_roles":
		return domain.ProtectedByPermissionedRoles(prs...), nil
	case "protected_by_service_token_with_role":
		return domain.ProtectedByServiceTokenWithRole(e.Roles...), nil
	case "protected_by_service_token_with_permissioned_roles":
		return domain.ProtectedByServiceTokenWithPermissionedRoles(prs...), nil
	default:
		return domain.SecurityGroup{}, fmt.Errorf("unknown security group kind %q", e.Kind)
	}
}

func parsePermission(s string) (domain.Permission, error) {
	switch strings.ToLower(s) {
	case "", "read":
		return domain.PermissionRead, nil
	case "write":
		return domain.PermissionWrite, nil
	case "read_write", "readwrite":
		return domain.PermissionReadWrite, nil
	default:
		return 0, fmt.Errorf("unknown permission %q", s)
	}
}
