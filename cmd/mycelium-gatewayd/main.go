// mycelium-gatewayd is the API gateway process: it authenticates incoming
// requests, assembles profiles, and forwards to registered downstream
// services, while a background loop health-checks every service instance.
package main

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/lepista/mycelium/internal/config"
	"github.com/lepista/mycelium/internal/gateway"
	"github.com/lepista/mycelium/internal/identity"
	"github.com/lepista/mycelium/internal/profile"
	"github.com/lepista/mycelium/internal/registry"
	"github.com/lepista/mycelium/internal/repository/memory"
	"github.com/lepista/mycelium/pkg/logger"
)

const (
	exitFatalInit   = 1
	exitConfigError = 2
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:           "mycelium-gatewayd",
		Short:         "Mycelium API gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}
	root.Flags().StringVarP(&configPath, "config", "c", "", "path to the YAML config file")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "mycelium-gatewayd:", err)
		var cfgErr configError
		if errors.As(err, &cfgErr) {
			os.Exit(exitConfigError)
		}
		os.Exit(exitFatalInit)
	}
}

// configError marks failures that should exit with the config error code.
type configError struct{ err error }

func (e configError) Error() string { return e.err.Error() }
func (e configError) Unwrap() error { return e.err }

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return configError{err}
	}

	log := logger.Setup(cfg.Env, "gatewayd")
	log.Info("application_startup", "env", cfg.Env, "addr", cfg.Addr())

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Env,
		}); err != nil {
			log.Error("sentry_init_failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
			log.Info("sentry_initialized")
		}
	}

	idp, err := buildIdentityProvider(cfg)
	if err != nil {
		return fmt.Errorf("identity provider: %w", err)
	}

	store := memory.New()
	assembler := &profile.Assembler{
		Users:      store.Users(),
		Accounts:   store.Accounts(),
		GuestUsers: store.GuestUsers(),
		Tenants:    store.Tenants(),
	}

	reg := registry.New(cfg.Services())
	if err := registry.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checker := registry.NewHealthChecker(reg, log, cfg.HealthCheckInterval, cfg.HealthProbeTimeout, cfg.MaxRetryCount, cfg.MaxErrorInstances)
	go checker.Run(ctx)

	gw := gateway.New(reg, idp, assembler, store.Tokens(), gateway.Config{
		GatewayTimeout: cfg.GatewayTimeout,
		TokenSecret:    []byte(cfg.LifeCycle.TokenSecret),
	}, nil)

	limiter := gateway.NewIPRateLimiter(rate.Limit(50), 100)
	sentryHandler := sentryhttp.New(sentryhttp.Options{Repanic: true})

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(gateway.RequestLogger)
	r.Use(sentryHandler.Handle)
	r.Use(gateway.PanicRecovery)
	r.Use(gateway.CORS(cfg.AllowedOrigins))
	r.Use(limiter.Middleware)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/.well-known/jwks.json", func(w http.ResponseWriter, r *http.Request) {
		jwks, err := idp.JWKS()
		if err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(jwks)
	})
	r.Mount("/", gw)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if cfg.TLS != nil {
			errCh <- srv.ListenAndServeTLS(cfg.TLS.CertPath, cfg.TLS.KeyPath)
		} else {
			errCh <- srv.ListenAndServe()
		}
	}()
	log.Info("gateway_listening", "tls", cfg.TLS != nil)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutdown_signal_received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown_error", "error", err)
		}
	}
	log.Info("gateway_stopped")
	return nil
}

func buildIdentityProvider(cfg config.Config) (identity.Provider, error) {
	if cfg.IdentityKeyPath != "" {
		pemBytes, err := os.ReadFile(cfg.IdentityKeyPath)
		if err != nil {
			return nil, fmt.Errorf("read identity key: %w", err)
		}
		return identity.NewJWTProvider(string(pemBytes), cfg.LifeCycle.DomainName, "primary")
	}
	if cfg.Env == "production" {
		return nil, fmt.Errorf("identity_key_path is required in production")
	}
	// Dev mode: ephemeral key, tokens die with the process.
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("generate dev key: %w", err)
	}
	return identity.NewJWTProviderFromKey(key, cfg.LifeCycle.DomainName, "ephemeral"), nil
}
