// mycelium-webhookd drains the webhook dispatch outbox: it claims pending
// events through a Redis lease, signs each payload for subscribers that
// configured a secret, and delivers with retry/backoff.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/lepista/mycelium/internal/config"
	"github.com/lepista/mycelium/internal/outbox"
	"github.com/lepista/mycelium/internal/repository/memory"
	"github.com/lepista/mycelium/internal/security"
	"github.com/lepista/mycelium/pkg/logger"
)

const (
	exitFatalInit   = 1
	exitConfigError = 2
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:           "mycelium-webhookd",
		Short:         "Mycelium webhook dispatcher",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}
	root.Flags().StringVarP(&configPath, "config", "c", "", "path to the YAML config file")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "mycelium-webhookd:", err)
		var cfgErr configError
		if errors.As(err, &cfgErr) {
			os.Exit(exitConfigError)
		}
		os.Exit(exitFatalInit)
	}
}

type configError struct{ err error }

func (e configError) Error() string { return e.err.Error() }
func (e configError) Unwrap() error { return e.err }

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return configError{err}
	}

	log := logger.Setup(cfg.Env, "webhookd")
	log.Info("application_startup", "env", cfg.Env)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	log.Info("redis_connected", "addr", cfg.Redis.Addr)

	webhookBox, err := security.NewSecretBoxFor([]byte(cfg.LifeCycle.TokenSecret), "mycelium-webhook-secret-v1")
	if err != nil {
		return fmt.Errorf("secret box: %w", err)
	}

	store := memory.New()
	dispatcher := outbox.NewDispatcher(
		store.Outbox(),
		store.WebHooks(),
		outbox.NewRedisLeaser(rdb, ""),
		webhookBox,
		log,
		cfg.DispatcherInterval,
		cfg.DispatcherBatch,
		cfg.MaxRetryCount,
	)

	dispatcher.Run(ctx)
	log.Info("webhookd_stopped")
	return nil
}
