// mycelium-maild drains the email notification outbox: it renders nothing
// itself (bodies are rendered at enqueue time) and delivers each pending
// message through the configured SMTP relay with retry tracking.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lepista/mycelium/internal/config"
	"github.com/lepista/mycelium/internal/notify"
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
		Use:           "mycelium-maild",
		Short:         "Mycelium email notification dispatcher",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}
	root.Flags().StringVarP(&configPath, "config", "c", "", "path to the YAML config file")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "mycelium-maild:", err)
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

	log := logger.Setup(cfg.Env, "maild")
	log.Info("application_startup", "env", cfg.Env)

	sender, err := notify.NewSMTPSender(notify.SMTPConfig{
		Host:    cfg.SMTP.Host,
		Port:    cfg.SMTP.Port,
		User:    cfg.SMTP.User,
		Pass:    cfg.SMTP.Pass,
		TLSMode: cfg.SMTP.TLSMode,
	})
	if err != nil {
		return fmt.Errorf("smtp sender: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := memory.New()
	dispatcher := notify.NewDispatcher(
		store.Outbox(),
		sender,
		log,
		cfg.DispatcherInterval,
		cfg.DispatcherBatch,
		cfg.MaxRetryCount,
	)

	dispatcher.Run(ctx)
	log.Info("maild_stopped")
	return nil
}
