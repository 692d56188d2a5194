// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NativeTranslate Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/nativetranslate/identity/internal/auth"
	authpg "github.com/nativetranslate/identity/internal/auth/postgres"
	"github.com/nativetranslate/identity/internal/config"
	"github.com/nativetranslate/identity/internal/httpapi"
	"github.com/nativetranslate/identity/internal/logging"
	"github.com/nativetranslate/identity/internal/mail"
	"github.com/nativetranslate/identity/internal/observability"
	"github.com/nativetranslate/identity/internal/store"
)

const shutdownGrace = 10 * time.Second

// ServeDeps carries injectable dependencies for the serve command. Nil
// fields fall back to production implementations.
type ServeDeps struct {
	Connect       func(ctx context.Context, databaseURL string) (*pgxpool.Pool, error)
	SenderFactory func(cfg mail.Config) (mail.Sender, error)
	Migrate       func(databaseURL string) error
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	var autoMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the identity HTTP service",
		Long: `Start the HTTP service exposing login, registration, session
validation, and the password reset flow, together with the hourly
sweep of expired reset tokens.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cmd, autoMigrate, nil)
		},
	}

	// Flag defaults mirror config.Default: the posflag provider feeds
	// unchanged-flag values into keys the config file leaves unset, so an
	// empty default here would shadow the real one.
	defaults := config.Default()
	flags := cmd.Flags()
	flags.String("server.addr", defaults.Server.Addr, "HTTP listen address")
	flags.String("server.metrics_addr", defaults.Server.MetricsAddr, "metrics/health HTTP address (empty = disabled)")
	flags.String("log.format", defaults.Log.Format, "log format (json or text)")
	flags.String("log.level", defaults.Log.Level, "log level (debug, info, warn, error)")
	flags.BoolVar(&autoMigrate, "auto-migrate", false, "apply pending migrations before serving")

	return cmd
}

// runServe wires the service together and blocks until shutdown. If deps is
// nil, default implementations are used.
func runServe(ctx context.Context, cmd *cobra.Command, autoMigrate bool, deps *ServeDeps) error {
	if deps == nil {
		deps = &ServeDeps{}
	}
	if deps.Connect == nil {
		deps.Connect = store.Connect
	}
	if deps.SenderFactory == nil {
		deps.SenderFactory = mail.NewSender
	}
	if deps.Migrate == nil {
		deps.Migrate = migrateUp
	}

	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	logging.SetDefault("identity", version, cfg.Log.Format, cfg.Log.Level)
	slog.Info("starting identity service", "addr", cfg.Server.Addr)

	if autoMigrate {
		if err := deps.Migrate(cfg.Database.URL); err != nil {
			return oops.Code("MIGRATION_FAILED").Wrap(err)
		}
		slog.Info("migrations applied")
	}

	pool, err := deps.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()
	slog.Info("connected to database")

	st := authpg.NewStore(pool)

	hasher := auth.NewArgon2idHasher()

	codec, err := auth.NewSessionCodec([]byte(cfg.Auth.JWTSecret), cfg.Auth.SessionTTL, st.Users())
	if err != nil {
		return err
	}

	gate := auth.NewInviteGate(cfg.Auth.InviteSingleUse)

	svc, err := auth.NewService(st, st, hasher, codec, gate)
	if err != nil {
		return err
	}

	sender, err := deps.SenderFactory(cfg.Mail)
	if err != nil {
		return err
	}
	mailer, err := mail.NewResetMailer(sender, cfg.Reset.URL)
	if err != nil {
		return err
	}

	resetSvc, err := auth.NewPasswordResetService(st, st, hasher, mailer, auth.ResetConfig{
		TokenLength:   cfg.Reset.TokenLength,
		TokenAlphabet: cfg.Reset.TokenAlphabet,
		TokenTTL:      cfg.Reset.TokenTTL,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Observability server and metrics, when configured.
	var obsServer *observability.Server
	var metrics *observability.Metrics
	if cfg.Server.MetricsAddr != "" {
		obsServer = observability.NewServer(cfg.Server.MetricsAddr, func() bool {
			pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
			defer pingCancel()
			return pool.Ping(pingCtx) == nil
		})
		metrics = obsServer.Metrics()

		obsErrCh, err := obsServer.Start()
		if err != nil {
			return err
		}
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability")
	}

	// Hourly sweep of expired reset tokens, from service start.
	onSweep := func(int64) {}
	if metrics != nil {
		onSweep = func(removed int64) {
			metrics.SweptTokensTotal.Add(float64(removed))
		}
	}
	sweeper, err := auth.NewSweeper(resetSvc, cfg.Reset.SweepInterval, slog.Default().With("component", "sweeper"), onSweep)
	if err != nil {
		return err
	}
	go sweeper.Run(ctx)

	handler, err := httpapi.NewHandler(svc, resetSvc, codec, metrics)
	if err != nil {
		return err
	}
	server, err := httpapi.NewServer(cfg.Server.Addr, handler, slog.Default())
	if err != nil {
		return err
	}
	serverErrCh := server.Start()
	go monitorServerErrors(ctx, cancel, serverErrCh, "http")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("Identity service started")
	slog.Info("identity service ready", "addr", cfg.Server.Addr)

	select {
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
		slog.Info("context cancelled, shutting down")
	}

	slog.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer shutdownCancel()

	if err := server.Stop(shutdownCtx); err != nil {
		slog.Warn("error stopping http server", "error", err)
	}
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			slog.Warn("error stopping observability server", "error", err)
		}
	}

	slog.Info("shutdown complete")
	return nil
}

// migrateUp applies all pending migrations.
func migrateUp(databaseURL string) error {
	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			slog.Warn("error closing migrator", "error", closeErr)
		}
	}()
	return migrator.Up()
}

// monitorServerErrors cancels the context when a server reports a terminal
// error, so one failing listener tears the whole process down cleanly.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
