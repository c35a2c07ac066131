package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/njprem/web-starter-api/internal/config"
	"github.com/njprem/web-starter-api/internal/repository/postgres"
	transporthttp "github.com/njprem/web-starter-api/internal/transport/http"
)

const shutdownTimeout = 10 * time.Second

func NewServeCmd() *cobra.Command {
	var autoMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API on PORT. With --migrate (or AUTO_MIGRATE=true) pending
migrations are applied before the listener opens.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("migrate") {
				cfg.AutoMigrate = autoMigrate
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().BoolVar(&autoMigrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func runServe(ctx context.Context, cfg config.Config) error {
	if cfg.AutoMigrate {
		if err := migrateUp(cfg.DatabaseURL); err != nil {
			return err
		}
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	e := transporthttp.NewRouter(transporthttp.RouterOptions{
		AppName:              cfg.AppName,
		AllowOrigins:         cfg.AllowOrigins,
		Logger:               a.logger,
		SlowRequestThreshold: cfg.SlowRequestThresh,
		EnableMetrics:        cfg.EnableMetrics,
	})
	e.Debug = cfg.Debug
	transporthttp.RegisterHealth(e, a.db)
	transporthttp.RegisterAuth(e, a.auth, a.sessions)
	transporthttp.RegisterUsers(e, a.auth, a.users, a.sessions)
	if cfg.EnableSwagger && !cfg.IsProduction() {
		if err := transporthttp.RegisterSwagger(e); err != nil {
			return err
		}
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "port", cfg.Port, "env", cfg.Env)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return oops.Code("SERVER_FAILED").Wrap(err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return oops.Code("SHUTDOWN_FAILED").Wrap(err)
	}
	return nil
}

func migrateUp(databaseURL string) error {
	m, err := postgres.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up()
}
