package main

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/njprem/web-starter-api/internal/config"
	"github.com/njprem/web-starter-api/internal/logging"
	"github.com/njprem/web-starter-api/internal/repository/postgres"
	"github.com/njprem/web-starter-api/internal/service"
	"github.com/njprem/web-starter-api/internal/util"
)

// app holds everything a command needs once the database is reachable.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	db     *sqlx.DB

	users    *service.UserService
	sessions *service.SessionService
	auth     *service.AuthService

	logCloser io.Closer
}

func newLogger(cfg config.Config) (*slog.Logger, io.Closer) {
	return logging.Setup(logging.Options{
		Level:           cfg.LogLevel,
		Format:          cfg.LogFormat,
		LogstashTCPAddr: cfg.LogstashTCPAddr,
		Service:         cfg.AppName,
		Env:             cfg.Env,
	})
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	logger, closer := newLogger(cfg)

	db, err := postgres.New(ctx, cfg.DatabaseURL, postgres.Options{
		MaxOpenConns:   cfg.DBMaxOpenConns,
		MaxIdleConns:   cfg.DBMaxIdleConns,
		ConnectRetries: cfg.DBConnectRetries,
	})
	if err != nil {
		_ = closer.Close()
		return nil, err
	}

	tx := postgres.NewTxManager(db)
	hasher := util.NewPasswordHasher(hasherConfig(cfg))

	users := service.NewUserService(postgres.NewUserRepo(tx), tx, hasher)
	users.SetLogger(logger)
	sessions := service.NewSessionService(postgres.NewSessionRepo(tx), tx, cfg.SessionTTL)
	sessions.SetLogger(logger)
	auth := service.NewAuthService(users, sessions, tx)
	auth.SetLogger(logger)

	return &app{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		users:     users,
		sessions:  sessions,
		auth:      auth,
		logCloser: closer,
	}, nil
}

func hasherConfig(cfg config.Config) util.HasherConfig {
	return util.HasherConfig{
		TimeCost:    cfg.PasswordTimeCost,
		MemoryCost:  cfg.PasswordMemoryCost,
		Parallelism: cfg.PasswordParallelism,
		HashLength:  cfg.PasswordHashLength,
		SaltLength:  cfg.PasswordSaltLength,
	}
}

func (a *app) Close() error {
	return errors.Join(a.db.Close(), a.logCloser.Close())
}
