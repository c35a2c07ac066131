//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/njprem/web-starter-api/internal/domain"
	"github.com/njprem/web-starter-api/internal/repository/ports"
	"github.com/njprem/web-starter-api/internal/repository/postgres"
)

var testDB *sqlx.DB

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("webstarter_test"),
		tcpostgres.WithUsername("webstarter"),
		tcpostgres.WithPassword("webstarter"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		panic("failed to start postgres container: " + err.Error())
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		panic("failed to get connection string: " + err.Error())
	}

	migrator, err := postgres.NewMigrator(connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		panic("failed to create migrator: " + err.Error())
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		_ = container.Terminate(ctx)
		panic("failed to run migrations: " + err.Error())
	}
	_ = migrator.Close()

	db, err := postgres.New(ctx, connStr, postgres.Options{ConnectRetries: 3})
	if err != nil {
		_ = container.Terminate(ctx)
		panic("failed to connect: " + err.Error())
	}
	testDB = db

	code := m.Run()

	_ = db.Close()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

type fixture struct {
	tx       *postgres.TxManager
	users    *postgres.UserRepository
	sessions *postgres.SessionRepository
}

func setup(t *testing.T) fixture {
	t.Helper()
	_, err := testDB.Exec(`TRUNCATE sessions, users`)
	require.NoError(t, err)
	tx := postgres.NewTxManager(testDB)
	return fixture{tx: tx, users: postgres.NewUserRepo(tx), sessions: postgres.NewSessionRepo(tx)}
}

func createUser(t *testing.T, f fixture, email string) *domain.User {
	t.Helper()
	u, err := f.users.Create(context.Background(), &domain.User{Email: email, HashedPassword: "hash", IsActive: true})
	require.NoError(t, err)
	return u
}

func TestUserLifecycle(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	u := createUser(t, f, "alice@example.com")
	assert.False(t, u.CreatedAt.IsZero())
	assert.Equal(t, u.CreatedAt, u.UpdatedAt)

	got, err := f.users.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)

	name := "Alice"
	got.FirstName = &name
	updated, err := f.users.Update(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, "Alice", *updated.FirstName)
	assert.True(t, updated.UpdatedAt.After(u.UpdatedAt) || updated.UpdatedAt.Equal(u.UpdatedAt))

	n, err := f.users.Count(ctx, domain.Eq(domain.UserFieldFirstName, "Alice"))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestDuplicateEmailIsRejectedByConstraint(t *testing.T) {
	f := setup(t)

	createUser(t, f, "dup@example.com")
	_, err := f.users.Create(context.Background(), &domain.User{Email: "dup@example.com", HashedPassword: "hash"})
	assert.ErrorIs(t, err, domain.ErrDuplicateRecord)
}

func TestSoftDeletedEmailCanRegisterAgain(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	u := createUser(t, f, "again@example.com")
	u.SoftDelete(time.Now())
	_, err := f.users.Update(ctx, u)
	require.NoError(t, err)

	missing, err := f.users.GetByEmail(ctx, "again@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	second := createUser(t, f, "again@example.com")
	assert.NotEqual(t, u.ID, second.ID)
}

func TestSessionCleanupAndCascade(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	now := time.Now().UTC()
	u := createUser(t, f, "sess@example.com")

	mk := func(token string, expires time.Time) *domain.Session {
		s, err := f.sessions.Create(ctx, &domain.Session{UserID: u.ID, Token: token, ExpiresAt: expires})
		require.NoError(t, err)
		return s
	}
	mk("active", now.Add(time.Hour))
	mk("expired", now.Add(-time.Hour))
	mk("revoked", now.Add(time.Hour))

	ok, err := f.sessions.Revoke(ctx, "revoked", now)
	require.NoError(t, err)
	assert.True(t, ok)

	active, err := f.sessions.GetActiveByToken(ctx, "expired", now)
	require.NoError(t, err)
	assert.Nil(t, active)

	listed, err := f.sessions.ListByUser(ctx, u.ID, ports.SessionFilter{}, now)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "active", listed[0].Token)

	deleted, err := f.sessions.DeleteExpiredOrRevoked(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	_, err = f.users.Delete(ctx, u.ID)
	require.NoError(t, err)
	left, err := f.sessions.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, left)
}

func TestUnitOfWorkRollsBack(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := f.tx.Do(ctx, func(ctx context.Context) error {
		if _, err := f.users.Create(ctx, &domain.User{Email: "rollback@example.com", HashedPassword: "hash"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	u, err := f.users.GetByEmail(ctx, "rollback@example.com")
	require.NoError(t, err)
	assert.Nil(t, u)
}
