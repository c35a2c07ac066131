package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njprem/web-starter-api/internal/domain"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newMockTx(t *testing.T) (*TxManager, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewTxManager(sqlx.NewDb(db, "pgx")), mock
}

func userRow(id uuid.UUID, email string) *sqlmock.Rows {
	return sqlmock.NewRows(userTable.Columns).
		AddRow(id.String(), email, nil, "hash", true, false, nil, nil, fixedNow, fixedNow, nil)
}

func TestCRUDGetReturnsNilWhenMissing(t *testing.T) {
	tx, mock := newMockTx(t)
	repo := NewUserRepo(tx)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ` + userColumns + ` FROM users WHERE id = $1`)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(userTable.Columns))

	user, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestCRUDGetScansRow(t *testing.T) {
	tx, mock := newMockTx(t)
	repo := NewUserRepo(tx)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = $1`)).
		WithArgs(id).
		WillReturnRows(userRow(id, "a@example.com"))

	user, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, "a@example.com", user.Email)
	assert.True(t, user.IsActive)
	assert.Nil(t, user.Username)
}

func TestCRUDGetMultiAppliesOrderAndPage(t *testing.T) {
	tx, mock := newMockTx(t)
	repo := NewUserRepo(tx)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users ORDER BY email DESC, id DESC LIMIT $1 OFFSET $2`)).
		WithArgs(domain.DefaultPageLimit, 0).
		WillReturnRows(userRow(uuid.New(), "b@example.com").AddRow(uuid.New().String(), "a@example.com", nil, "hash", true, false, nil, nil, fixedNow, fixedNow, nil))

	users, err := repo.GetMulti(context.Background(), domain.Page{Skip: -5}, domain.Desc(domain.UserFieldEmail))
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestCRUDRejectsUnknownField(t *testing.T) {
	tx, _ := newMockTx(t)
	repo := NewUserRepo(tx)
	ctx := context.Background()

	_, err := repo.GetByField(ctx, domain.Field("hashed_password"), "x")
	assert.ErrorIs(t, err, domain.ErrUnknownField)

	_, err = repo.GetMulti(ctx, domain.Page{}, domain.Asc(domain.Field("nope")))
	assert.ErrorIs(t, err, domain.ErrUnknownField)

	_, err = repo.Count(ctx, domain.Eq(domain.SessionFieldToken, "x"))
	assert.ErrorIs(t, err, domain.ErrUnknownField)

	_, err = repo.DeleteByField(ctx, domain.Field("1=1; --"), nil)
	assert.ErrorIs(t, err, domain.ErrUnknownField)
}

func TestCRUDCreateAssignsIDAndRefreshes(t *testing.T) {
	tx, mock := newMockTx(t)
	repo := NewUserRepo(tx)

	mock.ExpectQuery(regexp.QuoteMeta(
		`INSERT INTO users (id, email, username, hashed_password, is_active, is_superuser, first_name, last_name, deleted_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING ` + userColumns,
	)).
		WithArgs(sqlmock.AnyArg(), "new@example.com", nil, "hash", true, false, nil, nil, nil).
		WillReturnRows(userRow(uuid.New(), "new@example.com"))

	in := &domain.User{Email: "new@example.com", HashedPassword: "hash", IsActive: true}
	user, err := repo.Create(context.Background(), in)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, fixedNow, user.CreatedAt)
}

func TestCRUDCreateTranslatesUniqueViolation(t *testing.T) {
	tx, mock := newMockTx(t)
	repo := NewUserRepo(tx)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_live_key"})

	_, err := repo.Create(context.Background(), &domain.User{Email: "dup@example.com", HashedPassword: "hash"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDuplicateRecord)
	assert.Contains(t, err.Error(), "email")
}

func TestCRUDUpdateMissingRowIsNotFound(t *testing.T) {
	tx, mock := newMockTx(t)
	repo := NewUserRepo(tx)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE users SET email = $1, username = $2, hashed_password = $3, is_active = $4, is_superuser = $5, first_name = $6, last_name = $7, deleted_at = $8, updated_at = now() WHERE id = $9 RETURNING`)).
		WillReturnRows(sqlmock.NewRows(userTable.Columns))

	_, err := repo.Update(context.Background(), &domain.User{ID: id, Email: "x@example.com"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCRUDCountBuildsConditions(t *testing.T) {
	tx, mock := newMockTx(t)
	repo := NewUserRepo(tx)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM users WHERE is_active = $1 AND deleted_at IS NULL`)).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	n, err := repo.Count(context.Background(), domain.Eq(domain.UserFieldIsActive, true), domain.IsNull(domain.UserFieldDeletedAt))
	require.NoError(t, err)
	assert.EqualValues(t, 7, n)
}

func TestCRUDDeleteReportsRowsAffected(t *testing.T) {
	tx, mock := newMockTx(t)
	repo := NewSessionRepo(tx)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM sessions WHERE id = $1`)).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := repo.Delete(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestCRUDDeleteByFieldNilMeansIsNull(t *testing.T) {
	tx, mock := newMockTx(t)
	repo := NewSessionRepo(tx)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM sessions WHERE revoked_at IS NULL`)).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.DeleteByField(context.Background(), domain.SessionFieldRevokedAt, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
}

func TestCRUDWrapsDriverErrors(t *testing.T) {
	tx, mock := newMockTx(t)
	repo := NewUserRepo(tx)
	boom := errors.New("connection reset")

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`)).
		WillReturnError(boom)

	_, err := repo.Exists(context.Background(), uuid.New())
	assert.ErrorIs(t, err, boom)
}
