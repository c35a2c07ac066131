package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/njprem/web-starter-api/internal/domain"
	"github.com/njprem/web-starter-api/internal/repository/ports"
)

const userColumns = `id, email, username, hashed_password, is_active, is_superuser, first_name, last_name, created_at, updated_at, deleted_at`

var userTable = Table[domain.User]{
	Name:   "users",
	Entity: domain.UserEntity,
	Columns: []string{
		"id", "email", "username", "hashed_password", "is_active", "is_superuser",
		"first_name", "last_name", "created_at", "updated_at", "deleted_at",
	},
	Insert: []string{
		"id", "email", "username", "hashed_password", "is_active", "is_superuser",
		"first_name", "last_name", "deleted_at",
	},
	Update: []string{
		"email", "username", "hashed_password", "is_active", "is_superuser",
		"first_name", "last_name", "deleted_at",
	},
	Fields: map[domain.Field]string{
		domain.UserFieldID:          "id",
		domain.UserFieldEmail:       "email",
		domain.UserFieldUsername:    "username",
		domain.UserFieldIsActive:    "is_active",
		domain.UserFieldIsSuperuser: "is_superuser",
		domain.UserFieldFirstName:   "first_name",
		domain.UserFieldLastName:    "last_name",
		domain.UserFieldCreatedAt:   "created_at",
		domain.UserFieldUpdatedAt:   "updated_at",
		domain.UserFieldDeletedAt:   "deleted_at",
	},
	Touch: "updated_at",
	BeforeCreate: func(u *domain.User) {
		if u.ID == uuid.Nil {
			u.ID = uuid.Must(uuid.NewV7())
		}
	},
}

type UserRepository struct {
	*CRUDRepository[domain.User]
}

func NewUserRepo(tx *TxManager) *UserRepository {
	return &UserRepository{CRUDRepository: NewCRUDRepository(tx, userTable)}
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM users
        WHERE email = $1 AND deleted_at IS NULL
    `
	return r.getOne(ctx, "get by email", query, email)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM users
        WHERE username = $1 AND deleted_at IS NULL
    `
	return r.getOne(ctx, "get by username", query, username)
}

func (r *UserRepository) EmailExists(ctx context.Context, email string, exclude *uuid.UUID) (bool, error) {
	return r.liveValueExists(ctx, "email", email, exclude)
}

func (r *UserRepository) UsernameExists(ctx context.Context, username string, exclude *uuid.UUID) (bool, error) {
	return r.liveValueExists(ctx, "username", username, exclude)
}

// liveValueExists checks column among non-deleted users. column is one of
// the constants passed by the exported wrappers, never caller input.
func (r *UserRepository) liveValueExists(ctx context.Context, column, value string, exclude *uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE ` + column + ` = $1 AND deleted_at IS NULL`
	args := []any{value}
	if exclude != nil {
		query += ` AND id <> $2`
		args = append(args, *exclude)
	}
	query += `)`

	var exists bool
	if err := r.tx.conn(ctx).QueryRowxContext(ctx, query, args...).Scan(&exists); err != nil {
		return false, wrapDBError(err, column+" exists users")
	}
	return exists, nil
}

func (r *UserRepository) ListActive(ctx context.Context, page domain.Page) ([]domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM users
        WHERE is_active AND deleted_at IS NULL
        ORDER BY id
        LIMIT $1 OFFSET $2
    `
	page = page.Normalize()
	return r.selectMany(ctx, "list active", query, page.Limit, page.Skip)
}

func (r *UserRepository) ListSuperusers(ctx context.Context, page domain.Page) ([]domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM users
        WHERE is_superuser AND deleted_at IS NULL
        ORDER BY id
        LIMIT $1 OFFSET $2
    `
	page = page.Normalize()
	return r.selectMany(ctx, "list superusers", query, page.Limit, page.Skip)
}

func (r *UserRepository) CountActive(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(*) FROM users WHERE is_active AND deleted_at IS NULL`
	var count int64
	if err := r.tx.conn(ctx).QueryRowxContext(ctx, query).Scan(&count); err != nil {
		return 0, wrapDBError(err, "count active users")
	}
	return count, nil
}

var _ ports.UserRepository = (*UserRepository)(nil)
