package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/njprem/web-starter-api/internal/domain"
	"github.com/njprem/web-starter-api/internal/repository/ports"
)

var userSchema = Schema[domain.User]{
	Entity: domain.UserEntity,
	ID:     func(u *domain.User) *uuid.UUID { return &u.ID },
	Fields: map[domain.Field]func(*domain.User) any{
		domain.UserFieldID:          func(u *domain.User) any { return u.ID },
		domain.UserFieldEmail:       func(u *domain.User) any { return u.Email },
		domain.UserFieldUsername:    func(u *domain.User) any { return u.Username },
		domain.UserFieldIsActive:    func(u *domain.User) any { return u.IsActive },
		domain.UserFieldIsSuperuser: func(u *domain.User) any { return u.IsSuperuser },
		domain.UserFieldFirstName:   func(u *domain.User) any { return u.FirstName },
		domain.UserFieldLastName:    func(u *domain.User) any { return u.LastName },
		domain.UserFieldCreatedAt:   func(u *domain.User) any { return u.CreatedAt },
		domain.UserFieldUpdatedAt:   func(u *domain.User) any { return u.UpdatedAt },
		domain.UserFieldDeletedAt:   func(u *domain.User) any { return u.DeletedAt },
	},
	// Same as the partial unique indexes: only live rows collide.
	Unique: func(existing, candidate *domain.User) string {
		if existing.IsDeleted() || candidate.IsDeleted() {
			return ""
		}
		if existing.Email == candidate.Email {
			return "email"
		}
		if existing.Username != nil && candidate.Username != nil && *existing.Username == *candidate.Username {
			return "username"
		}
		return ""
	},
	OnCreate: func(u *domain.User, now time.Time) {
		u.CreatedAt = now
		u.UpdatedAt = now
	},
	OnUpdate: func(u *domain.User, now time.Time) {
		u.UpdatedAt = now
	},
}

type UserRepository struct {
	*CRUDRepository[domain.User]
}

func NewUserRepo(store *Store) *UserRepository {
	return &UserRepository{CRUDRepository: NewCRUDRepository(store, userSchema)}
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.first(func(u *domain.User) bool { return !u.IsDeleted() && u.Email == email }), nil
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.first(func(u *domain.User) bool {
		return !u.IsDeleted() && u.Username != nil && *u.Username == username
	}), nil
}

func (r *UserRepository) EmailExists(_ context.Context, email string, exclude *uuid.UUID) (bool, error) {
	found := r.first(func(u *domain.User) bool {
		return !u.IsDeleted() && u.Email == email && !excluded(u.ID, exclude)
	})
	return found != nil, nil
}

func (r *UserRepository) UsernameExists(_ context.Context, username string, exclude *uuid.UUID) (bool, error) {
	found := r.first(func(u *domain.User) bool {
		return !u.IsDeleted() && u.Username != nil && *u.Username == username && !excluded(u.ID, exclude)
	})
	return found != nil, nil
}

func (r *UserRepository) ListActive(_ context.Context, page domain.Page) ([]domain.User, error) {
	return r.list(page, nil, isLiveActive), nil
}

func (r *UserRepository) ListSuperusers(_ context.Context, page domain.Page) ([]domain.User, error) {
	return r.list(page, nil, func(u *domain.User) bool { return u.IsSuperuser && !u.IsDeleted() }), nil
}

func (r *UserRepository) CountActive(_ context.Context) (int64, error) {
	return r.countWhere(isLiveActive), nil
}

func (r *UserRepository) first(match func(*domain.User) bool) *domain.User {
	items := r.list(domain.Page{Limit: 1}, nil, match)
	if len(items) == 0 {
		return nil
	}
	return &items[0]
}

func isLiveActive(u *domain.User) bool {
	return u.IsActive && !u.IsDeleted()
}

func excluded(id uuid.UUID, exclude *uuid.UUID) bool {
	return exclude != nil && *exclude == id
}

var _ ports.UserRepository = (*UserRepository)(nil)
