package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/njprem/web-starter-api/internal/domain"
	"github.com/njprem/web-starter-api/internal/metrics"
	"github.com/njprem/web-starter-api/internal/repository/ports"
	"github.com/njprem/web-starter-api/internal/util"
)

// dummyPassword is hashed once at start-up; unknown-email logins verify
// against it so they cost the same as a wrong password.
const dummyPassword = "dummy-password-for-timing-equalisation"

type UserCreateInput struct {
	Email     string
	Password  string
	Username  *string
	FirstName *string
	LastName  *string
	// IsActive defaults to true when nil.
	IsActive    *bool
	IsSuperuser bool
}

// UserUpdateInput changes only the non-nil fields. A blank Username,
// FirstName or LastName clears the value.
type UserUpdateInput struct {
	Email       *string
	Username    *string
	Password    *string
	FirstName   *string
	LastName    *string
	IsActive    *bool
	IsSuperuser *bool
}

type UserService struct {
	*Service[domain.User]

	users     ports.UserRepository
	uow       ports.UnitOfWork
	hasher    *util.PasswordHasher
	dummyHash string
	now       func() time.Time
	logger    *slog.Logger
}

func NewUserService(users ports.UserRepository, uow ports.UnitOfWork, hasher *util.PasswordHasher) *UserService {
	if hasher == nil {
		hasher = util.NewPasswordHasher(util.HasherConfig{})
	}
	dummy, err := hasher.Hash(dummyPassword)
	if err != nil {
		slog.Warn("dummy password hash unavailable", "error", err)
	}
	return &UserService{
		Service:   NewService[domain.User](users, uow, domain.UserEntity),
		users:     users,
		uow:       uow,
		hasher:    hasher,
		dummyHash: dummy,
		now:       time.Now,
		logger:    slog.Default(),
	}
}

func (s *UserService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *UserService) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

func (s *UserService) CreateUser(ctx context.Context, in UserCreateInput) (*domain.User, error) {
	email := strings.TrimSpace(in.Email)
	if err := util.ValidateEmail(email); err != nil {
		return nil, err
	}
	username := util.TrimOptional(in.Username)
	if username != nil {
		if err := util.ValidateUsername(*username); err != nil {
			return nil, err
		}
	}
	if err := util.ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	firstName, lastName, err := normalizeNames(in.FirstName, in.LastName)
	if err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	user := &domain.User{
		Email:          email,
		Username:       username,
		HashedPassword: hashed,
		IsActive:       active,
		IsSuperuser:    in.IsSuperuser,
		FirstName:      firstName,
		LastName:       lastName,
	}

	var created *domain.User
	err = s.uow.Do(ctx, func(ctx context.Context) error {
		if err := s.ensureEmailFree(ctx, email, nil); err != nil {
			return err
		}
		if username != nil {
			if err := s.ensureUsernameFree(ctx, *username, nil); err != nil {
				return err
			}
		}
		var err error
		created, err = s.users.Create(ctx, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user created", "user_id", created.ID)
	return created, nil
}

func (s *UserService) UpdateUser(ctx context.Context, id uuid.UUID, in UserUpdateInput) (*domain.User, error) {
	var updated *domain.User
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		user, err := s.GetByIDOrFail(ctx, id)
		if err != nil {
			return err
		}
		if err := s.applyUpdate(ctx, user, in); err != nil {
			return err
		}
		updated, err = s.users.Update(ctx, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *UserService) applyUpdate(ctx context.Context, user *domain.User, in UserUpdateInput) error {
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if err := util.ValidateEmail(email); err != nil {
			return err
		}
		if email != user.Email {
			if err := s.ensureEmailFree(ctx, email, &user.ID); err != nil {
				return err
			}
		}
		user.Email = email
	}

	if in.Username != nil {
		username := util.TrimOptional(in.Username)
		if username != nil {
			if err := util.ValidateUsername(*username); err != nil {
				return err
			}
			if user.Username == nil || *user.Username != *username {
				if err := s.ensureUsernameFree(ctx, *username, &user.ID); err != nil {
					return err
				}
			}
		}
		user.Username = username
	}

	if in.Password != nil {
		if err := util.ValidatePassword(*in.Password); err != nil {
			return err
		}
		hashed, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return err
		}
		user.HashedPassword = hashed
	}

	if in.FirstName != nil {
		name := util.TrimOptional(in.FirstName)
		if name != nil {
			if err := util.ValidateName("first_name", *name); err != nil {
				return err
			}
		}
		user.FirstName = name
	}
	if in.LastName != nil {
		name := util.TrimOptional(in.LastName)
		if name != nil {
			if err := util.ValidateName("last_name", *name); err != nil {
				return err
			}
		}
		user.LastName = name
	}

	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}
	if in.IsSuperuser != nil {
		user.IsSuperuser = *in.IsSuperuser
	}
	return nil
}

// Authenticate returns nil without an error for an unknown email, a wrong
// password, or an account that cannot sign in. Outdated hashes are upgraded
// on success; a failed upgrade fails the call.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.hasher.Verify(password, s.dummyHash)
		metrics.Authentication(metrics.AuthFailure)
		return nil, nil
	}

	ok, rehashed := s.hasher.VerifyAndUpdate(password, user.HashedPassword)
	if !ok {
		metrics.Authentication(metrics.AuthFailure)
		return nil, nil
	}
	if !user.CanAuthenticate() {
		metrics.Authentication(metrics.AuthInactive)
		return nil, nil
	}

	if rehashed != "" {
		upgraded := *user
		upgraded.HashedPassword = rehashed
		updated, err := s.Update(ctx, &upgraded)
		if err != nil {
			return nil, err
		}
		user = updated
		metrics.PasswordRehashed()
	}
	metrics.Authentication(metrics.AuthSuccess)
	return user, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *UserService) ChangePassword(ctx context.Context, id uuid.UUID, current, next string) (*domain.User, error) {
	if err := util.ValidatePassword(next); err != nil {
		return nil, err
	}
	var updated *domain.User
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		user, err := s.GetByIDOrFail(ctx, id)
		if err != nil {
			return err
		}
		if !s.hasher.Verify(current, user.HashedPassword) {
			return domain.Invalid("current_password", "current password is incorrect")
		}
		hashed, err := s.hasher.Hash(next)
		if err != nil {
			return err
		}
		user.HashedPassword = hashed
		updated, err = s.users.Update(ctx, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *UserService) ActivateUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.mutate(ctx, id, func(u *domain.User) { u.IsActive = true })
}

func (s *UserService) DeactivateUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.mutate(ctx, id, func(u *domain.User) { u.IsActive = false })
}

// SoftDeleteUser keeps the row and the first deletion time.
func (s *UserService) SoftDeleteUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.mutate(ctx, id, func(u *domain.User) {
		if !u.IsDeleted() {
			u.SoftDelete(s.now())
		}
	})
}

func (s *UserService) mutate(ctx context.Context, id uuid.UUID, apply func(*domain.User)) (*domain.User, error) {
	var updated *domain.User
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		user, err := s.GetByIDOrFail(ctx, id)
		if err != nil {
			return err
		}
		apply(user)
		updated, err = s.users.Update(ctx, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.users.GetByEmail(ctx, strings.TrimSpace(email))
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.users.GetByUsername(ctx, strings.TrimSpace(username))
}

func (s *UserService) GetActiveUsers(ctx context.Context, page domain.Page) ([]domain.User, error) {
	return s.users.ListActive(ctx, page.Normalize())
}

func (s *UserService) GetSuperusers(ctx context.Context, page domain.Page) ([]domain.User, error) {
	return s.users.ListSuperusers(ctx, page.Normalize())
}

func (s *UserService) CountActiveUsers(ctx context.Context) (int64, error) {
	return s.users.CountActive(ctx)
}

func (s *UserService) ensureEmailFree(ctx context.Context, email string, exclude *uuid.UUID) error {
	exists, err := s.users.EmailExists(ctx, email, exclude)
	if err != nil {
		return err
	}
	if exists {
		return domain.Duplicate(domain.UserEntity, "email", email)
	}
	return nil
}

func (s *UserService) ensureUsernameFree(ctx context.Context, username string, exclude *uuid.UUID) error {
	exists, err := s.users.UsernameExists(ctx, username, exclude)
	if err != nil {
		return err
	}
	if exists {
		return domain.Duplicate(domain.UserEntity, "username", username)
	}
	return nil
}

func normalizeNames(first, last *string) (*string, *string, error) {
	first, last = util.TrimOptional(first), util.TrimOptional(last)
	if first != nil {
		if err := util.ValidateName("first_name", *first); err != nil {
			return nil, nil, err
		}
	}
	if last != nil {
		if err := util.ValidateName("last_name", *last); err != nil {
			return nil, nil, err
		}
	}
	return first, last, nil
}
