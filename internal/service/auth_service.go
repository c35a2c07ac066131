package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/njprem/web-starter-api/internal/domain"
	"github.com/njprem/web-starter-api/internal/repository/ports"
)

// AuthResult is a user together with the session just issued for them.
type AuthResult struct {
	User    *domain.User
	Session *domain.Session
}

// AuthService composes user and session operations into flows that commit
// or roll back as one unit of work.
type AuthService struct {
	users    *UserService
	sessions *SessionService
	uow      ports.UnitOfWork
	logger   *slog.Logger
}

func NewAuthService(users *UserService, sessions *SessionService, uow ports.UnitOfWork) *AuthService {
	return &AuthService{users: users, sessions: sessions, uow: uow, logger: slog.Default()}
}

func (s *AuthService) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Register creates an account and signs it in.
func (s *AuthService) Register(ctx context.Context, in UserCreateInput, meta SessionMetadata) (*AuthResult, error) {
	in.IsActive = nil
	in.IsSuperuser = false

	var result AuthResult
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		user, err := s.users.CreateUser(ctx, in)
		if err != nil {
			return err
		}
		session, err := s.sessions.CreateSession(ctx, user, s.sessions.DefaultTTL(), meta)
		if err != nil {
			return err
		}
		result = AuthResult{User: user, Session: session}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Login fails with domain.ErrInvalidCredentials for every rejected attempt.
func (s *AuthService) Login(ctx context.Context, email, password string, meta SessionMetadata) (*AuthResult, error) {
	var result AuthResult
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		user, err := s.users.Authenticate(ctx, email, password)
		if err != nil {
			return err
		}
		if user == nil {
			return domain.InvalidCredentials()
		}
		session, err := s.sessions.CreateSession(ctx, user, s.sessions.DefaultTTL(), meta)
		if err != nil {
			return err
		}
		result = AuthResult{User: user, Session: session}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user logged in", "user_id", result.User.ID, "session_id", result.Session.ID)
	return &result, nil
}

// Logout revokes the session behind token. Unknown tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	_, err := s.sessions.RevokeSession(ctx, token)
	return err
}

// ResolveSession maps a bearer token to its live session and owner. Both are
// nil when the token is invalid or the owner can no longer sign in.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (*domain.User, *domain.Session, error) {
	session, err := s.sessions.ValidateSession(ctx, token)
	if err != nil || session == nil {
		return nil, nil, err
	}
	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil || !user.CanAuthenticate() {
		return nil, nil, nil
	}
	return user, session, nil
}

// ChangePassword verifies the current password, stores the new one, revokes
// every session of the user and issues a fresh one.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string, meta SessionMetadata) (*AuthResult, error) {
	var result AuthResult
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		user, err := s.users.ChangePassword(ctx, userID, current, next)
		if err != nil {
			return err
		}
		if _, err := s.sessions.RevokeUserSessions(ctx, userID); err != nil {
			return err
		}
		session, err := s.sessions.CreateSession(ctx, user, s.sessions.DefaultTTL(), meta)
		if err != nil {
			return err
		}
		result = AuthResult{User: user, Session: session}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateUser applies an admin edit. Setting a password or deactivating the
// account revokes every session of the user in the same unit of work.
func (s *AuthService) UpdateUser(ctx context.Context, userID uuid.UUID, in UserUpdateInput) (*domain.User, error) {
	revoke := in.Password != nil || (in.IsActive != nil && !*in.IsActive)

	var user *domain.User
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.users.UpdateUser(ctx, userID, in)
		if err != nil || !revoke {
			return err
		}
		n, err := s.sessions.RevokeUserSessions(ctx, userID)
		if err != nil {
			return err
		}
		s.logger.InfoContext(ctx, "sessions revoked after account change", "user_id", userID, "revoked", n)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser soft-deletes the account and revokes its sessions.
func (s *AuthService) DeleteUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	var deleted *domain.User
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		var err error
		deleted, err = s.users.SoftDeleteUser(ctx, userID)
		if err != nil {
			return err
		}
		_, err = s.sessions.RevokeUserSessions(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// DeactivateUser blocks sign-in and ends the user's current sessions.
func (s *AuthService) DeactivateUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	var user *domain.User
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.users.DeactivateUser(ctx, userID)
		if err != nil {
			return err
		}
		_, err = s.sessions.RevokeUserSessions(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
