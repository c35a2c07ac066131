package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/njprem/web-starter-api/internal/domain"
	"github.com/njprem/web-starter-api/internal/metrics"
	"github.com/njprem/web-starter-api/internal/repository/ports"
	"github.com/njprem/web-starter-api/internal/util"
)

type SessionMetadata struct {
	IPAddress *string
	UserAgent *string
}

// SessionService issues and validates bearer sessions. Validity is judged
// against the service clock, which is also passed down to every query.
type SessionService struct {
	*Service[domain.Session]

	sessions ports.SessionRepository
	uow      ports.UnitOfWork
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

func NewSessionService(sessions ports.SessionRepository, uow ports.UnitOfWork, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = domain.DefaultSessionTTL
	}
	return &SessionService{
		Service:  NewService[domain.Session](sessions, uow, domain.SessionEntity),
		sessions: sessions,
		uow:      uow,
		ttl:      ttl,
		now:      time.Now,
		logger:   slog.Default(),
	}
}

func (s *SessionService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *SessionService) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// DefaultTTL is the lifetime used for logins when the caller has no override.
func (s *SessionService) DefaultTTL() time.Duration {
	return s.ttl
}

func (s *SessionService) clock() time.Time {
	return s.now().UTC()
}

// CreateSession issues a new session for user expiring expiresIn from now.
// A zero lifetime yields a session that is already expired.
func (s *SessionService) CreateSession(ctx context.Context, user *domain.User, expiresIn time.Duration, meta SessionMetadata) (*domain.Session, error) {
	if user == nil {
		return nil, domain.Invalid("user", "user is required")
	}
	if expiresIn < 0 {
		return nil, domain.Invalid("expires_in", "session lifetime cannot be negative")
	}
	token, err := util.GenerateSessionToken()
	if err != nil {
		return nil, err
	}

	session := &domain.Session{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: domain.SessionExpiry(s.clock(), expiresIn),
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	}
	created, err := s.Create(ctx, session)
	if err != nil {
		return nil, err
	}
	metrics.SessionCreated()
	s.logger.DebugContext(ctx, "session created", "user_id", user.ID, "session_id", created.ID, "expires_at", created.ExpiresAt)
	return created, nil
}

func (s *SessionService) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, nil
	}
	return s.sessions.GetByToken(ctx, token)
}

// GetActiveSession filters out expired and revoked sessions in the store.
func (s *SessionService) GetActiveSession(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, nil
	}
	return s.sessions.GetActiveByToken(ctx, token, s.clock())
}

// ValidateSession returns nil without an error when the token is unknown,
// expired or revoked. Only infrastructure failures are reported.
func (s *SessionService) ValidateSession(ctx context.Context, token string) (*domain.Session, error) {
	session, err := s.GetActiveSession(ctx, token)
	if err != nil || session == nil {
		return nil, err
	}
	// the clock may have advanced since the query ran
	if !session.IsValidAt(s.clock()) {
		return nil, nil
	}
	return session, nil
}

// RevokeSession reports false for an unknown token. Revoking twice keeps the
// first revocation time.
func (s *SessionService) RevokeSession(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	var revoked bool
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		var err error
		revoked, err = s.sessions.Revoke(ctx, token, s.clock())
		return err
	})
	if err != nil {
		return false, err
	}
	if revoked {
		metrics.SessionsRevoked(1)
	}
	return revoked, nil
}

// RevokeUserSessions revokes every currently active session of the user.
func (s *SessionService) RevokeUserSessions(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		var err error
		n, err = s.sessions.RevokeByUser(ctx, userID, s.clock())
		return err
	})
	if err != nil {
		return 0, err
	}
	metrics.SessionsRevoked(n)
	s.logger.InfoContext(ctx, "user sessions revoked", "user_id", userID, "count", n)
	return n, nil
}

// GetUserSessions lists the user's sessions newest first.
func (s *SessionService) GetUserSessions(ctx context.Context, userID uuid.UUID, filter ports.SessionFilter) ([]domain.Session, error) {
	return s.sessions.ListByUser(ctx, userID, filter, s.clock())
}

// CleanupExpiredSessions deletes every expired or revoked session. It is
// meant to be triggered externally on a schedule.
func (s *SessionService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	var n int64
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		var err error
		n, err = s.sessions.DeleteExpiredOrRevoked(ctx, s.clock())
		return err
	})
	if err != nil {
		return 0, err
	}
	metrics.SessionsCleaned(n)
	s.logger.InfoContext(ctx, "expired sessions cleaned", "count", n)
	return n, nil
}
