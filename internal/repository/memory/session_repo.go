package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/njprem/web-starter-api/internal/domain"
	"github.com/njprem/web-starter-api/internal/repository/ports"
)

var sessionSchema = Schema[domain.Session]{
	Entity: domain.SessionEntity,
	ID:     func(s *domain.Session) *uuid.UUID { return &s.ID },
	Fields: map[domain.Field]func(*domain.Session) any{
		domain.SessionFieldID:        func(s *domain.Session) any { return s.ID },
		domain.SessionFieldUserID:    func(s *domain.Session) any { return s.UserID },
		domain.SessionFieldToken:     func(s *domain.Session) any { return s.Token },
		domain.SessionFieldExpiresAt: func(s *domain.Session) any { return s.ExpiresAt },
		domain.SessionFieldRevokedAt: func(s *domain.Session) any { return s.RevokedAt },
		domain.SessionFieldIPAddress: func(s *domain.Session) any { return s.IPAddress },
		domain.SessionFieldUserAgent: func(s *domain.Session) any { return s.UserAgent },
		domain.SessionFieldCreatedAt: func(s *domain.Session) any { return s.CreatedAt },
	},
	Unique: func(existing, candidate *domain.Session) string {
		if existing.Token == candidate.Token {
			return "token"
		}
		return ""
	},
	OnCreate: func(s *domain.Session, now time.Time) {
		s.CreatedAt = now
	},
}

type SessionRepository struct {
	*CRUDRepository[domain.Session]
}

func NewSessionRepo(store *Store) *SessionRepository {
	return &SessionRepository{CRUDRepository: NewCRUDRepository(store, sessionSchema)}
}

func (r *SessionRepository) GetByToken(_ context.Context, token string) (*domain.Session, error) {
	return r.first(func(s *domain.Session) bool { return s.Token == token }), nil
}

func (r *SessionRepository) GetActiveByToken(_ context.Context, token string, now time.Time) (*domain.Session, error) {
	return r.first(func(s *domain.Session) bool { return s.Token == token && s.IsValidAt(now) }), nil
}

func (r *SessionRepository) ListByUser(_ context.Context, userID uuid.UUID, filter ports.SessionFilter, now time.Time) ([]domain.Session, error) {
	match := func(s *domain.Session) bool {
		if s.UserID != userID {
			return false
		}
		if !filter.IncludeRevoked && s.IsRevoked() {
			return false
		}
		if !filter.IncludeExpired && s.IsExpiredAt(now) {
			return false
		}
		return true
	}
	newestFirst := func(a, b *domain.Session) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return r.compareIDs(a, b) > 0
	}
	return r.list(domain.Page{Limit: domain.MaxPageLimit}, newestFirst, match), nil
}

func (r *SessionRepository) Revoke(_ context.Context, token string, now time.Time) (bool, error) {
	n := r.update(
		func(s *domain.Session) bool { return s.Token == token },
		func(s *domain.Session) bool {
			s.Revoke(now)
			return true
		},
	)
	return n > 0, nil
}

func (r *SessionRepository) RevokeByUser(_ context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	return r.update(
		func(s *domain.Session) bool { return s.UserID == userID && s.IsValidAt(now) },
		func(s *domain.Session) bool {
			s.Revoke(now)
			return true
		},
	), nil
}

func (r *SessionRepository) DeleteExpiredOrRevoked(_ context.Context, now time.Time) (int64, error) {
	return r.deleteWhere(func(s *domain.Session) bool { return s.IsExpiredAt(now) || s.IsRevoked() }), nil
}

func (r *SessionRepository) first(match func(*domain.Session) bool) *domain.Session {
	items := r.list(domain.Page{Limit: 1}, nil, match)
	if len(items) == 0 {
		return nil
	}
	return &items[0]
}

var _ ports.SessionRepository = (*SessionRepository)(nil)
