package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/njprem/web-starter-api/internal/domain"
)

type SessionFilter struct {
	IncludeExpired bool
	IncludeRevoked bool
}

// SessionRepository takes the current time from the caller so every validity
// comparison uses the service clock.
type SessionRepository interface {
	Repository[domain.Session]

	GetByToken(ctx context.Context, token string) (*domain.Session, error)
	GetActiveByToken(ctx context.Context, token string, now time.Time) (*domain.Session, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filter SessionFilter, now time.Time) ([]domain.Session, error)
	Revoke(ctx context.Context, token string, now time.Time) (bool, error)
	RevokeByUser(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error)
	DeleteExpiredOrRevoked(ctx context.Context, now time.Time) (int64, error)
}
