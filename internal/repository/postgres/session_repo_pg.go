package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/njprem/web-starter-api/internal/domain"
	"github.com/njprem/web-starter-api/internal/repository/ports"
)

const sessionColumns = `id, user_id, token, expires_at, revoked_at, ip_address, user_agent, created_at`

var sessionTable = Table[domain.Session]{
	Name:    "sessions",
	Entity:  domain.SessionEntity,
	Columns: []string{"id", "user_id", "token", "expires_at", "revoked_at", "ip_address", "user_agent", "created_at"},
	Insert:  []string{"id", "user_id", "token", "expires_at", "revoked_at", "ip_address", "user_agent"},
	Update:  []string{"expires_at", "revoked_at", "ip_address", "user_agent"},
	Fields: map[domain.Field]string{
		domain.SessionFieldID:        "id",
		domain.SessionFieldUserID:    "user_id",
		domain.SessionFieldToken:     "token",
		domain.SessionFieldExpiresAt: "expires_at",
		domain.SessionFieldRevokedAt: "revoked_at",
		domain.SessionFieldIPAddress: "ip_address",
		domain.SessionFieldUserAgent: "user_agent",
		domain.SessionFieldCreatedAt: "created_at",
	},
	BeforeCreate: func(s *domain.Session) {
		if s.ID == uuid.Nil {
			s.ID = uuid.Must(uuid.NewV7())
		}
	},
}

type SessionRepository struct {
	*CRUDRepository[domain.Session]
}

func NewSessionRepo(tx *TxManager) *SessionRepository {
	return &SessionRepository{CRUDRepository: NewCRUDRepository(tx, sessionTable)}
}

func (r *SessionRepository) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	const query = `
        SELECT ` + sessionColumns + `
        FROM sessions
        WHERE token = $1
    `
	return r.getOne(ctx, "get by token", query, token)
}

func (r *SessionRepository) GetActiveByToken(ctx context.Context, token string, now time.Time) (*domain.Session, error) {
	const query = `
        SELECT ` + sessionColumns + `
        FROM sessions
        WHERE token = $1 AND revoked_at IS NULL AND expires_at > $2
    `
	return r.getOne(ctx, "get active by token", query, token, now.UTC())
}

// ListByUser returns the user's sessions newest first.
func (r *SessionRepository) ListByUser(ctx context.Context, userID uuid.UUID, filter ports.SessionFilter, now time.Time) ([]domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE user_id = $1`
	args := []any{userID}
	if !filter.IncludeRevoked {
		query += ` AND revoked_at IS NULL`
	}
	if !filter.IncludeExpired {
		args = append(args, now.UTC())
		query += fmt.Sprintf(` AND expires_at > $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC, id DESC`
	return r.selectMany(ctx, "list by user", query, args...)
}

// Revoke keeps the first revocation timestamp when the session was already revoked.
func (r *SessionRepository) Revoke(ctx context.Context, token string, now time.Time) (bool, error) {
	const query = `UPDATE sessions SET revoked_at = COALESCE(revoked_at, $2) WHERE token = $1`
	n, err := r.exec(ctx, "revoke", query, token, now.UTC())
	return n > 0, err
}

// RevokeByUser revokes the user's sessions that are still active at now.
func (r *SessionRepository) RevokeByUser(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	const query = `
        UPDATE sessions
        SET revoked_at = $2
        WHERE user_id = $1 AND revoked_at IS NULL AND expires_at > $2
    `
	return r.exec(ctx, "revoke by user", query, userID, now.UTC())
}

func (r *SessionRepository) DeleteExpiredOrRevoked(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM sessions WHERE expires_at <= $1 OR revoked_at IS NOT NULL`
	return r.exec(ctx, "delete expired or revoked", query, now.UTC())
}

var _ ports.SessionRepository = (*SessionRepository)(nil)
