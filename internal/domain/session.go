package domain

import (
	"time"

	"github.com/google/uuid"
)

// SessionEntity is the entity name used in errors and logs.
const SessionEntity = "Session"

// DefaultSessionTTL matches the lifetime of a login when no override is configured.
const DefaultSessionTTL = 24 * time.Hour

// Queryable session fields.
const (
	SessionFieldID        Field = "id"
	SessionFieldUserID    Field = "user_id"
	SessionFieldToken     Field = "token"
	SessionFieldExpiresAt Field = "expires_at"
	SessionFieldRevokedAt Field = "revoked_at"
	SessionFieldIPAddress Field = "ip_address"
	SessionFieldUserAgent Field = "user_agent"
	SessionFieldCreatedAt Field = "created_at"
)

type Session struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	UserID    uuid.UUID  `db:"user_id" json:"user_id"`
	Token     string     `db:"token" json:"-"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	RevokedAt *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
	IPAddress *string    `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent *string    `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// SessionExpiry returns the expiry instant for a session issued at now.
func SessionExpiry(now time.Time, ttl time.Duration) time.Time {
	return now.UTC().Add(ttl)
}

// IsExpiredAt reports whether the session has reached its expiry at t.
// A session expires at ExpiresAt itself, so a zero TTL is expired on issue.
func (s *Session) IsExpiredAt(t time.Time) bool {
	return !t.Before(s.ExpiresAt)
}

func (s *Session) IsExpired() bool {
	return s.IsExpiredAt(time.Now().UTC())
}

func (s *Session) IsRevoked() bool {
	return s.RevokedAt != nil
}

func (s *Session) IsValidAt(t time.Time) bool {
	return !s.IsExpiredAt(t) && !s.IsRevoked()
}

func (s *Session) IsValid() bool {
	return s.IsValidAt(time.Now().UTC())
}

// Revoke marks the session revoked at now. Revocation is terminal; a second
// call keeps the original timestamp.
func (s *Session) Revoke(now time.Time) {
	if s.RevokedAt != nil {
		return
	}
	ts := now.UTC()
	s.RevokedAt = &ts
}
