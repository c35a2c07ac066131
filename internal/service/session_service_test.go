package service

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njprem/web-starter-api/internal/domain"
	"github.com/njprem/web-starter-api/internal/repository/ports"
	"github.com/njprem/web-starter-api/internal/util"
)

func TestSessionService_CreateThenValidate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.createUser(t, "s@example.com")

	s, err := f.sessionSvc.CreateSession(ctx, u, 24*time.Hour, SessionMetadata{IPAddress: strPtr("10.0.0.1"), UserAgent: strPtr("go-test")})
	require.NoError(t, err)
	assert.Equal(t, u.ID, s.UserID)
	assert.Equal(t, f.now.Add(24*time.Hour), s.ExpiresAt)
	assert.Equal(t, "10.0.0.1", *s.IPAddress)

	raw, err := base64.RawURLEncoding.DecodeString(s.Token)
	require.NoError(t, err)
	assert.Len(t, raw, util.SessionTokenBytes)

	valid, err := f.sessionSvc.ValidateSession(ctx, s.Token)
	require.NoError(t, err)
	require.NotNil(t, valid)
	assert.True(t, valid.IsValidAt(f.now))

	revoked, err := f.sessionSvc.RevokeSession(ctx, s.Token)
	require.NoError(t, err)
	assert.True(t, revoked)

	after, err := f.sessionSvc.ValidateSession(ctx, s.Token)
	require.NoError(t, err)
	assert.Nil(t, after)

	raw2, err := f.sessionSvc.GetByToken(ctx, s.Token)
	require.NoError(t, err)
	require.NotNil(t, raw2)
	assert.True(t, raw2.IsRevoked())
}

func TestSessionService_TokensAreUnique(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.createUser(t, "uniq@example.com")

	seen := make(map[string]struct{})
	for range 20 {
		s, err := f.sessionSvc.CreateSession(ctx, u, time.Hour, SessionMetadata{})
		require.NoError(t, err)
		_, dup := seen[s.Token]
		require.False(t, dup)
		seen[s.Token] = struct{}{}
	}
}

func TestSessionService_ZeroLifetimeIsExpired(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.createUser(t, "zero@example.com")

	s, err := f.sessionSvc.CreateSession(ctx, u, 0, SessionMetadata{})
	require.NoError(t, err)
	assert.True(t, s.IsExpiredAt(f.now))

	valid, err := f.sessionSvc.ValidateSession(ctx, s.Token)
	require.NoError(t, err)
	assert.Nil(t, valid)
}

func TestSessionService_NegativeLifetimeRejected(t *testing.T) {
	f := newFixture(t)
	u := f.createUser(t, "neg@example.com")

	_, err := f.sessionSvc.CreateSession(context.Background(), u, -time.Second, SessionMetadata{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSessionService_ExpiresAtBoundary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.createUser(t, "edge@example.com")

	s, err := f.sessionSvc.CreateSession(ctx, u, time.Hour, SessionMetadata{})
	require.NoError(t, err)

	f.advance(time.Hour - time.Nanosecond)
	valid, err := f.sessionSvc.ValidateSession(ctx, s.Token)
	require.NoError(t, err)
	assert.NotNil(t, valid)

	f.advance(time.Nanosecond)
	valid, err = f.sessionSvc.ValidateSession(ctx, s.Token)
	require.NoError(t, err)
	assert.Nil(t, valid)
}

func TestSessionService_UnknownTokens(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, token := range []string{"", "does-not-exist"} {
		s, err := f.sessionSvc.ValidateSession(ctx, token)
		require.NoError(t, err)
		assert.Nil(t, s)

		ok, err := f.sessionSvc.RevokeSession(ctx, token)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestSessionService_RevokeTwiceKeepsFirstTimestamp(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.createUser(t, "twice@example.com")
	s, err := f.sessionSvc.CreateSession(ctx, u, time.Hour, SessionMetadata{})
	require.NoError(t, err)

	ok, err := f.sessionSvc.RevokeSession(ctx, s.Token)
	require.NoError(t, err)
	require.True(t, ok)
	firstAt := f.now

	f.advance(time.Minute)
	ok, err = f.sessionSvc.RevokeSession(ctx, s.Token)
	require.NoError(t, err)
	assert.True(t, ok)

	stored, err := f.sessionSvc.GetByToken(ctx, s.Token)
	require.NoError(t, err)
	assert.Equal(t, firstAt, *stored.RevokedAt)
}

func TestSessionService_CleanupRemovesExpiredAndRevoked(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.createUser(t, "cleanup@example.com")

	active, err := f.sessionSvc.CreateSession(ctx, u, 24*time.Hour, SessionMetadata{})
	require.NoError(t, err)
	_, err = f.sessionSvc.CreateSession(ctx, u, time.Minute, SessionMetadata{})
	require.NoError(t, err)
	revoked, err := f.sessionSvc.CreateSession(ctx, u, 24*time.Hour, SessionMetadata{})
	require.NoError(t, err)
	_, err = f.sessionSvc.RevokeSession(ctx, revoked.Token)
	require.NoError(t, err)

	f.advance(time.Hour)

	n, err := f.sessionSvc.CleanupExpiredSessions(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	left, err := f.sessionSvc.GetUserSessions(ctx, u.ID, ports.SessionFilter{IncludeExpired: true, IncludeRevoked: true})
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, active.ID, left[0].ID)
}

func TestSessionService_RevokeUserSessionsCountsActiveOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.createUser(t, "all@example.com")
	other := f.createUser(t, "other@example.com")

	for range 2 {
		_, err := f.sessionSvc.CreateSession(ctx, u, time.Hour, SessionMetadata{})
		require.NoError(t, err)
	}
	_, err := f.sessionSvc.CreateSession(ctx, u, 0, SessionMetadata{})
	require.NoError(t, err)
	keep, err := f.sessionSvc.CreateSession(ctx, other, time.Hour, SessionMetadata{})
	require.NoError(t, err)

	n, err := f.sessionSvc.RevokeUserSessions(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	valid, err := f.sessionSvc.ValidateSession(ctx, keep.Token)
	require.NoError(t, err)
	assert.NotNil(t, valid)
}

func TestSessionService_GetUserSessionsNewestFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.createUser(t, "order@example.com")

	var ids []uuid.UUID
	for range 3 {
		s, err := f.sessionSvc.CreateSession(ctx, u, 24*time.Hour, SessionMetadata{})
		require.NoError(t, err)
		ids = append(ids, s.ID)
		f.advance(time.Minute)
	}

	list, err := f.sessionSvc.GetUserSessions(ctx, u.ID, ports.SessionFilter{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, ids[2], list[0].ID)
	assert.Equal(t, ids[0], list[2].ID)
}

func TestSessionService_DefaultTTL(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, domain.DefaultSessionTTL, f.sessionSvc.DefaultTTL())

	custom := NewSessionService(f.sessions, f.store, 2*time.Hour)
	assert.Equal(t, 2*time.Hour, custom.DefaultTTL())
}
