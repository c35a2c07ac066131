package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njprem/web-starter-api/internal/domain"
	"github.com/njprem/web-starter-api/internal/repository/ports"
)

func TestAuthService_RegisterIssuesSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res, err := f.auth.Register(ctx, UserCreateInput{
		Email:       "new@example.com",
		Password:    strongPassword,
		IsSuperuser: true,
		IsActive:    boolPtr(false),
	}, SessionMetadata{UserAgent: strPtr("curl")})
	require.NoError(t, err)
	assert.True(t, res.User.IsActive)
	assert.False(t, res.User.IsSuperuser)

	user, session, err := f.auth.ResolveSession(ctx, res.Session.Token)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, res.User.ID, user.ID)
	assert.Equal(t, res.Session.ID, session.ID)
}

func TestAuthService_RegisterDuplicateLeavesNoSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createUser(t, "dup@example.com")

	_, err := f.auth.Register(ctx, UserCreateInput{Email: "dup@example.com", Password: strongPassword}, SessionMetadata{})
	require.ErrorIs(t, err, domain.ErrDuplicateRecord)

	n, err := f.sessions.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAuthService_LoginFailuresAreIndistinguishable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createUser(t, "login@example.com")

	_, wrongErr := f.auth.Login(ctx, "login@example.com", "Wr0ngPassword", SessionMetadata{})
	_, unknownErr := f.auth.Login(ctx, "ghost@example.com", strongPassword, SessionMetadata{})

	require.ErrorIs(t, wrongErr, domain.ErrInvalidCredentials)
	require.ErrorIs(t, unknownErr, domain.ErrInvalidCredentials)
	assert.Equal(t, wrongErr.Error(), unknownErr.Error())

	n, err := f.sessions.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAuthService_LoginAndLogout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.createUser(t, "inout@example.com")

	res, err := f.auth.Login(ctx, " inout@example.com ", strongPassword, SessionMetadata{IPAddress: strPtr("127.0.0.1")})
	require.NoError(t, err)
	assert.Equal(t, u.ID, res.User.ID)
	assert.Equal(t, f.now.Add(domain.DefaultSessionTTL), res.Session.ExpiresAt)

	require.NoError(t, f.auth.Logout(ctx, res.Session.Token))
	require.NoError(t, f.auth.Logout(ctx, "unknown-token"))

	user, _, err := f.auth.ResolveSession(ctx, res.Session.Token)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestAuthService_ChangePasswordRotatesSessions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.createUser(t, "rotate@example.com")

	old, err := f.auth.Login(ctx, "rotate@example.com", strongPassword, SessionMetadata{})
	require.NoError(t, err)
	f.advance(time.Second)

	res, err := f.auth.ChangePassword(ctx, u.ID, strongPassword, "Rot4tedPassword", SessionMetadata{})
	require.NoError(t, err)
	assert.NotEqual(t, old.Session.Token, res.Session.Token)

	gone, _, err := f.auth.ResolveSession(ctx, old.Session.Token)
	require.NoError(t, err)
	assert.Nil(t, gone)

	current, _, err := f.auth.ResolveSession(ctx, res.Session.Token)
	require.NoError(t, err)
	assert.NotNil(t, current)

	_, err = f.auth.Login(ctx, "rotate@example.com", strongPassword, SessionMetadata{})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = f.auth.Login(ctx, "rotate@example.com", "Rot4tedPassword", SessionMetadata{})
	assert.NoError(t, err)
}

func TestAuthService_ChangePasswordWrongCurrentKeepsSessions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.createUser(t, "keep@example.com")
	old, err := f.auth.Login(ctx, "keep@example.com", strongPassword, SessionMetadata{})
	require.NoError(t, err)

	_, err = f.auth.ChangePassword(ctx, u.ID, "N0tTheCurrent", "Rot4tedPassword", SessionMetadata{})
	require.ErrorIs(t, err, domain.ErrValidation)

	still, _, err := f.auth.ResolveSession(ctx, old.Session.Token)
	require.NoError(t, err)
	assert.NotNil(t, still)
}

func TestAuthService_DeleteAndDeactivateEndSessions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.createUser(t, "a@example.com")
	b := f.createUser(t, "b@example.com")

	sa, err := f.auth.Login(ctx, "a@example.com", strongPassword, SessionMetadata{})
	require.NoError(t, err)
	sb, err := f.auth.Login(ctx, "b@example.com", strongPassword, SessionMetadata{})
	require.NoError(t, err)

	deleted, err := f.auth.DeleteUser(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, deleted.IsDeleted())

	deactivated, err := f.auth.DeactivateUser(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)

	for _, token := range []string{sa.Session.Token, sb.Session.Token} {
		user, _, err := f.auth.ResolveSession(ctx, token)
		require.NoError(t, err)
		assert.Nil(t, user)
	}

	active, err := f.sessionSvc.GetUserSessions(ctx, a.ID, ports.SessionFilter{})
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestAuthService_UpdateUserRevokesOnPasswordOrDeactivation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.createUser(t, "edit@example.com")

	login := func() string {
		res, err := f.auth.Login(ctx, "edit@example.com", strongPassword, SessionMetadata{})
		require.NoError(t, err)
		return res.Session.Token
	}
	live := func(token string) bool {
		user, _, err := f.auth.ResolveSession(ctx, token)
		require.NoError(t, err)
		return user != nil
	}

	token := login()
	_, err := f.auth.UpdateUser(ctx, u.ID, UserUpdateInput{FirstName: strPtr("Ada"), IsActive: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, live(token))

	_, err = f.auth.UpdateUser(ctx, u.ID, UserUpdateInput{IsActive: boolPtr(false)})
	require.NoError(t, err)
	_, err = f.auth.UpdateUser(ctx, u.ID, UserUpdateInput{IsActive: boolPtr(true)})
	require.NoError(t, err)
	assert.False(t, live(token))

	token = login()
	updated, err := f.auth.UpdateUser(ctx, u.ID, UserUpdateInput{Password: strPtr(strongPassword)})
	require.NoError(t, err)
	assert.NotEqual(t, u.HashedPassword, updated.HashedPassword)
	assert.False(t, live(token))
}

func TestAuthService_UpdateUserFailureKeepsSessions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.createUser(t, "keep@example.com")
	res, err := f.auth.Login(ctx, "keep@example.com", strongPassword, SessionMetadata{})
	require.NoError(t, err)

	_, err = f.auth.UpdateUser(ctx, u.ID, UserUpdateInput{Password: strPtr("short")})
	require.ErrorIs(t, err, domain.ErrValidation)

	user, _, err := f.auth.ResolveSession(ctx, res.Session.Token)
	require.NoError(t, err)
	assert.NotNil(t, user)
}

func TestAuthService_ResolveSessionRejectsDisabledOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.createUser(t, "owner@example.com")

	s, err := f.sessionSvc.CreateSession(ctx, u, time.Hour, SessionMetadata{})
	require.NoError(t, err)
	_, err = f.userSvc.DeactivateUser(ctx, u.ID)
	require.NoError(t, err)

	user, session, err := f.auth.ResolveSession(ctx, s.Token)
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.Nil(t, session)
}
