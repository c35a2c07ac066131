package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/njprem/web-starter-api/internal/domain"
	"github.com/njprem/web-starter-api/internal/repository/memory"
	"github.com/njprem/web-starter-api/internal/util"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const strongPassword = "Str0ngPassw0rd"

// cheap parameters keep the suite fast; production defaults are far higher
func testHasher() *util.PasswordHasher {
	return util.NewPasswordHasher(util.HasherConfig{TimeCost: 1, MemoryCost: 64, Parallelism: 1})
}

type fixture struct {
	store    *memory.Store
	users    *memory.UserRepository
	sessions *memory.SessionRepository

	userSvc    *UserService
	sessionSvc *SessionService
	auth       *AuthService

	now time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{now: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return f.now }

	f.store = memory.NewStore()
	f.store.SetClock(clock)
	f.users = memory.NewUserRepo(f.store)
	f.sessions = memory.NewSessionRepo(f.store)

	f.userSvc = NewUserService(f.users, f.store, testHasher())
	f.userSvc.SetClock(clock)
	f.sessionSvc = NewSessionService(f.sessions, f.store, 0)
	f.sessionSvc.SetClock(clock)
	f.auth = NewAuthService(f.userSvc, f.sessionSvc, f.store)
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *fixture) createUser(t *testing.T, email string) *domain.User {
	t.Helper()
	u, err := f.userSvc.CreateUser(context.Background(), UserCreateInput{Email: email, Password: strongPassword})
	require.NoError(t, err)
	return u
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }
