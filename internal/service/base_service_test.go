package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njprem/web-starter-api/internal/domain"
	"github.com/njprem/web-starter-api/internal/repository/memory"
	"github.com/njprem/web-starter-api/internal/repository/ports"
)

// countingUnitOfWork records how many scopes were opened at the top level.
type countingUnitOfWork struct {
	inner ports.UnitOfWork
	calls int
}

func (c *countingUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	c.calls++
	return c.inner.Do(ctx, fn)
}

func newUserBase(t *testing.T) (*Service[domain.User], *countingUnitOfWork) {
	t.Helper()
	store := memory.NewStore()
	uow := &countingUnitOfWork{inner: store}
	return NewService[domain.User](memory.NewUserRepo(store), uow, domain.UserEntity), uow
}

func TestService_GetByIDOrFail(t *testing.T) {
	svc, _ := newUserBase(t)
	id := uuid.New()

	u, err := svc.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, u)

	_, err = svc.GetByIDOrFail(context.Background(), id)
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "User")
	assert.Contains(t, err.Error(), id.String())
}

func TestService_WritesRunInUnitOfWork(t *testing.T) {
	ctx := context.Background()
	svc, uow := newUserBase(t)

	u, err := svc.Create(ctx, &domain.User{Email: "base@example.com", HashedPassword: "h"})
	require.NoError(t, err)
	u.IsActive = true
	_, err = svc.Update(ctx, u)
	require.NoError(t, err)
	deleted, err := svc.Delete(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	assert.Equal(t, 3, uow.calls)

	deleted, err = svc.Delete(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestService_FailedWriteRollsBack(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repo := memory.NewUserRepo(store)
	svc := NewService[domain.User](repo, store, domain.UserEntity)
	boom := errors.New("boom")

	err := store.Do(ctx, func(ctx context.Context) error {
		if _, err := svc.Create(ctx, &domain.User{Email: "joined@example.com", HashedPassword: "h"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestService_GetManyNormalizesPage(t *testing.T) {
	ctx := context.Background()
	svc, _ := newUserBase(t)
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		_, err := svc.Create(ctx, &domain.User{Email: email, HashedPassword: "h", IsActive: true})
		require.NoError(t, err)
	}

	all, err := svc.GetMany(ctx, domain.Page{Skip: -1, Limit: 0}, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	page, err := svc.GetMany(ctx, domain.Page{Skip: 1, Limit: 1}, domain.Desc(domain.UserFieldEmail))
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "b@example.com", page[0].Email)

	byField, err := svc.GetManyByField(ctx, domain.UserFieldIsActive, true, domain.Page{})
	require.NoError(t, err)
	assert.Len(t, byField, 3)

	one, err := svc.GetByField(ctx, domain.UserFieldEmail, "c@example.com")
	require.NoError(t, err)
	require.NotNil(t, one)

	_, err = svc.GetByField(ctx, domain.Field("password"), "x")
	assert.ErrorIs(t, err, domain.ErrUnknownField)
}
