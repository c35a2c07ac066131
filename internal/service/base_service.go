package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/njprem/web-starter-api/internal/domain"
	"github.com/njprem/web-starter-api/internal/repository/ports"
)

// Service wraps a repository with transactional writes. Each write runs in
// its own unit of work unless ctx already carries one, in which case it joins
// the caller's scope.
type Service[E any] struct {
	repo   ports.Repository[E]
	uow    ports.UnitOfWork
	entity string
}

func NewService[E any](repo ports.Repository[E], uow ports.UnitOfWork, entity string) *Service[E] {
	return &Service[E]{repo: repo, uow: uow, entity: entity}
}

func (s *Service[E]) GetByID(ctx context.Context, id uuid.UUID) (*E, error) {
	return s.repo.Get(ctx, id)
}

// GetByIDOrFail returns domain.ErrNotFound naming the entity and id.
func (s *Service[E]) GetByIDOrFail(ctx context.Context, id uuid.UUID) (*E, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, domain.NotFound(s.entity, id)
	}
	return e, nil
}

func (s *Service[E]) GetMany(ctx context.Context, page domain.Page, order *domain.Order) ([]E, error) {
	return s.repo.GetMulti(ctx, page.Normalize(), order)
}

func (s *Service[E]) Create(ctx context.Context, entity *E) (*E, error) {
	var created *E
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.repo.Create(ctx, entity)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Service[E]) Update(ctx context.Context, entity *E) (*E, error) {
	var updated *E
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		var err error
		updated, err = s.repo.Update(ctx, entity)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service[E]) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	var deleted bool
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		var err error
		deleted, err = s.repo.Delete(ctx, id)
		return err
	})
	return deleted, err
}

func (s *Service[E]) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.repo.Exists(ctx, id)
}

func (s *Service[E]) Count(ctx context.Context, conditions ...domain.Condition) (int64, error) {
	return s.repo.Count(ctx, conditions...)
}

func (s *Service[E]) GetByField(ctx context.Context, field domain.Field, value any) (*E, error) {
	return s.repo.GetByField(ctx, field, value)
}

func (s *Service[E]) GetManyByField(ctx context.Context, field domain.Field, value any, page domain.Page) ([]E, error) {
	return s.repo.GetMultiByField(ctx, field, value, page.Normalize())
}
