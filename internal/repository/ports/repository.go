package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/njprem/web-starter-api/internal/domain"
)

// Repository is data access over a single entity type E. Implementations run
// every call on the unit of work carried by ctx and never commit.
//
// Point lookups return (nil, nil) when no row matches. Field-based calls fail
// with domain.ErrUnknownField when the field is not part of E's vocabulary.
type Repository[E any] interface {
	Get(ctx context.Context, id uuid.UUID) (*E, error)
	GetMulti(ctx context.Context, page domain.Page, order *domain.Order) ([]E, error)
	Create(ctx context.Context, entity *E) (*E, error)
	Update(ctx context.Context, entity *E) (*E, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Count(ctx context.Context, conditions ...domain.Condition) (int64, error)
	GetByField(ctx context.Context, field domain.Field, value any) (*E, error)
	GetMultiByField(ctx context.Context, field domain.Field, value any, page domain.Page) ([]E, error)
	DeleteByField(ctx context.Context, field domain.Field, value any) (int64, error)
}
