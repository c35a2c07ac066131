package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/njprem/web-starter-api/internal/domain"
)

// UserRepository only sees live (non-deleted) users in its lookup helpers;
// the generic Repository methods see every row.
type UserRepository interface {
	Repository[domain.User]

	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	// EmailExists ignores the user identified by exclude when it is non-nil.
	EmailExists(ctx context.Context, email string, exclude *uuid.UUID) (bool, error)
	UsernameExists(ctx context.Context, username string, exclude *uuid.UUID) (bool, error)
	ListActive(ctx context.Context, page domain.Page) ([]domain.User, error)
	ListSuperusers(ctx context.Context, page domain.Page) ([]domain.User, error)
	CountActive(ctx context.Context) (int64, error)
}
