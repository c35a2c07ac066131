package ports

import "context"

// UnitOfWork scopes a transaction. Do commits when fn returns nil and rolls
// back otherwise. Calls made while a scope is already open on ctx join it, so
// callers compose multi-step operations by wrapping them in one Do.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}
