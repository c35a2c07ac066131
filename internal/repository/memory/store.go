// Package memory holds map-backed repositories with the same semantics as the
// postgres ones. They back unit tests and local runs without a database.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/njprem/web-starter-api/internal/repository/ports"
)

type scopeKey struct{}

type snapshotter interface {
	snapshot() (restore func())
}

// Store groups tables under one unit of work. Do serialises scopes and
// restores every table to its state at scope start when fn fails.
type Store struct {
	scope  sync.Mutex
	mu     sync.Mutex
	tables []snapshotter
	now    func() time.Time
}

func NewStore() *Store {
	return &Store{now: func() time.Time { return time.Now().UTC() }}
}

// SetClock overrides the clock used for created_at/updated_at.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now != nil {
		s.now = now
	}
}

func (s *Store) clock() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now().UTC()
}

func (s *Store) register(t snapshotter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = append(s.tables, t)
}

func (s *Store) Do(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if owner, ok := ctx.Value(scopeKey{}).(*Store); ok && owner == s {
		return fn(ctx)
	}

	s.scope.Lock()
	defer s.scope.Unlock()

	s.mu.Lock()
	restores := make([]func(), 0, len(s.tables))
	for _, t := range s.tables {
		restores = append(restores, t.snapshot())
	}
	s.mu.Unlock()

	rollback := func() {
		for _, restore := range restores {
			restore()
		}
	}
	defer func() {
		if p := recover(); p != nil {
			rollback()
			panic(p)
		}
		if err != nil {
			rollback()
		}
	}()

	return fn(context.WithValue(ctx, scopeKey{}, s))
}

var _ ports.UnitOfWork = (*Store)(nil)
