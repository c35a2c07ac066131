package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/njprem/web-starter-api/internal/domain"
	"github.com/njprem/web-starter-api/internal/repository/ports"
)

// Schema describes an entity to the in-memory table.
type Schema[E any] struct {
	Entity string
	ID     func(*E) *uuid.UUID
	Fields map[domain.Field]func(*E) any
	// Unique reports the field a candidate would collide on with an
	// existing row, or "" when they can coexist.
	Unique func(existing, candidate *E) string
	// OnCreate and OnUpdate maintain store-managed columns.
	OnCreate func(e *E, now time.Time)
	OnUpdate func(e *E, now time.Time)
}

// CRUDRepository stores entities by value keyed on id.
type CRUDRepository[E any] struct {
	store  *Store
	schema Schema[E]

	mu   sync.RWMutex
	rows map[uuid.UUID]E
}

func NewCRUDRepository[E any](store *Store, schema Schema[E]) *CRUDRepository[E] {
	r := &CRUDRepository[E]{store: store, schema: schema, rows: make(map[uuid.UUID]E)}
	store.register(r)
	return r
}

func (r *CRUDRepository[E]) snapshot() func() {
	r.mu.RLock()
	saved := make(map[uuid.UUID]E, len(r.rows))
	for k, v := range r.rows {
		saved[k] = v
	}
	r.mu.RUnlock()
	return func() {
		r.mu.Lock()
		r.rows = saved
		r.mu.Unlock()
	}
}

func (r *CRUDRepository[E]) Get(_ context.Context, id uuid.UUID) (*E, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (r *CRUDRepository[E]) GetMulti(_ context.Context, page domain.Page, order *domain.Order) ([]E, error) {
	var less func(a, b *E) bool
	if order != nil {
		get, err := r.field(order.Field)
		if err != nil {
			return nil, err
		}
		desc := order.Desc
		less = func(a, b *E) bool {
			c, _ := compareValues(get(a), get(b))
			if c == 0 {
				c = r.compareIDs(a, b)
			}
			if desc {
				return c > 0
			}
			return c < 0
		}
	}
	return r.list(page, less, nil), nil
}

func (r *CRUDRepository[E]) Create(_ context.Context, entity *E) (*E, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.schema.ID(entity)
	if *id == uuid.Nil {
		*id = uuid.Must(uuid.NewV7())
	}
	if _, ok := r.rows[*id]; ok {
		return nil, domain.Duplicate(r.schema.Entity, "id", *id)
	}
	if err := r.checkUnique(entity); err != nil {
		return nil, err
	}
	if r.schema.OnCreate != nil {
		r.schema.OnCreate(entity, r.store.clock())
	}
	r.rows[*id] = *entity
	return entity, nil
}

func (r *CRUDRepository[E]) Update(_ context.Context, entity *E) (*E, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := *r.schema.ID(entity)
	if _, ok := r.rows[id]; !ok {
		return nil, domain.NotFound(r.schema.Entity, id)
	}
	if err := r.checkUnique(entity); err != nil {
		return nil, err
	}
	if r.schema.OnUpdate != nil {
		r.schema.OnUpdate(entity, r.store.clock())
	}
	r.rows[id] = *entity
	return entity, nil
}

func (r *CRUDRepository[E]) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return false, nil
	}
	delete(r.rows, id)
	return true, nil
}

func (r *CRUDRepository[E]) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rows[id]
	return ok, nil
}

func (r *CRUDRepository[E]) Count(_ context.Context, conditions ...domain.Condition) (int64, error) {
	match, err := r.matcher(conditions)
	if err != nil {
		return 0, err
	}
	return r.countWhere(match), nil
}

func (r *CRUDRepository[E]) GetByField(_ context.Context, field domain.Field, value any) (*E, error) {
	match, err := r.matcher([]domain.Condition{fieldCondition(field, value)})
	if err != nil {
		return nil, err
	}
	items := r.list(domain.Page{Limit: 1}, nil, match)
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

func (r *CRUDRepository[E]) GetMultiByField(_ context.Context, field domain.Field, value any, page domain.Page) ([]E, error) {
	match, err := r.matcher([]domain.Condition{fieldCondition(field, value)})
	if err != nil {
		return nil, err
	}
	return r.list(page, nil, match), nil
}

func (r *CRUDRepository[E]) DeleteByField(_ context.Context, field domain.Field, value any) (int64, error) {
	match, err := r.matcher([]domain.Condition{fieldCondition(field, value)})
	if err != nil {
		return 0, err
	}
	return r.deleteWhere(match), nil
}

// list filters, sorts (by id unless less is given) and pages the rows.
func (r *CRUDRepository[E]) list(page domain.Page, less func(a, b *E) bool, match func(*E) bool) []E {
	r.mu.RLock()
	items := make([]E, 0, len(r.rows))
	for _, e := range r.rows {
		if match == nil || match(&e) {
			items = append(items, e)
		}
	}
	r.mu.RUnlock()

	if less == nil {
		less = func(a, b *E) bool { return r.compareIDs(a, b) < 0 }
	}
	sort.SliceStable(items, func(i, j int) bool { return less(&items[i], &items[j]) })

	page = page.Normalize()
	if page.Skip >= len(items) {
		return []E{}
	}
	end := min(page.Skip+page.Limit, len(items))
	return items[page.Skip:end]
}

func (r *CRUDRepository[E]) countWhere(match func(*E) bool) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, e := range r.rows {
		if match(&e) {
			n++
		}
	}
	return n
}

func (r *CRUDRepository[E]) update(match func(*E) bool, apply func(*E) bool) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, e := range r.rows {
		if !match(&e) {
			continue
		}
		if apply(&e) {
			r.rows[id] = e
		}
		n++
	}
	return n
}

func (r *CRUDRepository[E]) deleteWhere(match func(*E) bool) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, e := range r.rows {
		if match(&e) {
			delete(r.rows, id)
			n++
		}
	}
	return n
}

func (r *CRUDRepository[E]) checkUnique(candidate *E) error {
	if r.schema.Unique == nil {
		return nil
	}
	id := *r.schema.ID(candidate)
	for rowID, existing := range r.rows {
		if rowID == id {
			continue
		}
		if field := r.schema.Unique(&existing, candidate); field != "" {
			return domain.Duplicate(r.schema.Entity, field, nil)
		}
	}
	return nil
}

func (r *CRUDRepository[E]) compareIDs(a, b *E) int {
	x, y := r.schema.ID(a), r.schema.ID(b)
	return bytes.Compare(x[:], y[:])
}

func (r *CRUDRepository[E]) field(f domain.Field) (func(*E) any, error) {
	get, ok := r.schema.Fields[f]
	if !ok {
		return nil, domain.UnknownField(r.schema.Entity, f)
	}
	return get, nil
}

func (r *CRUDRepository[E]) matcher(conditions []domain.Condition) (func(*E) bool, error) {
	type check struct {
		get func(*E) any
		c   domain.Condition
	}
	checks := make([]check, 0, len(conditions))
	for _, c := range conditions {
		get, err := r.field(c.Field)
		if err != nil {
			return nil, err
		}
		if !c.Op.Valid() {
			return nil, domain.Invalid("op", fmt.Sprintf("unsupported operator %q", c.Op))
		}
		checks = append(checks, check{get: get, c: c})
	}
	return func(e *E) bool {
		for _, ch := range checks {
			if !matches(ch.c.Op, ch.get(e), ch.c.Value) {
				return false
			}
		}
		return true
	}, nil
}

func fieldCondition(field domain.Field, value any) domain.Condition {
	if value == nil {
		return domain.IsNull(field)
	}
	return domain.Eq(field, value)
}

// matches follows SQL semantics: comparisons against NULL are never true.
func matches(op domain.Op, actual, want any) bool {
	actual = deref(actual)
	switch op {
	case domain.OpIsNull:
		return actual == nil
	case domain.OpNotNull:
		return actual != nil
	}
	c, ok := compareValues(actual, want)
	if !ok {
		return false
	}
	switch op {
	case domain.OpEq:
		return c == 0
	case domain.OpNe:
		return c != 0
	case domain.OpLt:
		return c < 0
	case domain.OpLte:
		return c <= 0
	case domain.OpGt:
		return c > 0
	case domain.OpGte:
		return c >= 0
	}
	return false
}

func deref(v any) any {
	switch x := v.(type) {
	case *string:
		if x == nil {
			return nil
		}
		return *x
	case *time.Time:
		if x == nil {
			return nil
		}
		return *x
	case *uuid.UUID:
		if x == nil {
			return nil
		}
		return *x
	case *bool:
		if x == nil {
			return nil
		}
		return *x
	}
	return v
}

// compareValues orders two values of the same kind. ok is false when either
// is NULL or the kinds differ.
func compareValues(a, b any) (int, bool) {
	a, b = deref(a), deref(b)
	if a == nil || b == nil {
		return 0, false
	}
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		return strings.Compare(x, y), ok
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		default:
			return 1, true
		}
	case time.Time:
		y, ok := b.(time.Time)
		return x.Compare(y), ok
	case uuid.UUID:
		y, ok := b.(uuid.UUID)
		return bytes.Compare(x[:], y[:]), ok
	}
	xi, okx := toInt64(a)
	yi, oky := toInt64(b)
	if !okx || !oky {
		return 0, false
	}
	switch {
	case xi < yi:
		return -1, true
	case xi > yi:
		return 1, true
	}
	return 0, true
}

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	}
	return 0, false
}

var (
	_ ports.Repository[domain.User]    = (*CRUDRepository[domain.User])(nil)
	_ ports.Repository[domain.Session] = (*CRUDRepository[domain.Session])(nil)
)
