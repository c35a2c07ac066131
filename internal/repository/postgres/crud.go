package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/njprem/web-starter-api/internal/domain"
	"github.com/njprem/web-starter-api/internal/repository/ports"
)

// Table maps an entity onto a relational table. Column names come from the
// entity's db tags; only names listed here ever reach generated SQL.
type Table[E any] struct {
	Name   string
	Entity string
	// Columns are selected, returned and scanned, in order.
	Columns []string
	// Insert are written by Create, Update by Update.
	Insert []string
	Update []string
	// Fields is the queryable vocabulary exposed to callers.
	Fields map[domain.Field]string
	// Touch names a column set to now() on every update.
	Touch        string
	DefaultOrder string
	// BeforeCreate runs before the insert, typically to assign an id.
	BeforeCreate func(*E)
}

// CRUDRepository implements ports.Repository for any table described by a
// Table. Entity-specific repositories embed it and add their own queries.
type CRUDRepository[E any] struct {
	tx    *TxManager
	table Table[E]
	cols  string
}

func NewCRUDRepository[E any](tx *TxManager, table Table[E]) *CRUDRepository[E] {
	if table.DefaultOrder == "" {
		table.DefaultOrder = "id"
	}
	return &CRUDRepository[E]{
		tx:    tx,
		table: table,
		cols:  strings.Join(table.Columns, ", "),
	}
}

func (r *CRUDRepository[E]) Get(ctx context.Context, id uuid.UUID) (*E, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, r.cols, r.table.Name)
	return r.getOne(ctx, "get", query, id)
}

func (r *CRUDRepository[E]) GetMulti(ctx context.Context, page domain.Page, order *domain.Order) ([]E, error) {
	orderBy, err := r.orderBy(order)
	if err != nil {
		return nil, err
	}
	page = page.Normalize()
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY %s LIMIT $1 OFFSET $2`, r.cols, r.table.Name, orderBy)
	return r.selectMany(ctx, "get multi", query, page.Limit, page.Skip)
}

func (r *CRUDRepository[E]) Create(ctx context.Context, entity *E) (*E, error) {
	if r.table.BeforeCreate != nil {
		r.table.BeforeCreate(entity)
	}
	placeholders := make([]string, len(r.table.Insert))
	for i, col := range r.table.Insert {
		placeholders[i] = ":" + col
	}
	query := fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES (%s) RETURNING %s`,
		r.table.Name,
		strings.Join(r.table.Insert, ", "),
		strings.Join(placeholders, ", "),
		r.cols,
	)
	if err := r.namedScan(ctx, query, entity); err != nil {
		return nil, translateWriteError(err, r.table.Entity, "create "+r.table.Name)
	}
	return entity, nil
}

func (r *CRUDRepository[E]) Update(ctx context.Context, entity *E) (*E, error) {
	sets := make([]string, 0, len(r.table.Update)+1)
	for _, col := range r.table.Update {
		sets = append(sets, col+" = :"+col)
	}
	if r.table.Touch != "" {
		sets = append(sets, r.table.Touch+" = now()")
	}
	query := fmt.Sprintf(
		`UPDATE %s SET %s WHERE id = :id RETURNING %s`,
		r.table.Name,
		strings.Join(sets, ", "),
		r.cols,
	)
	if err := r.namedScan(ctx, query, entity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(r.table.Entity, entityID(entity))
		}
		return nil, translateWriteError(err, r.table.Entity, "update "+r.table.Name)
	}
	return entity, nil
}

func (r *CRUDRepository[E]) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table.Name)
	n, err := r.exec(ctx, "delete", query, id)
	return n > 0, err
}

func (r *CRUDRepository[E]) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, r.table.Name)
	var exists bool
	if err := sqlx.GetContext(ctx, r.tx.conn(ctx), &exists, query, id); err != nil {
		return false, wrapDBError(err, "exists "+r.table.Name)
	}
	return exists, nil
}

func (r *CRUDRepository[E]) Count(ctx context.Context, conditions ...domain.Condition) (int64, error) {
	where, args, err := r.where(conditions)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s%s`, r.table.Name, where)
	var count int64
	if err := sqlx.GetContext(ctx, r.tx.conn(ctx), &count, query, args...); err != nil {
		return 0, wrapDBError(err, "count "+r.table.Name)
	}
	return count, nil
}

func (r *CRUDRepository[E]) GetByField(ctx context.Context, field domain.Field, value any) (*E, error) {
	where, args, err := r.where([]domain.Condition{fieldCondition(field, value)})
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY %s LIMIT 1`, r.cols, r.table.Name, where, r.table.DefaultOrder)
	return r.getOne(ctx, "get by field", query, args...)
}

func (r *CRUDRepository[E]) GetMultiByField(ctx context.Context, field domain.Field, value any, page domain.Page) ([]E, error) {
	where, args, err := r.where([]domain.Condition{fieldCondition(field, value)})
	if err != nil {
		return nil, err
	}
	page = page.Normalize()
	n := len(args)
	query := fmt.Sprintf(
		`SELECT %s FROM %s%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		r.cols, r.table.Name, where, r.table.DefaultOrder, n+1, n+2,
	)
	args = append(args, page.Limit, page.Skip)
	return r.selectMany(ctx, "get multi by field", query, args...)
}

func (r *CRUDRepository[E]) DeleteByField(ctx context.Context, field domain.Field, value any) (int64, error) {
	where, args, err := r.where([]domain.Condition{fieldCondition(field, value)})
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`DELETE FROM %s%s`, r.table.Name, where)
	return r.exec(ctx, "delete by field", query, args...)
}

func (r *CRUDRepository[E]) column(field domain.Field) (string, error) {
	col, ok := r.table.Fields[field]
	if !ok {
		return "", domain.UnknownField(r.table.Entity, field)
	}
	return col, nil
}

func (r *CRUDRepository[E]) orderBy(order *domain.Order) (string, error) {
	if order == nil {
		return r.table.DefaultOrder, nil
	}
	col, err := r.column(order.Field)
	if err != nil {
		return "", err
	}
	dir := "ASC"
	if order.Desc {
		dir = "DESC"
	}
	if col == "id" {
		return "id " + dir, nil
	}
	return fmt.Sprintf("%s %s, id %s", col, dir, dir), nil
}

// where renders conditions as a WHERE clause with positional arguments.
func (r *CRUDRepository[E]) where(conditions []domain.Condition) (string, []any, error) {
	if len(conditions) == 0 {
		return "", nil, nil
	}
	clauses := make([]string, 0, len(conditions))
	args := make([]any, 0, len(conditions))
	for _, c := range conditions {
		col, err := r.column(c.Field)
		if err != nil {
			return "", nil, err
		}
		if !c.Op.Valid() {
			return "", nil, domain.Invalid("op", fmt.Sprintf("unsupported operator %q", c.Op))
		}
		if c.Op.Unary() {
			clauses = append(clauses, fmt.Sprintf("%s %s", col, c.Op))
			continue
		}
		args = append(args, c.Value)
		clauses = append(clauses, fmt.Sprintf("%s %s $%d", col, c.Op, len(args)))
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func (r *CRUDRepository[E]) getOne(ctx context.Context, operation, query string, args ...any) (*E, error) {
	var entity E
	if err := sqlx.GetContext(ctx, r.tx.conn(ctx), &entity, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapDBError(err, operation+" "+r.table.Name)
	}
	return &entity, nil
}

func (r *CRUDRepository[E]) selectMany(ctx context.Context, operation, query string, args ...any) ([]E, error) {
	items := make([]E, 0)
	if err := sqlx.SelectContext(ctx, r.tx.conn(ctx), &items, query, args...); err != nil {
		return nil, wrapDBError(err, operation+" "+r.table.Name)
	}
	return items, nil
}

func (r *CRUDRepository[E]) exec(ctx context.Context, operation, query string, args ...any) (int64, error) {
	result, err := r.tx.conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, wrapDBError(err, operation+" "+r.table.Name)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, wrapDBError(err, operation+" "+r.table.Name)
	}
	return affected, nil
}

func (r *CRUDRepository[E]) namedScan(ctx context.Context, query string, entity *E) error {
	bound, args, err := sqlx.Named(query, entity)
	if err != nil {
		return err
	}
	bound = sqlx.Rebind(sqlx.DOLLAR, bound)
	return r.tx.conn(ctx).QueryRowxContext(ctx, bound, args...).StructScan(entity)
}

func fieldCondition(field domain.Field, value any) domain.Condition {
	if value == nil {
		return domain.IsNull(field)
	}
	return domain.Eq(field, value)
}

// entityID extracts the primary key for error reporting.
func entityID(entity any) any {
	switch e := entity.(type) {
	case *domain.User:
		return e.ID
	case *domain.Session:
		return e.ID
	}
	return "unknown"
}

var (
	_ ports.Repository[domain.User]    = (*CRUDRepository[domain.User])(nil)
	_ ports.Repository[domain.Session] = (*CRUDRepository[domain.Session])(nil)
)
