package domain

// Field names a queryable attribute of an entity. Each entity declares its
// own closed set of Field constants; repositories reject anything else.
type Field string

func (f Field) String() string { return string(f) }

// Op is a comparison operator usable in a Condition.
type Op string

const (
	OpEq      Op = "="
	OpNe      Op = "<>"
	OpLt      Op = "<"
	OpLte     Op = "<="
	OpGt      Op = ">"
	OpGte     Op = ">="
	OpIsNull  Op = "IS NULL"
	OpNotNull Op = "IS NOT NULL"
)

// Unary reports whether the operator takes no value.
func (o Op) Unary() bool {
	return o == OpIsNull || o == OpNotNull
}

func (o Op) Valid() bool {
	switch o {
	case OpEq, OpNe, OpLt, OpLte, OpGt, OpGte, OpIsNull, OpNotNull:
		return true
	}
	return false
}

type Condition struct {
	Field Field
	Op    Op
	Value any
}

func Eq(field Field, value any) Condition { return Condition{Field: field, Op: OpEq, Value: value} }
func Ne(field Field, value any) Condition { return Condition{Field: field, Op: OpNe, Value: value} }
func Gt(field Field, value any) Condition { return Condition{Field: field, Op: OpGt, Value: value} }
func Lte(field Field, value any) Condition { return Condition{Field: field, Op: OpLte, Value: value} }
func IsNull(field Field) Condition { return Condition{Field: field, Op: OpIsNull} }
func NotNull(field Field) Condition { return Condition{Field: field, Op: OpNotNull} }

const (
	DefaultPageLimit = 100
	MaxPageLimit     = 1000
)

// Page is an offset window over an ordered result set.
type Page struct {
	Skip  int
	Limit int
}

// Normalize applies the default limit and clamps negative offsets.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Skip < 0 {
		p.Skip = 0
	}
	return p
}

// Order sorts by a single field.
type Order struct {
	Field Field
	Desc  bool
}

func Asc(field Field) *Order { return &Order{Field: field} }
func Desc(field Field) *Order { return &Order{Field: field, Desc: true} }
