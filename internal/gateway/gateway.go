// Package gateway is the single persistence boundary. Every storage access
// in the application goes through a Gateway, so the in-memory demo store,
// the PostgREST client and the SQL store are interchangeable.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
)

var (
	ErrNotFound     = errors.New("gateway: row not found")
	ErrConflict     = errors.New("gateway: unique constraint violation")
	ErrUnavailable  = errors.New("gateway: backend unavailable")
	ErrUnknownTable = errors.New("gateway: unknown table")
	ErrBadQuery     = errors.New("gateway: bad query")
)

// Row is one record keyed by column name. Every row carries a string "id".
type Row map[string]any

func (r Row) ID() string {
	id, _ := r["id"].(string)
	return id
}

type Op string

const (
	OpEq     Op = "eq"
	OpNeq    Op = "neq"
	OpLt     Op = "lt"
	OpLte    Op = "lte"
	OpGt     Op = "gt"
	OpGte    Op = "gte"
	OpILike  Op = "ilike" // case-insensitive substring
	OpIn     Op = "in"
	OpIsNull Op = "is"
)

type Cond struct {
	Column string
	Op     Op
	Value  any
}

func Eq(col string, v any) Cond     { return Cond{Column: col, Op: OpEq, Value: v} }
func Neq(col string, v any) Cond    { return Cond{Column: col, Op: OpNeq, Value: v} }
func Lt(col string, v any) Cond     { return Cond{Column: col, Op: OpLt, Value: v} }
func Lte(col string, v any) Cond    { return Cond{Column: col, Op: OpLte, Value: v} }
func Gt(col string, v any) Cond     { return Cond{Column: col, Op: OpGt, Value: v} }
func Gte(col string, v any) Cond    { return Cond{Column: col, Op: OpGte, Value: v} }
func ILike(col, substr string) Cond { return Cond{Column: col, Op: OpILike, Value: substr} }
func In(col string, values any) Cond {
	return Cond{Column: col, Op: OpIn, Value: values}
}
func IsNull(col string) Cond { return Cond{Column: col, Op: OpIsNull} }

type Order struct {
	Column string
	Desc   bool
}

// Query is a conjunction of conditions with optional ordering and limit.
type Query struct {
	Conds  []Cond
	Orders []Order
	Limit  int
}

func Where(conds ...Cond) Query {
	return Query{Conds: conds}
}

func (q Query) And(c Cond) Query {
	q.Conds = append(append([]Cond(nil), q.Conds...), c)
	return q
}

func (q Query) OrderBy(col string, desc bool) Query {
	q.Orders = append(append([]Order(nil), q.Orders...), Order{Column: col, Desc: desc})
	return q
}

func (q Query) WithLimit(n int) Query {
	q.Limit = n
	return q
}

var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// validate rejects unknown operators and anything that is not a plain
// column identifier.
func (q Query) validate() error {
	for _, c := range q.Conds {
		if !identRe.MatchString(c.Column) {
			return fmt.Errorf("%w: column %q", ErrBadQuery, c.Column)
		}
		switch c.Op {
		case OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte, OpIsNull:
		case OpILike:
			if _, ok := c.Value.(string); !ok {
				return fmt.Errorf("%w: ilike on %q needs a string", ErrBadQuery, c.Column)
			}
		case OpIn:
			if _, ok := listValues(c.Value); !ok {
				return fmt.Errorf("%w: in on %q needs a slice", ErrBadQuery, c.Column)
			}
		default:
			return fmt.Errorf("%w: operator %q", ErrBadQuery, c.Op)
		}
	}
	for _, o := range q.Orders {
		if !identRe.MatchString(o.Column) {
			return fmt.Errorf("%w: order column %q", ErrBadQuery, o.Column)
		}
	}
	if q.Limit < 0 {
		return fmt.Errorf("%w: negative limit", ErrBadQuery)
	}
	return nil
}

// empty reports whether the query can never match, i.e. it has an IN
// condition with no values.
func (q Query) empty() bool {
	for _, c := range q.Conds {
		if c.Op != OpIn {
			continue
		}
		if vals, _ := listValues(c.Value); len(vals) == 0 {
			return true
		}
	}
	return false
}

func listValues(v any) ([]any, bool) {
	if v == nil {
		return nil, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func validatePatch(p Row) error {
	if len(p) == 0 {
		return fmt.Errorf("%w: empty patch", ErrBadQuery)
	}
	for col := range p {
		if !identRe.MatchString(col) {
			return fmt.Errorf("%w: column %q", ErrBadQuery, col)
		}
		if col == "id" {
			return fmt.Errorf("%w: id is immutable", ErrBadQuery)
		}
	}
	return nil
}

// Gateway is the storage contract shared by all backends.
//
// UpdateWhere applies patch to every row matching q and reports how many
// rows changed. Including the expected current value of a column in q makes
// it a compare-and-set.
type Gateway interface {
	Insert(ctx context.Context, table string, row Row) (Row, error)
	Select(ctx context.Context, table string, q Query) ([]Row, error)
	Update(ctx context.Context, table, id string, patch Row) (Row, error)
	UpdateWhere(ctx context.Context, table string, q Query, patch Row) (int64, error)
	Delete(ctx context.Context, table, id string) error
	Ping(ctx context.Context) error
}

// Table describes one collection. Unique lists column sets that must be
// unique in addition to id. Model returns a pointer to the gorm row model
// and is only needed by the SQL backend.
type Table struct {
	Name   string
	Unique [][]string
	Model  func() any
}

type Schema map[string]Table

func NewSchema(tables ...Table) Schema {
	s := make(Schema, len(tables))
	for _, t := range tables {
		s[t.Name] = t
	}
	return s
}

func (s Schema) table(name string) (Table, error) {
	t, ok := s[name]
	if !ok {
		return Table{}, fmt.Errorf("%w: %s", ErrUnknownTable, name)
	}
	return t, nil
}
