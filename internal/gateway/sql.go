package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQL stores rows through gorm using the typed models registered in the
// schema. It works against both Postgres and SQLite.
type SQL struct {
	db     *gorm.DB
	schema Schema
}

func NewSQL(db *gorm.DB, schema Schema) *SQL {
	return &SQL{db: db, schema: schema}
}

// Migrate creates or alters every table in the schema.
func (s *SQL) Migrate(ctx context.Context) error {
	models := make([]any, 0, len(s.schema))
	for _, t := range s.schema {
		if t.Model == nil {
			return fmt.Errorf("gateway: table %s has no model", t.Name)
		}
		models = append(models, t.Model())
	}
	return s.db.WithContext(ctx).AutoMigrate(models...)
}

func (s *SQL) model(name string) (Table, error) {
	t, err := s.schema.table(name)
	if err != nil {
		return Table{}, err
	}
	if t.Model == nil {
		return Table{}, fmt.Errorf("gateway: table %s has no model", name)
	}
	return t, nil
}

func (s *SQL) Insert(ctx context.Context, table string, row Row) (Row, error) {
	t, err := s.model(table)
	if err != nil {
		return nil, err
	}
	m := t.Model()
	if err := rowInto(row, m); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, classifySQL(err, "insert", table)
	}
	return rowFrom(m)
}

func (s *SQL) Select(ctx context.Context, table string, q Query) ([]Row, error) {
	t, err := s.model(table)
	if err != nil {
		return nil, err
	}
	if err := q.validate(); err != nil {
		return nil, err
	}
	if q.empty() {
		return []Row{}, nil
	}

	elem := reflect.TypeOf(t.Model()).Elem()
	dest := reflect.New(reflect.SliceOf(elem))

	tx := s.db.WithContext(ctx).Model(t.Model())
	if len(q.Conds) > 0 {
		tx = tx.Clauses(whereClause(q.Conds))
	}
	for _, o := range q.Orders {
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: o.Column}, Desc: o.Desc})
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if err := tx.Find(dest.Interface()).Error; err != nil {
		return nil, classifySQL(err, "select", table)
	}

	items := dest.Elem()
	out := make([]Row, 0, items.Len())
	for i := 0; i < items.Len(); i++ {
		r, err := rowFrom(items.Index(i).Addr().Interface())
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *SQL) Update(ctx context.Context, table, id string, patch Row) (Row, error) {
	t, err := s.model(table)
	if err != nil {
		return nil, err
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	res := s.db.WithContext(ctx).Model(t.Model()).Where("id = ?", id).Updates(map[string]any(patch))
	if res.Error != nil {
		return nil, classifySQL(res.Error, "update", table)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: %s.id=%s", ErrNotFound, table, id)
	}

	m := t.Model()
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(m).Error; err != nil {
		return nil, classifySQL(err, "update", table)
	}
	return rowFrom(m)
}

func (s *SQL) UpdateWhere(ctx context.Context, table string, q Query, patch Row) (int64, error) {
	t, err := s.model(table)
	if err != nil {
		return 0, err
	}
	if err := q.validate(); err != nil {
		return 0, err
	}
	if err := validatePatch(patch); err != nil {
		return 0, err
	}
	if q.empty() {
		return 0, nil
	}
	if len(q.Conds) == 0 {
		return 0, fmt.Errorf("%w: update_where on %s without conditions", ErrBadQuery, table)
	}
	res := s.db.WithContext(ctx).Model(t.Model()).Clauses(whereClause(q.Conds)).Updates(map[string]any(patch))
	if res.Error != nil {
		return 0, classifySQL(res.Error, "update_where", table)
	}
	return res.RowsAffected, nil
}

func (s *SQL) Delete(ctx context.Context, table, id string) error {
	t, err := s.model(table)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(t.Model())
	if res.Error != nil {
		return classifySQL(res.Error, "delete", table)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s.id=%s", ErrNotFound, table, id)
	}
	return nil
}

func (s *SQL) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func whereClause(conds []Cond) clause.Where {
	exprs := make([]clause.Expression, 0, len(conds))
	for _, c := range conds {
		col := clause.Column{Name: c.Column}
		switch c.Op {
		case OpEq:
			exprs = append(exprs, clause.Eq{Column: col, Value: c.Value})
		case OpNeq:
			exprs = append(exprs, clause.Neq{Column: col, Value: c.Value})
		case OpLt:
			exprs = append(exprs, clause.Lt{Column: col, Value: c.Value})
		case OpLte:
			exprs = append(exprs, clause.Lte{Column: col, Value: c.Value})
		case OpGt:
			exprs = append(exprs, clause.Gt{Column: col, Value: c.Value})
		case OpGte:
			exprs = append(exprs, clause.Gte{Column: col, Value: c.Value})
		case OpILike:
			pattern := "%" + sqlLikeEscaper.Replace(strings.ToLower(c.Value.(string))) + "%"
			exprs = append(exprs, clause.Expr{SQL: `LOWER(?) LIKE ? ESCAPE '\'`, Vars: []any{col, pattern}})
		case OpIn:
			vals, _ := listValues(c.Value)
			exprs = append(exprs, clause.IN{Column: col, Values: vals})
		case OpIsNull:
			exprs = append(exprs, clause.Eq{Column: col, Value: nil})
		}
	}
	return clause.Where{Exprs: exprs}
}

var sqlLikeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func rowInto(r Row, model any) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadQuery, err)
	}
	if err := json.Unmarshal(b, model); err != nil {
		return fmt.Errorf("%w: %v", ErrBadQuery, err)
	}
	return nil
}

func rowFrom(model any) (Row, error) {
	b, err := json.Marshal(model)
	if err != nil {
		return nil, err
	}
	out := Row{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func classifySQL(err error, op, table string) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %s", ErrNotFound, op, table)
	}
	if isUniqueConstraintError(err) {
		return fmt.Errorf("%w: %s %s: %v", ErrConflict, op, table, err)
	}
	return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, op, table, err)
}

func isUniqueConstraintError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique failed")
}
