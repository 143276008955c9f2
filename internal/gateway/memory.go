package gateway

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"
)

// Memory is the demo-mode backend. Rows are canonicalised through JSON on
// the way in so that comparisons behave the same as against a remote store.
type Memory struct {
	mu     sync.RWMutex
	schema Schema
	tables map[string]map[string]memRow
	seq    int64
}

type memRow struct {
	seq  int64
	data Row
}

func NewMemory(schema Schema) *Memory {
	return &Memory{
		schema: schema,
		tables: make(map[string]map[string]memRow),
	}
}

func (m *Memory) rows(name string) (map[string]memRow, Table, error) {
	t, err := m.schema.table(name)
	if err != nil {
		return nil, Table{}, err
	}
	rows, ok := m.tables[name]
	if !ok {
		rows = make(map[string]memRow)
		m.tables[name] = rows
	}
	return rows, t, nil
}

func (m *Memory) Insert(ctx context.Context, table string, row Row) (Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := canonicalRow(row)
	if err != nil {
		return nil, err
	}
	id := data.ID()
	if id == "" {
		return nil, fmt.Errorf("%w: insert into %s without id", ErrBadQuery, table)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rows, t, err := m.rows(table)
	if err != nil {
		return nil, err
	}
	if _, exists := rows[id]; exists {
		return nil, fmt.Errorf("%w: %s.id=%s", ErrConflict, table, id)
	}
	if err := checkUnique(rows, t, id, data); err != nil {
		return nil, err
	}
	m.seq++
	rows[id] = memRow{seq: m.seq, data: data}
	return cloneRow(data), nil
}

func (m *Memory) Select(ctx context.Context, table string, q Query) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := q.validate(); err != nil {
		return nil, err
	}
	conds, err := canonicalConds(q.Conds)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	rows, _, err := m.rows(table)
	if err != nil {
		return nil, err
	}
	matched := make([]memRow, 0)
	for _, r := range rows {
		if matchAll(r.data, conds) {
			matched = append(matched, r)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].seq < matched[j].seq })
	if len(q.Orders) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			for _, o := range q.Orders {
				c := compareForSort(matched[i].data[o.Column], matched[j].data[o.Column])
				if c == 0 {
					continue
				}
				if o.Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	out := make([]Row, len(matched))
	for i, r := range matched {
		out[i] = cloneRow(r.data)
	}
	return out, nil
}

func (m *Memory) Update(ctx context.Context, table, id string, patch Row) (Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	p, err := canonicalRow(patch)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rows, t, err := m.rows(table)
	if err != nil {
		return nil, err
	}
	cur, ok := rows[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s.id=%s", ErrNotFound, table, id)
	}
	next := cloneRow(cur.data)
	for k, v := range p {
		next[k] = v
	}
	if err := checkUnique(rows, t, id, next); err != nil {
		return nil, err
	}
	rows[id] = memRow{seq: cur.seq, data: next}
	return cloneRow(next), nil
}

func (m *Memory) UpdateWhere(ctx context.Context, table string, q Query, patch Row) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := q.validate(); err != nil {
		return 0, err
	}
	if err := validatePatch(patch); err != nil {
		return 0, err
	}
	conds, err := canonicalConds(q.Conds)
	if err != nil {
		return 0, err
	}
	p, err := canonicalRow(patch)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rows, t, err := m.rows(table)
	if err != nil {
		return 0, err
	}
	updated := make(map[string]memRow)
	for id, r := range rows {
		if !matchAll(r.data, conds) {
			continue
		}
		next := cloneRow(r.data)
		for k, v := range p {
			next[k] = v
		}
		if err := checkUnique(rows, t, id, next); err != nil {
			return 0, err
		}
		updated[id] = memRow{seq: r.seq, data: next}
	}
	for id, r := range updated {
		rows[id] = r
	}
	return int64(len(updated)), nil
}

func (m *Memory) Delete(ctx context.Context, table, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rows, _, err := m.rows(table)
	if err != nil {
		return err
	}
	if _, ok := rows[id]; !ok {
		return fmt.Errorf("%w: %s.id=%s", ErrNotFound, table, id)
	}
	delete(rows, id)
	return nil
}

func (m *Memory) Ping(ctx context.Context) error {
	return ctx.Err()
}

func checkUnique(rows map[string]memRow, t Table, selfID string, data Row) error {
	for _, cols := range t.Unique {
		for id, other := range rows {
			if id == selfID {
				continue
			}
			same := true
			for _, col := range cols {
				if !equalValues(other.data[col], data[col]) {
					same = false
					break
				}
			}
			if same {
				return fmt.Errorf("%w: %s(%s)", ErrConflict, t.Name, strings.Join(cols, ","))
			}
		}
	}
	return nil
}

func canonical(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadQuery, err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadQuery, err)
	}
	return out, nil
}

func canonicalRow(r Row) (Row, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadQuery, err)
	}
	out := Row{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadQuery, err)
	}
	return out, nil
}

func canonicalConds(conds []Cond) ([]Cond, error) {
	out := make([]Cond, len(conds))
	for i, c := range conds {
		v, err := canonical(c.Value)
		if err != nil {
			return nil, err
		}
		out[i] = Cond{Column: c.Column, Op: c.Op, Value: v}
	}
	return out, nil
}

func cloneRow(r Row) Row {
	b, _ := json.Marshal(r)
	out := Row{}
	_ = json.Unmarshal(b, &out)
	return out
}

func matchAll(r Row, conds []Cond) bool {
	for _, c := range conds {
		if !match(r[c.Column], c) {
			return false
		}
	}
	return true
}

func match(v any, c Cond) bool {
	switch c.Op {
	case OpEq:
		return equalValues(v, c.Value)
	case OpNeq:
		return v != nil && !equalValues(v, c.Value)
	case OpLt, OpLte, OpGt, OpGte:
		n, ok := compareValues(v, c.Value)
		if !ok {
			return false
		}
		switch c.Op {
		case OpLt:
			return n < 0
		case OpLte:
			return n <= 0
		case OpGt:
			return n > 0
		default:
			return n >= 0
		}
	case OpILike:
		s, ok := v.(string)
		sub, _ := c.Value.(string)
		return ok && strings.Contains(strings.ToLower(s), strings.ToLower(sub))
	case OpIn:
		vals, _ := c.Value.([]any)
		for _, want := range vals {
			if equalValues(v, want) {
				return true
			}
		}
		return false
	case OpIsNull:
		return v == nil
	}
	return false
}

func equalValues(a, b any) bool {
	if n, ok := compareValues(a, b); ok {
		return n == 0
	}
	return reflect.DeepEqual(a, b)
}

// compareValues orders two canonical JSON values of the same kind.
// Strings that both parse as RFC 3339 timestamps compare chronologically.
func compareValues(a, b any) (int, bool) {
	switch x := a.(type) {
	case float64:
		y, ok := b.(float64)
		if !ok {
			return 0, false
		}
		return cmp.Compare(x, y), true
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		if tx, err := time.Parse(time.RFC3339Nano, x); err == nil {
			if ty, err := time.Parse(time.RFC3339Nano, y); err == nil {
				return tx.Compare(ty), true
			}
		}
		return strings.Compare(x, y), true
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
	case nil:
		if b == nil {
			return 0, true
		}
	}
	return 0, false
}

// compareForSort puts nulls first and falls back to the textual form for
// mixed kinds.
func compareForSort(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if n, ok := compareValues(a, b); ok {
		return n
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
