package repository

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bloodconnect/internal/domain"
	"bloodconnect/internal/gateway"
)

// StringList is a list of ids stored as a JSON array in SQL backends.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(value any) error {
	var b []byte
	switch v := value.(type) {
	case nil:
		*l = StringList{}
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("string list: unsupported type %T", value)
	}
	out := StringList{}
	if len(b) > 0 {
		if err := json.Unmarshal(b, &out); err != nil {
			return err
		}
	}
	*l = out
	return nil
}

func (StringList) GormDataType() string { return "text" }

func encodeRow(model any) (gateway.Row, error) {
	b, err := json.Marshal(model)
	if err != nil {
		return nil, err
	}
	row := gateway.Row{}
	if err := json.Unmarshal(b, &row); err != nil {
		return nil, err
	}
	return row, nil
}

func decodeRow(row gateway.Row, model any) error {
	b, err := json.Marshal(row)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, model)
}

func decodeRows[M any](rows []gateway.Row) ([]M, error) {
	out := make([]M, 0, len(rows))
	for _, r := range rows {
		var m M
		if err := decodeRow(r, &m); err != nil {
			return nil, fmt.Errorf("decode row %s: %w", r.ID(), err)
		}
		out = append(out, m)
	}
	return out, nil
}

// mapErr converts gateway errors into domain error kinds.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gateway.ErrNotFound):
		return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	case errors.Is(err, gateway.ErrConflict):
		return fmt.Errorf("%w: %v", domain.ErrConflict, err)
	case errors.Is(err, gateway.ErrUnavailable):
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	return err
}

func utcNow() time.Time { return time.Now().UTC() }

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func strVal(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// orEmpty keeps JSON output as [] rather than null.
func orEmpty(l []string) []string {
	if l == nil {
		return []string{}
	}
	return l
}

func isNotFound(err error) bool { return errors.Is(err, domain.ErrNotFound) }

func isConflict(err error) bool { return errors.Is(err, domain.ErrConflict) }
