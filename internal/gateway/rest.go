package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// REST talks to a PostgREST endpoint (the Supabase data API). Requests are
// not retried; a transport failure or 5xx is reported as ErrUnavailable.
type REST struct {
	client *resty.Client
	schema Schema
	logger *zap.Logger
}

func NewREST(baseURL, apiKey string, timeout time.Duration, schema Schema, logger *zap.Logger) *REST {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")+"/rest/v1").
		SetTimeout(timeout).
		SetHeader("apikey", apiKey).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &REST{client: client, schema: schema, logger: logger}
}

func (r *REST) Insert(ctx context.Context, table string, row Row) (Row, error) {
	if _, err := r.schema.table(table); err != nil {
		return nil, err
	}
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetBody(row).
		Post("/" + table)
	rows, err := r.decode(resp, err, "insert", table)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: insert into %s returned no row", ErrUnavailable, table)
	}
	return rows[0], nil
}

func (r *REST) Select(ctx context.Context, table string, q Query) ([]Row, error) {
	if _, err := r.schema.table(table); err != nil {
		return nil, err
	}
	if err := q.validate(); err != nil {
		return nil, err
	}
	if q.empty() {
		return []Row{}, nil
	}
	params := filterParams(q)
	params.Set("select", "*")
	if len(q.Orders) > 0 {
		parts := make([]string, len(q.Orders))
		for i, o := range q.Orders {
			dir := "asc"
			if o.Desc {
				dir = "desc"
			}
			parts[i] = o.Column + "." + dir
		}
		params.Set("order", strings.Join(parts, ","))
	}
	recheck := hasLiteralStar(q)
	if q.Limit > 0 && !recheck {
		params.Set("limit", fmt.Sprint(q.Limit))
	}

	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParamsFromValues(params).
		Get("/" + table)
	rows, err := r.decode(resp, err, "select", table)
	if err != nil || !recheck {
		return rows, err
	}
	return recheckLike(rows, q), nil
}

func (r *REST) Update(ctx context.Context, table, id string, patch Row) (Row, error) {
	if _, err := r.schema.table(table); err != nil {
		return nil, err
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParam("id", "eq."+id).
		SetBody(patch).
		Patch("/" + table)
	rows, err := r.decode(resp, err, "update", table)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s.id=%s", ErrNotFound, table, id)
	}
	return rows[0], nil
}

func (r *REST) UpdateWhere(ctx context.Context, table string, q Query, patch Row) (int64, error) {
	if _, err := r.schema.table(table); err != nil {
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
	if hasLiteralStar(q) {
		return 0, fmt.Errorf("%w: ilike with '*' is select-only", ErrBadQuery)
	}
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParamsFromValues(filterParams(q)).
		SetBody(patch).
		Patch("/" + table)
	rows, err := r.decode(resp, err, "update_where", table)
	if err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

func (r *REST) Delete(ctx context.Context, table, id string) error {
	if _, err := r.schema.table(table); err != nil {
		return err
	}
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParam("id", "eq."+id).
		Delete("/" + table)
	rows, err := r.decode(resp, err, "delete", table)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: %s.id=%s", ErrNotFound, table, id)
	}
	return nil
}

// Ping reads a single user id, which exercises auth and connectivity.
func (r *REST) Ping(ctx context.Context) error {
	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParam("select", "id").
		SetQueryParam("limit", "1").
		Get("/users")
	_, err = r.decode(resp, err, "ping", "users")
	return err
}

func (r *REST) decode(resp *resty.Response, err error, op, table string) ([]Row, error) {
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		r.logger.Warn("postgrest request failed",
			zap.String("op", op),
			zap.String("table", table),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, op, table, err)
	}

	status := resp.StatusCode()
	switch {
	case status == http.StatusConflict:
		return nil, fmt.Errorf("%w: %s %s: %s", ErrConflict, op, table, apiMessage(resp.Body()))
	case status == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, op, table)
	case status >= http.StatusInternalServerError:
		r.logger.Warn("postgrest server error",
			zap.String("op", op),
			zap.String("table", table),
			zap.Int("status_code", status),
		)
		return nil, fmt.Errorf("%w: %s %s: status %d", ErrUnavailable, op, table, status)
	case status >= http.StatusBadRequest:
		return nil, fmt.Errorf("%w: %s %s: status %d: %s", ErrBadQuery, op, table, status, apiMessage(resp.Body()))
	}

	body := resp.Body()
	if len(body) == 0 {
		return []Row{}, nil
	}
	var rows []Row
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("%w: %s %s: decode response: %v", ErrUnavailable, op, table, err)
	}
	if rows == nil {
		rows = []Row{}
	}
	return rows, nil
}

func apiMessage(body []byte) string {
	var e struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &e); err != nil || e.Message == "" {
		return strings.TrimSpace(string(body))
	}
	if e.Code != "" {
		return e.Code + " " + e.Message
	}
	return e.Message
}

func filterParams(q Query) url.Values {
	params := url.Values{}
	for _, c := range q.Conds {
		params.Add(c.Column, filterExpr(c))
	}
	return params
}

func filterExpr(c Cond) string {
	switch c.Op {
	case OpILike:
		return "ilike.*" + likeEscaper.Replace(c.Value.(string)) + "*"
	case OpIn:
		vals, _ := listValues(c.Value)
		quoted := make([]string, len(vals))
		for i, v := range vals {
			quoted[i] = quoteListItem(formatValue(v))
		}
		return "in.(" + strings.Join(quoted, ",") + ")"
	case OpIsNull:
		return "is.null"
	}
	return string(c.Op) + "." + formatValue(c.Value)
}

// likeEscaper turns a literal substring into a LIKE pattern. PostgREST reads
// every '*' as '%', so a literal '*' goes out as '_' and Select rechecks the
// rows it gets back.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`, `*`, `_`)

func hasLiteralStar(q Query) bool {
	for _, c := range q.Conds {
		if s, ok := c.Value.(string); ok && c.Op == OpILike && strings.Contains(s, "*") {
			return true
		}
	}
	return false
}

func recheckLike(rows []Row, q Query) []Row {
	out := rows[:0]
	for _, row := range rows {
		keep := true
		for _, c := range q.Conds {
			if c.Op == OpILike && !match(row[c.Column], c) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, row)
		}
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case *time.Time:
		if x == nil {
			return "null"
		}
		return x.UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprint(v)
}

func quoteListItem(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
