package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
)

// Query is a PostgREST request under construction. Filters and modifiers are
// accumulated and sent when a terminal method runs.
type Query struct {
	client *APIClient
	table  string
	params url.Values
}

func newQuery(client *APIClient, table string) *Query {
	return &Query{client: client, table: table, params: url.Values{}}
}

// Select sets the column list, including embedded resources such as "*,profiles(name,email)".
func (q *Query) Select(columns string) *Query {
	q.params.Set("select", columns)
	return q
}

// Eq filters rows where column equals value.
func (q *Query) Eq(column, value string) *Query {
	q.params.Add(column, "eq."+value)
	return q
}

// ILike filters rows where column matches pattern case-insensitively. Use * or % as wildcard.
func (q *Query) ILike(column, pattern string) *Query {
	q.params.Add(column, "ilike."+strings.ReplaceAll(pattern, "%", "*"))
	return q
}

// In filters rows where column is one of values.
func (q *Query) In(column string, values ...string) *Query {
	quoted := make([]string, len(values))
	for i, v := range values {
		if strings.ContainsAny(v, ",()\"") {
			v = strconv.Quote(v)
		}
		quoted[i] = v
	}
	q.params.Add(column, "in.("+strings.Join(quoted, ",")+")")
	return q
}

// Order appends an ordering term.
func (q *Query) Order(column string, ascending bool) *Query {
	dir := "desc"
	if ascending {
		dir = "asc"
	}
	term := column + "." + dir
	if existing := q.params.Get("order"); existing != "" {
		term = existing + "," + term
	}
	q.params.Set("order", term)
	return q
}

// Range restricts the result to rows from..to inclusive (zero-based).
func (q *Query) Range(from, to int) *Query {
	if to < from {
		to = from
	}
	q.params.Set("offset", strconv.Itoa(from))
	q.params.Set("limit", strconv.Itoa(to-from+1))
	return q
}

// Limit caps the number of rows returned.
func (q *Query) Limit(n int) *Query {
	q.params.Set("limit", strconv.Itoa(n))
	return q
}

// Params exposes the encoded query parameters.
func (q *Query) Params() url.Values {
	out := url.Values{}
	for k, v := range q.params {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func (q *Query) path() string {
	return "/rest/v1/" + q.table
}

func (q *Query) request(ctx context.Context) *resty.Request {
	return q.client.request(ctx).SetQueryParamsFromValues(q.params)
}

// Execute runs a SELECT and decodes the JSON array into dst.
func (q *Query) Execute(ctx context.Context, dst any) error {
	if _, ok := q.params["select"]; !ok {
		q.Select("*")
	}
	resp, err := q.request(ctx).Get(q.path())
	if err != nil {
		return fmt.Errorf("select %s: %w", q.table, err)
	}
	return decodeBody(resp, dst)
}

// Single runs a SELECT that must match exactly one row and decodes it into dst.
func (q *Query) Single(ctx context.Context, dst any) error {
	if _, ok := q.params["select"]; !ok {
		q.Select("*")
	}
	resp, err := q.request(ctx).
		SetHeader("Accept", "application/vnd.pgrst.object+json").
		Get(q.path())
	if err != nil {
		return fmt.Errorf("select single %s: %w", q.table, err)
	}
	return decodeBody(resp, dst)
}

// Count returns the exact number of rows matching the filters without fetching them.
func (q *Query) Count(ctx context.Context) (int, error) {
	q.params.Set("select", "*")
	resp, err := q.request(ctx).
		SetHeader("Prefer", "count=exact").
		Head(q.path())
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", q.table, err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return 0, &APIError{Status: resp.StatusCode(), Message: http.StatusText(resp.StatusCode())}
	}
	return parseContentRange(resp.Header().Get("Content-Range"))
}

// Insert adds one row and decodes the stored representation (a JSON array) into dst.
func (q *Query) Insert(ctx context.Context, row any, dst any) error {
	resp, err := q.request(ctx).
		SetHeader("Prefer", "return=representation").
		SetBody([]any{row}).
		Post(q.path())
	if err != nil {
		return fmt.Errorf("insert %s: %w", q.table, err)
	}
	return decodeBody(resp, dst)
}

// Update patches the matching rows and decodes their new representation into dst.
func (q *Query) Update(ctx context.Context, patch any, dst any) error {
	resp, err := q.request(ctx).
		SetHeader("Prefer", "return=representation").
		SetBody(patch).
		Patch(q.path())
	if err != nil {
		return fmt.Errorf("update %s: %w", q.table, err)
	}
	return decodeBody(resp, dst)
}

// Delete removes the matching rows and decodes the deleted representation into dst.
func (q *Query) Delete(ctx context.Context, dst any) error {
	resp, err := q.request(ctx).
		SetHeader("Prefer", "return=representation").
		Delete(q.path())
	if err != nil {
		return fmt.Errorf("delete %s: %w", q.table, err)
	}
	return decodeBody(resp, dst)
}

func decodeBody(resp *resty.Response, dst any) error {
	if resp.StatusCode() >= http.StatusBadRequest {
		return decodeAPIError(resp)
	}
	if dst == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// parseContentRange extracts the total from headers like "0-4/12" or "*/0".
func parseContentRange(header string) (int, error) {
	idx := strings.LastIndex(header, "/")
	if idx < 0 || idx == len(header)-1 {
		return 0, fmt.Errorf("missing total in content-range %q", header)
	}
	total := header[idx+1:]
	if total == "*" {
		return 0, fmt.Errorf("count not provided in content-range %q", header)
	}
	n, err := strconv.Atoi(total)
	if err != nil {
		return 0, fmt.Errorf("parse content-range %q: %w", header, err)
	}
	return n, nil
}
