// Package http provides HTTP server and handler implementations.
//
// This file turns query strings and request bodies into typed service
// arguments. Malformed input is reported as a *paramError and answered
// with 400.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"expenses/internal/core"
)

const (
	dateLayout = "2006-01-02"

	defaultPageSize = 10
	maxPageSize     = 100

	maxBodyBytes = 1 << 20
)

// paramError reports a malformed request parameter.
type paramError struct {
	Param string
	Msg   string
}

func (e *paramError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Msg)
}

func badParam(param, msg string) error {
	return &paramError{Param: param, Msg: msg}
}

// parseTime accepts YYYY-MM-DD or RFC3339. dateOnly reports which form
// matched.
func parseTime(s string) (t time.Time, dateOnly bool, err error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, true, nil
	}
	t, err = time.Parse(time.RFC3339Nano, s)
	return t, false, err
}

// monthBounds returns the first and last instant of now's month in UTC.
func monthBounds(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// ParseWindow reads start and end. Missing bounds default to the current
// month; a date-only end covers that whole day.
func ParseWindow(query url.Values, now time.Time) (start, end time.Time, err error) {
	start, end = monthBounds(now)

	if v := strings.TrimSpace(query.Get("start")); v != "" {
		t, _, perr := parseTime(v)
		if perr != nil {
			return time.Time{}, time.Time{}, badParam("start", "expected YYYY-MM-DD or RFC3339")
		}
		start = t
	}
	if v := strings.TrimSpace(query.Get("end")); v != "" {
		t, dateOnly, perr := parseTime(v)
		if perr != nil {
			return time.Time{}, time.Time{}, badParam("end", "expected YYYY-MM-DD or RFC3339")
		}
		if dateOnly {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		end = t
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, badParam("end", "before start")
	}
	return start, end, nil
}

// ParseCategoryFilter maps "", "all" to no filter.
func ParseCategoryFilter(query url.Values) *string {
	v := strings.TrimSpace(query.Get("category"))
	if v == "" || strings.EqualFold(v, "all") {
		return nil
	}
	return &v
}

func parsePositiveInt(query url.Values, name string, def int) (int, error) {
	v := strings.TrimSpace(query.Get(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, badParam(name, "expected a positive integer")
	}
	return n, nil
}

// ParseListQuery builds a ListQuery from the listing query string. pageSize
// is clamped to 100.
func ParseListQuery(query url.Values, now time.Time) (core.ListQuery, error) {
	start, end, err := ParseWindow(query, now)
	if err != nil {
		return core.ListQuery{}, err
	}
	sort, err := core.ParseSortKey(query.Get("sort"))
	if err != nil {
		return core.ListQuery{}, err
	}
	page, err := parsePositiveInt(query, "page", 1)
	if err != nil {
		return core.ListQuery{}, err
	}
	size, err := parsePositiveInt(query, "pageSize", defaultPageSize)
	if err != nil {
		return core.ListQuery{}, err
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return core.ListQuery{
		Start:      start,
		End:        end,
		CategoryID: ParseCategoryFilter(query),
		Sort:       sort,
		Page:       page,
		PageSize:   size,
	}, nil
}

// ParseActivityLimit returns 0 when limit is absent; the service applies
// its default.
func ParseActivityLimit(query url.Values) (int, error) {
	return parsePositiveInt(query, "limit", 0)
}

// RequestBodyParser reads a JSON or form-encoded body once and exposes its
// top-level fields as strings.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{contentType: r.Header.Get("Content-Type")}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse decodes JSON when the body looks like an object and falls back to
// form encoding otherwise. Numbers keep their literal text.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		p.jsonData = make(map[string]any)
		if err := dec.Decode(&p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}
	if trimmed[0] == '[' {
		p.err = errors.New("expected a JSON object")
		return p.err
	}

	p.formData, p.err = url.ParseQuery(string(trimmed))
	return p.err
}

// Get returns a field with control characters stripped, or "".
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseNewExpense reads {amount, categoryId, date, note}. A missing date
// means today. Amount errors surface as core.ErrInvalidAmount.
func ParseNewExpense(p *RequestBodyParser, now time.Time) (core.NewExpense, error) {
	if err := p.Parse(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return core.NewExpense{}, badParam("body", "too large")
		}
		return core.NewExpense{}, badParam("body", "malformed")
	}

	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		return core.NewExpense{}, err
	}

	date := now.UTC()
	if v := p.Get("date"); v != "" {
		t, _, perr := parseTime(v)
		if perr != nil {
			return core.NewExpense{}, badParam("date", "expected YYYY-MM-DD or RFC3339")
		}
		date = t
	}

	categoryID := p.Get("categoryId")
	if categoryID == "" {
		categoryID = p.Get("category_id")
	}

	return core.NewExpense{
		Amount:     amount,
		CategoryID: categoryID,
		Date:       date,
		Note:       p.Get("note"),
	}, nil
}
