package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/core"
)

var fixedNow = time.Date(2025, 2, 14, 15, 30, 0, 0, time.UTC)

func TestParseWindow(t *testing.T) {
	tests := []struct {
		name      string
		query     url.Values
		wantStart time.Time
		wantEnd   time.Time
		wantErr   bool
	}{
		{
			name:      "defaults to current month",
			query:     url.Values{},
			wantStart: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, 2, 28, 23, 59, 59, 999999999, time.UTC),
		},
		{
			name:      "date-only end covers the whole day",
			query:     url.Values{"start": {"2025-01-01"}, "end": {"2025-01-31"}},
			wantStart: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, 1, 31, 23, 59, 59, 999999999, time.UTC),
		},
		{
			name:      "rfc3339 bounds are exact",
			query:     url.Values{"start": {"2025-01-01T08:00:00Z"}, "end": {"2025-01-01T09:00:00Z"}},
			wantStart: time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
		},
		{
			name:      "single day window",
			query:     url.Values{"start": {"2025-01-05"}, "end": {"2025-01-05"}},
			wantStart: time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, 1, 5, 23, 59, 59, 999999999, time.UTC),
		},
		{name: "malformed start", query: url.Values{"start": {"01/05/2025"}}, wantErr: true},
		{name: "malformed end", query: url.Values{"end": {"soon"}}, wantErr: true},
		{name: "end before start", query: url.Values{"start": {"2025-01-05"}, "end": {"2025-01-04"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := ParseWindow(tt.query, fixedNow)
			if tt.wantErr {
				var pe *paramError
				assert.True(t, errors.As(err, &pe), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.wantStart.Equal(start), "start = %v", start)
			assert.True(t, tt.wantEnd.Equal(end), "end = %v", end)
		})
	}
}

func TestParseCategoryFilter(t *testing.T) {
	assert.Nil(t, ParseCategoryFilter(url.Values{}))
	assert.Nil(t, ParseCategoryFilter(url.Values{"category": {"all"}}))
	assert.Nil(t, ParseCategoryFilter(url.Values{"category": {" ALL "}}))

	got := ParseCategoryFilter(url.Values{"category": {"cat-1"}})
	require.NotNil(t, got)
	assert.Equal(t, "cat-1", *got)
}

func TestParseListQuery(t *testing.T) {
	q, err := ParseListQuery(url.Values{}, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, core.SortDateDesc, q.Sort)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 10, q.PageSize)
	assert.Nil(t, q.CategoryID)

	q, err = ParseListQuery(url.Values{"sort": {"amount-asc"}, "page": {"3"}, "pageSize": {"1000"}}, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, core.SortAmountAsc, q.Sort)
	assert.Equal(t, 3, q.Page)
	assert.Equal(t, 100, q.PageSize)

	_, err = ParseListQuery(url.Values{"sort": {"random"}}, fixedNow)
	assert.ErrorIs(t, err, core.ErrInvalidSortKey)

	for _, bad := range []url.Values{{"page": {"0"}}, {"page": {"x"}}, {"pageSize": {"-2"}}} {
		_, err = ParseListQuery(bad, fixedNow)
		var pe *paramError
		assert.True(t, errors.As(err, &pe), "%v: %v", bad, err)
	}
}

func TestParseActivityLimit(t *testing.T) {
	n, err := ParseActivityLimit(url.Values{})
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = ParseActivityLimit(url.Values{"limit": {"50"}})
	require.NoError(t, err)
	assert.Equal(t, 50, n)

	_, err = ParseActivityLimit(url.Values{"limit": {"0"}})
	assert.Error(t, err)
}

func newParser(body, contentType string) *RequestBodyParser {
	req := httptest.NewRequest(http.MethodPost, "/api/expenses", strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	return NewRequestBodyParser(httptest.NewRecorder(), req)
}

func TestRequestBodyParser(t *testing.T) {
	p := newParser(`{"amount": 12.345, "note": "  a\u0000b  ", "flag": true, "nested": {"x": 1}}`, "application/json")
	require.NoError(t, p.Parse())
	assert.True(t, p.IsJSON())
	assert.Equal(t, "12.345", p.Get("amount"), "numbers keep their literal text")
	assert.Equal(t, "ab", p.Get("note"))
	assert.Equal(t, "true", p.Get("flag"))
	assert.Equal(t, "", p.Get("nested"))
	assert.Equal(t, "", p.Get("missing"))

	p = newParser("amount=4%2C20&note=hi", "application/x-www-form-urlencoded")
	require.NoError(t, p.Parse())
	assert.False(t, p.IsJSON())
	assert.Equal(t, "4,20", p.Get("amount"))

	assert.Error(t, newParser(`[1,2]`, "application/json").Parse())
	assert.Error(t, newParser(`{"a":`, "application/json").Parse())
}

func TestParseNewExpense(t *testing.T) {
	n, err := ParseNewExpense(newParser(`{"amount":"12.345","categoryId":"c1","date":"2025-01-09","note":"x"}`, "application/json"), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, int64(1235), n.Amount.Cents, "half-up to cents")
	assert.Equal(t, "c1", n.CategoryID)
	assert.True(t, time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC).Equal(n.Date))
	assert.Equal(t, "x", n.Note)

	n, err = ParseNewExpense(newParser(`{"amount":3,"category_id":"c2"}`, "application/json"), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "c2", n.CategoryID)
	assert.True(t, fixedNow.Equal(n.Date), "missing date means now")

	_, err = ParseNewExpense(newParser(`{"amount":"0","categoryId":"c1"}`, "application/json"), fixedNow)
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = ParseNewExpense(newParser(`{"amount":"1","date":"tomorrow"}`, "application/json"), fixedNow)
	var pe *paramError
	assert.True(t, errors.As(err, &pe))
	assert.Equal(t, "date", pe.Param)
}

func TestParseNewExpenseBodyTooLarge(t *testing.T) {
	body := `{"note":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	_, err := ParseNewExpense(newParser(body, "application/json"), fixedNow)
	var pe *paramError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "too large", pe.Msg)
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "a\tb\nc", sanitizeInput("  a\tb\nc\x07 "))
}
