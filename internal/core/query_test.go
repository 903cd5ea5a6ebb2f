package core

import (
	"math"
	"testing"
	"time"
)

func TestParseSortKey(t *testing.T) {
	cases := []struct {
		in   string
		want SortKey
		ok   bool
	}{
		{"", SortDateDesc, true},
		{"date-desc", SortDateDesc, true},
		{"DATE-ASC", SortDateAsc, true},
		{"amount-desc", SortAmountDesc, true},
		{" amount-asc ", SortAmountAsc, true},
		{"name-asc", "", false},
	}
	for _, tc := range cases {
		got, err := ParseSortKey(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("%q expected %q, got %q (err=%v)", tc.in, tc.want, got, err)
		}
		if !tc.ok && err != ErrInvalidSortKey {
			t.Fatalf("%q expected ErrInvalidSortKey, got %v", tc.in, err)
		}
	}
}

func TestSortKeyFieldAndDirection(t *testing.T) {
	if SortAmountAsc.Field() != SortByAmount || SortAmountAsc.Descending() {
		t.Fatalf("amount-asc misclassified")
	}
	if SortDateDesc.Field() != SortByDate || !SortDateDesc.Descending() {
		t.Fatalf("date-desc misclassified")
	}
}

func TestListQueryValidateAndOffsets(t *testing.T) {
	q := ListQuery{Sort: SortDateDesc, Page: 1, PageSize: 10}
	if err := q.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if q.Offset() != 0 || q.Limit() != 10 {
		t.Fatalf("page 1: offset=%d limit=%d", q.Offset(), q.Limit())
	}
	q.Page = 3
	if q.Offset() != 20 {
		t.Fatalf("page 3: offset=%d", q.Offset())
	}

	for _, bad := range []ListQuery{
		{Sort: "bogus", Page: 1, PageSize: 1},
		{Sort: SortDateAsc, Page: 0, PageSize: 1},
		{Sort: SortDateAsc, Page: 1, PageSize: 0},
		{Sort: SortDateAsc, Page: math.MaxInt, PageSize: 100},
		{Sort: SortDateAsc, Page: 1e17, PageSize: 100},
	} {
		if err := bad.Validate(); err == nil {
			t.Fatalf("expected error for %+v", bad)
		}
	}
}

func TestNewPagination(t *testing.T) {
	cases := []struct {
		total, pageSize, pages int
	}{
		{25, 10, 3},
		{20, 10, 2},
		{0, 10, 0},
		{1, 1, 1},
	}
	for _, tc := range cases {
		p := NewPagination(1, tc.pageSize, tc.total)
		if p.TotalPages != tc.pages {
			t.Fatalf("total=%d size=%d expected %d pages, got %d", tc.total, tc.pageSize, tc.pages, p.TotalPages)
		}
	}
}

func TestSortExpensesAndPaginate(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC) }
	items := []ExpenseWithCategory{
		{Expense: Expense{ID: "a", Amount: Money{Cents: 300}, Date: day(2)}},
		{Expense: Expense{ID: "b", Amount: Money{Cents: 100}, Date: day(3)}},
		{Expense: Expense{ID: "c", Amount: Money{Cents: 200}, Date: day(1)}},
	}
	ids := func() string {
		s := ""
		for _, e := range items {
			s += e.ID
		}
		return s
	}

	SortExpenses(items, SortDateDesc)
	if ids() != "bac" {
		t.Fatalf("date-desc got %s", ids())
	}
	SortExpenses(items, SortDateAsc)
	if ids() != "cab" {
		t.Fatalf("date-asc got %s", ids())
	}
	SortExpenses(items, SortAmountDesc)
	if ids() != "acb" {
		t.Fatalf("amount-desc got %s", ids())
	}
	SortExpenses(items, SortAmountAsc)
	if ids() != "bca" {
		t.Fatalf("amount-asc got %s", ids())
	}

	if got := Paginate(items, 2, 10); len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("unexpected last page %v", got)
	}
	if got := Paginate(items, 5, 10); len(got) != 0 {
		t.Fatalf("expected empty page past the end, got %d", len(got))
	}
	if got := Paginate(items, -10, 10); len(got) != 0 {
		t.Fatalf("expected empty page for negative offset, got %d", len(got))
	}
	if got := Paginate(items, 1, math.MaxInt); len(got) != 2 {
		t.Fatalf("expected clamp on huge limit, got %d", len(got))
	}
}
