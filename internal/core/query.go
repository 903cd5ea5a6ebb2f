package core

import (
	"math"
	"sort"
	"strings"
	"time"
)

const (
	SortDateDesc   SortKey = "date-desc"
	SortDateAsc    SortKey = "date-asc"
	SortAmountDesc SortKey = "amount-desc"
	SortAmountAsc  SortKey = "amount-asc"
)

const (
	SortByDate   SortField = "date"
	SortByAmount SortField = "amount"
)

type (
	// SortKey selects the single ordering applied to an expense listing.
	SortKey string

	SortField string

	// ListQuery describes one page of a caller's expenses inside a window.
	// A nil CategoryID means no category filter.
	ListQuery struct {
		Start      time.Time
		End        time.Time
		CategoryID *string
		Sort       SortKey
		Page       int
		PageSize   int
	}

	Pagination struct {
		Page       int
		PageSize   int
		Total      int
		TotalPages int
	}

	ExpensePage struct {
		Data       []ExpenseWithCategory
		Pagination Pagination
	}
)

// ParseSortKey maps the external representation to a SortKey. An empty
// string selects the default, newest first.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return SortDateDesc, nil
	case SortDateDesc, SortDateAsc, SortAmountDesc, SortAmountAsc:
		return k, nil
	default:
		return "", ErrInvalidSortKey
	}
}

func (k SortKey) Valid() bool {
	switch k {
	case SortDateDesc, SortDateAsc, SortAmountDesc, SortAmountAsc:
		return true
	}
	return false
}

func (k SortKey) Field() SortField {
	if k == SortAmountAsc || k == SortAmountDesc {
		return SortByAmount
	}
	return SortByDate
}

func (k SortKey) Descending() bool {
	return k == SortDateDesc || k == SortAmountDesc
}

func (q ListQuery) Validate() error {
	if !q.Sort.Valid() {
		return ErrInvalidSortKey
	}
	if q.Page < 1 || q.PageSize < 1 {
		return ErrInvalidPage
	}
	// Offset must stay representable.
	if q.Page-1 > math.MaxInt/q.PageSize {
		return ErrInvalidPage
	}
	return nil
}

func (q ListQuery) Offset() int { return (q.Page - 1) * q.PageSize }

func (q ListQuery) Limit() int { return q.PageSize }

// NewPagination computes TotalPages as ceil(total/pageSize).
func NewPagination(page, pageSize, total int) Pagination {
	p := Pagination{Page: page, PageSize: pageSize, Total: total}
	if pageSize > 0 {
		p.TotalPages = (total + pageSize - 1) / pageSize
	}
	return p
}

// SortExpenses orders items in place by the given key. The sort is stable, so
// ties keep their incoming order.
func SortExpenses(items []ExpenseWithCategory, key SortKey) {
	desc := key.Descending()
	byAmount := key.Field() == SortByAmount
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if byAmount {
			if desc {
				return a.Amount.Cents > b.Amount.Cents
			}
			return a.Amount.Cents < b.Amount.Cents
		}
		if desc {
			return a.Date.After(b.Date)
		}
		return a.Date.Before(b.Date)
	})
}

// Paginate returns the [offset, offset+limit) slice of items, clamped.
func Paginate[T any](items []T, offset, limit int) []T {
	if offset < 0 || offset >= len(items) || limit <= 0 {
		return []T{}
	}
	end := offset + limit
	if end > len(items) || end < offset {
		end = len(items)
	}
	return items[offset:end]
}
