// Package storagetest holds the behavioural test suite every storage backend
// must pass.
package storagetest

import (
	"context"
	"math"
	"time"

	"expenses/internal/core"
	"expenses/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

// RepositorySuite runs against a fresh, empty repository per test. Backends
// embed it and set NewRepository.
type RepositorySuite struct {
	suite.Suite
	NewRepository func() storage.Repository

	repo storage.Repository
	ctx  context.Context
	food core.Category
	bill core.Category
}

var (
	windowStart = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	windowEnd   = time.Date(2024, 5, 31, 23, 59, 59, 0, time.UTC)
)

func (s *RepositorySuite) SetupTest() {
	s.ctx = context.Background()
	s.repo = s.NewRepository()

	cats, err := s.repo.ListCategories(s.ctx)
	s.Require().NoError(err)
	s.Require().NotEmpty(cats)
	for _, c := range cats {
		switch c.Name {
		case "Food & Dining":
			s.food = c
		case "Bills & Utilities":
			s.bill = c
		}
	}
	s.Require().NotEmpty(s.food.ID, "seeded categories must include Food & Dining")
	s.Require().NotEmpty(s.bill.ID, "seeded categories must include Bills & Utilities")
}

func (s *RepositorySuite) TearDownTest() {
	if s.repo != nil {
		s.NoError(s.repo.Close())
	}
}

func (s *RepositorySuite) insert(userID string, cents int64, cat core.Category, day int) core.Expense {
	e := core.Expense{
		ID:         uuid.NewString(),
		UserID:     userID,
		Amount:     core.Money{Cents: cents},
		CategoryID: cat.ID,
		Date:       time.Date(2024, 5, day, 12, 0, 0, 0, time.UTC),
		CreatedAt:  time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC),
	}
	s.Require().NoError(s.repo.InsertExpense(s.ctx, e))
	return e
}

func (s *RepositorySuite) query(sort core.SortKey, page, size int) core.ListQuery {
	return core.ListQuery{Start: windowStart, End: windowEnd, Sort: sort, Page: page, PageSize: size}
}

func (s *RepositorySuite) TestPing() {
	s.NoError(s.repo.Ping(s.ctx))
}

func (s *RepositorySuite) TestCategoriesSortedByName() {
	cats, err := s.repo.ListCategories(s.ctx)
	s.Require().NoError(err)
	s.Len(cats, len(storage.DefaultCategories))
	for i := 1; i < len(cats); i++ {
		s.LessOrEqual(cats[i-1].Name, cats[i].Name)
	}
	s.Equal("Bills & Utilities", cats[0].Name)
}

func (s *RepositorySuite) TestInsertAndGet() {
	e := core.Expense{
		ID:         uuid.NewString(),
		UserID:     "u1",
		Amount:     core.Money{Cents: 1250},
		CategoryID: s.food.ID,
		Date:       time.Date(2024, 5, 3, 9, 30, 0, 0, time.UTC),
		Note:       "lunch",
		CreatedAt:  time.Date(2024, 5, 3, 9, 31, 0, 0, time.UTC),
	}
	s.Require().NoError(s.repo.InsertExpense(s.ctx, e))

	got, err := s.repo.GetExpense(s.ctx, e.ID)
	s.Require().NoError(err)
	s.Equal(e.UserID, got.UserID)
	s.Equal(int64(1250), got.Amount.Cents)
	s.Equal("lunch", got.Note)
	s.True(e.Date.Equal(got.Date), "date %v != %v", e.Date, got.Date)
}

func (s *RepositorySuite) TestGetMissing() {
	_, err := s.repo.GetExpense(s.ctx, uuid.NewString())
	s.ErrorIs(err, storage.ErrNotFound)
}

func (s *RepositorySuite) TestInsertUnknownCategory() {
	err := s.repo.InsertExpense(s.ctx, core.Expense{
		ID:         uuid.NewString(),
		UserID:     "u1",
		Amount:     core.Money{Cents: 100},
		CategoryID: uuid.NewString(),
		Date:       windowStart,
		CreatedAt:  windowStart,
	})
	s.ErrorIs(err, core.ErrUnknownCategory)
}

func (s *RepositorySuite) TestListScopesToUserAndWindow() {
	s.insert("u1", 100, s.food, 2)
	s.insert("u1", 200, s.bill, 10)
	s.insert("u2", 300, s.food, 10)
	// Outside the window.
	outside := core.Expense{
		ID: uuid.NewString(), UserID: "u1", Amount: core.Money{Cents: 999}, CategoryID: s.food.ID,
		Date: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), CreatedAt: windowStart,
	}
	s.Require().NoError(s.repo.InsertExpense(s.ctx, outside))

	items, total, err := s.repo.ListExpenses(s.ctx, "u1", s.query(core.SortDateDesc, 1, 10))
	s.Require().NoError(err)
	s.Equal(2, total)
	s.Require().Len(items, 2)
	s.Equal(int64(200), items[0].Amount.Cents)
	s.Equal("Bills & Utilities", items[0].Category.Name)
	for _, it := range items {
		s.Equal("u1", it.UserID)
	}
}

func (s *RepositorySuite) TestWindowBoundsInclusive() {
	for _, d := range []time.Time{windowStart, windowEnd} {
		e := core.Expense{
			ID: uuid.NewString(), UserID: "u1", Amount: core.Money{Cents: 100}, CategoryID: s.food.ID,
			Date: d, CreatedAt: d,
		}
		s.Require().NoError(s.repo.InsertExpense(s.ctx, e))
	}
	items, err := s.repo.ExpensesInWindow(s.ctx, "u1", windowStart, windowEnd)
	s.Require().NoError(err)
	s.Len(items, 2)
}

func (s *RepositorySuite) TestCategoryFilter() {
	s.insert("u1", 100, s.food, 2)
	s.insert("u1", 200, s.bill, 3)
	s.insert("u1", 300, s.food, 4)

	q := s.query(core.SortDateAsc, 1, 10)
	q.CategoryID = &s.food.ID
	items, total, err := s.repo.ListExpenses(s.ctx, "u1", q)
	s.Require().NoError(err)
	s.Equal(2, total)
	s.Require().Len(items, 2)
	s.Equal(int64(100), items[0].Amount.Cents)
	s.Equal(int64(300), items[1].Amount.Cents)
}

func (s *RepositorySuite) TestSortKeys() {
	s.insert("u1", 500, s.food, 1)
	s.insert("u1", 100, s.food, 2)
	s.insert("u1", 300, s.food, 3)

	cases := []struct {
		key  core.SortKey
		want []int64
	}{
		{core.SortDateDesc, []int64{300, 100, 500}},
		{core.SortDateAsc, []int64{500, 100, 300}},
		{core.SortAmountDesc, []int64{500, 300, 100}},
		{core.SortAmountAsc, []int64{100, 300, 500}},
	}
	for _, tc := range cases {
		s.Run(string(tc.key), func() {
			items, _, err := s.repo.ListExpenses(s.ctx, "u1", s.query(tc.key, 1, 10))
			s.Require().NoError(err)
			got := make([]int64, len(items))
			for i, it := range items {
				got[i] = it.Amount.Cents
			}
			s.Equal(tc.want, got)
		})
	}
}

func (s *RepositorySuite) TestPagination() {
	for day := 1; day <= 25; day++ {
		s.insert("u1", int64(day*100), s.food, day)
	}

	items, total, err := s.repo.ListExpenses(s.ctx, "u1", s.query(core.SortDateDesc, 3, 10))
	s.Require().NoError(err)
	s.Equal(25, total)
	s.Len(items, 5)

	items, total, err = s.repo.ListExpenses(s.ctx, "u1", s.query(core.SortDateDesc, 4, 10))
	s.Require().NoError(err)
	s.Equal(25, total)
	s.Empty(items)

	far := s.query(core.SortDateDesc, math.MaxInt/100+1, 100)
	s.Require().NoError(far.Validate())
	items, total, err = s.repo.ListExpenses(s.ctx, "u1", far)
	s.Require().NoError(err)
	s.Equal(25, total)
	s.Empty(items, "a page far past the end must not wrap to the first page")
}

func (s *RepositorySuite) TestDeleteOwnership() {
	e := s.insert("u1", 100, s.food, 2)

	ok, err := s.repo.DeleteExpense(s.ctx, "u2", e.ID)
	s.Require().NoError(err)
	s.False(ok)

	_, err = s.repo.GetExpense(s.ctx, e.ID)
	s.Require().NoError(err, "row must survive a foreign delete")

	ok, err = s.repo.DeleteExpense(s.ctx, "u1", e.ID)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.repo.DeleteExpense(s.ctx, "u1", e.ID)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RepositorySuite) TestDeleteExpensesByUser() {
	s.insert("u1", 100, s.food, 2)
	s.insert("u1", 200, s.food, 3)
	s.insert("u2", 300, s.food, 3)

	n, err := s.repo.DeleteExpensesByUser(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal(int64(2), n)

	items, err := s.repo.ExpensesInWindow(s.ctx, "u2", windowStart, windowEnd)
	s.Require().NoError(err)
	s.Len(items, 1)

	n, err = s.repo.DeleteExpensesByUser(s.ctx, "u1")
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *RepositorySuite) TestActivity() {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	first := core.Activity{
		ID:          uuid.NewString(),
		ChangeEvent: core.ChangeEvent{Type: core.ChangeCreated, UserID: "u1", ExpenseID: uuid.NewString(), OccurredAt: base},
		RecordedAt:  base,
	}
	second := core.Activity{
		ID:          uuid.NewString(),
		ChangeEvent: core.ChangeEvent{Type: core.ChangeSeeded, UserID: "u1", Count: 12, OccurredAt: base.Add(time.Minute)},
		RecordedAt:  base.Add(time.Minute),
	}
	s.Require().NoError(s.repo.RecordActivity(s.ctx, first))
	s.Require().NoError(s.repo.RecordActivity(s.ctx, second))
	// Redelivery of the same event is a no-op.
	s.Require().NoError(s.repo.RecordActivity(s.ctx, first))

	got, err := s.repo.ListActivity(s.ctx, "u1", 10)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(core.ChangeSeeded, got[0].Type)
	s.Equal(12, got[0].Count)
	s.Equal(first.ExpenseID, got[1].ExpenseID)

	got, err = s.repo.ListActivity(s.ctx, "u2", 10)
	s.Require().NoError(err)
	s.Empty(got)
}
