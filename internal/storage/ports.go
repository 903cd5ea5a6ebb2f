package storage

import (
	"context"
	"errors"
	"time"

	"expenses/internal/core"
)

// ErrNotFound is returned when a row addressed by id does not exist.
var ErrNotFound = errors.New("not found")

// Ports implemented by every storage backend.
type (
	CategoryReader interface {
		// ListCategories returns all categories sorted by name ascending.
		ListCategories(ctx context.Context) ([]core.Category, error)
	}

	ExpenseReader interface {
		GetExpense(ctx context.Context, id string) (core.Expense, error)
		// ListExpenses returns one page of the user's expenses matching q and
		// the number of matching rows ignoring pagination.
		ListExpenses(ctx context.Context, userID string, q core.ListQuery) ([]core.ExpenseWithCategory, int, error)
		// ExpensesInWindow returns every expense of the user in [start, end].
		ExpensesInWindow(ctx context.Context, userID string, start, end time.Time) ([]core.ExpenseWithCategory, error)
	}

	ExpenseWriter interface {
		InsertExpense(ctx context.Context, e core.Expense) error
		// DeleteExpense removes the row only if it belongs to userID and
		// reports whether a row was removed.
		DeleteExpense(ctx context.Context, userID, id string) (bool, error)
		DeleteExpensesByUser(ctx context.Context, userID string) (int64, error)
	}

	ActivityStore interface {
		RecordActivity(ctx context.Context, a core.Activity) error
		// ListActivity returns the user's most recent activity first.
		ListActivity(ctx context.Context, userID string, limit int) ([]core.Activity, error)
	}

	Repository interface {
		CategoryReader
		ExpenseReader
		ExpenseWriter
		ActivityStore
		Ping(ctx context.Context) error
		Close() error
	}
)

// OrderClause renders the ORDER BY expression for a sort key. Only the
// requested column is used; ties keep storage order.
func OrderClause(k core.SortKey, dateCol, amountCol string) string {
	col := dateCol
	if k.Field() == core.SortByAmount {
		col = amountCol
	}
	if k.Descending() {
		return col + " DESC"
	}
	return col + " ASC"
}
