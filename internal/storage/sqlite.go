package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"expenses/internal/core"

	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width so lexical order on the TEXT column matches
// chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (creating if needed) the database file at dbPath
// and applies pending migrations.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := sqliteDSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func sqliteDSN(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t, nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := []core.Category{}
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const selectExpense = `SELECT e.id, e.user_id, e.amount_cents, e.category_id, e.date, COALESCE(e.note, ''), e.created_at, c.id, c.name
FROM expenses e JOIN categories c ON c.id = e.category_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(s rowScanner) (core.ExpenseWithCategory, error) {
	var (
		e               core.ExpenseWithCategory
		date, createdAt string
	)
	if err := s.Scan(&e.ID, &e.UserID, &e.Amount.Cents, &e.CategoryID, &date, &e.Note, &createdAt, &e.Category.ID, &e.Category.Name); err != nil {
		return e, err
	}
	var err error
	if e.Date, err = parseTime(date); err != nil {
		return e, err
	}
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return e, err
	}
	return e, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, selectExpense+` WHERE e.id = ?`, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %s: %w", id, err)
	}
	return e.Expense, nil
}

func windowFilter(userID string, q core.ListQuery) (string, []any) {
	where := []string{"e.user_id = ?", "e.date >= ?", "e.date <= ?"}
	args := []any{userID, formatTime(q.Start), formatTime(q.End)}
	if q.CategoryID != nil {
		where = append(where, "e.category_id = ?")
		args = append(args, *q.CategoryID)
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

// ListExpenses runs the count and page queries concurrently.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID string, q core.ListQuery) ([]core.ExpenseWithCategory, int, error) {
	where, args := windowFilter(userID, q)

	var (
		total int
		items []core.ExpenseWithCategory
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := r.db.QueryRowContext(gctx, `SELECT COUNT(*) FROM expenses e`+where, args...).Scan(&total)
		if err != nil {
			return fmt.Errorf("count expenses: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		query := selectExpense + where + ` ORDER BY ` + OrderClause(q.Sort, "e.date", "e.amount_cents") + ` LIMIT ? OFFSET ?`
		pageArgs := append(append([]any{}, args...), q.Limit(), q.Offset())
		var err error
		items, err = r.queryExpenses(gctx, query, pageArgs...)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *SQLiteRepository) ExpensesInWindow(ctx context.Context, userID string, start, end time.Time) ([]core.ExpenseWithCategory, error) {
	where, args := windowFilter(userID, core.ListQuery{Start: start, End: end})
	return r.queryExpenses(ctx, selectExpense+where+` ORDER BY e.date DESC`, args...)
}

func (r *SQLiteRepository) queryExpenses(ctx context.Context, query string, args ...any) ([]core.ExpenseWithCategory, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	out := []core.ExpenseWithCategory{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) InsertExpense(ctx context.Context, e core.Expense) error {
	var note any
	if e.Note != "" {
		note = e.Note
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (id, user_id, amount_cents, category_id, date, note, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Amount.Cents, e.CategoryID, formatTime(e.Date), note, formatTime(e.CreatedAt))
	if err != nil {
		if isForeignKeyErr(err) {
			return core.ErrUnknownCategory
		}
		return fmt.Errorf("insert expense: %w", err)
	}

	slog.DebugContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"amount_cents", e.Amount.Cents,
		"category_id", e.CategoryID)
	return nil
}

func isForeignKeyErr(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint")
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, userID, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete expense %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) DeleteExpensesByUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete expenses for user: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) RecordActivity(ctx context.Context, a core.Activity) error {
	var expenseID any
	if a.ExpenseID != "" {
		expenseID = a.ExpenseID
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO expense_activity (id, user_id, type, expense_id, count, occurred_at, recorded_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, string(a.Type), expenseID, a.Count, formatTime(a.OccurredAt), formatTime(a.RecordedAt))
	if err != nil {
		return fmt.Errorf("record activity: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListActivity(ctx context.Context, userID string, limit int) ([]core.Activity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, type, COALESCE(expense_id, ''), count, occurred_at, recorded_at
		 FROM expense_activity WHERE user_id = ? ORDER BY occurred_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	out := []core.Activity{}
	for rows.Next() {
		var (
			a                  core.Activity
			typ                string
			occurred, recorded string
		)
		if err := rows.Scan(&a.ID, &a.UserID, &typ, &a.ExpenseID, &a.Count, &occurred, &recorded); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a.Type = core.ChangeType(typ)
		if a.OccurredAt, err = parseTime(occurred); err != nil {
			return nil, err
		}
		if a.RecordedAt, err = parseTime(recorded); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
