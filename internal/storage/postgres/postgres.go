// Package postgres is the PostgreSQL storage backend. Amounts live in a
// NUMERIC(12,2) column and cross the wire as decimal strings.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"expenses/internal/core"
	"expenses/internal/storage"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Repository struct {
	pool *pgxpool.Pool
}

var _ storage.Repository = (*Repository)(nil)

// New connects to dsn and applies pending migrations.
func New(ctx context.Context, dsn string) (*Repository, error) {
	if err := RunMigrations(dsn); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Repository{pool: pool}, nil
}

func RunMigrations(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer db.Close()

	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		return fmt.Errorf("create pgx driver: %w", err)
	}

	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error { return r.pool.Ping(ctx) }

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id::text, name FROM categories ORDER BY name COLLATE "C" ASC`)
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

const selectExpense = `
SELECT e.id::text, e.user_id, e.amount::text, e.category_id::text, e.date, COALESCE(e.note, ''), e.created_at, c.id::text, c.name
FROM expenses e JOIN categories c ON c.id = e.category_id`

func scanExpense(row pgx.Row) (core.ExpenseWithCategory, error) {
	var (
		e      core.ExpenseWithCategory
		amount string
	)
	if err := row.Scan(&e.ID, &e.UserID, &amount, &e.CategoryID, &e.Date, &e.Note, &e.CreatedAt, &e.Category.ID, &e.Category.Name); err != nil {
		return e, err
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return e, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	if e.Amount, err = core.MoneyFromDecimal(d); err != nil {
		return e, fmt.Errorf("stored amount %q: %w", amount, err)
	}
	e.Date = e.Date.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	return e, nil
}

func validUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

func (r *Repository) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	if !validUUID(id) {
		return core.Expense{}, storage.ErrNotFound
	}
	e, err := scanExpense(r.pool.QueryRow(ctx, selectExpense+` WHERE e.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Expense{}, storage.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %s: %w", id, err)
	}
	return e.Expense, nil
}

func windowFilter(userID string, start, end time.Time, categoryID *string) (string, []any) {
	where := []string{"e.user_id = $1", "e.date >= $2", "e.date <= $3"}
	args := []any{userID, start, end}
	if categoryID != nil {
		args = append(args, *categoryID)
		where = append(where, "e.category_id = $"+strconv.Itoa(len(args)))
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

func (r *Repository) ListExpenses(ctx context.Context, userID string, q core.ListQuery) ([]core.ExpenseWithCategory, int, error) {
	if q.CategoryID != nil && !validUUID(*q.CategoryID) {
		return []core.ExpenseWithCategory{}, 0, nil
	}
	where, args := windowFilter(userID, q.Start, q.End, q.CategoryID)

	var (
		total int
		items []core.ExpenseWithCategory
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := r.pool.QueryRow(gctx, `SELECT COUNT(*) FROM expenses e`+where, args...).Scan(&total); err != nil {
			return fmt.Errorf("count expenses: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		n := len(args)
		query := selectExpense + where +
			` ORDER BY ` + storage.OrderClause(q.Sort, "e.date", "e.amount") +
			fmt.Sprintf(` LIMIT $%d OFFSET $%d`, n+1, n+2)
		var err error
		items, err = r.queryExpenses(gctx, query, append(append([]any{}, args...), q.Limit(), q.Offset())...)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *Repository) ExpensesInWindow(ctx context.Context, userID string, start, end time.Time) ([]core.ExpenseWithCategory, error) {
	where, args := windowFilter(userID, start, end, nil)
	return r.queryExpenses(ctx, selectExpense+where+` ORDER BY e.date DESC`, args...)
}

func (r *Repository) queryExpenses(ctx context.Context, query string, args ...any) ([]core.ExpenseWithCategory, error) {
	rows, err := r.pool.Query(ctx, query, args...)
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

func (r *Repository) InsertExpense(ctx context.Context, e core.Expense) error {
	if !validUUID(e.CategoryID) {
		return core.ErrUnknownCategory
	}
	_, err := r.pool.Exec(ctx, `
INSERT INTO expenses (id, user_id, amount, category_id, date, note, created_at)
VALUES ($1, $2, $3::numeric, $4, $5, NULLIF($6, ''), $7)`,
		e.ID, e.UserID, e.Amount.String(), e.CategoryID, e.Date, e.Note, e.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return core.ErrUnknownCategory
		}
		return fmt.Errorf("insert expense: %w", err)
	}

	slog.DebugContext(ctx, "Expense saved to PostgreSQL",
		"id", e.ID,
		"amount", e.Amount.String(),
		"category_id", e.CategoryID)
	return nil
}

func (r *Repository) DeleteExpense(ctx context.Context, userID, id string) (bool, error) {
	if !validUUID(id) {
		return false, nil
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete expense %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) DeleteExpensesByUser(ctx context.Context, userID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM expenses WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete expenses for user: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) RecordActivity(ctx context.Context, a core.Activity) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO expense_activity (id, user_id, type, expense_id, count, occurred_at, recorded_at)
VALUES ($1, $2, $3, NULLIF($4, '')::uuid, $5, $6, $7)
ON CONFLICT (id) DO NOTHING`,
		a.ID, a.UserID, string(a.Type), a.ExpenseID, a.Count, a.OccurredAt, a.RecordedAt)
	if err != nil {
		return fmt.Errorf("record activity: %w", err)
	}
	return nil
}

func (r *Repository) ListActivity(ctx context.Context, userID string, limit int) ([]core.Activity, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id::text, user_id, type, COALESCE(expense_id::text, ''), count, occurred_at, recorded_at
FROM expense_activity
WHERE user_id = $1
ORDER BY occurred_at DESC
LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	out := []core.Activity{}
	for rows.Next() {
		var (
			a   core.Activity
			typ string
		)
		if err := rows.Scan(&a.ID, &a.UserID, &typ, &a.ExpenseID, &a.Count, &a.OccurredAt, &a.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a.Type = core.ChangeType(typ)
		a.OccurredAt = a.OccurredAt.UTC()
		a.RecordedAt = a.RecordedAt.UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}
