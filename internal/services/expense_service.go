package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"expenses/internal/cache"
	"expenses/internal/core"
	applog "expenses/internal/log"
	"expenses/internal/storage"

	"github.com/google/uuid"
)

// Store is the subset of storage the service needs.
type Store interface {
	storage.CategoryReader
	storage.ExpenseReader
	storage.ExpenseWriter
	storage.ActivityStore
}

// Publisher announces committed writes to other processes.
type Publisher interface {
	PublishChange(ctx context.Context, ev core.ChangeEvent) error
}

// categoriesScope keys the global category list in the read-through cache.
// Real callers never have an empty id, so it cannot collide with a user.
const categoriesScope = ""

const (
	DefaultActivityLimit = 20
	MaxActivityLimit     = 100
)

// ExpenseService runs every expense operation on behalf of an explicit
// caller. Reads go through the per-user cache when one is configured; writes
// evict the caller's entries before returning and then publish a change event.
type ExpenseService struct {
	store     Store
	cache     *cache.ReadThrough
	publisher Publisher
	logger    *applog.StructuredLogger

	now   func() time.Time
	newID func() string
}

// NewExpenseService wires the service. rt and publisher may be nil.
func NewExpenseService(store Store, rt *cache.ReadThrough, publisher Publisher, logger *applog.Logger) *ExpenseService {
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}
	return &ExpenseService{
		store:     store,
		cache:     rt,
		publisher: publisher,
		logger:    applog.NewStructuredLogger(logger.WithComponent(applog.ComponentExpense)),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// cached runs load through the read-through cache when configured.
func cached[T any](ctx context.Context, s *ExpenseService, scope, key string, load func(context.Context) (T, error)) (T, error) {
	if s.cache == nil {
		return load(ctx)
	}
	return cache.Load(ctx, s.cache, scope, key, load)
}

func (s *ExpenseService) Categories(ctx context.Context, caller *core.Caller) ([]core.Category, error) {
	if _, err := requireCaller(caller); err != nil {
		return nil, err
	}
	return cached(ctx, s, categoriesScope, "categories", func(ctx context.Context) ([]core.Category, error) {
		cats, err := s.store.ListCategories(ctx)
		if err != nil {
			return nil, fmt.Errorf("list categories: %w", err)
		}
		return cats, nil
	})
}

func windowKey(start, end time.Time) string {
	return strconv.FormatInt(start.UnixNano(), 10) + "|" + strconv.FormatInt(end.UnixNano(), 10)
}

// listKey identifies one listing page. Category ids are quoted since they
// are free text.
func listKey(q core.ListQuery) string {
	category := "*"
	if q.CategoryID != nil {
		category = strconv.Quote(*q.CategoryID)
	}
	return fmt.Sprintf("list|%s|%s|%s|%d|%d", windowKey(q.Start, q.End), category, q.Sort, q.Page, q.PageSize)
}

func (s *ExpenseService) ListExpenses(ctx context.Context, caller *core.Caller, q core.ListQuery) (core.ExpensePage, error) {
	c, err := requireCaller(caller)
	if err != nil {
		return core.ExpensePage{}, err
	}
	if err := q.Validate(); err != nil {
		return core.ExpensePage{}, err
	}

	return cached(ctx, s, c.ID, listKey(q), func(ctx context.Context) (core.ExpensePage, error) {
		items, total, err := s.store.ListExpenses(ctx, c.ID, q)
		if err != nil {
			return core.ExpensePage{}, fmt.Errorf("list expenses: %w", err)
		}
		return core.ExpensePage{
			Data:       items,
			Pagination: core.NewPagination(q.Page, q.PageSize, total),
		}, nil
	})
}

// Summary aggregates the caller's whole window. See core.Summarize for the
// grouping rules.
func (s *ExpenseService) Summary(ctx context.Context, caller *core.Caller, start, end time.Time) (core.DashboardSummary, error) {
	c, err := requireCaller(caller)
	if err != nil {
		return core.DashboardSummary{}, err
	}

	return cached(ctx, s, c.ID, "summary|"+windowKey(start, end), func(ctx context.Context) (core.DashboardSummary, error) {
		items, err := s.store.ExpensesInWindow(ctx, c.ID, start, end)
		if err != nil {
			return core.DashboardSummary{}, fmt.Errorf("load window: %w", err)
		}
		return core.Summarize(items), nil
	})
}

// CreateExpense validates and stores one expense owned by the caller.
func (s *ExpenseService) CreateExpense(ctx context.Context, caller *core.Caller, n core.NewExpense) (string, error) {
	c, err := requireCaller(caller)
	if err != nil {
		return "", err
	}
	id, err := s.insert(ctx, c, n)
	if err != nil {
		return "", err
	}

	s.afterWrite(ctx, core.ChangeEvent{Type: core.ChangeCreated, UserID: c.ID, ExpenseID: id, Count: 1})
	s.logger.LogExpenseCreated(ctx, c.ID, id, n.Amount.Cents, n.CategoryID)
	return id, nil
}

func (s *ExpenseService) insert(ctx context.Context, c core.Caller, n core.NewExpense) (string, error) {
	if err := n.Validate(); err != nil {
		return "", err
	}
	e := core.Expense{
		ID:         s.newID(),
		UserID:     c.ID,
		Amount:     n.Amount,
		CategoryID: n.CategoryID,
		Date:       n.Date.UTC(),
		Note:       n.Note,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.store.InsertExpense(ctx, e); err != nil {
		if errors.Is(err, core.ErrUnknownCategory) {
			return "", core.ErrUnknownCategory
		}
		return "", fmt.Errorf("save expense: %w", err)
	}
	return e.ID, nil
}

func (s *ExpenseService) DeleteExpense(ctx context.Context, caller *core.Caller, id string) error {
	c, err := requireCaller(caller)
	if err != nil {
		return err
	}
	if _, err := loadOwned(ctx, s.store, c, id); err != nil {
		return err
	}

	deleted, err := s.store.DeleteExpense(ctx, c.ID, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if !deleted {
		// Lost a race with a concurrent delete.
		return core.ErrNotFoundOrUnauthorized
	}

	s.afterWrite(ctx, core.ChangeEvent{Type: core.ChangeDeleted, UserID: c.ID, ExpenseID: id, Count: 1})
	return nil
}

// ClearAllExpenses deletes every expense of the caller and returns how many
// were removed. Clearing an empty account returns 0.
func (s *ExpenseService) ClearAllExpenses(ctx context.Context, caller *core.Caller) (int64, error) {
	c, err := requireCaller(caller)
	if err != nil {
		return 0, err
	}

	n, err := s.store.DeleteExpensesByUser(ctx, c.ID)
	if err != nil {
		return 0, fmt.Errorf("clear expenses: %w", err)
	}

	s.afterWrite(ctx, core.ChangeEvent{Type: core.ChangeCleared, UserID: c.ID, Count: int(n)})
	s.logger.LogBulkChange(ctx, applog.OpClear, c.ID, int(n))
	return n, nil
}

// SeedDemoExpenses inserts the demo catalog for the caller, dated relative to
// now. Rows are inserted one at a time: when an insert fails, earlier rows
// stay and the count inserted so far is returned with the error.
func (s *ExpenseService) SeedDemoExpenses(ctx context.Context, caller *core.Caller) (int, error) {
	c, err := requireCaller(caller)
	if err != nil {
		return 0, err
	}

	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return 0, fmt.Errorf("list categories: %w", err)
	}

	inserted := 0
	var seedErr error
	for _, n := range demoExpenses(cats, s.now()) {
		if _, err := s.insert(ctx, c, n); err != nil {
			seedErr = fmt.Errorf("seed demo expense %d: %w", inserted+1, err)
			break
		}
		inserted++
	}

	if inserted > 0 {
		s.afterWrite(ctx, core.ChangeEvent{Type: core.ChangeSeeded, UserID: c.ID, Count: inserted})
		s.logger.LogBulkChange(ctx, applog.OpSeed, c.ID, inserted)
	}
	return inserted, seedErr
}

// Activity returns the caller's recorded change events, newest first.
func (s *ExpenseService) Activity(ctx context.Context, caller *core.Caller, limit int) ([]core.Activity, error) {
	c, err := requireCaller(caller)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	if limit > MaxActivityLimit {
		limit = MaxActivityLimit
	}
	items, err := s.store.ListActivity(ctx, c.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return items, nil
}

// InvalidateUser drops cached reads of userID. Used when another instance
// reports a write.
func (s *ExpenseService) InvalidateUser(userID string) {
	if s.cache == nil || userID == "" {
		return
	}
	if n := s.cache.Invalidate(userID); n > 0 {
		slog.Debug("Evicted cached reads", applog.FieldUserID, userID, applog.FieldCount, n)
	}
}

// afterWrite evicts the writer's cache synchronously, then publishes. A
// publish failure is logged and does not fail the write.
func (s *ExpenseService) afterWrite(ctx context.Context, ev core.ChangeEvent) {
	s.InvalidateUser(ev.UserID)

	if s.publisher == nil {
		return
	}
	ev.OccurredAt = s.now().UTC()
	if err := s.publisher.PublishChange(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change event",
			applog.FieldOperation, applog.OpPublish,
			applog.FieldChangeType, ev.Type,
			applog.FieldUserID, ev.UserID,
			applog.FieldError, err)
	}
}
