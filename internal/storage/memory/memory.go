// Package memory is an in-process storage backend used for development and
// tests. Nothing survives a restart.
package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"expenses/internal/core"
	"expenses/internal/storage"

	"github.com/google/uuid"
)

type Store struct {
	mu       sync.RWMutex
	cats     []core.Category
	items    []core.Expense // insertion order
	activity []core.Activity
}

var _ storage.Repository = (*Store)(nil)

// New returns a store with the given categories, deduplicated by id.
func New(cats []core.Category) *Store {
	return &Store{cats: dedupeCategories(cats)}
}

// NewFromFiles reads categories from base/seed_categories.txt, one per line
// as "id,name" or just "name" (a random id is assigned). Falls back to
// storage.DefaultCategories when the file is missing or empty.
func NewFromFiles(base string) *Store {
	cats := readCategories(filepath.Join(base, "seed_categories.txt"))
	if len(cats) == 0 {
		cats = storage.DefaultCategories
	}
	return New(cats)
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.RLock()
	out := append([]core.Category(nil), s.cats...)
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) category(id string) (core.Category, bool) {
	for _, c := range s.cats {
		if c.ID == id {
			return c, true
		}
	}
	return core.Category{}, false
}

func (s *Store) GetExpense(_ context.Context, id string) (core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.items {
		if e.ID == id {
			return e, nil
		}
	}
	return core.Expense{}, storage.ErrNotFound
}

func (s *Store) ListExpenses(_ context.Context, userID string, q core.ListQuery) ([]core.ExpenseWithCategory, int, error) {
	s.mu.RLock()
	matched := s.filter(userID, q.Start, q.End, q.CategoryID)
	s.mu.RUnlock()

	core.SortExpenses(matched, q.Sort)
	return core.Paginate(matched, q.Offset(), q.Limit()), len(matched), nil
}

func (s *Store) ExpensesInWindow(_ context.Context, userID string, start, end time.Time) ([]core.ExpenseWithCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter(userID, start, end, nil), nil
}

// filter must be called with at least a read lock held.
func (s *Store) filter(userID string, start, end time.Time, categoryID *string) []core.ExpenseWithCategory {
	out := []core.ExpenseWithCategory{}
	for _, e := range s.items {
		if e.UserID != userID || !core.InWindow(e.Date, start, end) {
			continue
		}
		if categoryID != nil && e.CategoryID != *categoryID {
			continue
		}
		c, _ := s.category(e.CategoryID)
		out = append(out, core.ExpenseWithCategory{Expense: e, Category: c})
	}
	return out
}

func (s *Store) InsertExpense(_ context.Context, e core.Expense) error {
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.category(e.CategoryID); !ok {
		return core.ErrUnknownCategory
	}
	s.items = append(s.items, e)
	return nil
}

func (s *Store) DeleteExpense(_ context.Context, userID, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.items {
		if e.ID == id && e.UserID == userID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) DeleteExpensesByUser(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.items[:0]
	var n int64
	for _, e := range s.items {
		if e.UserID == userID {
			n++
			continue
		}
		kept = append(kept, e)
	}
	s.items = kept
	return n, nil
}

func (s *Store) RecordActivity(_ context.Context, a core.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.activity {
		if existing.ID == a.ID {
			return nil
		}
	}
	s.activity = append(s.activity, a)
	return nil
}

func (s *Store) ListActivity(_ context.Context, userID string, limit int) ([]core.Activity, error) {
	s.mu.RLock()
	out := []core.Activity{}
	for _, a := range s.activity {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func readCategories(path string) []core.Category {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []core.Category
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		id, name, ok := strings.Cut(line, ",")
		if !ok {
			id, name = uuid.NewString(), line
		}
		out = append(out, core.Category{ID: strings.TrimSpace(id), Name: strings.TrimSpace(name)})
	}
	return out
}

func dedupeCategories(in []core.Category) []core.Category {
	seen := map[string]struct{}{}
	out := make([]core.Category, 0, len(in))
	for _, c := range in {
		if c.ID == "" || c.Name == "" {
			continue
		}
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out
}
