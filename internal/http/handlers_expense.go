package http

import (
	"net/http"
	"strings"
	"sync/atomic"

	"expenses/internal/auth"
	"expenses/internal/core"
	applog "expenses/internal/log"
)

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.api.Categories(r.Context(), auth.CallerFromContext(r.Context()))
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategories(cats))
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	q, err := ParseListQuery(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	page, err := s.api.ListExpenses(r.Context(), auth.CallerFromContext(r.Context()), q)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpensePage(page))
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFromContext(r.Context())
	if !caller.Valid() {
		// Reject before reading the body.
		writeError(w, r, applog.OpCreate, core.ErrUnauthorized)
		return
	}

	n, err := ParseNewExpense(NewRequestBodyParser(w, r), s.now())
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	id, err := s.api.CreateExpense(r.Context(), caller, n)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	atomic.AddInt64(&s.appMetrics.expensesCreated, 1)
	w.Header().Set("Location", "/api/expenses/"+id)
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if err := s.api.DeleteExpense(r.Context(), auth.CallerFromContext(r.Context()), id); err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	atomic.AddInt64(&s.appMetrics.expensesDeleted, 1)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearExpenses(w http.ResponseWriter, r *http.Request) {
	n, err := s.api.ClearAllExpenses(r.Context(), auth.CallerFromContext(r.Context()))
	if err != nil {
		writeError(w, r, applog.OpClear, err)
		return
	}
	atomic.AddInt64(&s.appMetrics.expensesDeleted, n)
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

// handleSeedDemo reports a partial insert as a failure carrying the count
// that did land.
func (s *Server) handleSeedDemo(w http.ResponseWriter, r *http.Request) {
	n, err := s.api.SeedDemoExpenses(r.Context(), auth.CallerFromContext(r.Context()))
	atomic.AddInt64(&s.appMetrics.demoInserted, int64(n))
	if err != nil {
		if n > 0 {
			status, msg := statusFor(err)
			applog.NewStructuredLogger(applog.FromContext(r.Context())).
				LogError(r.Context(), "Demo seeding stopped early", err, applog.ComponentHTTP, applog.OpSeed, applog.NewFields().WithCount(n))
			writeJSON(w, status, map[string]any{"error": msg, "inserted": n})
			return
		}
		writeError(w, r, applog.OpSeed, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"inserted": n})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	start, end, err := ParseWindow(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, applog.OpSummary, err)
		return
	}
	sum, err := s.api.Summary(r.Context(), auth.CallerFromContext(r.Context()), start, end)
	if err != nil {
		writeError(w, r, applog.OpSummary, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummary(sum))
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	limit, err := ParseActivityLimit(r.URL.Query())
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	items, err := s.api.Activity(r.Context(), auth.CallerFromContext(r.Context()), limit)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, toActivity(items))
}
