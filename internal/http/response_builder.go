// Package http provides HTTP server and handler implementations.
//
// This file maps domain values to their JSON representation and domain
// errors to status codes.

package http

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	"expenses/internal/core"
	applog "expenses/internal/log"
)

type errorResponse struct {
	Error string `json:"error"`
}

type categoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type expenseResponse struct {
	ID         string           `json:"id"`
	Amount     string           `json:"amount"`
	CategoryID string           `json:"categoryId"`
	Category   categoryResponse `json:"category"`
	Date       string           `json:"date"`
	Note       *string          `json:"note"`
	CreatedAt  string           `json:"createdAt"`
}

type paginationResponse struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type expensePageResponse struct {
	Data       []expenseResponse  `json:"data"`
	Pagination paginationResponse `json:"pagination"`
}

type categoryTotalResponse struct {
	Name    string  `json:"name"`
	Total   string  `json:"total"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

type summaryResponse struct {
	Total      string                  `json:"total"`
	Count      int                     `json:"count"`
	ByCategory []categoryTotalResponse `json:"byCategory"`
}

type activityResponse struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	ExpenseID  string `json:"expenseId,omitempty"`
	Count      int    `json:"count"`
	OccurredAt string `json:"occurredAt"`
	RecordedAt string `json:"recordedAt"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func toCategories(cats []core.Category) []categoryResponse {
	out := make([]categoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryResponse{ID: c.ID, Name: c.Name})
	}
	return out
}

func toExpense(e core.ExpenseWithCategory) expenseResponse {
	resp := expenseResponse{
		ID:         e.ID,
		Amount:     e.Amount.String(),
		CategoryID: e.CategoryID,
		Category:   categoryResponse{ID: e.Category.ID, Name: e.Category.Name},
		Date:       formatTime(e.Date),
		CreatedAt:  formatTime(e.CreatedAt),
	}
	if e.Note != "" {
		note := e.Note
		resp.Note = &note
	}
	return resp
}

func toExpensePage(p core.ExpensePage) expensePageResponse {
	data := make([]expenseResponse, 0, len(p.Data))
	for _, e := range p.Data {
		data = append(data, toExpense(e))
	}
	return expensePageResponse{
		Data: data,
		Pagination: paginationResponse{
			Page:       p.Pagination.Page,
			PageSize:   p.Pagination.PageSize,
			Total:      p.Pagination.Total,
			TotalPages: p.Pagination.TotalPages,
		},
	}
}

// toSummary adds each group's share of the total, rounded to two places.
func toSummary(s core.DashboardSummary) summaryResponse {
	resp := summaryResponse{
		Total:      s.Total.String(),
		Count:      s.Count,
		ByCategory: make([]categoryTotalResponse, 0, len(s.ByCategory)),
	}
	for _, g := range s.ByCategory {
		pct, _ := g.Total.Percent(s.Total)
		resp.ByCategory = append(resp.ByCategory, categoryTotalResponse{
			Name:    g.Name,
			Total:   g.Total.String(),
			Count:   g.Count,
			Percent: math.Round(pct*100) / 100,
		})
	}
	return resp
}

func toActivity(items []core.Activity) []activityResponse {
	out := make([]activityResponse, 0, len(items))
	for _, a := range items {
		out = append(out, activityResponse{
			ID:         a.ID,
			Type:       string(a.Type),
			ExpenseID:  a.ExpenseID,
			Count:      a.Count,
			OccurredAt: formatTime(a.OccurredAt),
			RecordedAt: formatTime(a.RecordedAt),
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor classifies err. The second result is the message safe to show
// the client.
func statusFor(err error) (int, string) {
	var pe *paramError
	switch {
	case errors.As(err, &pe):
		return http.StatusBadRequest, pe.Error()
	case errors.Is(err, core.ErrUnauthorized):
		return http.StatusUnauthorized, core.ErrUnauthorized.Error()
	case errors.Is(err, core.ErrNotFoundOrUnauthorized):
		return http.StatusNotFound, core.ErrNotFoundOrUnauthorized.Error()
	case errors.Is(err, core.ErrInvalidAmount):
		return http.StatusUnprocessableEntity, core.ErrInvalidAmount.Error()
	case errors.Is(err, core.ErrUnknownCategory):
		return http.StatusUnprocessableEntity, core.ErrUnknownCategory.Error()
	case errors.Is(err, core.ErrNoteTooLong):
		return http.StatusUnprocessableEntity, core.ErrNoteTooLong.Error()
	case errors.Is(err, core.ErrInvalidSortKey):
		return http.StatusBadRequest, core.ErrInvalidSortKey.Error()
	case errors.Is(err, core.ErrInvalidPage):
		return http.StatusBadRequest, core.ErrInvalidPage.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request timed out"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// writeError renders err in the {"error": ...} envelope. Server-side
// failures are logged with their cause; the client only sees a generic
// message.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, applog.ComponentHTTP, op, nil)
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="expenses"`)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
