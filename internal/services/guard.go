package services

import (
	"context"
	"errors"
	"fmt"

	"expenses/internal/core"
	"expenses/internal/storage"
)

// requireCaller rejects anonymous callers before any storage access.
func requireCaller(caller *core.Caller) (core.Caller, error) {
	if !caller.Valid() {
		return core.Caller{}, core.ErrUnauthorized
	}
	return *caller, nil
}

// loadOwned returns the expense only when it exists and belongs to caller.
// A missing row and a foreign row produce the same error so that ids owned
// by other users cannot be probed.
func loadOwned(ctx context.Context, r storage.ExpenseReader, caller core.Caller, id string) (core.Expense, error) {
	e, err := r.GetExpense(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return core.Expense{}, core.ErrNotFoundOrUnauthorized
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("load expense: %w", err)
	}
	if e.UserID != caller.ID {
		return core.Expense{}, core.ErrNotFoundOrUnauthorized
	}
	return e, nil
}
