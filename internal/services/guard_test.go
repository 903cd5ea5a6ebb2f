package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"expenses/internal/core"
	"expenses/internal/storage"
	"expenses/internal/storage/memory"
)

type brokenReader struct{ storage.ExpenseReader }

func (brokenReader) GetExpense(context.Context, string) (core.Expense, error) {
	return core.Expense{}, errors.New("connection reset")
}

func TestRequireCaller(t *testing.T) {
	tests := []struct {
		name    string
		caller  *core.Caller
		wantErr error
	}{
		{"nil", nil, core.ErrUnauthorized},
		{"empty id", &core.Caller{Email: "x@example.com"}, core.ErrUnauthorized},
		{"valid", &core.Caller{ID: "u1"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := requireCaller(tt.caller)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if err == nil && c.ID != tt.caller.ID {
				t.Errorf("caller = %+v", c)
			}
		})
	}
}

func TestLoadOwned(t *testing.T) {
	ctx := context.Background()
	mem := memory.New(storage.DefaultCategories)
	e := core.Expense{
		ID: "e1", UserID: "owner", Amount: core.Money{Cents: 10},
		CategoryID: storage.DefaultCategories[0].ID, Date: time.Now(), CreatedAt: time.Now(),
	}
	if err := mem.InsertExpense(ctx, e); err != nil {
		t.Fatal(err)
	}

	if _, err := loadOwned(ctx, mem, core.Caller{ID: "owner"}, "e1"); err != nil {
		t.Errorf("owner load failed: %v", err)
	}
	if _, err := loadOwned(ctx, mem, core.Caller{ID: "intruder"}, "e1"); !errors.Is(err, core.ErrNotFoundOrUnauthorized) {
		t.Errorf("foreign load err = %v", err)
	}
	if _, err := loadOwned(ctx, mem, core.Caller{ID: "owner"}, "missing"); !errors.Is(err, core.ErrNotFoundOrUnauthorized) {
		t.Errorf("missing load err = %v", err)
	}

	_, err := loadOwned(ctx, brokenReader{}, core.Caller{ID: "owner"}, "e1")
	if err == nil || errors.Is(err, core.ErrNotFoundOrUnauthorized) {
		t.Errorf("storage failures must propagate, got %v", err)
	}
}
