package core

import (
	"errors"
	"strings"
	"time"
)

// MaxNoteLength bounds the free-text note attached to an expense.
const MaxNoteLength = 500

type (
	// Caller is the identity an operation runs on behalf of. It is resolved
	// at the edge (HTTP, CLI) and passed explicitly to every service call.
	Caller struct {
		ID    string
		Email string
	}

	Category struct {
		ID   string
		Name string
	}

	Expense struct {
		ID         string
		UserID     string
		Amount     Money
		CategoryID string
		Date       time.Time
		Note       string // empty when absent
		CreatedAt  time.Time
	}

	// ExpenseWithCategory is an expense row joined with its category.
	ExpenseWithCategory struct {
		Expense
		Category Category
	}

	// NewExpense carries the caller-supplied fields of an expense to create.
	NewExpense struct {
		Amount     Money
		CategoryID string
		Date       time.Time
		Note       string
	}
)

var (
	ErrUnauthorized           = errors.New("unauthorized")
	ErrNotFoundOrUnauthorized = errors.New("expense not found")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrUnknownCategory        = errors.New("unknown category")
	ErrNoteTooLong            = errors.New("note too long (max 500 characters)")
	ErrInvalidSortKey         = errors.New("invalid sort key")
	ErrInvalidPage            = errors.New("invalid page or page size")
)

// Valid reports whether the caller carries a usable identity.
func (c *Caller) Valid() bool {
	return c != nil && strings.TrimSpace(c.ID) != ""
}

// Validate checks the creation invariants. Amount is checked first so that a
// non-positive amount is always reported as ErrInvalidAmount.
func (n NewExpense) Validate() error {
	if err := n.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(n.CategoryID) == "" {
		return ErrUnknownCategory
	}
	if len([]rune(n.Note)) > MaxNoteLength {
		return ErrNoteTooLong
	}
	return nil
}

// InWindow reports whether t falls inside the inclusive [start, end] range.
func InWindow(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}
