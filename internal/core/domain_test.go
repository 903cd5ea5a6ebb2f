package core

import (
	"strings"
	"testing"
	"time"
)

func TestCallerValid(t *testing.T) {
	var nilCaller *Caller
	cases := []struct {
		c  *Caller
		ok bool
	}{
		{nilCaller, false},
		{&Caller{}, false},
		{&Caller{ID: "   "}, false},
		{&Caller{ID: "user-1"}, true},
	}
	for i, tc := range cases {
		if got := tc.c.Valid(); got != tc.ok {
			t.Fatalf("case %d expected %v, got %v", i, tc.ok, got)
		}
	}
}

func TestNewExpenseValidate(t *testing.T) {
	good := NewExpense{
		Amount:     Money{Cents: 100},
		CategoryID: "cat",
		Date:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Note:       "lunch",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		e    NewExpense
		want error
	}{
		{NewExpense{Amount: Money{Cents: 0}, CategoryID: "cat"}, ErrInvalidAmount},
		{NewExpense{Amount: Money{Cents: -5}, CategoryID: ""}, ErrInvalidAmount},
		{NewExpense{Amount: Money{Cents: 5}, CategoryID: " "}, ErrUnknownCategory},
		{NewExpense{Amount: Money{Cents: 5}, CategoryID: "cat", Note: strings.Repeat("x", MaxNoteLength+1)}, ErrNoteTooLong},
	}
	for i, tc := range bads {
		if err := tc.e.Validate(); err != tc.want {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestInWindowIsInclusive(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC)
	if !InWindow(start, start, end) || !InWindow(end, start, end) {
		t.Fatalf("window bounds must be inclusive")
	}
	if InWindow(start.Add(-time.Nanosecond), start, end) || InWindow(end.Add(time.Second), start, end) {
		t.Fatalf("values outside the window must be excluded")
	}
}
