package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"12.345", 1235, true},
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"0.004", 0, false}, // rounds to zero
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"9999999999.99", MaxCents, true},
		{"9999999999.994", MaxCents, true},
		{"9999999999.995", 0, false}, // rounds past the cap
		{"10000000000", 0, false},
		{"50000000000000000.00", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else {
			if err != ErrInvalidAmount {
				t.Fatalf("%q expected ErrInvalidAmount, got %v", tc.in, err)
			}
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: MaxCents}).Validate(); err != nil {
		t.Fatalf("expected cap to be valid, got %v", err)
	}
	for _, c := range []int64{0, -1, -10000, MaxCents + 1} {
		if err := (Money{Cents: c}).Validate(); err != ErrInvalidAmount {
			t.Fatalf("cents=%d expected ErrInvalidAmount, got %v", c, err)
		}
	}
}

func TestMoneyRendering(t *testing.T) {
	m := Money{Cents: 1250}
	if m.String() != "12.50" {
		t.Fatalf("String() = %q", m.String())
	}
	if !m.Decimal().Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("Decimal() = %s", m.Decimal())
	}
	if m.Float64() != 12.5 {
		t.Fatalf("Float64() = %v", m.Float64())
	}
	if (Money{Cents: 7}).String() != "0.07" {
		t.Fatalf("small amount rendered as %q", Money{Cents: 7}.String())
	}
}

func TestMoneyPercent(t *testing.T) {
	if _, ok := (Money{Cents: 10}).Percent(Money{}); ok {
		t.Fatalf("expected no percentage for zero total")
	}
	pct, ok := Money{Cents: 150}.Percent(Money{Cents: 450})
	if !ok || pct < 33.33 || pct > 33.34 {
		t.Fatalf("unexpected percent %v (ok=%v)", pct, ok)
	}
}
