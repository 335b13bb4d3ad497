package check

import (
	"errors"
	"strings"
	"testing"
)

func TestUnique(t *testing.T) {
	tests := []struct {
		name    string
		values  []string
		wantOK  bool
		wantMsg string
	}{
		{name: "empty", values: nil, wantOK: true},
		{name: "distinct", values: []string{"0", "1", "2"}, wantOK: true},
		{name: "one duplicate", values: []string{"0", "1", "1"}, wantMsg: "1 duplicates"},
		{name: "triplicate", values: []string{"a", "a", "a", "b"}, wantMsg: "a (x3)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Unique(tt.values)
			if r.OK != tt.wantOK {
				t.Fatalf("Unique(%v).OK = %v, want %v (%s)", tt.values, r.OK, tt.wantOK, r.Message)
			}
			if !strings.Contains(r.Message, tt.wantMsg) {
				t.Errorf("message %q should contain %q", r.Message, tt.wantMsg)
			}
		})
	}
}

func TestOrdered(t *testing.T) {
	tests := []struct {
		name   string
		values []Cents
		dir    Direction
		wantOK bool
	}{
		{name: "ascending", values: []Cents{799, 999, 1599, 1599, 2999}, dir: Ascending, wantOK: true},
		{name: "descending", values: []Cents{4999, 2999, 1599, 1599}, dir: Descending, wantOK: true},
		{name: "ascending violated", values: []Cents{799, 2999, 999}, dir: Ascending},
		{name: "descending violated", values: []Cents{2999, 999, 4999}, dir: Descending},
		{name: "single", values: []Cents{1}, dir: Descending, wantOK: true},
		{name: "empty", values: nil, dir: Ascending, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Ordered(tt.values, tt.dir)
			if r.OK != tt.wantOK {
				t.Errorf("Ordered(%v, %s) = %v", tt.values, tt.dir, r)
			}
		})
	}
}

func TestOrderedNamesFirstViolation(t *testing.T) {
	// GIVEN names out of order at index 1
	names := []string{"Backpack", "Onesie", "Bike Light"}

	// WHEN checking ascending order
	r := Ordered(names, Ascending)

	// THEN the message points at the first bad pair
	if r.OK {
		t.Fatal("expected failure")
	}
	if !strings.Contains(r.Message, "Onesie at index 1 is followed by Bike Light at index 2") {
		t.Errorf("unexpected message %q", r.Message)
	}
}

func TestOrderedPricesSurfacesParseError(t *testing.T) {
	_, err := OrderedPrices([]string{"$1.00", "$2.0"}, Ascending)
	if !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}

	_, err = OrderedPrices([]string{"$1.00", "$99999999999999999.99"}, Ascending)
	var perr *ParseError
	if !errors.As(err, &perr) || perr.Index != 1 || !strings.Contains(err.Error(), "out of range") {
		t.Fatalf("expected out of range parse error at index 1, got %v", err)
	}

	r, err := OrderedPrices([]string{"$49.99", "$29.99", "$7.99"}, Descending)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.OK {
		t.Errorf("expected pass, got %s", r)
	}
}

func TestWithinRange(t *testing.T) {
	tests := []struct {
		name          string
		value, lo, hi Cents
		wantOK        bool
	}{
		{name: "inside", value: 240, lo: 150, hi: 300, wantOK: true},
		{name: "at min", value: 150, lo: 150, hi: 300, wantOK: true},
		{name: "at max", value: 300, lo: 150, hi: 300, wantOK: true},
		{name: "below", value: 149, lo: 150, hi: 300},
		{name: "above", value: 301, lo: 150, hi: 300},
		{name: "inverted range", value: 200, lo: 300, hi: 150},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if r := WithinRange(tt.value, tt.lo, tt.hi); r.OK != tt.wantOK {
				t.Errorf("WithinRange(%v, %v, %v) = %s", tt.value, tt.lo, tt.hi, r)
			}
		})
	}
}

func TestTaxBounds(t *testing.T) {
	lo, hi := TaxBounds(2999)
	if lo != 149 || hi != 300 {
		t.Errorf("TaxBounds(2999) = %d, %d, want 149, 300", lo, hi)
	}

	// 8% of $29.99 rounds to $2.40
	if r := WithinRange(Cents(240), lo, hi); !r.OK {
		t.Errorf("8%% tax should be in range: %s", r)
	}
}

func TestSetEqual(t *testing.T) {
	tests := []struct {
		name             string
		actual, expected []int
		ordered          bool
		wantOK           bool
		wantMsg          string
	}{
		{name: "ordered equal", actual: []int{4, 0, 1}, expected: []int{4, 0, 1}, ordered: true, wantOK: true},
		{name: "ordered permuted", actual: []int{0, 4, 1}, expected: []int{4, 0, 1}, ordered: true, wantMsg: "index 0"},
		{name: "unordered permuted", actual: []int{0, 4, 1}, expected: []int{4, 0, 1}, wantOK: true},
		{name: "ordered length mismatch", actual: []int{4, 0}, expected: []int{4, 0, 1}, ordered: true, wantMsg: "3 items"},
		{name: "unordered missing", actual: []int{4, 0}, expected: []int{4, 0, 1}, wantMsg: "missing [1]"},
		{name: "unordered extra", actual: []int{4, 0, 1, 2}, expected: []int{4, 0, 1}, wantMsg: "unexpected [2]"},
		{name: "multiset", actual: []int{1, 1, 2}, expected: []int{1, 2, 2}, wantMsg: "missing [2]"},
		{name: "both empty", wantOK: true, ordered: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := SetEqual(tt.actual, tt.expected, tt.ordered)
			if r.OK != tt.wantOK {
				t.Fatalf("SetEqual = %s, want OK %v", r, tt.wantOK)
			}
			if !strings.Contains(r.Message, tt.wantMsg) {
				t.Errorf("message %q should contain %q", r.Message, tt.wantMsg)
			}
		})
	}
}

func TestMinOf(t *testing.T) {
	if _, ok := MinOf([]Cents(nil)); ok {
		t.Error("MinOf(nil) should report !ok")
	}
	if got, _ := MinOf([]Cents{2999, 799, 999}); got != 799 {
		t.Errorf("MinOf = %d, want 799", got)
	}
}

func TestResultErr(t *testing.T) {
	if err := Count([]int{1, 2}, 2).Err(); err != nil {
		t.Errorf("passing result should have nil Err, got %v", err)
	}

	err := Count([]int{1}, 2).Err()
	var f *Failure
	if !errors.As(err, &f) {
		t.Fatalf("expected *Failure, got %v", err)
	}
	if f.Message != "expected 2 items, got 1" {
		t.Errorf("unexpected message %q", f.Message)
	}
}
