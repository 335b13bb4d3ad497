// Package check holds pure assertion helpers over values extracted from the
// page. Each helper returns a Result; nothing here touches the browser.
package check

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Result is the outcome of one assertion.
type Result struct {
	OK      bool
	Message string
}

func pass(format string, args ...interface{}) Result {
	return Result{OK: true, Message: fmt.Sprintf(format, args...)}
}

func fail(format string, args ...interface{}) Result {
	return Result{Message: fmt.Sprintf(format, args...)}
}

// Err returns nil for a passing result and an error carrying the message
// otherwise.
func (r Result) Err() error {
	if r.OK {
		return nil
	}
	return &Failure{Message: r.Message}
}

func (r Result) String() string {
	if r.OK {
		return "ok: " + r.Message
	}
	return "FAIL: " + r.Message
}

// Failure is the error form of a failed Result.
type Failure struct {
	Message string
}

func (f *Failure) Error() string {
	return f.Message
}

// Direction is the required ordering of a list.
type Direction int

// Orderings
const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "descending"
	}
	return "ascending"
}

// Unique fails when any value appears more than once.
func Unique[T comparable](values []T) Result {
	seen := make(map[T]int, len(values))
	for _, v := range values {
		seen[v]++
	}
	if len(seen) == len(values) {
		return pass("%d values are unique", len(values))
	}
	var dups []string
	for v, n := range seen {
		if n > 1 {
			dups = append(dups, fmt.Sprintf("%v (x%d)", v, n))
		}
	}
	return fail("expected %d unique values, found %d unique; %d duplicates: %s",
		len(values), len(seen), len(values)-len(seen), strings.Join(sortedStrings(dups), ", "))
}

// Ordered fails at the first adjacent pair that breaks the direction. Equal
// neighbours are allowed either way.
func Ordered[T cmp.Ordered](values []T, dir Direction) Result {
	for i := 1; i < len(values); i++ {
		a, b := values[i-1], values[i]
		if (dir == Ascending && a > b) || (dir == Descending && a < b) {
			return fail("expected %s order, but %v at index %d is followed by %v at index %d",
				dir, a, i-1, b, i)
		}
	}
	return pass("%d values in %s order", len(values), dir)
}

// OrderedPrices parses the price strings and checks their order. A malformed
// price is returned as a *ParseError rather than a failed Result.
func OrderedPrices(values []string, dir Direction) (Result, error) {
	prices, err := ParsePrices(values)
	if err != nil {
		return Result{}, err
	}
	return Ordered(prices, dir), nil
}

// WithinRange fails unless min <= value <= max.
func WithinRange[T cmp.Ordered](value, min, max T) Result {
	if min > max {
		return fail("invalid range: min %v is greater than max %v", min, max)
	}
	if value < min || value > max {
		return fail("expected %v to be within [%v, %v]", value, min, max)
	}
	return pass("%v within [%v, %v]", value, min, max)
}

// SetEqual compares two lists. When ordered is true, position matters;
// otherwise the lists must hold the same multiset of values.
func SetEqual[T comparable](actual, expected []T, ordered bool) Result {
	if ordered {
		if len(actual) != len(expected) {
			return fail("expected %v (%d items), got %v (%d items)", expected, len(expected), actual, len(actual))
		}
		for i := range expected {
			if actual[i] != expected[i] {
				return fail("expected %v, got %v: first difference at index %d (%v != %v)",
					expected, actual, i, actual[i], expected[i])
			}
		}
		return pass("%v equals %v", actual, expected)
	}

	counts := make(map[T]int, len(expected))
	for _, v := range expected {
		counts[v]++
	}
	var extra []string
	for _, v := range actual {
		if counts[v] == 0 {
			extra = append(extra, fmt.Sprint(v))
			continue
		}
		counts[v]--
	}
	var missing []string
	for v, n := range counts {
		for ; n > 0; n-- {
			missing = append(missing, fmt.Sprint(v))
		}
	}
	if len(extra) == 0 && len(missing) == 0 {
		return pass("%v has the same members as %v", actual, expected)
	}
	return fail("expected members %v, got %v: missing [%s], unexpected [%s]",
		expected, actual, strings.Join(sortedStrings(missing), ", "), strings.Join(extra, ", "))
}

// Count fails unless len(values) == n.
func Count[T any](values []T, n int) Result {
	if len(values) != n {
		return fail("expected %d items, got %d", n, len(values))
	}
	return pass("%d items", n)
}

// MinOf returns the smallest value; ok is false for an empty list.
func MinOf[T cmp.Ordered](values []T) (min T, ok bool) {
	if len(values) == 0 {
		return min, false
	}
	min = values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
	}
	return min, true
}

// TaxBounds returns the inclusive 5%-10% band for a subtotal, widened to
// whole cents.
func TaxBounds(subtotal Cents) (min, max Cents) {
	min = subtotal * 5 / 100
	max = (subtotal*10 + 99) / 100
	return min, max
}

func sortedStrings(s []string) []string {
	out := slices.Clone(s)
	slices.Sort(out)
	return out
}
