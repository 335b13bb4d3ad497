package check

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidPrice is wrapped by every ParseError.
var ErrInvalidPrice = errors.New("invalid price")

var (
	priceRe      = regexp.MustCompile(`^\$(\d+)\.(\d{2})$`)
	labelPriceRe = regexp.MustCompile(`\$\d+\.\d{2}`)
)

// Cents is a money amount in hundredths of a dollar.
type Cents int64

// CentsFromFloat converts a fixture price such as 29.99.
func CentsFromFloat(f float64) Cents {
	if f < 0 {
		return -CentsFromFloat(-f)
	}
	return Cents(f*100 + 0.5)
}

func (c Cents) String() string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s$%d.%02d", sign, c/100, c%100)
}

// Dollars returns the amount as a float for display.
func (c Cents) Dollars() float64 {
	return float64(c) / 100
}

// maxDollars keeps dollars*100 + 99 inside Cents.
const maxDollars = (math.MaxInt64 - 99) / 100

// ParseError reports text extracted from the UI that is not a valid price.
// Reason is empty when the text does not have the $D.DD shape at all.
type ParseError struct {
	Input  string
	Index  int
	Reason string
}

func (e *ParseError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "does not match $D.DD"
	}
	if e.Index >= 0 {
		return fmt.Sprintf("value %d %q %s: %v", e.Index, e.Input, reason, ErrInvalidPrice)
	}
	return fmt.Sprintf("%q %s: %v", e.Input, reason, ErrInvalidPrice)
}

func (e *ParseError) Unwrap() error {
	return ErrInvalidPrice
}

// ParsePrice parses a currency string of the exact form $D.DD. Anything else,
// including surrounding whitespace, is a *ParseError; nothing is coerced to 0.
func ParsePrice(s string) (Cents, error) {
	m := priceRe.FindStringSubmatch(s)
	if m == nil {
		return 0, &ParseError{Input: s, Index: -1}
	}
	dollars, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || dollars > maxDollars {
		return 0, &ParseError{Input: s, Index: -1, Reason: "is out of range"}
	}
	cents, _ := strconv.ParseInt(m[2], 10, 64)
	return Cents(dollars*100 + cents), nil
}

// ParsePrices parses every value, failing on the first malformed one.
func ParsePrices(values []string) ([]Cents, error) {
	out := make([]Cents, 0, len(values))
	for i, v := range values {
		c, err := ParsePrice(v)
		if err != nil {
			var perr *ParseError
			errors.As(err, &perr)
			return nil, &ParseError{Input: v, Index: i, Reason: perr.Reason}
		}
		out = append(out, c)
	}
	return out, nil
}

// PriceOf extracts the single price embedded in a label such as
// "Tax: $2.40" or "Item total: $29.99".
func PriceOf(label string) (Cents, error) {
	matches := labelPriceRe.FindAllString(label, -1)
	if len(matches) != 1 {
		return 0, &ParseError{Input: strings.TrimSpace(label), Index: -1}
	}
	return ParsePrice(matches[0])
}
