package check

import (
	"errors"
	"testing"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Cents
		wantErr bool
	}{
		{name: "simple", input: "$29.99", want: 2999},
		{name: "under a dollar", input: "$0.50", want: 50},
		{name: "large", input: "$1234.00", want: 123400},
		{name: "missing dollar sign", input: "29.99", wantErr: true},
		{name: "one decimal", input: "$29.9", wantErr: true},
		{name: "three decimals", input: "$29.999", wantErr: true},
		{name: "leading space", input: " $29.99", wantErr: true},
		{name: "comma separator", input: "$1,234.00", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "label", input: "Tax: $2.40", wantErr: true},
		{name: "largest amount", input: "$92233720368547757.99", want: 9223372036854775799},
		{name: "dollars overflow cents", input: "$99999999999999999.99", wantErr: true},
		{name: "one past largest", input: "$92233720368547758.00", wantErr: true},
		{name: "dollars overflow int64", input: "$99999999999999999999.00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePrice(tt.input)

			if tt.wantErr {
				var perr *ParseError
				if !errors.As(err, &perr) {
					t.Fatalf("ParsePrice(%q) error = %v, want *ParseError", tt.input, err)
				}
				if !errors.Is(err, ErrInvalidPrice) {
					t.Errorf("ParsePrice(%q) error should match ErrInvalidPrice", tt.input)
				}
				if got != 0 {
					t.Errorf("ParsePrice(%q) = %v on error, want 0", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePrice(%q) unexpected error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParsePrice(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParsePricesReportsIndex(t *testing.T) {
	// GIVEN a list with one malformed entry
	values := []string{"$7.99", "$9.99", "N/A", "$15.99"}

	// WHEN parsing
	_, err := ParsePrices(values)

	// THEN the error names the offending position
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if perr.Index != 2 || perr.Input != "N/A" {
		t.Errorf("ParseError = %+v, want index 2 input N/A", perr)
	}
}

func TestPriceOf(t *testing.T) {
	tests := []struct {
		label   string
		want    Cents
		wantErr bool
	}{
		{label: "Tax: $2.40", want: 240},
		{label: "Item total: $29.99", want: 2999},
		{label: "Total: $32.39", want: 3239},
		{label: "Tax:", wantErr: true},
		{label: "$1.00 and $2.00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := PriceOf(tt.label)
			if (err != nil) != tt.wantErr {
				t.Fatalf("PriceOf(%q) error = %v, wantErr %v", tt.label, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("PriceOf(%q) = %d, want %d", tt.label, got, tt.want)
			}
		})
	}
}

func TestCents(t *testing.T) {
	if got := CentsFromFloat(29.99); got != 2999 {
		t.Errorf("CentsFromFloat(29.99) = %d, want 2999", got)
	}
	if got := CentsFromFloat(15.99); got != 1599 {
		t.Errorf("CentsFromFloat(15.99) = %d, want 1599", got)
	}
	if got := Cents(240).String(); got != "$2.40" {
		t.Errorf("Cents(240).String() = %q", got)
	}
	if got := Cents(5).String(); got != "$0.05" {
		t.Errorf("Cents(5).String() = %q", got)
	}
}
