// Package fixtures loads the product records that expectations are computed
// from. Records are read-only; a Catalog never reflects UI state.
package fixtures

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"slices"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/themizzi/storecheck/internal/check"
)

var (
	//go:embed inventory.json
	inventoryJSON []byte

	//go:embed schema.json
	schemaJSON []byte
)

// Fixture errors
var (
	ErrUnknownProduct = errors.New("unknown product")
	ErrDuplicateID    = errors.New("duplicate product id")
)

// Product is one inventory record.
type Product struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Desc  string  `json:"desc"`
	Price float64 `json:"price"`
}

// Cents returns the price in integer cents.
func (p Product) Cents() check.Cents {
	return check.CentsFromFloat(p.Price)
}

// PriceText formats the price the way the storefront renders it.
func (p Product) PriceText() string {
	return p.Cents().String()
}

// Catalog is an ordered list of products.
type Catalog []Product

// SchemaError lists every schema violation found in a fixture document.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	return "fixture schema validation failed: " + strings.Join(e.Problems, "; ")
}

// Validate checks data against the inventory schema.
func Validate(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("failed to validate fixture: %w", err)
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
	}
	return &SchemaError{Problems: problems}
}

// Load validates and decodes a fixture document.
func Load(data []byte) (Catalog, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode fixture: %w", err)
	}
	seen := make(map[int]bool, len(c))
	for _, p := range c {
		if seen[p.ID] {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, p.ID)
		}
		seen[p.ID] = true
	}
	return c, nil
}

// LoadFile reads a fixture document from disk.
func LoadFile(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %s: %w", path, err)
	}
	return Load(data)
}

// Default returns the embedded inventory.
func Default() Catalog {
	c, err := Load(inventoryJSON)
	if err != nil {
		panic(fmt.Sprintf("embedded inventory fixture is invalid: %v", err))
	}
	return c
}

// Raw returns the embedded fixture document.
func Raw() []byte {
	return slices.Clone(inventoryJSON)
}

// ByName finds a product by its display name.
func (c Catalog) ByName(name string) (Product, bool) {
	for _, p := range c {
		if p.Name == name {
			return p, true
		}
	}
	return Product{}, false
}

// ByID finds a product by id.
func (c Catalog) ByID(id int) (Product, bool) {
	for _, p := range c {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// Select returns the named products in the order given.
func (c Catalog) Select(names ...string) (Catalog, error) {
	out := make(Catalog, 0, len(names))
	for _, n := range names {
		p, ok := c.ByName(n)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownProduct, n)
		}
		out = append(out, p)
	}
	return out, nil
}

// IDs returns product ids in catalog order.
func (c Catalog) IDs() []int {
	out := make([]int, len(c))
	for i, p := range c {
		out[i] = p.ID
	}
	return out
}

// Names returns product names in catalog order.
func (c Catalog) Names() []string {
	out := make([]string, len(c))
	for i, p := range c {
		out[i] = p.Name
	}
	return out
}

// Prices returns prices in catalog order.
func (c Catalog) Prices() []check.Cents {
	out := make([]check.Cents, len(c))
	for i, p := range c {
		out[i] = p.Cents()
	}
	return out
}

// Subtotal sums the prices.
func (c Catalog) Subtotal() check.Cents {
	var sum check.Cents
	for _, p := range c {
		sum += p.Cents()
	}
	return sum
}

// Cheapest returns the lowest priced product.
func (c Catalog) Cheapest() (Product, bool) {
	if len(c) == 0 {
		return Product{}, false
	}
	return slices.MinFunc(c, func(a, b Product) int {
		return int(a.Cents() - b.Cents())
	}), true
}

// SortedByName returns a copy sorted by name.
func (c Catalog) SortedByName(desc bool) Catalog {
	out := slices.Clone(c)
	slices.SortStableFunc(out, func(a, b Product) int {
		if desc {
			return strings.Compare(b.Name, a.Name)
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// SortedByPrice returns a copy sorted by price.
func (c Catalog) SortedByPrice(desc bool) Catalog {
	out := slices.Clone(c)
	slices.SortStableFunc(out, func(a, b Product) int {
		if desc {
			return int(b.Cents() - a.Cents())
		}
		return int(a.Cents() - b.Cents())
	})
	return out
}

// Sample picks n distinct products at random; n is clamped to [1, len(c)].
func (c Catalog) Sample(r *rand.Rand, n int) Catalog {
	if len(c) == 0 {
		return nil
	}
	if n < 1 {
		n = 1
	}
	if n > len(c) {
		n = len(c)
	}
	idx := r.Perm(len(c))[:n]
	out := make(Catalog, n)
	for i, j := range idx {
		out[i] = c[j]
	}
	return out
}
