package pages

import (
	"context"
	"regexp"

	"github.com/themizzi/storecheck/internal/check"
)

var itemURLRe = regexp.MustCompile(`^` + regexp.QuoteMeta(PathItem) + `\?(.*&)?id=\d+(&|$)`)

// ItemPage is the product detail view.
type ItemPage struct {
	Header
}

// Open loads the detail page for id.
func (p ItemPage) Open(ctx context.Context, id string) error {
	return p.open(ctx, PathItem+"?id="+id, SelectorDetails)
}

// WaitOpen waits until the browser shows a detail page with a numeric id.
func (p ItemPage) WaitOpen(ctx context.Context) error {
	if err := p.r.WaitURL(ctx, itemURLRe); err != nil {
		return err
	}
	return p.r.Exists(ctx, q(SelectorDetails))
}

// ID returns the id query parameter of the current page.
func (p ItemPage) ID(ctx context.Context) (string, error) {
	u, err := p.r.URL(ctx)
	if err != nil {
		return "", err
	}
	return u.Query().Get("id"), nil
}

// Name returns the product name.
func (p ItemPage) Name(ctx context.Context) (string, error) {
	return p.r.Text(ctx, q(SelectorDetails).Find(SelectorDetailsName))
}

// Desc returns the product description.
func (p ItemPage) Desc(ctx context.Context) (string, error) {
	return p.r.Text(ctx, q(SelectorDetails).Find(SelectorDetailsDesc))
}

// PriceText returns the raw price string.
func (p ItemPage) PriceText(ctx context.Context) (string, error) {
	return p.r.Text(ctx, q(SelectorDetails).Find(SelectorDetailsPrice))
}

// Price returns the parsed price.
func (p ItemPage) Price(ctx context.Context) (check.Cents, error) {
	text, err := p.PriceText(ctx)
	if err != nil {
		return 0, err
	}
	return check.ParsePrice(text)
}

// HasImage waits for the product image.
func (p ItemPage) HasImage(ctx context.Context) error {
	return p.r.Exists(ctx, q(SelectorDetails).Find(SelectorDetailsImage))
}

// AddToCart toggles the product into the cart.
func (p ItemPage) AddToCart(ctx context.Context) error {
	return toggle(ctx, p.base, q(SelectorDetails), SelectorAddToCart, SelectorRemove)
}

// Back returns to the inventory.
func (p ItemPage) Back(ctx context.Context) error {
	return p.clickTo(ctx, q(SelectorBackToProducts), PathInventory)
}
