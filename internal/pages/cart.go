package pages

import (
	"context"
	"fmt"
	"strconv"
)

// CartLine is one row of the cart or checkout overview.
type CartLine struct {
	Name      string
	Quantity  int
	PriceText string
}

// CartPage is the cart view.
type CartPage struct {
	Header
}

// Open loads the cart.
func (p CartPage) Open(ctx context.Context) error {
	return p.open(ctx, PathCart, SelectorCartList)
}

// Lines returns the cart rows in display order; an empty cart is nil.
func (p CartPage) Lines(ctx context.Context) ([]CartLine, error) {
	return readLines(ctx, p.base)
}

func readLines(ctx context.Context, b base) ([]CartLine, error) {
	if err := b.r.Exists(ctx, q(SelectorCartList)); err != nil {
		return nil, err
	}
	n, err := b.r.Count(ctx, q(SelectorCartItem))
	if err != nil || n == 0 {
		return nil, err
	}
	items := q(SelectorCartItem)
	names, err := b.r.Texts(ctx, items.Find(SelectorItemName))
	if err != nil {
		return nil, err
	}
	qtys, err := b.r.Texts(ctx, items.Find(SelectorCartQuantity))
	if err != nil {
		return nil, err
	}
	prices, err := b.r.Texts(ctx, items.Find(SelectorItemPrice))
	if err != nil {
		return nil, err
	}
	if len(qtys) != len(names) || len(prices) != len(names) {
		return nil, fmt.Errorf("cart changed while reading: %d names, %d quantities, %d prices",
			len(names), len(qtys), len(prices))
	}
	lines := make([]CartLine, len(names))
	for i := range names {
		qty, err := strconv.Atoi(qtys[i])
		if err != nil {
			return nil, fmt.Errorf("quantity %q of %s is not a number: %w", qtys[i], names[i], err)
		}
		lines[i] = CartLine{Name: names[i], Quantity: qty, PriceText: prices[i]}
	}
	return lines, nil
}

// Names returns the product names in the cart.
func (p CartPage) Names(ctx context.Context) ([]string, error) {
	lines, err := p.Lines(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(lines))
	for i, l := range lines {
		names[i] = l.Name
	}
	return names, nil
}

// Remove removes the named product and waits for its row to go.
func (p CartPage) Remove(ctx context.Context, name string) error {
	row, err := p.findByText(ctx, SelectorCartItem, SelectorItemName, name)
	if err != nil {
		return err
	}
	before, err := p.r.Count(ctx, q(SelectorCartItem))
	if err != nil {
		return err
	}
	if err := p.r.Click(ctx, row.Find(SelectorRemove)); err != nil {
		return err
	}
	return p.r.WaitCount(ctx, q(SelectorCartItem), before-1)
}

// Checkout starts checkout.
func (p CartPage) Checkout(ctx context.Context) error {
	return p.clickTo(ctx, q(SelectorCheckout), PathCheckoutInfo)
}

// ContinueShopping returns to the inventory.
func (p CartPage) ContinueShopping(ctx context.Context) error {
	return p.clickTo(ctx, q(SelectorContinueShopping), PathInventory)
}
