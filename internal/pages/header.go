package pages

import (
	"context"
	"fmt"
	"strconv"
)

// Header is the bar shown on every logged-in page.
type Header struct {
	base
}

// Title returns the secondary header title, e.g. "Products".
func (h Header) Title(ctx context.Context) (string, error) {
	return h.r.Text(ctx, q(SelectorTitle))
}

// CartBadge returns the number on the cart badge; 0 when there is none.
func (h Header) CartBadge(ctx context.Context) (int, error) {
	n, err := h.r.Count(ctx, q(SelectorCartBadge))
	if err != nil || n == 0 {
		return 0, err
	}
	text, err := h.r.Text(ctx, q(SelectorCartBadge))
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("cart badge %q is not a number: %w", text, err)
	}
	return v, nil
}

// WaitBadge waits until the badge shows n, or is absent when n is 0.
func (h Header) WaitBadge(ctx context.Context, n int) error {
	if n == 0 {
		return h.r.WaitGone(ctx, q(SelectorCartBadge))
	}
	return h.r.WaitText(ctx, q(SelectorCartBadge), strconv.Itoa(n))
}

// OpenCart follows the cart link.
func (h Header) OpenCart(ctx context.Context) error {
	return h.clickTo(ctx, q(SelectorCartLink), PathCart)
}

// Menu is the burger side menu.
type Menu struct {
	base
}

// Open shows the menu.
func (m Menu) Open(ctx context.Context) error {
	if err := m.r.Click(ctx, q(SelectorMenuButton)); err != nil {
		return err
	}
	return m.r.Exists(ctx, q(SelectorMenu))
}

// Logout signs out through the menu and waits for the login page.
func (m Menu) Logout(ctx context.Context) error {
	if err := m.Open(ctx); err != nil {
		return err
	}
	return m.clickTo(ctx, q(SelectorLogout), PathLogin)
}

// ResetAppState empties the cart through the menu.
func (m Menu) ResetAppState(ctx context.Context) error {
	if err := m.Open(ctx); err != nil {
		return err
	}
	if err := m.r.Click(ctx, q(SelectorReset)); err != nil {
		return err
	}
	return m.r.WaitGone(ctx, q(SelectorCartBadge))
}

// AllItems returns to the inventory through the menu.
func (m Menu) AllItems(ctx context.Context) error {
	if err := m.Open(ctx); err != nil {
		return err
	}
	return m.clickTo(ctx, q(SelectorAllItems), PathInventory)
}
