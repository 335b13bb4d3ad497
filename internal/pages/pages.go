// Package pages models the storefront's regions as page objects. A page
// object holds no DOM handles: every operation re-resolves its locators
// through the Runner, takes logical values and returns typed results.
package pages

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/themizzi/storecheck/internal/driver"
)

// Storefront paths
const (
	PathLogin            = "/"
	PathInventory        = "/inventory.html"
	PathItem             = "/inventory-item.html"
	PathCart             = "/cart.html"
	PathCheckoutInfo     = "/checkout-step-one.html"
	PathCheckoutOverview = "/checkout-step-two.html"
	PathCheckoutComplete = "/checkout-complete.html"
)

// SessionCookie is the cookie the storefront sets on a successful login.
const SessionCookie = "session-username"

// Registry groups the page objects bound to one runner.
type Registry struct {
	Login     LoginPage
	Inventory InventoryPage
	Item      ItemPage
	Cart      CartPage
	Checkout  CheckoutPage
	Menu      Menu
}

// New returns the page objects for r.
func New(r *driver.Runner) Registry {
	b := base{r: r}
	h := Header{base: b}
	return Registry{
		Login:     LoginPage{base: b},
		Inventory: InventoryPage{Header: h},
		Item:      ItemPage{Header: h},
		Cart:      CartPage{Header: h},
		Checkout:  CheckoutPage{Header: h},
		Menu:      Menu{base: b},
	}
}

type base struct {
	r *driver.Runner
}

func q(selector string) driver.Locator {
	return driver.Query(selector)
}

// open navigates to path and waits for ready to exist.
func (b base) open(ctx context.Context, path, ready string) error {
	if err := b.r.Navigate(ctx, path); err != nil {
		return err
	}
	if err := b.r.WaitPath(ctx, pathOnly(path)); err != nil {
		return err
	}
	return b.r.Exists(ctx, q(ready))
}

// clickTo clicks sel and waits for the browser to reach path.
func (b base) clickTo(ctx context.Context, sel driver.Locator, path string) error {
	if err := b.r.Click(ctx, sel); err != nil {
		return err
	}
	return b.r.WaitPath(ctx, path)
}

// findByText waits for a match of container whose descendant textSel reads
// exactly text, and returns a locator pinned to that match's position.
func (b base) findByText(ctx context.Context, container, textSel, text string) (driver.Locator, error) {
	var found driver.Locator
	d := b.r.Driver()
	all := q(container)
	err := b.r.Eventually(ctx, fmt.Sprintf("%s with %s %q", container, textSel, text), func(ctx context.Context) (bool, error) {
		n, err := d.Count(ctx, all)
		if err != nil {
			return false, err
		}
		for i := 0; i < n; i++ {
			el := all.Nth(i)
			t, err := d.Text(ctx, el.Find(textSel))
			if errors.Is(err, driver.ErrNotFound) {
				continue
			}
			if err != nil {
				return false, err
			}
			if t == text {
				found = el
				return true, nil
			}
		}
		return false, fmt.Errorf("%s %q: %w", container, text, driver.ErrNotFound)
	})
	return found, err
}

// hasClass reports whether the first match of loc carries class.
func (b base) hasClass(ctx context.Context, loc driver.Locator, class string) (bool, error) {
	v, _, err := b.r.Attribute(ctx, loc, "class")
	if err != nil {
		return false, err
	}
	return slices.Contains(strings.Fields(v), class), nil
}

func pathOnly(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		return p[:i]
	}
	return p
}
