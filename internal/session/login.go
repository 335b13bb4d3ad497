package session

import (
	"context"
	"fmt"

	"github.com/themizzi/storecheck/internal/driver"
	"github.com/themizzi/storecheck/internal/pages"
)

// Login signs in through the login form and waits for either the inventory
// or the error banner. A banner is ErrLoginRejected carrying its text.
func Login(ctx context.Context, r *driver.Runner, creds Credentials) error {
	p := pages.New(r).Login
	if err := p.Open(ctx); err != nil {
		return err
	}
	if err := p.Login(ctx, creds.Username, creds.Password); err != nil {
		return err
	}
	return awaitLanding(ctx, r, "login outcome")
}

// Validate navigates to the inventory and confirms the browser stays there.
func Validate(ctx context.Context, r *driver.Runner) error {
	if err := r.Navigate(ctx, pages.PathInventory); err != nil {
		return err
	}
	return awaitLanding(ctx, r, "authenticated inventory")
}

// awaitLanding waits until the inventory list shows, failing at once when
// the app bounces to the login form with an error.
func awaitLanding(ctx context.Context, r *driver.Runner, what string) error {
	d := r.Driver()
	banner := driver.Query(pages.SelectorError)
	list := driver.Query(pages.SelectorInventoryList)
	return r.Eventually(ctx, what, func(ctx context.Context) (bool, error) {
		u, err := d.CurrentURL(ctx)
		if err != nil {
			return false, err
		}
		if u.Path == pages.PathInventory {
			n, err := d.Count(ctx, list)
			return err == nil && n > 0, err
		}
		if u.Path != pages.PathLogin {
			return false, nil
		}
		n, err := d.Count(ctx, banner)
		if err != nil || n == 0 {
			return false, err
		}
		msg, err := d.Text(ctx, banner)
		if err != nil {
			return false, err
		}
		return false, driver.Permanent(fmt.Errorf("%w: %s", ErrLoginRejected, msg))
	})
}
