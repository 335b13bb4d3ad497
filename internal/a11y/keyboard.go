package a11y

import (
	"context"
	"fmt"

	"github.com/themizzi/storecheck/internal/driver"
)

// TabOrder presses Tab n times from the current focus and returns the id
// focused after each press.
func TabOrder(ctx context.Context, r *driver.Runner, n int) ([]string, error) {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if err := r.Press(ctx, "Tab"); err != nil {
			return out, err
		}
		id, err := r.FocusedID(ctx)
		if err != nil {
			return out, err
		}
		out = append(out, id)
	}
	return out, nil
}

// ExpectFocus presses Tab and fails unless the element with id receives
// focus.
func ExpectFocus(ctx context.Context, r *driver.Runner, id string) error {
	if err := r.Press(ctx, "Tab"); err != nil {
		return err
	}
	return r.Eventually(ctx, "focus on #"+id, func(ctx context.Context) (bool, error) {
		got, err := r.FocusedID(ctx)
		if err != nil {
			return false, err
		}
		if got != id {
			return false, fmt.Errorf("focus is on %q", got)
		}
		return true, nil
	})
}
