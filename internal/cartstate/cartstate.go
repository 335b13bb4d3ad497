// Package cartstate reads and writes the storefront's persisted cart: a JSON
// array of product ids under one localStorage key, in insertion order.
package cartstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/themizzi/storecheck/internal/driver"
)

// Key is the localStorage slot holding the cart.
const Key = "cart-contents"

// ErrMalformed is returned when the slot holds something other than an array
// of integers.
var ErrMalformed = errors.New("malformed cart contents")

// Encode renders ids in the slot's format.
func Encode(ids []int) string {
	if ids == nil {
		ids = []int{}
	}
	b, _ := json.Marshal(ids)
	return string(b)
}

// Decode parses the slot's value.
func Decode(raw string) ([]int, error) {
	var ids []int
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrMalformed, raw, err)
	}
	if ids == nil {
		return nil, fmt.Errorf("%w: %q", ErrMalformed, raw)
	}
	return ids, nil
}

// Read returns the persisted ids. ok is false when the slot is absent.
func Read(ctx context.Context, r *driver.Runner) (ids []int, ok bool, err error) {
	raw, ok, err := r.ReadStorage(ctx, Key)
	if err != nil || !ok {
		return nil, ok, err
	}
	ids, err = Decode(raw)
	return ids, true, err
}

// Write replaces the persisted cart. It does not reload the page.
func Write(ctx context.Context, r *driver.Runner, ids []int) error {
	return r.WriteStorage(ctx, Key, Encode(ids))
}

// Clear removes the slot.
func Clear(ctx context.Context, r *driver.Runner) error {
	return r.RemoveStorage(ctx, Key)
}

// WaitContents waits until the slot holds exactly ids, in order.
func WaitContents(ctx context.Context, r *driver.Runner, ids []int) error {
	var last []int
	err := r.Eventually(ctx, fmt.Sprintf("%s to equal %v", Key, ids), func(ctx context.Context) (bool, error) {
		got, ok, err := Read(ctx, r)
		if err != nil {
			if errors.Is(err, ErrMalformed) {
				return false, driver.Permanent(err)
			}
			return false, err
		}
		last = got
		return ok && slices.Equal(got, ids), nil
	})
	if err != nil && driver.IsTimeout(err) {
		return fmt.Errorf("%s holds %v: %w", Key, last, err)
	}
	return err
}

// WaitAbsent waits until the slot has been removed.
func WaitAbsent(ctx context.Context, r *driver.Runner) error {
	return r.WaitStorageGone(ctx, Key)
}
