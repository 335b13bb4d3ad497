// Package driver is the boundary between scenarios and the browser. Driver
// implementations perform a single attempt per call; Runner layers bounded
// polling on top so scenario code never waits forever.
package driver

import (
	"context"
	"net/url"
)

// Cookie is a browser cookie in a driver-neutral shape.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain,omitempty"`
	Path     string  `json:"path,omitempty"`
	Expires  float64 `json:"expires,omitempty"`
	HTTPOnly bool    `json:"httpOnly,omitempty"`
	Secure   bool    `json:"secure,omitempty"`
}

// StorageState is the authentication-relevant browser state of one context.
type StorageState struct {
	Cookies []Cookie          `json:"cookies"`
	Local   map[string]string `json:"localStorage"`
}

// Clone returns a deep copy so callers never share mutable state.
func (s StorageState) Clone() StorageState {
	out := StorageState{
		Cookies: append([]Cookie(nil), s.Cookies...),
		Local:   make(map[string]string, len(s.Local)),
	}
	for k, v := range s.Local {
		out.Local[k] = v
	}
	return out
}

// Driver issues browser commands against one isolated browser context.
// Calls that target an element return ErrNotFound when nothing matches.
type Driver interface {
	Navigate(ctx context.Context, path string) error
	CurrentURL(ctx context.Context) (*url.URL, error)

	Count(ctx context.Context, loc Locator) (int, error)
	Click(ctx context.Context, loc Locator) error
	Type(ctx context.Context, loc Locator, text string) error
	Select(ctx context.Context, loc Locator, value string) error
	Press(ctx context.Context, key string) error
	// TypeFocused types text through the keyboard into whatever has focus.
	TypeFocused(ctx context.Context, text string) error

	Text(ctx context.Context, loc Locator) (string, error)
	Attribute(ctx context.Context, loc Locator, name string) (string, bool, error)
	Value(ctx context.Context, loc Locator) (string, error)
	FocusedID(ctx context.Context) (string, error)
	Content(ctx context.Context) (string, error)

	ReadStorage(ctx context.Context, key string) (string, bool, error)
	WriteStorage(ctx context.Context, key, value string) error
	RemoveStorage(ctx context.Context, key string) error
	StorageKeys(ctx context.Context) ([]string, error)

	Cookies(ctx context.Context) ([]Cookie, error)
	SetCookies(ctx context.Context, cookies []Cookie) error
	ClearState(ctx context.Context) error

	Close() error
}

// Factory opens a fresh, isolated browser context per scenario.
type Factory interface {
	NewDriver(ctx context.Context) (Driver, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(ctx context.Context) (Driver, error)

// NewDriver calls f.
func (f FactoryFunc) NewDriver(ctx context.Context) (Driver, error) {
	return f(ctx)
}
