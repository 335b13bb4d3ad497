// Package storefake is an in-memory rendition of the demo storefront that
// implements driver.Driver. Pages are rendered from per-browser state and
// queried with goquery, so scenarios run without a real browser.
package storefake

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/themizzi/storecheck/internal/driver"
	"github.com/themizzi/storecheck/internal/fixtures"
)

// BaseURL is the origin every fake browser is bound to.
const BaseURL = "http://storefake.local"

// SessionCookie holds the logged-in username.
const SessionCookie = "session-username"

// Accounts known to the storefront.
const (
	StandardUser    = "standard_user"
	LockedOutUser   = "locked_out_user"
	ProblemUser     = "problem_user"
	GlitchUser      = "performance_glitch_user"
	DefaultPassword = "secret_sauce"
)

// Options configure a Store.
type Options struct {
	Catalog  fixtures.Catalog
	Password string
	// GlitchLoads is how many reads after a glitch-user login see an empty
	// page before the inventory appears.
	GlitchLoads int
}

// Store is the application under test. It is shared by every browser it
// opens; browsers share nothing else.
type Store struct {
	base     *url.URL
	catalog  fixtures.Catalog
	bySlug   map[string]fixtures.Product
	password string
	locked   map[string]bool
	accounts map[string]bool
	glitch   int

	logins atomic.Int64
	orders atomic.Int64
	open   atomic.Int64
}

// New creates a Store.
func New(opts Options) *Store {
	if opts.Catalog == nil {
		opts.Catalog = fixtures.Default()
	}
	if opts.Password == "" {
		opts.Password = DefaultPassword
	}
	if opts.GlitchLoads <= 0 {
		opts.GlitchLoads = 3
	}
	base, _ := url.Parse(BaseURL)
	s := &Store{
		base:     base,
		catalog:  opts.Catalog,
		bySlug:   make(map[string]fixtures.Product, len(opts.Catalog)),
		password: opts.Password,
		locked:   map[string]bool{LockedOutUser: true},
		accounts: map[string]bool{
			StandardUser:  true,
			LockedOutUser: true,
			ProblemUser:   true,
			GlitchUser:    true,
		},
		glitch: opts.GlitchLoads,
	}
	for _, p := range opts.Catalog {
		s.bySlug[slug(p.Name)] = p
	}
	return s
}

// NewDriver opens a fresh browser with empty state.
func (s *Store) NewDriver(ctx context.Context) (driver.Driver, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.NewBrowser(), nil
}

// NewBrowser is NewDriver returning the concrete type.
func (s *Store) NewBrowser() *Browser {
	b := &Browser{
		store:   s,
		cookies: map[string]driver.Cookie{},
		storage: map[string]string{},
		values:  map[string]string{},
		sort:    "az",
	}
	s.open.Add(1)
	return b
}

// Catalog returns the products the store sells.
func (s *Store) Catalog() fixtures.Catalog {
	return s.catalog
}

// Logins counts successful logins across all browsers.
func (s *Store) Logins() int {
	return int(s.logins.Load())
}

// Orders counts completed checkouts.
func (s *Store) Orders() int {
	return int(s.orders.Load())
}

// OpenBrowsers counts browsers that have not been closed.
func (s *Store) OpenBrowsers() int {
	return int(s.open.Load())
}

func (s *Store) authenticate(user, password string) bool {
	return s.accounts[user] && password == s.password
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

func slug(name string) string {
	return strings.Trim(slugRe.ReplaceAllString(strings.ToLower(name), "-"), "-")
}
