// Package scenarios is the canonical storefront suite. Each behavior is one
// scenario; variants of the same behavior are generated from a table and
// named with a trailing path element.
package scenarios

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"

	"github.com/themizzi/storecheck/internal/driver"
	"github.com/themizzi/storecheck/internal/fixtures"
	"github.com/themizzi/storecheck/internal/harness"
	"github.com/themizzi/storecheck/internal/pages"
	"github.com/themizzi/storecheck/internal/session"
)

// User keys the suite signs in as.
const (
	UserStandard = "standard"
	UserLocked   = "locked"
	UserProblem  = "problem"
	UserGlitch   = "glitch"
)

// Session purposes. Scenarios that only read share a session; scenarios
// that change the cart get their own so a cached snapshot never carries a
// cart between them.
const (
	PurposeBrowse   = "browse"
	PurposeCart     = "cart"
	PurposeCheckout = "checkout"
	PurposeLogout   = "logout"
)

// DefaultPassword is the demo storefront's shared password.
const DefaultPassword = "secret_sauce"

// DefaultUsers returns the demo storefront's public accounts.
func DefaultUsers() map[string]session.Credentials {
	return map[string]session.Credentials{
		UserStandard: {Username: "standard_user", Password: DefaultPassword},
		UserLocked:   {Username: "locked_out_user", Password: DefaultPassword},
		UserProblem:  {Username: "problem_user", Password: DefaultPassword},
		UserGlitch:   {Username: "performance_glitch_user", Password: DefaultPassword},
	}
}

// Deps is what every scenario shares.
type Deps struct {
	Sessions *session.Cache
	Catalog  fixtures.Catalog
	Users    map[string]session.Credentials
	// Seed makes random samples reproducible. Zero picks one from the clock.
	Seed uint64
}

// Env is one scenario's view of the world: its own runner and page objects
// plus the shared session cache and fixtures.
type Env struct {
	T        *harness.T
	Ctx      context.Context
	Runner   *driver.Runner
	Pages    pages.Registry
	Sessions *session.Cache
	Catalog  fixtures.Catalog
	Users    map[string]session.Credentials
	Rand     *rand.Rand
}

// Credentials returns the account for user, skipping the scenario when the
// users file does not define it.
func (e *Env) Credentials(user string) session.Credentials {
	creds, ok := e.Users[user]
	if !ok {
		e.T.Skip(fmt.Sprintf("no credentials for user %q", user))
	}
	return creds
}

// Login puts the browser on the inventory as the standard user, reusing the
// session cached for purpose.
func (e *Env) Login(purpose string) session.Key {
	key := session.Key{User: UserStandard, Purpose: purpose}
	s, err := e.Sessions.Get(e.Ctx, e.Runner, key)
	e.T.Require(err)
	e.T.Debug("session %s (created=%v)", key, s.Created)
	return key
}

// Product looks a fixture up by name; a missing name is a setup failure.
func (e *Env) Product(name string) fixtures.Product {
	p, ok := e.Catalog.ByName(name)
	if !ok {
		e.T.Require(harness.Setup(fmt.Errorf("%w: %s", fixtures.ErrUnknownProduct, name)))
	}
	return p
}

// Products looks up several fixtures by name, keeping their order.
func (e *Env) Products(names ...string) fixtures.Catalog {
	c, err := e.Catalog.Select(names...)
	e.T.Require(harness.Setup(err))
	return c
}

type builder struct {
	deps Deps
	seed uint64
	out  []harness.Scenario
}

func (b *builder) add(name string, fn func(e *Env)) {
	seed := b.seed
	b.out = append(b.out, harness.Scenario{
		Name: name,
		Run: func(t *harness.T, r *driver.Runner) {
			h := fnv.New64a()
			h.Write([]byte(name))
			t.Debug("random seed %d", seed)
			fn(&Env{
				T:        t,
				Ctx:      t.Context(),
				Runner:   r,
				Pages:    pages.New(r),
				Sessions: b.deps.Sessions,
				Catalog:  b.deps.Catalog,
				Users:    b.deps.Users,
				Rand:     rand.New(rand.NewPCG(seed, h.Sum64())),
			})
		},
	})
}

// Suite returns every scenario in a stable order.
func Suite(deps Deps) []harness.Scenario {
	if deps.Catalog == nil {
		deps.Catalog = fixtures.Default()
	}
	if deps.Users == nil {
		deps.Users = DefaultUsers()
	}
	seed := deps.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	b := &builder{deps: deps, seed: seed}
	loginScenarios(b)
	inventoryScenarios(b)
	cartScenarios(b)
	checkoutScenarios(b)
	accessibilityScenarios(b)
	return b.out
}

// Names lists scenario names in suite order.
func Names(scenarios []harness.Scenario) []string {
	names := make([]string, len(scenarios))
	for i, s := range scenarios {
		names[i] = s.Name
	}
	return names
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

func slug(s string) string {
	return strings.Trim(slugRe.ReplaceAllString(strings.ToLower(s), "-"), "-")
}
