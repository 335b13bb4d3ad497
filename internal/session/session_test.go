package session

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/themizzi/storecheck/internal/driver"
	"github.com/themizzi/storecheck/internal/pages"
	"github.com/themizzi/storecheck/internal/storefake"
)

var testUsers = map[string]Credentials{
	"standard": {Username: storefake.StandardUser, Password: storefake.DefaultPassword},
	"locked":   {Username: storefake.LockedOutUser, Password: storefake.DefaultPassword},
}

func newCache(opts Options) *Cache {
	if opts.Users == nil {
		opts.Users = testUsers
	}
	opts.Logger = log.New(io.Discard, "", 0)
	return NewCache(opts)
}

func newRunner(t *testing.T, s *storefake.Store) *driver.Runner {
	t.Helper()
	b := s.NewBrowser()
	t.Cleanup(func() { b.Close() })
	return driver.NewRunner(b, driver.Options{Timeout: 500 * time.Millisecond, Interval: time.Millisecond})
}

func TestGetCreatesThenRestores(t *testing.T) {
	// GIVEN an empty cache
	s := storefake.New(storefake.Options{})
	c := newCache(Options{})
	ctx := context.Background()
	key := Key{User: "standard", Purpose: "cart"}

	// WHEN the first scenario asks for a session
	first, err := c.Get(ctx, newRunner(t, s), key)
	if err != nil {
		t.Fatal(err)
	}

	// THEN it logs in and commits a snapshot
	if !first.Created || s.Logins() != 1 || c.Len() != 1 {
		t.Fatalf("first Get: created=%v logins=%d len=%d", first.Created, s.Logins(), c.Len())
	}

	// WHEN a second scenario with its own browser asks for the same key
	r2 := newRunner(t, s)
	second, err := c.Get(ctx, r2, key)
	if err != nil {
		t.Fatal(err)
	}

	// THEN the snapshot is restored without logging in again
	if second.Created || second.SnapshotID != first.SnapshotID {
		t.Errorf("second Get = %+v, want restored %s", second, first.SnapshotID)
	}
	if s.Logins() != 1 {
		t.Errorf("Logins() = %d, want 1", s.Logins())
	}
	if path, _ := r2.Path(ctx); path != pages.PathInventory {
		t.Errorf("restored browser at %q", path)
	}
}

func TestGetIsIdempotent(t *testing.T) {
	s := storefake.New(storefake.Options{})
	c := newCache(Options{})
	r := newRunner(t, s)
	ctx := context.Background()
	key := Key{User: "standard"}

	var ids []string
	for i := 0; i < 3; i++ {
		sess, err := c.Get(ctx, r, key)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, sess.SnapshotID.String())
	}
	if ids[0] != ids[1] || ids[1] != ids[2] {
		t.Errorf("snapshot ids changed: %v", ids)
	}
	if s.Logins() != 1 {
		t.Errorf("Logins() = %d", s.Logins())
	}
}

func TestGetRecreatesInvalidSession(t *testing.T) {
	// GIVEN a committed session that will fail its next validation
	s := storefake.New(storefake.Options{})
	var expire atomic.Bool
	c := newCache(Options{Validate: func(ctx context.Context, r *driver.Runner) error {
		if expire.CompareAndSwap(true, false) {
			return errors.New("session expired")
		}
		return Validate(ctx, r)
	}})
	ctx := context.Background()
	key := Key{User: "standard"}
	first, err := c.Get(ctx, newRunner(t, s), key)
	if err != nil {
		t.Fatal(err)
	}

	// WHEN it is requested again
	expire.Store(true)
	second, err := c.Get(ctx, newRunner(t, s), key)

	// THEN the login runs again and a new snapshot replaces the old one
	if err != nil {
		t.Fatal(err)
	}
	if !second.Created || second.SnapshotID == first.SnapshotID {
		t.Errorf("expected a new snapshot, got %+v", second)
	}
	if s.Logins() != 2 || c.Len() != 1 {
		t.Errorf("logins=%d len=%d", s.Logins(), c.Len())
	}
}

func TestGetWithClearedCookiesLogsInAgain(t *testing.T) {
	s := storefake.New(storefake.Options{})
	c := newCache(Options{})
	ctx := context.Background()
	key := Key{User: "standard"}
	if _, err := c.Get(ctx, newRunner(t, s), key); err != nil {
		t.Fatal(err)
	}

	// a snapshot whose cookie was lost can no longer reach the inventory
	c.mu.Lock()
	snap := c.snaps[key]
	snap.State.Cookies = nil
	c.snaps[key] = snap
	c.mu.Unlock()

	sess, err := c.Get(ctx, newRunner(t, s), key)
	if err != nil {
		t.Fatal(err)
	}
	if !sess.Created || s.Logins() != 2 {
		t.Errorf("created=%v logins=%d", sess.Created, s.Logins())
	}
}

func TestLoginRejectedIsSetupError(t *testing.T) {
	s := storefake.New(storefake.Options{})
	var attempts atomic.Int32
	c := newCache(Options{Login: func(ctx context.Context, r *driver.Runner, creds Credentials) error {
		attempts.Add(1)
		return Login(ctx, r, creds)
	}})
	ctx := context.Background()

	_, err := c.Get(ctx, newRunner(t, s), Key{User: "locked"})

	var setup *SetupError
	if !errors.As(err, &setup) {
		t.Fatalf("expected *SetupError, got %v", err)
	}
	if !errors.Is(err, ErrLoginRejected) {
		t.Errorf("expected ErrLoginRejected, got %v", err)
	}
	if !strings.Contains(err.Error(), storefake.MsgLockedOut) {
		t.Errorf("error should carry the banner text: %v", err)
	}
	if driver.IsTimeout(err) {
		t.Error("a rejected login must not wait for the timeout")
	}
	if attempts.Load() != 1 {
		t.Errorf("login attempted %d times, want 1", attempts.Load())
	}
	if c.Len() != 0 {
		t.Errorf("failed login committed a snapshot")
	}
}

func TestUnknownUser(t *testing.T) {
	c := newCache(Options{})
	_, err := c.Get(context.Background(), newRunner(t, storefake.New(storefake.Options{})), Key{User: "nobody"})
	if !errors.Is(err, ErrUnknownUser) {
		t.Errorf("expected ErrUnknownUser, got %v", err)
	}
}

func TestConcurrentGetLogsInOnce(t *testing.T) {
	// GIVEN several scenarios starting together, each with its own browser
	s := storefake.New(storefake.Options{})
	release := make(chan struct{})
	c := newCache(Options{Login: func(ctx context.Context, r *driver.Runner, creds Credentials) error {
		<-release
		return Login(ctx, r, creds)
	}})
	ctx := context.Background()
	key := Key{User: "standard", Purpose: "parallel"}

	const n = 5
	runners := make([]*driver.Runner, n)
	for i := range runners {
		runners[i] = newRunner(t, s)
	}

	// WHEN they all ask for the same session
	var wg sync.WaitGroup
	results := make([]*Session, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.Get(ctx, runners[i], key)
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	// THEN exactly one logged in and everyone got the same snapshot
	created := 0
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("Get %d: %v", i, errs[i])
		}
		if results[i].Created {
			created++
		}
		if results[i].SnapshotID != results[0].SnapshotID {
			t.Errorf("Get %d returned snapshot %s, want %s", i, results[i].SnapshotID, results[0].SnapshotID)
		}
		if path, _ := runners[i].Path(ctx); path != pages.PathInventory {
			t.Errorf("runner %d at %q", i, path)
		}
	}
	if created != 1 || s.Logins() != 1 {
		t.Errorf("created=%d logins=%d, want 1 and 1", created, s.Logins())
	}
}

func TestCancelledLoginCommitsNothing(t *testing.T) {
	s := storefake.New(storefake.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	c := newCache(Options{Login: func(ctx context.Context, r *driver.Runner, creds Credentials) error {
		if err := Login(ctx, r, creds); err != nil {
			return err
		}
		cancel()
		return nil
	}})

	_, err := c.Get(ctx, newRunner(t, s), Key{User: "standard"})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if c.Len() != 0 {
		t.Error("cancelled creation must not commit a snapshot")
	}
}

func TestInvalidateAndClear(t *testing.T) {
	s := storefake.New(storefake.Options{})
	c := newCache(Options{})
	ctx := context.Background()
	a, b := Key{User: "standard", Purpose: "a"}, Key{User: "standard", Purpose: "b"}
	for _, k := range []Key{b, a} {
		if _, err := c.Get(ctx, newRunner(t, s), k); err != nil {
			t.Fatal(err)
		}
	}

	keys := c.Keys()
	if len(keys) != 2 || keys[0] != a || keys[1] != b {
		t.Errorf("Keys() = %v", keys)
	}
	if s.Logins() != 2 {
		t.Errorf("purposes should not share a session: logins=%d", s.Logins())
	}

	c.Invalidate(a)
	if _, ok := c.Snapshot(a); ok || c.Len() != 1 {
		t.Error("Invalidate did not drop the snapshot")
	}
	c.Clear()
	if c.Len() != 0 {
		t.Error("Clear left snapshots behind")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := storefake.New(storefake.Options{})
	c := newCache(Options{})
	key := Key{User: "standard"}
	if _, err := c.Get(context.Background(), newRunner(t, s), key); err != nil {
		t.Fatal(err)
	}

	snap, _ := c.Snapshot(key)
	snap.State.Local["injected"] = "x"
	snap.State.Cookies[0].Value = "tampered"

	again, _ := c.Snapshot(key)
	if _, ok := again.State.Local["injected"]; ok || again.State.Cookies[0].Value == "tampered" {
		t.Error("mutating a returned snapshot changed the cache")
	}
}

func TestGetRequiresAuthCookie(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{
			name: "real login sets the storefront cookie",
			opts: Options{},
		},
		{
			name: "validation passes without a login",
			opts: Options{
				Login: func(ctx context.Context, r *driver.Runner, _ Credentials) error {
					return r.Navigate(ctx, storefake.PathLogin)
				},
				Validate: func(context.Context, *driver.Runner) error { return nil },
			},
			wantErr: true,
		},
		{
			name:    "different cookie expected",
			opts:    Options{AuthCookie: "auth-token"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN
			c := newCache(tt.opts)
			r := newRunner(t, storefake.New(storefake.Options{}))

			// WHEN
			_, err := c.Get(context.Background(), r, Key{User: "standard"})

			// THEN
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("Get() error = %v", err)
				}
				if c.Len() != 1 {
					t.Errorf("Len() = %d, want 1", c.Len())
				}
				return
			}
			var setup *SetupError
			if !errors.As(err, &setup) || !errors.Is(err, ErrNoAuthCookie) {
				t.Fatalf("Get() error = %v, want SetupError wrapping ErrNoAuthCookie", err)
			}
			if c.Len() != 0 {
				t.Errorf("Len() = %d, want nothing committed", c.Len())
			}
		})
	}
}
