// Package session caches authenticated browser state per (user, purpose) so
// scenarios log in once and restore the snapshot afterwards.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/themizzi/storecheck/internal/driver"
	"github.com/themizzi/storecheck/internal/pages"
)

// Session errors
var (
	ErrUnknownUser   = errors.New("unknown user")
	ErrLoginRejected = errors.New("login rejected")
	ErrInvalid       = errors.New("session did not validate")
	ErrNoAuthCookie  = errors.New("no auth cookie after login")
)

// Key identifies a cached session.
type Key struct {
	User    string
	Purpose string
}

func (k Key) String() string {
	if k.Purpose == "" {
		return k.User
	}
	return k.User + "/" + k.Purpose
}

// Credentials are what the login form needs.
type Credentials struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Snapshot is committed authentication state.
type Snapshot struct {
	ID        uuid.UUID
	Key       Key
	State     driver.StorageState
	CreatedAt time.Time
}

// Session is what Get hands back. The browser behind the runner is logged in
// and showing the protected landing page.
type Session struct {
	Key        Key
	SnapshotID uuid.UUID
	// Created is true when this call performed the login.
	Created bool
}

// SetupError is a precondition failure while establishing a session. It is
// never retried.
type SetupError struct {
	Key Key
	Err error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("session setup for %s failed: %v", e.Key, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

// LoginFunc signs creds in through r.
type LoginFunc func(ctx context.Context, r *driver.Runner, creds Credentials) error

// ValidateFunc confirms that the browser behind r is authenticated.
type ValidateFunc func(ctx context.Context, r *driver.Runner) error

// Logger receives cache events.
type Logger interface {
	Printf(format string, args ...interface{})
}

// Options configure a Cache.
type Options struct {
	Users    map[string]Credentials
	Login    LoginFunc
	Validate ValidateFunc
	Logger   Logger
	// AuthCookie must be present in the captured state before a snapshot is
	// committed. Defaults to pages.SessionCookie.
	AuthCookie string
}

// Cache holds one snapshot per key. It is safe for concurrent use; creation
// for the same key is deduplicated.
type Cache struct {
	users    map[string]Credentials
	login    LoginFunc
	validate ValidateFunc
	logger   Logger
	cookie   string
	now      func() time.Time

	mu    sync.Mutex
	snaps map[Key]Snapshot
	group singleflight.Group
}

// NewCache creates an empty cache.
func NewCache(opts Options) *Cache {
	if opts.Login == nil {
		opts.Login = Login
	}
	if opts.Validate == nil {
		opts.Validate = Validate
	}
	if opts.Logger == nil {
		opts.Logger = log.New(os.Stdout, "[session] ", log.LstdFlags)
	}
	if opts.AuthCookie == "" {
		opts.AuthCookie = pages.SessionCookie
	}
	users := make(map[string]Credentials, len(opts.Users))
	for k, v := range opts.Users {
		users[k] = v
	}
	return &Cache{
		users:    users,
		login:    opts.Login,
		validate: opts.Validate,
		logger:   opts.Logger,
		cookie:   opts.AuthCookie,
		now:      time.Now,
		snaps:    map[Key]Snapshot{},
	}
}

// Get returns a logged-in session for key in the browser behind r. A cached
// snapshot is restored and validated; when it no longer validates it is
// dropped and the login runs again.
func (c *Cache) Get(ctx context.Context, r *driver.Runner, key Key) (*Session, error) {
	if snap, ok := c.Snapshot(key); ok {
		err := c.restore(ctx, r, snap)
		if err == nil {
			return &Session{Key: key, SnapshotID: snap.ID}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.Printf("session %s (%s) failed validation, logging in again: %v", key, snap.ID, err)
		c.drop(key, snap.ID)
	}
	return c.create(ctx, r, key)
}

func (c *Cache) restore(ctx context.Context, r *driver.Runner, snap Snapshot) error {
	if err := r.RestoreState(ctx, snap.State.Clone()); err != nil {
		return err
	}
	if err := c.validate(ctx, r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

func (c *Cache) create(ctx context.Context, r *driver.Runner, key Key) (*Session, error) {
	for {
		created := false
		ch := c.group.DoChan(key.String(), func() (interface{}, error) {
			created = true
			return c.establish(ctx, r, key)
		})

		var res singleflight.Result
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res = <-ch:
		}

		if created {
			if res.Err != nil {
				return nil, res.Err
			}
			snap := res.Val.(Snapshot)
			return &Session{Key: key, SnapshotID: snap.ID, Created: true}, nil
		}

		// Another caller did the login. Its cancellation is not ours, so
		// try again; any other failure applies to us too.
		if res.Err != nil {
			if isContextErr(res.Err) && ctx.Err() == nil {
				continue
			}
			return nil, res.Err
		}
		snap := res.Val.(Snapshot)
		if err := c.restore(ctx, r, snap); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, &SetupError{Key: key, Err: err}
		}
		return &Session{Key: key, SnapshotID: snap.ID}, nil
	}
}

// establish logs in from a clean state and commits the snapshot only once
// login and validation have both succeeded.
func (c *Cache) establish(ctx context.Context, r *driver.Runner, key Key) (Snapshot, error) {
	creds, ok := c.users[key.User]
	if !ok {
		return Snapshot{}, &SetupError{Key: key, Err: fmt.Errorf("%w: %q", ErrUnknownUser, key.User)}
	}
	start := c.now()
	if err := r.RestoreState(ctx, driver.StorageState{}); err != nil {
		return Snapshot{}, c.setupErr(ctx, key, err)
	}
	if err := c.login(ctx, r, creds); err != nil {
		return Snapshot{}, c.setupErr(ctx, key, err)
	}
	if err := c.validate(ctx, r); err != nil {
		return Snapshot{}, c.setupErr(ctx, key, fmt.Errorf("%w after login: %v", ErrInvalid, err))
	}
	state, err := r.CaptureState(ctx)
	if err != nil {
		return Snapshot{}, c.setupErr(ctx, key, err)
	}
	if !slices.ContainsFunc(state.Cookies, func(ck driver.Cookie) bool { return ck.Name == c.cookie }) {
		return Snapshot{}, c.setupErr(ctx, key, fmt.Errorf("%w: %s", ErrNoAuthCookie, c.cookie))
	}
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{ID: uuid.New(), Key: key, State: state.Clone(), CreatedAt: c.now()}
	c.mu.Lock()
	c.snaps[key] = snap
	c.mu.Unlock()
	c.logger.Printf("session %s created as %s in %s", key, snap.ID, c.now().Sub(start).Round(time.Millisecond))
	return snap, nil
}

func (c *Cache) setupErr(ctx context.Context, key Key, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return &SetupError{Key: key, Err: err}
}

// Snapshot returns a copy of the committed snapshot for key.
func (c *Cache) Snapshot(key Key) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap, ok := c.snaps[key]
	if !ok {
		return Snapshot{}, false
	}
	snap.State = snap.State.Clone()
	return snap, true
}

// Invalidate drops the snapshot for key.
func (c *Cache) Invalidate(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.snaps, key)
}

// drop removes the snapshot for key only if it is still id, so a snapshot a
// concurrent caller just committed survives.
func (c *Cache) drop(key Key, id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if snap, ok := c.snaps[key]; ok && snap.ID == id {
		delete(c.snaps, key)
	}
}

// Len returns the number of committed snapshots.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.snaps)
}

// Keys returns the keys with committed snapshots, sorted.
func (c *Cache) Keys() []Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]Key, 0, len(c.snaps))
	for k := range c.snaps {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// Clear drops every snapshot.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snaps = map[Key]Snapshot{}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
