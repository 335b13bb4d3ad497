package driver

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"time"
)

// Polling defaults
const (
	DefaultTimeout     = 10 * time.Second
	DefaultInterval    = 50 * time.Millisecond
	DefaultMaxInterval = 500 * time.Millisecond
)

// ErrNoAttribute is returned when an element exists but lacks the attribute.
var ErrNoAttribute = errors.New("attribute not present")

// Logger receives debug output from the runner.
type Logger interface {
	Printf(format string, args ...interface{})
}

type nullLogger struct{}

func (nullLogger) Printf(string, ...interface{}) {}

// Options bound the runner's polling.
type Options struct {
	Timeout     time.Duration
	Interval    time.Duration
	MaxInterval time.Duration
	Logger      Logger
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.MaxInterval < o.Interval {
		o.MaxInterval = DefaultMaxInterval
		if o.MaxInterval < o.Interval {
			o.MaxInterval = o.Interval
		}
	}
	if o.Logger == nil {
		o.Logger = nullLogger{}
	}
	return o
}

// Runner wraps a Driver with bounded waits. Every operation that needs its
// target to exist polls with a capped, doubling backoff and gives up with a
// *TimeoutError once Options.Timeout has elapsed.
type Runner struct {
	d    Driver
	opts Options
}

// NewRunner creates a Runner over d.
func NewRunner(d Driver, opts Options) *Runner {
	return &Runner{d: d, opts: opts.withDefaults()}
}

// Driver returns the wrapped driver.
func (r *Runner) Driver() Driver {
	return r.d
}

// Timeout returns the bound applied to each wait.
func (r *Runner) Timeout() time.Duration {
	return r.opts.Timeout
}

// Eventually polls cond until it reports true, the context ends, or the
// timeout elapses. Errors from cond are retried and kept as the last error.
func (r *Runner) Eventually(ctx context.Context, what string, cond func(ctx context.Context) (bool, error)) error {
	start := time.Now()
	deadline := start.Add(r.opts.Timeout)
	interval := r.opts.Interval
	var last error
	for {
		ok, err := cond(ctx)
		if err == nil && ok {
			return nil
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			var p *permanentError
			if errors.As(err, &p) {
				return p.err
			}
			if errors.Is(err, ErrClosed) {
				return err
			}
			last = err
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			r.opts.Logger.Printf("gave up waiting for %s after %s", what, time.Since(start).Round(time.Millisecond))
			return &TimeoutError{
				What:    what,
				Waited:  time.Since(start),
				Last:    last,
				Missing: last != nil && errors.Is(last, ErrNotFound),
			}
		}
		sleep := interval
		if sleep > remaining {
			sleep = remaining
		}
		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		interval *= 2
		if interval > r.opts.MaxInterval {
			interval = r.opts.MaxInterval
		}
	}
}

// Navigate loads path relative to the base URL.
func (r *Runner) Navigate(ctx context.Context, path string) error {
	r.opts.Logger.Printf("navigate %s", path)
	if err := r.d.Navigate(ctx, path); err != nil {
		return &NavigationError{Path: path, Err: err}
	}
	return nil
}

// URL returns the current page URL.
func (r *Runner) URL(ctx context.Context) (*url.URL, error) {
	return r.d.CurrentURL(ctx)
}

// Path returns the current URL path.
func (r *Runner) Path(ctx context.Context) (string, error) {
	u, err := r.d.CurrentURL(ctx)
	if err != nil {
		return "", err
	}
	return u.Path, nil
}

// WaitPath waits until the current path equals path.
func (r *Runner) WaitPath(ctx context.Context, path string) error {
	var current string
	err := r.Eventually(ctx, "path "+path, func(ctx context.Context) (bool, error) {
		p, err := r.Path(ctx)
		current = p
		return err == nil && p == path, err
	})
	if err != nil && IsTimeout(err) {
		return fmt.Errorf("expected path %q, still at %q: %w", path, current, err)
	}
	return err
}

// WaitURL waits until the current URL's path plus query matches re.
func (r *Runner) WaitURL(ctx context.Context, re *regexp.Regexp) error {
	return r.Eventually(ctx, "url matching "+re.String(), func(ctx context.Context) (bool, error) {
		u, err := r.d.CurrentURL(ctx)
		if err != nil {
			return false, err
		}
		return re.MatchString(u.RequestURI()), nil
	})
}

// Count returns the current number of matches without waiting.
func (r *Runner) Count(ctx context.Context, loc Locator) (int, error) {
	return r.d.Count(ctx, loc)
}

// Exists waits until loc matches at least one element.
func (r *Runner) Exists(ctx context.Context, loc Locator) error {
	return r.Eventually(ctx, loc.String(), func(ctx context.Context) (bool, error) {
		n, err := r.d.Count(ctx, loc)
		if err != nil {
			return false, err
		}
		if n == 0 {
			return false, fmt.Errorf("%s: %w", loc, ErrNotFound)
		}
		return true, nil
	})
}

// WaitGone waits until loc matches nothing.
func (r *Runner) WaitGone(ctx context.Context, loc Locator) error {
	return r.Eventually(ctx, loc.String()+" to disappear", func(ctx context.Context) (bool, error) {
		n, err := r.d.Count(ctx, loc)
		return err == nil && n == 0, err
	})
}

// WaitCount waits until loc matches exactly n elements.
func (r *Runner) WaitCount(ctx context.Context, loc Locator, n int) error {
	return r.WaitCountFunc(ctx, loc, fmt.Sprintf("%d matches", n), func(c int) bool { return c == n })
}

// WaitCountFunc waits until the match count satisfies pred and returns it.
func (r *Runner) WaitCountFunc(ctx context.Context, loc Locator, what string, pred func(int) bool) error {
	last := -1
	err := r.Eventually(ctx, fmt.Sprintf("%s with %s", loc, what), func(ctx context.Context) (bool, error) {
		n, err := r.d.Count(ctx, loc)
		last = n
		return err == nil && pred(n), err
	})
	if err != nil && IsTimeout(err) {
		return fmt.Errorf("%s has %d matches: %w", loc, last, err)
	}
	return err
}

// Click waits for loc and clicks it.
func (r *Runner) Click(ctx context.Context, loc Locator) error {
	r.opts.Logger.Printf("click %s", loc)
	return r.retry(ctx, "click "+loc.String(), func(ctx context.Context) error {
		return r.d.Click(ctx, loc)
	})
}

// Type waits for loc and types text into it.
func (r *Runner) Type(ctx context.Context, loc Locator, text string) error {
	r.opts.Logger.Printf("type into %s", loc)
	return r.retry(ctx, "type into "+loc.String(), func(ctx context.Context) error {
		return r.d.Type(ctx, loc, text)
	})
}

// Select waits for the select element loc and chooses the option value.
func (r *Runner) Select(ctx context.Context, loc Locator, value string) error {
	r.opts.Logger.Printf("select %q in %s", value, loc)
	return r.retry(ctx, "select in "+loc.String(), func(ctx context.Context) error {
		return r.d.Select(ctx, loc, value)
	})
}

// Press sends a key to the focused element.
func (r *Runner) Press(ctx context.Context, key string) error {
	r.opts.Logger.Printf("press %s", key)
	return r.d.Press(ctx, key)
}

// TypeFocused types text into the focused element without targeting it, the
// way a keyboard-only user would.
func (r *Runner) TypeFocused(ctx context.Context, text string) error {
	r.opts.Logger.Printf("type into focused element")
	return r.d.TypeFocused(ctx, text)
}

// Text waits for loc and returns its text content.
func (r *Runner) Text(ctx context.Context, loc Locator) (string, error) {
	var text string
	err := r.retry(ctx, "text of "+loc.String(), func(ctx context.Context) error {
		t, err := r.d.Text(ctx, loc)
		text = t
		return err
	})
	return text, err
}

// WaitText waits until the text of loc equals want.
func (r *Runner) WaitText(ctx context.Context, loc Locator, want string) error {
	var got string
	err := r.Eventually(ctx, fmt.Sprintf("%s to have text %q", loc, want), func(ctx context.Context) (bool, error) {
		t, err := r.d.Text(ctx, loc)
		got = t
		return err == nil && t == want, err
	})
	if err != nil && IsTimeout(err) {
		return fmt.Errorf("%s has text %q: %w", loc, got, err)
	}
	return err
}

// Texts waits for loc to match and returns the text of every match in
// document order.
func (r *Runner) Texts(ctx context.Context, loc Locator) ([]string, error) {
	return r.each(ctx, loc, func(ctx context.Context, el Locator) (string, error) {
		return r.d.Text(ctx, el)
	})
}

// Attribute waits for loc and returns the attribute value. ok is false when
// the element has no such attribute.
func (r *Runner) Attribute(ctx context.Context, loc Locator, name string) (value string, ok bool, err error) {
	err = r.retry(ctx, fmt.Sprintf("attribute %s of %s", name, loc), func(ctx context.Context) error {
		v, present, err := r.d.Attribute(ctx, loc, name)
		value, ok = v, present
		return err
	})
	return value, ok, err
}

// Attributes waits for loc and returns the attribute of every match. A match
// missing the attribute is an ErrNoAttribute error.
func (r *Runner) Attributes(ctx context.Context, loc Locator, name string) ([]string, error) {
	return r.each(ctx, loc, func(ctx context.Context, el Locator) (string, error) {
		v, ok, err := r.d.Attribute(ctx, el, name)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", Permanent(fmt.Errorf("%s %s: %w", el, name, ErrNoAttribute))
		}
		return v, nil
	})
}

// Value waits for the input loc and returns its current value.
func (r *Runner) Value(ctx context.Context, loc Locator) (string, error) {
	var value string
	err := r.retry(ctx, "value of "+loc.String(), func(ctx context.Context) error {
		v, err := r.d.Value(ctx, loc)
		value = v
		return err
	})
	return value, err
}

// FocusedID returns the id of the focused element, or "" when none.
func (r *Runner) FocusedID(ctx context.Context) (string, error) {
	return r.d.FocusedID(ctx)
}

// Content returns the serialized HTML of the current page.
func (r *Runner) Content(ctx context.Context) (string, error) {
	return r.d.Content(ctx)
}

// ReadStorage returns a localStorage value; ok is false when the key is absent.
func (r *Runner) ReadStorage(ctx context.Context, key string) (string, bool, error) {
	return r.d.ReadStorage(ctx, key)
}

// WaitStorage waits until key is present and returns its value.
func (r *Runner) WaitStorage(ctx context.Context, key string) (string, error) {
	var value string
	err := r.Eventually(ctx, "storage key "+key, func(ctx context.Context) (bool, error) {
		v, ok, err := r.d.ReadStorage(ctx, key)
		value = v
		return err == nil && ok, err
	})
	return value, err
}

// WaitStorageGone waits until key is absent.
func (r *Runner) WaitStorageGone(ctx context.Context, key string) error {
	return r.Eventually(ctx, "storage key "+key+" to be removed", func(ctx context.Context) (bool, error) {
		_, ok, err := r.d.ReadStorage(ctx, key)
		return err == nil && !ok, err
	})
}

// WriteStorage sets a localStorage value.
func (r *Runner) WriteStorage(ctx context.Context, key, value string) error {
	r.opts.Logger.Printf("storage %s = %s", key, value)
	return r.d.WriteStorage(ctx, key, value)
}

// RemoveStorage deletes a localStorage key.
func (r *Runner) RemoveStorage(ctx context.Context, key string) error {
	return r.d.RemoveStorage(ctx, key)
}

// Cookies returns the cookies visible to the current context.
func (r *Runner) Cookies(ctx context.Context) ([]Cookie, error) {
	return r.d.Cookies(ctx)
}

// CaptureState snapshots cookies and localStorage of the current origin.
func (r *Runner) CaptureState(ctx context.Context) (StorageState, error) {
	cookies, err := r.d.Cookies(ctx)
	if err != nil {
		return StorageState{}, fmt.Errorf("failed to read cookies: %w", err)
	}
	state := StorageState{Cookies: cookies, Local: map[string]string{}}
	names, err := r.d.StorageKeys(ctx)
	if err != nil {
		return StorageState{}, fmt.Errorf("failed to list storage keys: %w", err)
	}
	for _, k := range names {
		v, ok, err := r.d.ReadStorage(ctx, k)
		if err != nil {
			return StorageState{}, fmt.Errorf("failed to read storage %s: %w", k, err)
		}
		if ok {
			state.Local[k] = v
		}
	}
	return state, nil
}

// RestoreState replaces the context's cookies and localStorage with state.
func (r *Runner) RestoreState(ctx context.Context, state StorageState) error {
	if err := r.d.ClearState(ctx); err != nil {
		return fmt.Errorf("failed to clear browser state: %w", err)
	}
	if err := r.d.SetCookies(ctx, state.Cookies); err != nil {
		return fmt.Errorf("failed to restore cookies: %w", err)
	}
	for k, v := range state.Local {
		if err := r.d.WriteStorage(ctx, k, v); err != nil {
			return fmt.Errorf("failed to restore storage %s: %w", k, err)
		}
	}
	return nil
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err so that Eventually returns it at once instead of
// polling again.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// retry repeats fn while it fails, within the runner's bound.
func (r *Runner) retry(ctx context.Context, what string, fn func(ctx context.Context) error) error {
	return r.Eventually(ctx, what, func(ctx context.Context) (bool, error) {
		if err := fn(ctx); err != nil {
			return false, err
		}
		return true, nil
	})
}

func (r *Runner) each(ctx context.Context, loc Locator, read func(ctx context.Context, el Locator) (string, error)) ([]string, error) {
	if err := r.Exists(ctx, loc); err != nil {
		return nil, err
	}
	var out []string
	err := r.Eventually(ctx, "values of "+loc.String(), func(ctx context.Context) (bool, error) {
		n, err := r.d.Count(ctx, loc)
		if err != nil {
			return false, err
		}
		values := make([]string, 0, n)
		for i := 0; i < n; i++ {
			v, err := read(ctx, loc.Nth(i))
			if err != nil {
				return false, err
			}
			values = append(values, v)
		}
		out = values
		return true, nil
	})
	return out, err
}
