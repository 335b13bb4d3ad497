package driver

import (
	"errors"
	"fmt"
	"time"
)

// Driver errors
var (
	ErrNotFound   = errors.New("element not found")
	ErrTimeout    = errors.New("timed out")
	ErrClosed     = errors.New("driver closed")
	ErrNavigation = errors.New("navigation failed")
)

// TimeoutError reports a bounded wait that never saw its condition hold.
type TimeoutError struct {
	What    string
	Waited  time.Duration
	Last    error
	Missing bool
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("timed out after %s waiting for %s", e.Waited.Round(time.Millisecond), e.What)
	if e.Last != nil {
		msg += fmt.Sprintf(" (last error: %v)", e.Last)
	}
	return msg
}

// Is matches ErrTimeout always, and ErrNotFound when the wait was for an
// element to exist.
func (e *TimeoutError) Is(target error) bool {
	if target == ErrTimeout {
		return true
	}
	return e.Missing && target == ErrNotFound
}

func (e *TimeoutError) Unwrap() error {
	return e.Last
}

// NavigationError reports a page load that did not happen. The storefront
// was unreachable or the browser refused the request, so whatever the caller
// meant to check never got a page to check.
type NavigationError struct {
	Path string
	Err  error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("failed to navigate to %s: %v", e.Path, e.Err)
}

// Is matches ErrNavigation.
func (e *NavigationError) Is(target error) bool {
	return target == ErrNavigation
}

func (e *NavigationError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err came from an exhausted wait.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
