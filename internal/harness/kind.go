package harness

import (
	"context"
	"errors"
	"fmt"

	"github.com/themizzi/storecheck/internal/cartstate"
	"github.com/themizzi/storecheck/internal/check"
	"github.com/themizzi/storecheck/internal/driver"
	"github.com/themizzi/storecheck/internal/session"
)

// Kind classifies why a scenario failed.
type Kind int

// Failure kinds, in reporting order.
const (
	KindAssertion Kind = iota
	KindSetup
	KindTimeout
	KindParse
	KindPanic
	KindAborted
)

// Kinds lists every kind in reporting order.
var Kinds = []Kind{KindAssertion, KindSetup, KindTimeout, KindParse, KindPanic, KindAborted}

func (k Kind) String() string {
	switch k {
	case KindAssertion:
		return "assertion"
	case KindSetup:
		return "setup"
	case KindTimeout:
		return "timeout"
	case KindParse:
		return "parse"
	case KindPanic:
		return "panic"
	case KindAborted:
		return "aborted"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Failure is one recorded problem in a scenario.
type Failure struct {
	Kind Kind
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Mark tags err with an explicit kind, overriding classification. A nil err
// stays nil.
func Mark(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Failure{Kind: kind, Err: err}
}

// Setup marks err as a precondition failure.
func Setup(err error) error {
	return Mark(KindSetup, err)
}

// Classify decides the kind of err. Explicit marks win; session setup errors
// beat the timeouts they may wrap. A page that never loaded is a setup
// failure unless the load timed out or the scenario was cancelled.
func Classify(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	var setup *session.SetupError
	switch {
	case errors.As(err, &setup):
		return KindSetup
	case driver.IsTimeout(err):
		return KindTimeout
	case errors.Is(err, check.ErrInvalidPrice), errors.Is(err, cartstate.ErrMalformed):
		return KindParse
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindAborted
	case errors.Is(err, driver.ErrNavigation):
		return KindSetup
	default:
		return KindAssertion
	}
}

func classified(err error) Failure {
	var f *Failure
	if errors.As(err, &f) {
		return *f
	}
	return Failure{Kind: Classify(err), Err: err}
}
