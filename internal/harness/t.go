package harness

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/themizzi/storecheck/internal/check"
)

type environment struct {
	logger TestLogger
	steps  []TestResult
}

// T is the context a scenario runs in. It satisfies testify's
// require.TestingT, so assert and require can be used against it; errors
// from the browser should go through Require or Fail so their kind survives.
type T struct {
	ctx        context.Context
	id         TestID
	scenario   TestID
	env        *environment
	debug      CapturingLogger
	failures   []Failure
	skipped    bool
	skipReason string
}

func newT(ctx context.Context, id TestID, logger TestLogger) *T {
	if logger == nil {
		logger = nullTestLogger{}
	}
	return &T{ctx: ctx, id: id, scenario: id, env: &environment{logger: logger}}
}

func (t *T) run(action func(*T)) TestResult {
	start := time.Now()
	func() {
		defer func() {
			r := recover()
			if r == nil || t.skipped {
				return
			}
			if _, ok := r.(*T); ok {
				if len(t.failures) == 0 {
					t.record(Failure{Kind: KindAssertion, Err: errors.New("scenario failed with no failure message")})
				}
				return
			}
			t.record(Failure{Kind: KindPanic, Err: fmt.Errorf("unexpected panic: %v\n%s", r, debug.Stack())})
		}()
		action(t)
	}()
	return TestResult{
		TestID:     t.id,
		Scenario:   t.scenario,
		Failures:   append([]Failure(nil), t.failures...),
		Skipped:    t.skipped,
		SkipReason: t.skipReason,
		Duration:   time.Since(start),
	}
}

func (t *T) record(f Failure) {
	t.failures = append(t.failures, f)
	t.env.logger.TestError(t.id, f)
}

// ID is the scenario path.
func (t *T) ID() TestID {
	return t.id
}

// Context is cancelled when the suite is aborted or the scenario's time is up.
func (t *T) Context() context.Context {
	return t.ctx
}

// Run executes a named step with its own result. A failing step does not
// stop or fail the caller.
func (t *T) Run(name string, action func(*T)) bool {
	child := &T{ctx: t.ctx, id: t.id.Child(name), scenario: t.scenario, env: t.env}
	t.env.logger.TestStarted(child.id)
	res := child.run(action)
	t.env.steps = append(t.env.steps, res)
	if res.Skipped {
		t.env.logger.TestSkipped(child.id, res.SkipReason)
	} else {
		t.env.logger.TestFinished(child.id, res, child.debug.Output())
	}
	return !res.Failed()
}

// Errorf records an assertion failure and carries on.
func (t *T) Errorf(format string, args ...interface{}) {
	t.record(Failure{Kind: KindAssertion, Err: fmt.Errorf(format, args...)})
}

// Fail records err under its classified kind and carries on.
func (t *T) Fail(err error) {
	if err != nil {
		t.record(classified(err))
	}
}

// Require stops the scenario when err is non-nil.
func (t *T) Require(err error) {
	if err != nil {
		t.Fail(err)
		t.FailNow()
	}
}

// Requiref is Require with context prepended to the message.
func (t *T) Requiref(err error, format string, args ...interface{}) {
	if err != nil {
		t.Require(fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err))
	}
}

// Assert records a failed check and reports whether it passed.
func (t *T) Assert(res check.Result) bool {
	if !res.OK {
		t.record(Failure{Kind: KindAssertion, Err: res.Err()})
		return false
	}
	t.debug.Printf("%s", res)
	return true
}

// FailNow stops the scenario. It must be called from the scenario's own
// goroutine.
func (t *T) FailNow() {
	panic(t)
}

// Failed reports whether anything has been recorded so far.
func (t *T) Failed() bool {
	return len(t.failures) > 0
}

// Skip stops the scenario without failing it.
func (t *T) Skip(reason string) {
	t.skipped = true
	t.skipReason = reason
	panic(t)
}

// Helper exists for testify; scenario stacks are not trimmed.
func (t *T) Helper() {}

// Debug writes to the scenario's captured log.
func (t *T) Debug(format string, args ...interface{}) {
	t.debug.Printf(format, args...)
}

// DebugLogger is the scenario's captured log as a Logger.
func (t *T) DebugLogger() Logger {
	return &t.debug
}
