package harness

import (
	"fmt"
	"strings"
	"time"
)

// TestID is the slash-separated path of a scenario or step.
type TestID struct {
	Path []string
}

// ParseID splits a scenario name on slashes.
func ParseID(name string) TestID {
	return TestID{Path: strings.Split(name, "/")}
}

func (id TestID) String() string {
	return strings.Join(id.Path, "/")
}

// Child returns the id of a step named name under id.
func (id TestID) Child(name string) TestID {
	path := make([]string, 0, len(id.Path)+1)
	path = append(path, id.Path...)
	return TestID{Path: append(path, name)}
}

// Outcomes
const (
	OutcomePassed  = "passed"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// TestResult is the outcome of one scenario or step.
type TestResult struct {
	TestID TestID
	// Scenario is the id of the scenario the result belongs to; it equals
	// TestID except for steps.
	Scenario   TestID
	Failures   []Failure
	Skipped    bool
	SkipReason string
	Duration   time.Duration
}

// Failed reports whether anything was recorded against the result.
func (r TestResult) Failed() bool {
	return len(r.Failures) > 0
}

// Outcome is one of the Outcome constants.
func (r TestResult) Outcome() string {
	switch {
	case r.Failed():
		return OutcomeFailed
	case r.Skipped:
		return OutcomeSkipped
	default:
		return OutcomePassed
	}
}

// Kind is the kind of the first failure. It is only meaningful when Failed.
func (r TestResult) Kind() Kind {
	if len(r.Failures) == 0 {
		return KindAssertion
	}
	return r.Failures[0].Kind
}

// Message joins every failure into one line per problem.
func (r TestResult) Message() string {
	lines := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		lines = append(lines, f.Error())
	}
	return strings.Join(lines, "\n")
}

// Results is everything a suite run produced, in scenario order.
type Results struct {
	Tests    []TestResult
	Failures []TestResult
}

// OK is true when nothing failed.
func (r Results) OK() bool {
	return len(r.Failures) == 0
}

// Passed counts results that ran and recorded no failure.
func (r Results) Passed() int {
	n := 0
	for _, t := range r.Tests {
		if !t.Skipped && !t.Failed() {
			n++
		}
	}
	return n
}

// Skipped counts skipped results.
func (r Results) Skipped() int {
	n := 0
	for _, t := range r.Tests {
		if t.Skipped {
			n++
		}
	}
	return n
}

// ByKind counts failed results by the kind of their first failure.
func (r Results) ByKind() map[Kind]int {
	counts := map[Kind]int{}
	for _, t := range r.Failures {
		counts[t.Kind()]++
	}
	return counts
}

func (r *Results) add(res TestResult) {
	r.Tests = append(r.Tests, res)
	if res.Failed() {
		r.Failures = append(r.Failures, res)
	}
}

// TestFailure ties an error to the scenario that produced it.
type TestFailure struct {
	ID  TestID
	Err error
}

func (f TestFailure) Error() string {
	return fmt.Sprintf("[%s]: %s", f.ID, f.Err)
}
