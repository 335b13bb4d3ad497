package driver

import (
	"fmt"
	"strings"
)

// All selects every match of a step. Actions on a locator whose last step
// matches more than one element act on the first match.
const All = -1

// Step is one selector in a Locator chain.
type Step struct {
	Selector string
	Index    int
}

// Locator is a lazy reference to DOM elements: a chain of selectors, each
// scoped to the matches of the previous one. It is re-resolved on every use,
// so holding a Locator never pins a DOM handle.
type Locator struct {
	steps []Step
}

// Query returns a locator matching selector anywhere in the page.
func Query(selector string) Locator {
	return Locator{steps: []Step{{Selector: selector, Index: All}}}
}

// Find scopes selector to the elements matched by l.
func (l Locator) Find(selector string) Locator {
	steps := make([]Step, len(l.steps), len(l.steps)+1)
	copy(steps, l.steps)
	return Locator{steps: append(steps, Step{Selector: selector, Index: All})}
}

// Nth narrows the last step to its i-th match.
func (l Locator) Nth(i int) Locator {
	if len(l.steps) == 0 {
		return l
	}
	steps := make([]Step, len(l.steps))
	copy(steps, l.steps)
	steps[len(steps)-1].Index = i
	return Locator{steps: steps}
}

// First is shorthand for Nth(0).
func (l Locator) First() Locator {
	return l.Nth(0)
}

// Steps returns a copy of the selector chain.
func (l Locator) Steps() []Step {
	steps := make([]Step, len(l.steps))
	copy(steps, l.steps)
	return steps
}

// IsZero reports whether the locator has no steps.
func (l Locator) IsZero() bool {
	return len(l.steps) == 0
}

func (l Locator) String() string {
	parts := make([]string, 0, len(l.steps))
	for _, s := range l.steps {
		if s.Index == All {
			parts = append(parts, s.Selector)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s[%d]", s.Selector, s.Index))
	}
	return strings.Join(parts, " >> ")
}
