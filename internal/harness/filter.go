package harness

import (
	"fmt"
	"regexp"
	"strings"
)

// Filter decides whether a scenario runs.
type Filter func(TestID) bool

// Patterns is a list of regular expressions. It satisfies flag.Value, so a
// repeated flag adds one pattern per occurrence.
type Patterns []*regexp.Regexp

// CompilePatterns compiles each expression.
func CompilePatterns(exprs []string) (Patterns, error) {
	var p Patterns
	for _, e := range exprs {
		if err := p.Set(e); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Set compiles value and appends it.
func (p *Patterns) Set(value string) error {
	rx, err := regexp.Compile(value)
	if err != nil {
		return fmt.Errorf("invalid pattern %q: %w", value, err)
	}
	*p = append(*p, rx)
	return nil
}

func (p Patterns) String() string {
	quoted := make([]string, len(p))
	for i, rx := range p {
		quoted[i] = fmt.Sprintf("%q", rx.String())
	}
	return strings.Join(quoted, " or ")
}

// Any reports whether some pattern matches s.
func (p Patterns) Any(s string) bool {
	for _, rx := range p {
		if rx.MatchString(s) {
			return true
		}
	}
	return false
}

// Filters select scenarios by id: an id runs when it matches at least one Run
// pattern (or none are given) and no Skip pattern.
type Filters struct {
	Run  Patterns
	Skip Patterns
}

// NewFilters compiles run and skip expressions.
func NewFilters(run, skip []string) (Filters, error) {
	r, err := CompilePatterns(run)
	if err != nil {
		return Filters{}, err
	}
	s, err := CompilePatterns(skip)
	if err != nil {
		return Filters{}, err
	}
	return Filters{Run: r, Skip: s}, nil
}

// Match is the Filter form of f.
func (f Filters) Match(id TestID) bool {
	name := id.String()
	return (len(f.Run) == 0 || f.Run.Any(name)) && !f.Skip.Any(name)
}

// Active reports whether any pattern is set.
func (f Filters) Active() bool {
	return len(f.Run) > 0 || len(f.Skip) > 0
}

// Describe explains which scenarios the filters leave out, or returns "".
func (f Filters) Describe() string {
	var lines []string
	if len(f.Run) > 0 {
		lines = append(lines, "skip any not matching "+f.Run.String())
	}
	if len(f.Skip) > 0 {
		lines = append(lines, "skip any matching "+f.Skip.String())
	}
	return strings.Join(lines, "\n")
}
