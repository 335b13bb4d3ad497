package report

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/alessio/shellescape"

	"github.com/themizzi/storecheck/internal/harness"
)

const msRound = time.Millisecond

// Summary writes the totals line, the failures grouped by kind, and a
// command that reruns only what failed.
func (c *Console) Summary(res harness.Results, elapsed time.Duration, rerun []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	writeSummary(c.out, c.colors, res, elapsed, rerun)
}

// WriteSummary is Summary without a Console; output is not colorized.
func WriteSummary(w io.Writer, res harness.Results, elapsed time.Duration, rerun []string) {
	writeSummary(w, newPalette(false), res, elapsed, rerun)
}

func writeSummary(w io.Writer, colors palette, res harness.Results, elapsed time.Duration, rerun []string) {
	fmt.Fprintln(w)
	status := colors.pass.Sprint("PASSED")
	if !res.OK() {
		status = colors.fail.Sprint("FAILED")
	}
	fmt.Fprintf(w, "%s %s in %s\n", status, Totals(res), elapsed.Round(msRound))
	if res.OK() {
		return
	}

	byKind := map[harness.Kind][]harness.TestResult{}
	for _, f := range res.Failures {
		byKind[f.Kind()] = append(byKind[f.Kind()], f)
	}
	for _, k := range harness.Kinds {
		failed := byKind[k]
		if len(failed) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s failures:\n", k)
		for _, f := range failed {
			fmt.Fprintf(w, "  %s\n", f.TestID)
		}
	}
	if len(rerun) > 0 {
		fmt.Fprintf(w, "\nrerun failures with:\n  %s\n", RerunCommand(rerun, res))
	}
}

// Totals is a one-line count, e.g. "12 passed, 2 failed (1 assertion, 1 timeout), 1 skipped".
func Totals(res harness.Results) string {
	parts := []string{fmt.Sprintf("%d passed", res.Passed())}
	if n := len(res.Failures); n > 0 {
		var kinds []string
		counts := res.ByKind()
		for _, k := range harness.Kinds {
			if counts[k] > 0 {
				kinds = append(kinds, fmt.Sprintf("%d %s", counts[k], k))
			}
		}
		parts = append(parts, fmt.Sprintf("%d failed (%s)", n, strings.Join(kinds, ", ")))
	}
	if n := res.Skipped(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", n))
	}
	return strings.Join(parts, ", ")
}

// RerunCommand appends one anchored --run pattern per failed scenario to
// base, shell-quoting every argument. A failed step reruns its scenario.
func RerunCommand(base []string, res harness.Results) string {
	seen := map[string]bool{}
	args := append([]string(nil), base...)
	for _, f := range res.Failures {
		name := f.Scenario.String()
		if seen[name] {
			continue
		}
		seen[name] = true
		args = append(args, "--run", "^"+regexp.QuoteMeta(name)+"$")
	}
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = shellescape.Quote(a)
	}
	return strings.Join(quoted, " ")
}
