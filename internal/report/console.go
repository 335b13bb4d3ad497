// Package report turns suite results into console output, a rerun hint and
// Prometheus metrics.
package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/themizzi/storecheck/internal/harness"
)

type palette struct {
	fail, pass, skip, dim *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		fail: color.New(color.FgRed, color.Bold),
		pass: color.New(color.FgGreen),
		skip: color.New(color.FgYellow),
		dim:  color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.fail, p.pass, p.skip, p.dim} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Console is a harness.TestLogger that prints each scenario as one block.
// Output for a scenario is held until it finishes so parallel scenarios do
// not interleave.
type Console struct {
	out                  io.Writer
	colors               palette
	DebugOutputOnFailure bool
	DebugOutputOnSuccess bool
	// Verbose prints passing scenarios too.
	Verbose bool

	mu      sync.Mutex
	pending map[string]*bytes.Buffer
}

// NewConsole writes to out, colorized when colorize is true.
func NewConsole(out io.Writer, colorize bool) *Console {
	return &Console{
		out:     out,
		colors:  newPalette(colorize),
		pending: map[string]*bytes.Buffer{},
	}
}

func (c *Console) buffer(id harness.TestID) *bytes.Buffer {
	key := id.String()
	buf, ok := c.pending[key]
	if !ok {
		buf = &bytes.Buffer{}
		c.pending[key] = buf
	}
	return buf
}

func (c *Console) flush(id harness.TestID, header string) {
	key := id.String()
	buf := c.pending[key]
	delete(c.pending, key)
	fmt.Fprintln(c.out, header)
	if buf != nil {
		_, _ = buf.WriteTo(c.out)
	}
}

func (c *Console) TestStarted(id harness.TestID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buffer(id)
}

func (c *Console) TestError(id harness.TestID, f harness.Failure) {
	c.mu.Lock()
	defer c.mu.Unlock()
	buf := c.buffer(id)
	for _, line := range strings.Split(strings.TrimSpace(f.Err.Error()), "\n") {
		fmt.Fprintf(buf, "    %s %s\n", c.colors.dim.Sprintf("%s:", f.Kind), line)
	}
}

func (c *Console) TestFinished(id harness.TestID, res harness.TestResult, debugOutput harness.CapturedOutput) {
	c.mu.Lock()
	defer c.mu.Unlock()
	failed := res.Failed()
	if !failed && !c.Verbose && !c.DebugOutputOnSuccess {
		delete(c.pending, id.String())
		return
	}
	if len(debugOutput) > 0 && ((failed && c.DebugOutputOnFailure) || (!failed && c.DebugOutputOnSuccess)) {
		debugOutput.Dump(c.buffer(id), "    DEBUG ")
	}
	header := fmt.Sprintf("  %s %s %s", c.colors.pass.Sprint("PASS"), id, c.colors.dim.Sprint(res.Duration.Round(msRound)))
	if failed {
		header = fmt.Sprintf("  %s %s (%s) %s", c.colors.fail.Sprint("FAIL"), id, res.Kind(), c.colors.dim.Sprint(res.Duration.Round(msRound)))
	}
	c.flush(id, header)
}

func (c *Console) TestSkipped(id harness.TestID, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	header := fmt.Sprintf("  %s %s", c.colors.skip.Sprint("SKIP"), id)
	if reason != "" {
		header += " " + c.colors.dim.Sprintf("(%s)", reason)
	}
	c.flush(id, header)
}
