// Package harness runs scenarios against isolated browsers and collects
// classified results: setup, assertion, timeout, parse, panic and aborted.
package harness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/themizzi/storecheck/internal/driver"
)

// Scenario is one named behavior. Names use slashes to group variants,
// e.g. "sorting/price/ascending".
type Scenario struct {
	Name string
	Run  func(t *T, r *driver.Runner)
}

// ID is the scenario's path.
func (s Scenario) ID() TestID {
	return ParseID(s.Name)
}

// Select returns the scenarios the filter keeps, in order.
func Select(scenarios []Scenario, filter Filter) []Scenario {
	if filter == nil {
		return scenarios
	}
	var out []Scenario
	for _, s := range scenarios {
		if filter(s.ID()) {
			out = append(out, s)
		}
	}
	return out
}

// Options configure a suite run.
type Options struct {
	// Factory opens one isolated browser per scenario.
	Factory driver.Factory
	// Runner bounds the waits of every scenario's runner.
	Runner driver.Options
	// Parallel is how many scenarios run at once. Values below one mean one.
	Parallel int
	Filter   Filter
	Logger   TestLogger
	// Timeout bounds each scenario as a whole. Zero means no bound beyond
	// the runner's own waits.
	Timeout time.Duration
	// Teardown runs once after every scenario has finished.
	Teardown func()
}

// ErrNoFactory is returned when Options.Factory is nil.
var ErrNoFactory = errors.New("no driver factory")

// RunSuite runs the scenarios the filter selects. Each scenario gets its own
// driver and captured log; a failure in one never stops the others. The
// error is only for unusable input.
func RunSuite(ctx context.Context, scenarios []Scenario, opts Options) (Results, error) {
	if opts.Factory == nil {
		return Results{}, ErrNoFactory
	}
	seen := make(map[string]bool, len(scenarios))
	for _, s := range scenarios {
		if s.Name == "" || s.Run == nil {
			return Results{}, fmt.Errorf("scenario %q is incomplete", s.Name)
		}
		if seen[s.Name] {
			return Results{}, fmt.Errorf("duplicate scenario %q", s.Name)
		}
		seen[s.Name] = true
	}
	if opts.Logger == nil {
		opts.Logger = nullTestLogger{}
	}
	if opts.Teardown != nil {
		defer opts.Teardown()
	}

	selected := Select(scenarios, opts.Filter)
	perScenario := make([][]TestResult, len(selected))

	var g errgroup.Group
	g.SetLimit(max(opts.Parallel, 1))
	for i, s := range selected {
		g.Go(func() error {
			perScenario[i] = runScenario(ctx, s, opts)
			return nil
		})
	}
	_ = g.Wait()

	var results Results
	for _, rs := range perScenario {
		for _, r := range rs {
			results.add(r)
		}
	}
	return results, nil
}

func runScenario(ctx context.Context, s Scenario, opts Options) []TestResult {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	t := newT(ctx, s.ID(), opts.Logger)
	opts.Logger.TestStarted(t.id)

	res := t.run(func(t *T) {
		if err := ctx.Err(); err != nil {
			t.Require(Mark(KindAborted, err))
		}
		d, err := opts.Factory.NewDriver(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Require(Mark(KindAborted, err))
			}
			t.Require(Setup(fmt.Errorf("opening browser: %w", err)))
		}
		defer func() {
			if err := d.Close(); err != nil {
				t.Debug("closing browser: %v", err)
			}
		}()
		ropts := opts.Runner
		ropts.Logger = &t.debug
		s.Run(t, driver.NewRunner(d, ropts))
	})

	if res.Skipped {
		opts.Logger.TestSkipped(t.id, res.SkipReason)
	} else {
		opts.Logger.TestFinished(t.id, res, t.debug.Output())
	}
	return append([]TestResult{res}, t.env.steps...)
}
