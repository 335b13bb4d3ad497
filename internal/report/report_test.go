package report

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/themizzi/storecheck/internal/harness"
)

func sampleResults() harness.Results {
	pass := harness.TestResult{TestID: harness.ParseID("login/logout"), Scenario: harness.ParseID("login/logout"), Duration: time.Second}
	skip := harness.TestResult{TestID: harness.ParseID("login/glitch"), Scenario: harness.ParseID("login/glitch"), Skipped: true}
	timeout := harness.TestResult{
		TestID:   harness.ParseID("cart/badge"),
		Scenario: harness.ParseID("cart/badge"),
		Failures: []harness.Failure{{Kind: harness.KindTimeout, Err: errors.New("timed out")}},
	}
	step := harness.TestResult{
		TestID:   harness.ParseID("checkout/complete/overview"),
		Scenario: harness.ParseID("checkout/complete"),
		Failures: []harness.Failure{{Kind: harness.KindAssertion, Err: errors.New("3 != 2")}},
	}
	return harness.Results{
		Tests:    []harness.TestResult{pass, skip, timeout, step},
		Failures: []harness.TestResult{timeout, step},
	}
}

func TestConsole(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(c *Console)
		failed  bool
		want    []string
		wantNot []string
	}{
		{
			name:    "passing scenario is quiet",
			wantNot: []string{"PASS"},
		},
		{
			name:  "verbose shows passes",
			setup: func(c *Console) { c.Verbose = true },
			want:  []string{"  PASS login/logout"},
		},
		{
			name:    "failure shows kind and lines",
			failed:  true,
			want:    []string{"  FAIL login/logout (timeout)", "    timeout: first line", "    timeout: second line"},
			wantNot: []string{"DEBUG"},
		},
		{
			name:   "debug output on failure",
			setup:  func(c *Console) { c.DebugOutputOnFailure = true },
			failed: true,
			want:   []string{"    DEBUG [", "navigate /"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN a console without colors
			var out bytes.Buffer
			c := NewConsole(&out, false)
			if tt.setup != nil {
				tt.setup(c)
			}
			id := harness.ParseID("login/logout")
			var debug harness.CapturingLogger
			debug.Printf("navigate %s", "/")

			// WHEN a scenario reports
			c.TestStarted(id)
			res := harness.TestResult{TestID: id, Scenario: id}
			if tt.failed {
				f := harness.Failure{Kind: harness.KindTimeout, Err: errors.New("first line\nsecond line")}
				c.TestError(id, f)
				res.Failures = []harness.Failure{f}
			}
			c.TestFinished(id, res, debug.Output())

			// THEN the output matches
			got := out.String()
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("output %q does not contain %q", got, w)
				}
			}
			for _, w := range tt.wantNot {
				if strings.Contains(got, w) {
					t.Errorf("output %q contains %q", got, w)
				}
			}
		})
	}
}

func TestConsoleKeepsScenarioBlocksTogether(t *testing.T) {
	// GIVEN two scenarios reporting interleaved errors
	var out bytes.Buffer
	c := NewConsole(&out, false)
	a, b := harness.ParseID("a"), harness.ParseID("b")
	fail := func(msg string) harness.Failure {
		return harness.Failure{Kind: harness.KindAssertion, Err: errors.New(msg)}
	}

	// WHEN their events interleave
	c.TestStarted(a)
	c.TestStarted(b)
	c.TestError(a, fail("a1"))
	c.TestError(b, fail("b1"))
	c.TestError(a, fail("a2"))
	c.TestFinished(b, harness.TestResult{TestID: b, Failures: []harness.Failure{fail("b1")}}, nil)
	c.TestFinished(a, harness.TestResult{TestID: a, Failures: []harness.Failure{fail("a1"), fail("a2")}}, nil)

	// THEN each block is printed whole when its scenario finishes
	want := "  FAIL b (assertion) 0s\n    assertion: b1\n  FAIL a (assertion) 0s\n    assertion: a1\n    assertion: a2\n"
	if out.String() != want {
		t.Errorf("output:\n%s\nwant:\n%s", out.String(), want)
	}
}

func TestTotals(t *testing.T) {
	got := Totals(sampleResults())
	want := "1 passed, 2 failed (1 assertion, 1 timeout), 1 skipped"
	if got != want {
		t.Errorf("Totals() = %q, want %q", got, want)
	}
}

func TestRerunCommand(t *testing.T) {
	tests := []struct {
		name string
		base []string
		res  harness.Results
		want string
	}{
		{
			name: "failed scenarios and steps",
			base: []string{"storecheck", "run", "--base-url", "https://www.saucedemo.com"},
			res:  sampleResults(),
			want: "storecheck run --base-url https://www.saucedemo.com --run '^cart/badge$' --run '^checkout/complete$'",
		},
		{
			name: "regexp metacharacters are escaped",
			base: []string{"storecheck", "run"},
			res: harness.Results{Failures: []harness.TestResult{{
				Scenario: harness.ParseID("inventory/item (red)"),
				Failures: []harness.Failure{{Err: errors.New("x")}},
			}}},
			want: `storecheck run --run '^inventory/item \(red\)$'`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RerunCommand(tt.base, tt.res); got != tt.want {
				t.Errorf("RerunCommand() = %s\nwant %s", got, tt.want)
			}
		})
	}
}

func TestWriteSummary(t *testing.T) {
	// GIVEN a failed run
	var out bytes.Buffer

	// WHEN the summary is written
	WriteSummary(&out, sampleResults(), 1500*time.Millisecond, []string{"storecheck", "run"})

	// THEN it lists failures under their kind and a rerun hint
	got := out.String()
	for _, w := range []string{
		"FAILED 1 passed, 2 failed (1 assertion, 1 timeout), 1 skipped in 1.5s",
		"assertion failures:\n  checkout/complete/overview",
		"timeout failures:\n  cart/badge",
		"rerun failures with:\n  storecheck run --run",
	} {
		if !strings.Contains(got, w) {
			t.Errorf("summary %q does not contain %q", got, w)
		}
	}
}

func TestRecorder(t *testing.T) {
	// GIVEN a recorder
	r := NewRecorder()
	finished := time.Unix(1700000000, 0)

	// WHEN a failed run is recorded
	r.Record(sampleResults(), 2*time.Second, finished)

	// THEN the gauges and counters reflect it
	if got := testutil.ToFloat64(r.lastSuccess); got != 0 {
		t.Errorf("last_success = %v, want 0", got)
	}
	if got := testutil.ToFloat64(r.lastFailed.WithLabelValues("timeout")); got != 1 {
		t.Errorf("last_failures{kind=timeout} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.scenarios.WithLabelValues("cart/badge", "failed", "timeout")); got != 1 {
		t.Errorf("results_total{cart/badge} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.runs.WithLabelValues("failed")); got != 1 {
		t.Errorf("run_total{failed} = %v, want 1", got)
	}

	// AND the textfile carries the metrics
	path := filepath.Join(t.TempDir(), "storecheck.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, w := range []string{"storecheck_run_last_success 0", "storecheck_run_last_timestamp_seconds 1.7e+09"} {
		if !strings.Contains(string(data), w) {
			t.Errorf("textfile does not contain %q:\n%s", w, data)
		}
	}
}
