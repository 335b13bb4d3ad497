//go:build e2e

package e2e

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/themizzi/storecheck/internal/driver"
	"github.com/themizzi/storecheck/internal/fixtures"
	"github.com/themizzi/storecheck/internal/harness"
	"github.com/themizzi/storecheck/internal/report"
	"github.com/themizzi/storecheck/internal/scenarios"
	"github.com/themizzi/storecheck/internal/session"
)

// TestSuite runs every scenario against the live storefront
func TestSuite(t *testing.T) {
	users := scenarios.DefaultUsers()
	sessions := session.NewCache(session.Options{Users: users})
	suite := scenarios.Suite(scenarios.Deps{
		Sessions: sessions,
		Catalog:  fixtures.Default(),
		Users:    users,
	})

	console := report.NewConsole(os.Stdout, false)
	console.DebugOutputOnFailure = true

	start := time.Now()
	res, err := harness.RunSuite(context.Background(), suite, harness.Options{
		Factory:  launcher,
		Runner:   driver.Options{Timeout: cfg.Timeout, Interval: cfg.PollInterval},
		Parallel: 2,
		Logger:   console,
		Teardown: sessions.Clear,
	})
	if err != nil {
		t.Fatalf("RunSuite() error = %v", err)
	}
	report.WriteSummary(os.Stdout, res, time.Since(start), []string{"go", "test", "-tags", "e2e", "./e2e", "-args"})

	if !res.OK() {
		t.Errorf("suite failed: %s", report.Totals(res))
	}
}
