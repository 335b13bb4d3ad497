package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/themizzi/storecheck/internal/config"
	"github.com/themizzi/storecheck/internal/driver"
	"github.com/themizzi/storecheck/internal/fixtures"
	"github.com/themizzi/storecheck/internal/harness"
	"github.com/themizzi/storecheck/internal/models"
	"github.com/themizzi/storecheck/internal/report"
	"github.com/themizzi/storecheck/internal/scenarios"
	"github.com/themizzi/storecheck/internal/services"
	"github.com/themizzi/storecheck/internal/session"
)

// filterFlags select scenarios by name
func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{Name: "run", Usage: "only run scenarios matching this regexp (repeatable)"},
		&cli.StringSliceFlag{Name: "skip", Usage: "skip scenarios matching this regexp (repeatable)"},
		&cli.StringFlag{Name: "users", Usage: "YAML file with the accounts to sign in with", EnvVars: []string{"STORECHECK_USERS_FILE"}},
		&cli.StringFlag{Name: "fixtures", Usage: "inventory fixture JSON replacing the embedded one", EnvVars: []string{"STORECHECK_FIXTURES_FILE"}},
	}
}

// suiteFlags configure a suite run. Unset flags fall back to the environment.
func suiteFlags() []cli.Flag {
	return append(filterFlags(),
		&cli.StringFlag{Name: "base-url", Usage: "storefront origin (default " + config.DefaultBaseURL + ")"},
		&cli.StringFlag{Name: "browser", Usage: "chromium, firefox or webkit"},
		&cli.BoolFlag{Name: "headed", Usage: "show the browser window"},
		&cli.IntFlag{Name: "parallel", Usage: "scenarios to run at once"},
		&cli.DurationFlag{Name: "timeout", Usage: "bound on every wait"},
		&cli.DurationFlag{Name: "scenario-timeout", Usage: "bound on a whole scenario (0 for none)"},
		&cli.Uint64Flag{Name: "seed", Usage: "seed for random samples (0 picks one)"},
		&cli.BoolFlag{Name: "debug", Usage: "print the captured log of failed scenarios"},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "print passing scenarios too"},
		&cli.BoolFlag{Name: "no-color", Usage: "disable colored output"},
		&cli.BoolFlag{Name: "install", Usage: "install Playwright browsers before launching"},
		&cli.BoolFlag{Name: "record", Usage: "store the run in the Postgres run history"},
		&cli.StringFlag{Name: "metrics-file", Usage: "write Prometheus metrics in textfile format here", EnvVars: []string{"STORECHECK_METRICS_FILE"}},
	)
}

// suiteConfig is the environment merged with command-line overrides
type suiteConfig struct {
	harness         *config.HarnessConfig
	filters         harness.Filters
	scenarioTimeout time.Duration
	seed            uint64
	debug           bool
	verbose         bool
	colorize        bool
	install         bool
	record          bool
}

func loadSuiteConfig(c *cli.Context) (*suiteConfig, error) {
	hc, err := config.LoadHarnessConfig(os.Getenv)
	if err != nil {
		return nil, err
	}
	if c.IsSet("base-url") {
		hc.BaseURL = c.String("base-url")
	}
	if c.IsSet("browser") {
		hc.Browser = c.String("browser")
		if err := config.ValidateBrowser(hc.Browser); err != nil {
			return nil, err
		}
	}
	if c.Bool("headed") {
		hc.Headless = false
	}
	if c.IsSet("parallel") {
		if c.Int("parallel") < 1 {
			return nil, fmt.Errorf("--parallel must be at least 1")
		}
		hc.Parallel = c.Int("parallel")
	}
	if c.IsSet("timeout") {
		hc.Timeout = c.Duration("timeout")
	}
	if c.IsSet("users") {
		hc.UsersFile = c.String("users")
	}
	if c.IsSet("fixtures") {
		hc.FixturesFile = c.String("fixtures")
	}
	if c.IsSet("metrics-file") {
		hc.MetricsFile = c.String("metrics-file")
	}

	filters, err := harness.NewFilters(c.StringSlice("run"), c.StringSlice("skip"))
	if err != nil {
		return nil, err
	}

	return &suiteConfig{
		harness:         hc,
		filters:         filters,
		scenarioTimeout: c.Duration("scenario-timeout"),
		seed:            c.Uint64("seed"),
		debug:           c.Bool("debug"),
		verbose:         c.Bool("verbose"),
		colorize:        !c.Bool("no-color") && !color.NoColor,
		install:         c.Bool("install"),
		record:          c.Bool("record"),
	}, nil
}

// loadData reads the users and fixture files the config names
func loadData(hc *config.HarnessConfig) (map[string]session.Credentials, fixtures.Catalog, error) {
	users, err := config.LoadUsers(hc.UsersFile, os.Getenv, scenarios.DefaultUsers())
	if err != nil {
		return nil, nil, err
	}
	catalog := fixtures.Default()
	if hc.FixturesFile != "" {
		if catalog, err = fixtures.LoadFile(hc.FixturesFile); err != nil {
			return nil, nil, err
		}
	}
	return users, catalog, nil
}

// suiteRunner runs the suite against a real browser and reports on it. One
// runner serves every run of a watch process.
type suiteRunner struct {
	cfg        *suiteConfig
	users      map[string]session.Credentials
	catalog    fixtures.Catalog
	recorder   *report.Recorder
	runService services.RunService
	trigger    string
	out        io.Writer
}

func newSuiteRunner(cfg *suiteConfig, trigger string, runService services.RunService) (*suiteRunner, error) {
	users, catalog, err := loadData(cfg.harness)
	if err != nil {
		return nil, err
	}
	return &suiteRunner{
		cfg:        cfg,
		users:      users,
		catalog:    catalog,
		recorder:   report.NewRecorder(),
		runService: runService,
		trigger:    trigger,
		out:        os.Stdout,
	}, nil
}

// Run runs the suite once. The error is for runs that could not happen;
// scenario failures are in the results.
func (s *suiteRunner) Run(ctx context.Context) (harness.Results, error) {
	hc := s.cfg.harness

	var run *models.Run
	if s.runService != nil {
		var err error
		if run, err = s.runService.StartRun(hc.BaseURL, hc.Browser, s.trigger); err != nil {
			return harness.Results{}, err
		}
	}
	abort := func(err error) (harness.Results, error) {
		if run != nil {
			if abortErr := s.runService.AbortRun(run, err.Error()); abortErr != nil {
				log.Printf("Failed to record aborted run: %v", abortErr)
			}
		}
		return harness.Results{}, err
	}

	if err := driver.Preflight(ctx, nil, hc.BaseURL); err != nil {
		return abort(err)
	}

	launcher, err := driver.Launch(driver.LaunchConfig{
		BaseURL:  hc.BaseURL,
		Browser:  hc.Browser,
		Headless: hc.Headless,
		Install:  s.cfg.install,
	})
	if err != nil {
		return abort(err)
	}
	defer launcher.Close()

	sessions := session.NewCache(session.Options{Users: s.users})
	suite := scenarios.Suite(scenarios.Deps{
		Sessions: sessions,
		Catalog:  s.catalog,
		Users:    s.users,
		Seed:     s.cfg.seed,
	})

	console := report.NewConsole(s.out, s.cfg.colorize)
	console.Verbose = s.cfg.verbose
	console.DebugOutputOnFailure = s.cfg.debug
	console.DebugOutputOnSuccess = s.cfg.debug && s.cfg.verbose

	if s.cfg.filters.Active() {
		fmt.Fprintln(s.out, s.cfg.filters.Describe())
	}
	fmt.Fprintf(s.out, "Running against %s with %s\n", hc.BaseURL, hc.Browser)

	start := time.Now()
	res, err := harness.RunSuite(ctx, suite, harness.Options{
		Factory:  launcher,
		Runner:   driver.Options{Timeout: hc.Timeout, Interval: hc.PollInterval},
		Parallel: hc.Parallel,
		Filter:   s.cfg.filters.Match,
		Logger:   console,
		Timeout:  s.cfg.scenarioTimeout,
		Teardown: sessions.Clear,
	})
	if err != nil {
		return abort(err)
	}
	elapsed := time.Since(start)

	console.Summary(res, elapsed, s.rerunBase())
	s.recorder.Record(res, elapsed, time.Now())
	if hc.MetricsFile != "" {
		if err := s.recorder.WriteTextfile(hc.MetricsFile); err != nil {
			log.Printf("Warning: %v", err)
		}
	}
	if run != nil {
		if err := s.runService.FinishRun(run, res); err != nil {
			log.Printf("Failed to record run %s: %v", run.ID, err)
		}
	}
	return res, nil
}

// rerunBase is the command line a rerun hint starts from
func (s *suiteRunner) rerunBase() []string {
	hc := s.cfg.harness
	args := []string{"storecheck", "run"}
	if hc.BaseURL != config.DefaultBaseURL {
		args = append(args, "--base-url", hc.BaseURL)
	}
	if hc.Browser != config.DefaultBrowser {
		args = append(args, "--browser", hc.Browser)
	}
	if s.cfg.seed != 0 {
		args = append(args, "--seed", fmt.Sprint(s.cfg.seed))
	}
	return args
}
