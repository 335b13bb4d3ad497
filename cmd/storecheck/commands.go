package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	internalcli "github.com/themizzi/storecheck/internal/cli"
	"github.com/themizzi/storecheck/internal/config"
	"github.com/themizzi/storecheck/internal/database"
	"github.com/themizzi/storecheck/internal/fixtures"
	"github.com/themizzi/storecheck/internal/handlers"
	"github.com/themizzi/storecheck/internal/harness"
	"github.com/themizzi/storecheck/internal/models"
	"github.com/themizzi/storecheck/internal/report"
	"github.com/themizzi/storecheck/internal/repository"
	"github.com/themizzi/storecheck/internal/scenarios"
	"github.com/themizzi/storecheck/internal/services"
)

// connectHistory opens the run history database and migrates it
func connectHistory() (services.RunService, error) {
	if err := database.Connect(os.Getenv); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Connected to database successfully")

	if err := database.RunMigrations(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}
	return services.NewRunService(repository.NewRunRepository()), nil
}

// RunCommand returns the run command
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the suite once; exits 1 when any scenario fails",
		Flags: suiteFlags(),
		Action: func(c *cli.Context) error {
			cfg, err := loadSuiteConfig(c)
			if err != nil {
				return err
			}

			var runService services.RunService
			if cfg.record {
				if runService, err = connectHistory(); err != nil {
					return err
				}
				defer database.Close()
			}

			runner, err := newSuiteRunner(cfg, models.TriggerCLI, runService)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			res, err := runner.Run(ctx)
			if err != nil {
				return err
			}
			if !res.OK() {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

// ListCommand returns the list command
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "Print the names of the scenarios a run would execute",
		Flags: filterFlags(),
		Action: func(c *cli.Context) error {
			hc, err := config.LoadHarnessConfig(os.Getenv)
			if err != nil {
				return err
			}
			if c.IsSet("users") {
				hc.UsersFile = c.String("users")
			}
			if c.IsSet("fixtures") {
				hc.FixturesFile = c.String("fixtures")
			}
			users, catalog, err := loadData(hc)
			if err != nil {
				return err
			}
			filters, err := harness.NewFilters(c.StringSlice("run"), c.StringSlice("skip"))
			if err != nil {
				return err
			}

			suite := scenarios.Suite(scenarios.Deps{Catalog: catalog, Users: users})
			for _, name := range scenarios.Names(harness.Select(suite, filters.Match)) {
				fmt.Fprintln(c.App.Writer, name)
			}
			return nil
		},
	}
}

// FixturesCommand returns the fixtures command
func FixturesCommand() *cli.Command {
	return &cli.Command{
		Name:      "fixtures",
		Usage:     "Print the inventory fixture, or validate a fixture file",
		ArgsUsage: "[file]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "validate", Usage: "only check the file against the fixture schema"},
		},
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			var (
				catalog fixtures.Catalog
				err     error
			)
			if path == "" {
				catalog = fixtures.Default()
			} else {
				catalog, err = fixtures.LoadFile(path)
			}

			var schemaErr *fixtures.SchemaError
			if errors.As(err, &schemaErr) {
				for _, p := range schemaErr.Problems {
					fmt.Fprintf(c.App.ErrWriter, "  %s\n", p)
				}
				return cli.Exit(fmt.Sprintf("%s does not match the fixture schema", path), 1)
			}
			if err != nil {
				return err
			}
			if c.Bool("validate") {
				fmt.Fprintf(c.App.Writer, "%d products, fixture is valid\n", len(catalog))
				return nil
			}

			tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tPRICE")
			for _, p := range catalog {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", p.ID, p.Name, p.PriceText())
			}
			return tw.Flush()
		},
	}
}

// WatchCommand returns the watch command
func WatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Run the suite on a schedule and serve health, metrics and run history",
		Flags: append(suiteFlags(),
			&cli.StringFlag{Name: "schedule", Value: "@every 15m", Usage: "cron expression or @every descriptor", EnvVars: []string{"STORECHECK_SCHEDULE"}},
			&cli.BoolFlag{Name: "run-now", Value: true, Usage: "run once at startup"},
			&cli.StringFlag{Name: "port", Usage: "port for /healthz, /metrics and /runs (default 9090, or PORT)"},
		),
		Action: func(c *cli.Context) error {
			cfg, err := loadSuiteConfig(c)
			if err != nil {
				return err
			}

			var runService services.RunService
			if cfg.record {
				if runService, err = connectHistory(); err != nil {
					return err
				}
				defer database.Close()
			}

			runner, err := newSuiteRunner(cfg, models.TriggerWatch, runService)
			if err != nil {
				return err
			}

			watcher, err := internalcli.NewWatcher(c.String("schedule"), func(ctx context.Context) error {
				res, err := runner.Run(ctx)
				if err != nil {
					return err
				}
				if !res.OK() {
					return errors.New(report.Totals(res))
				}
				return nil
			}, nil)
			if err != nil {
				return err
			}

			serverConfig := config.LoadServerConfig(os.Getenv)
			if c.IsSet("port") {
				serverConfig.Port = c.String("port")
			}

			deps := internalcli.ServerDependencies{
				ServerConfig:   serverConfig,
				HealthHandler:  handlers.NewHealthHandler(runService),
				MetricsHandler: promhttp.HandlerFor(runner.recorder.Registry(), promhttp.HandlerOpts{}),
			}
			if runService != nil {
				deps.RunsHandler = handlers.NewRunsHandler(runService)
				deps.RunHandler = handlers.NewRunHandler(runService)
			}
			return internalcli.RunWatch(deps, watcher, c.Bool("run-now"))
		},
	}
}

// HistoryCommand returns the history command
func HistoryCommand() *cli.Command {
	return &cli.Command{
		Name:      "history",
		Usage:     "List recorded runs, or show one run's scenarios",
		ArgsUsage: "[run-id|latest]",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Value: services.DefaultListLimit, Usage: "runs to list"},
		},
		Action: func(c *cli.Context) error {
			runService, err := connectHistory()
			if err != nil {
				return err
			}
			defer database.Close()

			tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
			defer tw.Flush()

			if id := c.Args().First(); id != "" {
				var run *models.Run
				if id == "latest" {
					run, err = runService.LatestRun()
				} else {
					run, err = runService.GetRun(id)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "Run %s (%s) %s against %s\n\n", run.ID, run.Trigger, run.Status, run.BaseURL)
				fmt.Fprintln(tw, "SCENARIO\tOUTCOME\tKIND\tDURATION")
				for _, s := range run.Scenarios {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Name, s.Outcome, s.Kind, s.Duration.Round(time.Millisecond))
				}
				return nil
			}

			runs, err := runService.ListRuns(c.Int("limit"))
			if err != nil {
				return err
			}
			fmt.Fprintln(tw, "ID\tSTARTED\tTRIGGER\tSTATUS\tPASSED\tFAILED\tSKIPPED\tDURATION")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
					r.ID, r.StartedAt.Format(time.RFC3339), r.Trigger, r.Status,
					r.Passed, r.Failed, r.Skipped, r.Duration().Round(time.Second))
			}
			return nil
		},
	}
}

// MigrateCommand returns the migrate command
func MigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create the run history tables",
		Action: func(c *cli.Context) error {
			if _, err := connectHistory(); err != nil {
				return err
			}
			return database.Close()
		},
	}
}
