package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/themizzi/storecheck/internal/config"
	"github.com/themizzi/storecheck/internal/fixtures"
)

// clearEnv keeps the developer's .env out of the tests
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"STORECHECK_BASE_URL", "STORECHECK_BROWSER", "HEADLESS", "STORECHECK_TIMEOUT",
		"STORECHECK_POLL_INTERVAL", "STORECHECK_PARALLEL", "STORECHECK_USERS_FILE",
		"STORECHECK_FIXTURES_FILE", "STORECHECK_METRICS_FILE",
	} {
		t.Setenv(key, "")
	}
}

func runApp(t *testing.T, cmd *cli.Command, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := &cli.App{
		Name:           "storecheck",
		Commands:       []*cli.Command{cmd},
		Writer:         &out,
		ErrWriter:      &errOut,
		ExitErrHandler: func(*cli.Context, error) {},
	}
	err := app.Run(append([]string{"storecheck"}, args...))
	return out.String(), errOut.String(), err
}

func TestListCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []string
		wantErr bool
	}{
		{
			name: "run filter selects one scenario",
			args: []string{"--run", "^login/logout$"},
			want: []string{"login/logout"},
		},
		{
			name: "skip filter removes matches",
			args: []string{"--run", "^login/", "--skip", "rejected|lands-on|direct"},
			want: []string{"login/logout"},
		},
		{
			name:    "bad pattern",
			args:    []string{"--run", "("},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)

			out, _, err := runApp(t, ListCommand(), append([]string{"list"}, tt.args...)...)

			if (err != nil) != tt.wantErr {
				t.Fatalf("list error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			got := strings.Fields(out)
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("list printed %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFixturesCommand(t *testing.T) {
	dir := t.TempDir()
	valid := filepath.Join(dir, "valid.json")
	if err := os.WriteFile(valid, fixtures.Raw(), 0o644); err != nil {
		t.Fatal(err)
	}
	invalid := filepath.Join(dir, "invalid.json")
	if err := os.WriteFile(invalid, []byte(`[{"id": "four", "name": "Backpack"}]`), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		args       []string
		wantOut    []string
		wantErrOut string
		wantErr    bool
	}{
		{
			name:    "prints the embedded catalog",
			args:    []string{"fixtures"},
			wantOut: []string{"ID", "PRICE", "Sauce Labs Backpack", "$29.99"},
		},
		{
			name:    "validates a good file",
			args:    []string{"fixtures", "--validate", valid},
			wantOut: []string{"fixture is valid"},
		},
		{
			name:       "lists schema problems",
			args:       []string{"fixtures", "--validate", invalid},
			wantErrOut: "id",
			wantErr:    true,
		},
		{
			name:    "missing file",
			args:    []string{"fixtures", filepath.Join(dir, "nope.json")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, errOut, err := runApp(t, FixturesCommand(), tt.args...)

			if (err != nil) != tt.wantErr {
				t.Fatalf("fixtures error = %v, wantErr %v", err, tt.wantErr)
			}
			for _, want := range tt.wantOut {
				if !strings.Contains(out, want) {
					t.Errorf("output %q does not contain %q", out, want)
				}
			}
			if tt.wantErrOut != "" && !strings.Contains(errOut, tt.wantErrOut) {
				t.Errorf("stderr %q does not contain %q", errOut, tt.wantErrOut)
			}
		})
	}
}

func TestLoadSuiteConfig(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		check   func(t *testing.T, cfg *suiteConfig)
		wantErr bool
	}{
		{
			name: "defaults",
			check: func(t *testing.T, cfg *suiteConfig) {
				if cfg.harness.BaseURL != config.DefaultBaseURL || cfg.harness.Browser != config.DefaultBrowser {
					t.Errorf("got %s with %s", cfg.harness.BaseURL, cfg.harness.Browser)
				}
				if cfg.filters.Active() || cfg.record {
					t.Error("Expected no filters and no recording")
				}
			},
		},
		{
			name: "flags override the environment",
			args: []string{"--base-url", "http://localhost:3000", "--browser", "firefox", "--headed", "--parallel", "3", "--run", "^cart/", "--record"},
			check: func(t *testing.T, cfg *suiteConfig) {
				hc := cfg.harness
				if hc.BaseURL != "http://localhost:3000" || hc.Browser != "firefox" || hc.Headless || hc.Parallel != 3 {
					t.Errorf("unexpected harness config %+v", hc)
				}
				if !cfg.filters.Active() || !cfg.record {
					t.Error("Expected filters and recording")
				}
			},
		},
		{name: "unknown browser", args: []string{"--browser", "lynx"}, wantErr: true},
		{name: "parallel below one", args: []string{"--parallel", "0"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			var (
				cfg     *suiteConfig
				loadErr error
			)
			cmd := &cli.Command{
				Name:  "run",
				Flags: suiteFlags(),
				Action: func(c *cli.Context) error {
					cfg, loadErr = loadSuiteConfig(c)
					return nil
				},
			}

			if _, _, err := runApp(t, cmd, append([]string{"run"}, tt.args...)...); err != nil {
				t.Fatal(err)
			}

			if (loadErr != nil) != tt.wantErr {
				t.Fatalf("loadSuiteConfig() error = %v, wantErr %v", loadErr, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestRerunBase(t *testing.T) {
	tests := []struct {
		name string
		cfg  *suiteConfig
		want string
	}{
		{
			name: "defaults add nothing",
			cfg:  &suiteConfig{harness: &config.HarnessConfig{BaseURL: config.DefaultBaseURL, Browser: config.DefaultBrowser}},
			want: "storecheck run",
		},
		{
			name: "non-default target and seed",
			cfg:  &suiteConfig{harness: &config.HarnessConfig{BaseURL: "http://localhost:3000", Browser: "webkit"}, seed: 42},
			want: "storecheck run --base-url http://localhost:3000 --browser webkit --seed 42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &suiteRunner{cfg: tt.cfg}

			got := strings.Join(s.rerunBase(), " ")

			if got != tt.want {
				t.Errorf("rerunBase() = %q, want %q", got, tt.want)
			}
		})
	}
}
