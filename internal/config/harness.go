package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Harness defaults
const (
	DefaultBaseURL      = "https://www.saucedemo.com"
	DefaultBrowser      = "chromium"
	DefaultTimeout      = 10 * time.Second
	DefaultPollInterval = 50 * time.Millisecond
)

// HarnessConfig holds what a suite run needs to reach the storefront
type HarnessConfig struct {
	BaseURL      string
	Browser      string
	Headless     bool
	Timeout      time.Duration
	PollInterval time.Duration
	Parallel     int
	UsersFile    string
	FixturesFile string
	MetricsFile  string
}

// LoadHarnessConfig loads harness configuration from environment variables.
// Every value has a default; malformed values are errors.
func LoadHarnessConfig(getenv func(string) string) (*HarnessConfig, error) {
	config := &HarnessConfig{
		BaseURL:      strings.TrimRight(getenv("STORECHECK_BASE_URL"), "/"),
		Browser:      strings.ToLower(getenv("STORECHECK_BROWSER")),
		Headless:     true,
		Timeout:      DefaultTimeout,
		PollInterval: DefaultPollInterval,
		Parallel:     1,
		UsersFile:    getenv("STORECHECK_USERS_FILE"),
		FixturesFile: getenv("STORECHECK_FIXTURES_FILE"),
		MetricsFile:  getenv("STORECHECK_METRICS_FILE"),
	}

	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Browser == "" {
		config.Browser = DefaultBrowser
	}
	if err := ValidateBrowser(config.Browser); err != nil {
		return nil, err
	}

	if v := getenv("HEADLESS"); v != "" {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("HEADLESS must be a boolean: %w", err)
		}
		config.Headless = headless
	}

	var err error
	if config.Timeout, err = positiveDuration(getenv, "STORECHECK_TIMEOUT", DefaultTimeout); err != nil {
		return nil, err
	}
	if config.PollInterval, err = positiveDuration(getenv, "STORECHECK_POLL_INTERVAL", DefaultPollInterval); err != nil {
		return nil, err
	}
	if config.PollInterval > config.Timeout {
		return nil, fmt.Errorf("STORECHECK_POLL_INTERVAL (%s) must not exceed STORECHECK_TIMEOUT (%s)", config.PollInterval, config.Timeout)
	}

	if v := getenv("STORECHECK_PARALLEL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("STORECHECK_PARALLEL must be a positive integer, got %q", v)
		}
		config.Parallel = n
	}

	return config, nil
}

// ValidateBrowser rejects browsers Playwright cannot launch
func ValidateBrowser(browser string) error {
	switch browser {
	case "chromium", "firefox", "webkit":
		return nil
	}
	return fmt.Errorf("STORECHECK_BROWSER must be chromium, firefox or webkit, got %q", browser)
}

func positiveDuration(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, d)
	}
	return d, nil
}
