package driver

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Preflight checks that the application under test answers at baseURL. Any
// status below 500 counts as up.
func Preflight(ctx context.Context, client *http.Client, baseURL string) error {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("application not reachable at %s: %w", baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("application at %s answered %d", baseURL, resp.StatusCode)
	}
	return nil
}
