package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var (
	healthcheckCmd = &cobra.Command{
		Use:   "healthcheck",
		Short: "Check whether a running API server is ready",
		Long: `Calls the /v1/ready endpoint of a running server.

Exits 0 when the server reports ready, non-zero otherwise. Intended for
container HEALTHCHECK directives.`,
		RunE: runHealthcheck,
	}

	healthcheckTimeout time.Duration
	healthcheckURL     string
)

func init() {
	healthcheckCmd.Flags().DurationVar(&healthcheckTimeout, "timeout", 5*time.Second, "request timeout")
	healthcheckCmd.Flags().StringVar(&healthcheckURL, "url", "", "readiness URL (default: http://localhost:{server.port}/v1/ready)")
}

// ReadyResponse matches the body of GET /v1/ready.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func runHealthcheck(cmd *cobra.Command, args []string) error {
	url := healthcheckURL
	if url == "" {
		url = fmt.Sprintf("http://localhost:%d/v1/ready", cfg.Server.Port)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), healthcheckTimeout)
	defer cancel()

	resp, err := checkReady(ctx, http.DefaultClient, url)
	if err != nil {
		return err
	}
	for name, result := range resp.Checks {
		fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s\n", name, result)
	}
	return nil
}

// checkReady returns the decoded readiness body, or an error when the server
// is unreachable or not ready.
func checkReady(ctx context.Context, client *http.Client, url string) (*ReadyResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	var body ReadyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("parse readiness response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || body.Status != "ready" {
		return &body, fmt.Errorf("not ready: status %d, %s", resp.StatusCode, body.Status)
	}
	return &body, nil
}
