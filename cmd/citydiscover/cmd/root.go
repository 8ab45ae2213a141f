package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/samirrijal/citydiscover/internal/pkg/config"
	"github.com/samirrijal/citydiscover/internal/pkg/logging"
)

var (
	// Global flags
	logLevel  string
	logFormat string

	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "citydiscover",
		Short: "Query places and routes from the command line",
		Long: `citydiscover runs the same place and route lookups as the API server
against the configured Overpass and OSRM upstreams and prints JSON.

Configuration is read from config.yaml and CITYDISCOVER_* environment
variables, exactly like the server.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load("citydiscover-cli")
			if err != nil {
				return err
			}
			cfg = loaded
			if logLevel == "" {
				logLevel = cfg.Log.Level
			}
			if logFormat == "" {
				logFormat = "text"
			}
			// stdout carries results; logs go to stderr.
			slog.SetDefault(logging.New(os.Stderr, logLevel, logFormat))
			return nil
		},
	}
)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error) (default: from config)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (json, text) (default: text)")

	rootCmd.AddCommand(placesCmd)
	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(healthcheckCmd)
	rootCmd.AddCommand(versionCmd)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
