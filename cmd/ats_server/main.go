// Package main provides the entry point for the agency ATS HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonathan/agency-ats/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "ats_server",
	Short: "Agency ATS HTTP API Server",
	Long:  "Agency ATS tracks candidate applications, shares shortlists with clients and turns client feedback into pipeline status changes.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to JSON config file (optional, environment variables override it)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the optional config file, overlays the environment and fills defaults.
func loadConfig(path string) (*config.Config, error) {
	cfg := &config.Config{}
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := cfg.FromEnv(); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	merged := cfg.MergeWithDefaults(config.Config{})
	return &merged, nil
}
