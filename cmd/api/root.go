package main

import (
	"fmt"

	"github.com/signalpage/signalpage/internal/config"
	"github.com/signalpage/signalpage/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:          "api",
	Short:        "SignalPage API server",
	Long:         "SignalPage serves the job-application landing page API, billing webhooks and public pages.",
	SilenceUsage: true,
	// `api` with no subcommand runs the server.
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "optional YAML config file; environment variables win")
}

// setup loads and validates config, then builds the logger from it.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	log, err := logger.New(cfg.LogJSON, cfg.LogDebug)
	if err != nil {
		return nil, nil, fmt.Errorf("building logger: %w", err)
	}
	return cfg, log, nil
}
