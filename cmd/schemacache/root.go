package main

import (
	"context"
	"os"

	"github.com/koustreak/schemacache/internal/app"
	"github.com/koustreak/schemacache/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile      string
	logLevel     string
	buildVersion = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "schemacache",
	Short: "schemacache - cached relational schema documents",
	Long: `schemacache reads the catalog of a PostgreSQL, MySQL or SQLite database,
flattens it into one document per table and caches that document until the
catalog fingerprint changes.

Settings come from --config, ./schemacache.yaml or SCHEMACACHE_* variables.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = buildVersion
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./schemacache.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd, dumpCmd, refreshCmd, fingerprintCmd)
}

// loadConfig reads the configuration and applies the --log-level override.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// openApp loads the configuration and connects every component. The caller
// must Close the returned App.
func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := app.NewLogger(cfg.Log, os.Stderr)
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.ErrorWith("startup failed", err, nil)
		return nil, err
	}
	return a, nil
}
