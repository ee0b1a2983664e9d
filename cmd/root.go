package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/rehearsal/config"
	coremon "github.com/kilianp07/rehearsal/core/monitoring"
	"github.com/kilianp07/rehearsal/infra/logger"
	"github.com/kilianp07/rehearsal/infra/monitoring"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "rehearsal",
	Short:         "Rehearsal scene scheduler",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return nil, err
	}
	return cfg, nil
}

// startMonitoring installs the configured error tracker. The returned func
// flushes pending reports and must run before exit.
func startMonitoring(cfg *config.Config) (func(), error) {
	m, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(m)
	return func() { coremon.Flush(2 * time.Second) }, nil
}
