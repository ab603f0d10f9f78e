// Package cli implements the stakeday command line.
package cli

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/stakeday/stakeday/internal/daemon"
	"github.com/stakeday/stakeday/internal/infra/logging"
)

var (
	configPath string
	homeDir    string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "stakeday",
	Short: "Daily accountability with money on the line",
	Long: `stakeday turns a goal and whatever is blocking it into a few small daily
tasks, tracks your streak, and deducts a stake for every task still open
after your deadline when strict mode is on.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $STAKEDAY_HOME/config.toml)")
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "data directory (default ~/.stakeday)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads .env, the config file and flag overrides.
func loadConfig() (daemon.Config, error) {
	if err := daemon.LoadDotEnv(""); err != nil {
		return daemon.Config{}, err
	}
	path := configPath
	if path == "" && homeDir != "" {
		path = daemon.ConfigPath(homeDir)
	}
	cfg, err := daemon.LoadConfig(path)
	if err != nil {
		return cfg, err
	}
	if homeDir != "" {
		cfg.Home = homeDir
	}
	return cfg, nil
}

// newLogger builds the process logger. One-shot commands stay quiet unless -v.
func newLogger(cfg daemon.Config, quiet bool) *logrus.Logger {
	lc := logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}
	if quiet {
		lc.Level = "warn"
	}
	if verbose {
		lc.Level = "debug"
	}
	return logging.New(lc, os.Stderr)
}

// withSession opens local storage, runs fn and closes storage.
func withSession(fn func(d *daemon.Daemon) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, true)
	d, err := daemon.New(cfg, logger)
	if err != nil {
		return err
	}
	defer d.Close()
	return fn(d)
}
