package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stakeday/stakeday/internal/daemon"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "", "listen host (overrides config)")
	serveCmd.Flags().Int("port", 0, "listen port (overrides config)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long:  `Serve the planner, wallet, proof log and reward vault over HTTP until interrupted.`,
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.API.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.API.Port = port
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg, false)
	d, err := daemon.New(cfg, logger)
	if err != nil {
		return err
	}
	defer d.Close()

	interval, err := cfg.Interval()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go d.Watch(ctx, interval)
	return d.Serve(ctx, logger)
}
