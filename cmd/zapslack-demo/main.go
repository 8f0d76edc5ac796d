package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"zapslack/internal/config"
	"zapslack/internal/logger"
	"zapslack/pkg/logging"
)

var (
	configFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "zapslack-demo",
		Short: "Demo service forwarding zap log events to Slack",
		Long:  "zapslack-demo emits sample log traffic through a Slack-forwarding core and exposes a debug HTTP server",
		RunE:  serveCmd().RunE,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (required)")

	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the demo forwarder",
		RunE: func(cmd *cobra.Command, args []string) error {
			earlyLog := logging.NewEarlyLog()

			if configFile == "" {
				configFile = os.Getenv("CONFIG_FILE")
				if configFile == "" {
					earlyLog.Error("Config file is required. Use --config flag or CONFIG_FILE environment variable")
					return fmt.Errorf("config file is required")
				}
			}

			cfg, err := config.LoadConfig(configFile)
			if err != nil {
				earlyLog.Error("Failed to load config: %v", err)
				return err
			}

			log, err := logger.New(cfg.Logging.Level)
			if err != nil {
				earlyLog.Error("Failed to init logger: %v", err)
				return err
			}
			defer log.Sync()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			log.Infow("Starting zapslack demo")

			app := NewApp(cfg, log)
			if err := app.Initialize(); err != nil {
				log.Errorw("Failed to initialize application", "error", err)
				return err
			}

			log.Infow("Service running")
			if err := app.Run(ctx); err != nil && err != context.Canceled {
				log.Errorw("Service stopped with error", "error", err)
				return err
			}
			log.Infow("Service shutdown complete")
			return nil
		},
	}
}
