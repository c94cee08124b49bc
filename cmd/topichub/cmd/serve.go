package cmd

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nfrund/topichub/internal/app"
	"github.com/nfrund/topichub/internal/config"
	"github.com/nfrund/topichub/internal/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the topic registry server",
	Long: `Start the registry coordinator and the HTTP server. Configuration comes from
the environment (and an optional .env file); see TOPICHUB_* variables.
The server shuts down gracefully on SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logging.New(cfg.LogFormat, cfg.LogLevel)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := app.New(ctx, cfg)
		if err != nil {
			slog.Error("Failed to initialize", "error", err)
			return err
		}
		defer a.Close()

		slog.Info("Starting topichub", "version", version, "backend", cfg.Backend, "namespace", cfg.Namespace)
		if err := a.Run(ctx); err != nil {
			slog.Error("Server stopped with error", "error", err)
			return err
		}
		slog.Info("Server shut down gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
