package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"position-ledger/internal/server"
)

// addServeCommands adds the HTTP server command.
func addServeCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger over HTTP",
		Long: `Start the HTTP API.

Endpoints:
  POST /api/v1/transactions            apply a transaction
  POST /api/v1/transactions/validate   validate without applying
  POST /api/v1/transactions/check      check feasibility
  GET  /api/v1/positions[/:ticker]     read positions
  GET  /metrics                        Prometheus metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := app.Ledger()
			if err != nil {
				return err
			}

			cfg := server.Config{
				Addr:            app.Config.Server.Addr,
				Mode:            app.Config.Server.Mode,
				ShutdownTimeout: app.Config.Server.ShutdownTimeout,
			}
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				cfg.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			output := NewOutput(cmd)
			if !output.IsJSON() {
				output.Info("Serving ledger on %s (Ctrl+C to stop)", cfg.Addr)
			}
			return server.New(cfg, engine, app.Logger).Run(ctx)
		},
	}

	cmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	rootCmd.AddCommand(cmd)
}
