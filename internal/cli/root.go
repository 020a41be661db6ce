// Package cli provides the command-line interface for the position ledger.
package cli

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"position-ledger/internal/config"
	lerrors "position-ledger/internal/errors"
	"position-ledger/internal/logging"
	"position-ledger/internal/store"
	"position-ledger/internal/trading"
	"position-ledger/pkg/utils"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2026-10-01"
)

// App holds the application dependencies.
type App struct {
	ConfigPath string
	Config     *config.Config
	Logger     zerolog.Logger
	Store      store.PositionStore
	Engine     *trading.Engine
}

// Ledger opens the position store on first use and returns the engine
// over it.
func (app *App) Ledger() (*trading.Engine, error) {
	if app.Engine != nil {
		return app.Engine, nil
	}

	cfg := app.Config.Store
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		return nil, lerrors.NewStoreError("open", "", err)
	}
	s, err := store.NewSQLiteStore(cfg.Path, store.WithRetry(utils.RetryConfig{
		MaxAttempts:   cfg.BusyRetries,
		InitialDelay:  cfg.BusyDelay,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2,
	}))
	if err != nil {
		return nil, err
	}
	app.Logger.Debug().Str("path", cfg.Path).Msg("SQLite store initialized")

	app.Store = s
	app.Engine = trading.NewEngine(s, app.Logger)
	return app.Engine, nil
}

// Close releases the store if it was opened.
func (app *App) Close() error {
	if app.Store == nil {
		return nil
	}
	err := app.Store.Close()
	app.Store = nil
	app.Engine = nil
	return err
}

// Execute runs the CLI with os.Args and releases the store afterwards.
func Execute(ctx context.Context) error {
	rootCmd, app := newRootCmd()
	defer app.Close()
	return rootCmd.ExecuteContext(ctx)
}

// newRootCmd creates the root command for the CLI and the App its
// commands share.
func newRootCmd() (*cobra.Command, *App) {
	app := &App{Logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Position ledger - validate transactions and track positions",
		Long: `Position ledger validates buy, sell and dividend transactions, checks them
against the current holdings and keeps one aggregated position per ticker
(quantity, average price and accumulated dividends).

Transactions can be entered one at a time, imported from a broker export
(CSV or XLSX) or submitted over HTTP with 'ledger serve'.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(app.ConfigPath)
			if err != nil {
				return err
			}
			app.Config = cfg

			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				cfg.Log.Level = "debug"
			}
			app.Logger = logging.NewLoggerWithConfig(cfg.Log)
			app.Logger.Debug().Str("config", cfg.Path).Msg("configuration loaded")
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "config file (default: ~/.config/position-ledger/config.toml)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addCoreCommands(rootCmd, app)
	addTransactionCommands(rootCmd, app)
	addImportCommands(rootCmd, app)
	addPositionCommands(rootCmd, app)
	addServeCommands(rootCmd, app)

	return rootCmd, app
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			}
			output.Printf("Position Ledger v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
			return nil
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": app.Config.Path})
			}
			output.Println(app.Config.Path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("✓ Configuration is valid")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Store")
	output.Printf("  Path:            %s\n", cfg.Store.Path)
	output.Printf("  Busy Retries:    %d\n", cfg.Store.BusyRetries)
	output.Printf("  Busy Delay:      %s\n", cfg.Store.BusyDelay)
	output.Println()

	output.Bold("Server")
	output.Printf("  Address:         %s\n", cfg.Server.Addr)
	output.Printf("  Mode:            %s\n", cfg.Server.Mode)
	output.Printf("  Shutdown:        %s\n", cfg.Server.ShutdownTimeout)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:           %s\n", cfg.Log.Level)
	output.Printf("  Console:         %v\n", cfg.Log.Console)
	output.Printf("  File:            %v\n", cfg.Log.File)
	if cfg.Log.File {
		output.Printf("  File Path:       %s\n", cfg.Log.FilePath)
	}
	output.Println()

	output.Bold("Display")
	output.Printf("  Currency:        %s\n", cfg.Display.Currency)

	if len(cfg.Import.Tickers) > 0 {
		output.Println()
		output.Bold("Import Tickers")
		for _, m := range cfg.Import.Tickers {
			output.Printf("  %-16s %s\n", m.Product, m.Ticker)
		}
	}
}
