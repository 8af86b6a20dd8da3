// Package cli provides the command-line interface for the forecasting application.
package cli

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"stock-forecaster/internal/catalog"
	"stock-forecaster/internal/charts"
	"stock-forecaster/internal/config"
	"stock-forecaster/internal/forecast"
	"stock-forecaster/internal/loader"
	"stock-forecaster/internal/logging"
	"stock-forecaster/internal/pipeline"
	"stock-forecaster/internal/prepare"
	"stock-forecaster/internal/provider"
	"stock-forecaster/internal/security"
	"stock-forecaster/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-06-01"
)

// App holds the application dependencies.
type App struct {
	ConfigDir string
	Config    *config.Config
	Logger    zerolog.Logger
	Store     store.HistoryStore
	Breaker   *provider.Breaker
	Loader    *loader.Loader
	Dashboard *pipeline.Dashboard
}

// NewRootCmd creates the root command for the CLI. Configuration, logging
// and the pipeline are set up in PersistentPreRunE so that --config and
// --debug are honoured.
func NewRootCmd() *cobra.Command {
	app := &App{Logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:   "forecaster",
		Short: "Stock price prediction for NSE large caps",
		Long: `Forecaster downloads daily price history for a fixed list of NSE stocks,
charts it, and forecasts the close price one to five years ahead.

Run 'forecaster serve' for the dashboard, or use the table commands
(fetch, forecast, export, report) from the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.Close()
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/stock-forecaster)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable coloured output")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newStocksCmd())
	rootCmd.AddCommand(newFetchCmd(app))
	rootCmd.AddCommand(newForecastCmd(app))
	rootCmd.AddCommand(newExportCmd(app))
	rootCmd.AddCommand(newReportCmd(app))
	rootCmd.AddCommand(newServeCmd(app))

	return rootCmd
}

func (a *App) init(cmd *cobra.Command) error {
	a.ConfigDir, _ = cmd.Flags().GetString("config")
	if a.ConfigDir == "" {
		a.ConfigDir = config.DefaultConfigDir()
	}

	cfg, err := config.Load(a.ConfigDir)
	if err != nil {
		return err
	}
	a.Config = cfg

	logCfg := logging.FromConfig(cfg.Logging)
	logCfg.NoColor, _ = cmd.Flags().GetBool("no-color")
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		logCfg.Level = "debug"
		logging.SetDebugLevel()
	}
	a.Logger = logging.NewLoggerWithConfig(logCfg)

	return a.buildPipeline()
}

// buildPipeline wires provider, store, loader, preparer and forecaster.
func (a *App) buildPipeline() error {
	cfg := a.Config
	start, err := cfg.Start()
	if err != nil {
		return err
	}

	var src provider.Provider
	switch cfg.Data.Provider {
	case "csv":
		src = provider.NewCSVProvider(cfg.Data.CSVDir)
	default:
		yahoo := provider.NewYahooProvider(provider.YahooConfig{
			BaseURL:   cfg.Data.BaseURL,
			Timeout:   cfg.Data.Timeout,
			UserAgent: cfg.Data.UserAgent,
			Proxy:     cfg.Data.Proxy,
		}, a.Logger)
		if cfg.Data.BreakerFailures > 0 {
			a.Breaker = provider.NewBreaker(yahoo, provider.BreakerConfig{
				FailureThreshold: cfg.Data.BreakerFailures,
				Cooldown:         cfg.Data.BreakerCooldown,
			}, a.Logger)
			src = a.Breaker
		} else {
			src = yahoo
		}
	}

	var opts []loader.Option
	if cfg.Cache.Persist {
		s, err := store.NewSQLiteStore(cfg.Cache.DBPath)
		if err != nil {
			a.Logger.Warn().Err(err).Str("path", cfg.Cache.DBPath).Msg("candle store unavailable, using memory only")
		} else {
			a.Store = s
			opts = append(opts, loader.WithStore(s))
			a.Logger.Debug().Str("path", cfg.Cache.DBPath).Msg("SQLite store initialized")
		}
	}

	a.Loader = loader.New(src, start, a.Logger, opts...)
	a.Dashboard = pipeline.New(
		a.Loader,
		prepare.New(a.Logger),
		forecast.New(a.Logger),
		pipeline.Config{
			MinYears: cfg.Forecast.MinYears,
			MaxYears: cfg.Forecast.MaxYears,
			TailRows: cfg.Forecast.TailRows,
			Charts:   charts.DefaultOptions,
		},
		a.Logger,
	)
	return nil
}

// Close releases the store.
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	err := a.Store.Close()
	a.Store = nil
	return err
}

// stockArg joins positional args so that names with spaces work unquoted.
func stockArg(args []string) string {
	return security.SanitizeQuery(strings.Join(args, " "))
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
			output.Printf("Stock Forecaster v%s\n", Version)
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

	var defaults bool
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long: `Show the loaded configuration. Proxy passwords are hidden.
With --defaults the built-in values are shown instead of config.toml.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			cfg := app.Config
			if defaults {
				cfg = config.Default()
			}
			cfg = redactedConfig(cfg)
			if output.IsJSON() {
				return output.JSON(cfg)
			}
			showConfig(output, cfg)
			return nil
		},
	}
	showCmd.Flags().BoolVar(&defaults, "defaults", false, "show built-in defaults instead of the loaded file")
	cmd.AddCommand(showCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": app.ConfigDir})
			}
			output.Println(app.ConfigDir)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
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

// redactedConfig returns a copy of cfg that is safe to print.
func redactedConfig(cfg *config.Config) *config.Config {
	out := *cfg
	out.Data.Proxy = security.RedactURL(cfg.Data.Proxy)
	return &out
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Data")
	output.Printf("  Provider:    %s\n", cfg.Data.Provider)
	output.Printf("  Start date:  %s\n", cfg.Data.StartDate)
	if cfg.Data.Provider == "csv" {
		output.Printf("  CSV dir:     %s\n", cfg.Data.CSVDir)
	} else {
		output.Printf("  Base URL:    %s\n", cfg.Data.BaseURL)
		output.Printf("  Timeout:     %s\n", cfg.Data.Timeout)
		output.Printf("  Breaker:     %d failures, %s cooldown\n", cfg.Data.BreakerFailures, cfg.Data.BreakerCooldown)
		if cfg.Data.Proxy != "" {
			output.Printf("  Proxy:       %s\n", cfg.Data.Proxy)
		}
	}
	output.Println()

	output.Bold("Cache")
	output.Printf("  Persist:     %v\n", cfg.Cache.Persist)
	output.Printf("  Database:    %s\n", cfg.Cache.DBPath)
	output.Println()

	output.Bold("Forecast")
	output.Printf("  Years:       %d-%d\n", cfg.Forecast.MinYears, cfg.Forecast.MaxYears)
	output.Printf("  Tail rows:   %d\n", cfg.Forecast.TailRows)
	output.Println()

	output.Bold("Server")
	output.Printf("  Address:     %s\n", cfg.Server.Addr)
	output.Printf("  Title:       %s\n", cfg.UI.Title)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:       %s\n", cfg.Logging.Level)
	output.Printf("  File:        %s\n", cfg.Logging.FilePath)
}

func newStocksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stocks",
		Short: "List the stocks available for forecasting",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(catalog.All())
			}
			table := NewTable(output, "#", "Name", "Symbol", "Exchange")
			for i, s := range catalog.All() {
				table.AddRow(fmt.Sprint(i+1), s.Name, s.Symbol, string(s.Exchange))
			}
			table.Render()
			return nil
		},
	}
}
