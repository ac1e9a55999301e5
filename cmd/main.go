package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/okian/delhihouse/internal/config"
	"github.com/okian/delhihouse/pkg/logger"
)

var (
	// Global flags
	addrFlag string
	dbFlag   string

	cfg *config.Config
)

// rootCmd runs the site by default.
var rootCmd = &cobra.Command{
	Use:   "delhihouse",
	Short: "Delhi House Café website and lead dashboard",
	Long: `delhihouse serves the public site, the JSON API and the admin lead dashboard.

Configuration is layered: built-in defaults, then the YAML file named by
DHC_CONFIG, then DHC_* environment variables, then the flags below.

Run without a subcommand to start the server.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, _ []string) {
		if err := logger.Sync(); err != nil {
			cmd.PrintErrln("failed to sync logger:", err)
		}
	},
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&addrFlag, "addr", "", "HTTP listen address (overrides addr)")
	rootCmd.PersistentFlags().StringVar(&dbFlag, "db", "", "SQLite database path (overrides db_path)")

	rootCmd.AddCommand(serveCmd, userAddCmd, revealCmd)
}

// setup initializes logging and loads configuration for every command.
func setup(cmd *cobra.Command, _ []string) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	c, err := config.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if addrFlag != "" {
		c.Addr = addrFlag
	}
	if dbFlag != "" {
		c.DBPath = dbFlag
	}
	cfg = c

	if err := logger.InitWith(logger.Options{Format: cfg.LogFormat, Output: cmd.ErrOrStderr()}); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(cmd.Context(), "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return nil
}

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
