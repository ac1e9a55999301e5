package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/delhihouse/internal/leadgen"
	"github.com/okian/delhihouse/pkg/logger"
)

// Default configuration constants.
const (
	defaultCount       = 200
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 10 * time.Second
	defaultSettle      = time.Minute
	defaultTestTimeout = 10 * time.Minute
)

var cfg leadgen.Config

var rootCmd = &cobra.Command{
	Use:   "seed-leads",
	Short: "Fill a running site with synthetic contact submissions",
	Long: `seed-leads posts generated contact forms to /api/contact concurrently,
resubmits some of them to exercise duplicate detection and, given admin
credentials, waits until every accepted lead is listed on the dashboard.

The admin password may also be set with DHC_ADMIN_PASSWORD.

Examples:
  seed-leads --count 1000 --workers 16 --url http://localhost:8080
  DHC_ADMIN_PASSWORD=... seed-leads --email owner@delhihouse.co.uk --verbose`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := logger.Init(); err != nil {
			return err
		}
		if cfg.Password == "" {
			cfg.Password = os.Getenv("DHC_ADMIN_PASSWORD")
		}
		if cfg.Verbose {
			_ = logger.SetLevelString("debug")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithTimeout(ctx, defaultTestTimeout)
		defer cancel()

		_, err := leadgen.Run(ctx, cfg)
		return err
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", "http://localhost:8080", "base URL of the site")
	f.IntVar(&cfg.Count, "count", defaultCount, "number of distinct submissions")
	f.IntVar(&cfg.Duplicates, "duplicates", defaultCount/10, "number of resubmissions reusing a token")
	f.IntVar(&cfg.Workers, "workers", runtime.NumCPU()*defaultWorkers, "number of concurrent senders")
	f.DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	f.DurationVar(&cfg.SettleTimeout, "settle", defaultSettle, "how long to wait for leads to be stored")
	f.StringVar(&cfg.Email, "email", "", "admin e-mail; enables verification")
	f.StringVar(&cfg.Password, "password", "", "admin password")
	f.StringVar(&cfg.OutputFile, "output", "", "write the generated submissions to this JSON file")
	f.BoolVar(&cfg.Verbose, "verbose", false, "log progress")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
