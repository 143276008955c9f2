package main

import (
	"context"
	"io"
	"time"

	"bloodconnect/internal/config"
	"bloodconnect/internal/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type cli struct {
	out      io.Writer
	logLevel string
	timeout  time.Duration
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}
	root := &cobra.Command{
		Use:          "bloodctl",
		Short:        "Administer a BloodConnect deployment",
		Long:         "bloodctl talks to the storage backend selected by the same environment as the API (SUPABASE_URL/SUPABASE_KEY, DATABASE_URL, or in-memory demo).",
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Override LOG_LEVEL (debug, info, warn, error)")
	root.PersistentFlags().DurationVar(&c.timeout, "timeout", time.Minute, "Operation timeout")

	root.AddCommand(
		c.migrateCmd(),
		c.seedCmd(),
		c.alertsCmd(),
		c.matchCmd(),
	)
	return root
}

// env loads configuration and a console logger bounded by --timeout.
func (c *cli) env(cmd *cobra.Command) (context.Context, context.CancelFunc, *config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	level := cfg.LogLevel
	if c.logLevel != "" {
		level = c.logLevel
	}
	zl, err := logger.New(level, "console", "bloodctl")
	if err != nil {
		return nil, nil, nil, nil, err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
	return ctx, cancel, cfg, zl, nil
}
