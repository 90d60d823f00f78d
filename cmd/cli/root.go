package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dvloznov/profit-tracker/internal/app"
	"github.com/dvloznov/profit-tracker/internal/config"
	"github.com/dvloznov/profit-tracker/internal/logger"
	"github.com/dvloznov/profit-tracker/internal/store"
)

// cli carries the persistent flags shared by every subcommand.
type cli struct {
	configPath string
	userID     string
	dbPath     string
	logLevel   string

	out io.Writer
	now func() time.Time
}

func newRootCmd(out io.Writer) *cobra.Command {
	return newRoot(&cli{out: out, now: time.Now})
}

func newRoot(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "profit-tracker",
		Short: "Profit split and cash reserve tools for a small business ledger",
		Long: `profit-tracker manages a small business ledger from the command line.

It provides tools for:
  - Rebalancing the owner pay / reinvestment / savings / tax reserve split
  - Sampling the cash reserve trend over the last two months
  - Monthly revenue, expense and profit summaries
  - Recording transactions and savings goals
  - Exporting monthly reports to stdout, GCS or Notion`,
		SilenceUsage: true,
	}
	root.SetOut(c.out)

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "path to YAML or JSON config file")
	root.PersistentFlags().StringVarP(&c.userID, "user", "u", "default", "ledger owner")
	root.PersistentFlags().StringVar(&c.dbPath, "db", "", "SQLite ledger path (overrides storage config)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level (overrides logging config)")

	root.AddCommand(
		newRebalanceCmd(c),
		newReserveCmd(c),
		newSummaryCmd(c),
		newTxCmd(c),
		newGoalCmd(c),
		newReportCmd(c),
		newConfigCmd(c),
	)

	return root
}

func (c *cli) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.dbPath != "" {
		cfg.Storage.Driver = config.DriverSQLite
		cfg.Storage.SQLitePath = c.dbPath
	}
	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
	}
	return cfg, nil
}

// logger writes JSON to stderr so stdout stays machine readable.
func (c *cli) newLogger(cfg *config.Config, cmd *cobra.Command) zerolog.Logger {
	return logger.NewWithWriter(cmd.ErrOrStderr()).Level(logger.ParseLevel(cfg.Logging.Level))
}

// withRepo opens the configured repository, runs fn and closes it.
func (c *cli) withRepo(cmd *cobra.Command, fn func(ctx context.Context, cfg *config.Config, repo store.Repository) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	ctx := logger.WithContext(cmd.Context(), c.newLogger(cfg, cmd))
	repo, err := app.OpenRepository(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open %s repository: %w", cfg.Storage.Driver, err)
	}
	defer repo.Close()

	return fn(ctx, cfg, repo)
}
