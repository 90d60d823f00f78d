package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dvloznov/profit-tracker/internal/app"
	"github.com/dvloznov/profit-tracker/internal/config"
	"github.com/dvloznov/profit-tracker/internal/jobs/inmemory"
	"github.com/dvloznov/profit-tracker/internal/logger"
	"github.com/dvloznov/profit-tracker/internal/report"
	"github.com/dvloznov/profit-tracker/internal/summary"
)

// The worker generates one month's reports for a list of users and exits.
// It is meant to run from a scheduler shortly after month end.
func main() {
	var (
		configPath  = flag.String("config", os.Getenv("PT_CONFIG"), "Path to a YAML or JSON config file (or set PT_CONFIG env)")
		users       = flag.String("users", "", "Comma-separated user IDs to report on (required)")
		month       = flag.String("month", "", "Report month YYYY-MM (default previous month)")
		destination = flag.String("dest", app.DestinationStdout, "Export destination: stdout, gcs or notion")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Failed to load config")
	}
	log := logger.NewWithLevel(cfg.Logging.Level)

	userIDs := splitUsers(*users)
	if len(userIDs) == 0 {
		log.Fatal().Msg("-users is required")
	}
	if *month == "" {
		*month = previousMonth(time.Now())
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	repo, err := app.OpenRepository(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open repository")
	}
	defer repo.Close()

	exporters, err := app.NewExporters(ctx, cfg.Export, os.Stdout)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure report exporters")
	}
	defer exporters.Close()

	generator := report.NewGenerator(repo, exporters.Map(), cfg.Reserve, log)
	if !generator.HasExporter(*destination) {
		log.Fatal().Str("destination", *destination).Strs("available", exporters.Names()).Msg("Destination is not configured")
	}

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.Jobs.BufferSize, cfg.Jobs.Workers, cfg.Jobs.MaxRetries, jobStore)

	log.Info().
		Str("month", *month).
		Str("destination", *destination).
		Int("users", len(userIDs)).
		Msg("Starting report batch")

	res, err := runBatch(ctx, jobQueue, jobStore, app.ReportJobHandler(generator, log), userIDs, *month, *destination, 100*time.Millisecond)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if stopErr := jobQueue.Stop(shutdownCtx); stopErr != nil {
		log.Error().Err(stopErr).Msg("Error during graceful shutdown")
	}

	if err != nil {
		log.Fatal().Err(err).Msg("Report batch interrupted")
	}

	for _, job := range res.Failed {
		log.Error().Str("user_id", job.UserID).Str("error", job.Error).Msg("Report failed")
	}
	log.Info().
		Int("completed", len(res.Completed)).
		Int("failed", len(res.Failed)).
		Msg("Report batch finished")

	if len(res.Failed) > 0 {
		os.Exit(1)
	}
}

func splitUsers(s string) []string {
	var out []string
	for _, u := range strings.Split(s, ",") {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

func previousMonth(now time.Time) string {
	return summary.MonthOf(summary.MonthOf(now).From.AddDate(0, -1, 0)).Label()
}
