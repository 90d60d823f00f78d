package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/profit-tracker/internal/api"
	"github.com/dvloznov/profit-tracker/internal/app"
	"github.com/dvloznov/profit-tracker/internal/config"
	"github.com/dvloznov/profit-tracker/internal/jobs/inmemory"
	"github.com/dvloznov/profit-tracker/internal/logger"
	"github.com/dvloznov/profit-tracker/internal/report"
)

func main() {
	configPath := flag.String("config", os.Getenv("PT_CONFIG"), "Path to a YAML or JSON config file (or set PT_CONFIG env)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Failed to load config")
	}

	log := logger.NewWithLevel(cfg.Logging.Level)
	ctx := context.Background()

	repo, err := app.OpenRepository(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("Failed to open repository")
	}
	defer repo.Close()

	exporters, err := app.NewExporters(ctx, cfg.Export, os.Stdout)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure report exporters")
	}
	defer exporters.Close()

	generator := report.NewGenerator(repo, exporters.Map(), cfg.Reserve, log)

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.Jobs.BufferSize, cfg.Jobs.Workers, cfg.Jobs.MaxRetries, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	log.Info().
		Int("workers", cfg.Jobs.Workers).
		Strs("destinations", exporters.Names()).
		Msg("Starting report worker")
	if err := jobQueue.Start(workerCtx, app.ReportJobHandler(generator, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start report worker")
	}

	handler := api.NewRouter(api.Deps{
		Repo:        repo,
		Publisher:   jobQueue,
		JobStore:    jobStore,
		HasExporter: generator.HasExporter,
		Reserve:     cfg.Reserve,
		Log:         log,
	})

	read, write, idle := cfg.Server.Timeouts()
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  read,
		WriteTimeout: write,
		IdleTimeout:  idle,
	}

	go func() {
		log.Info().
			Str("port", cfg.Server.Port).
			Str("storage", cfg.Storage.Driver).
			Bool("include_future", cfg.Reserve.IncludeFuture).
			Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Let in-flight report jobs finish before the repository closes.
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancelWorker()

	log.Info().Msg("Server exited")
}
