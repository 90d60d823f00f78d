// Package app wires configuration into concrete repositories, exporters
// and job handlers shared by the binaries.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/dvloznov/profit-tracker/internal/config"
	"github.com/dvloznov/profit-tracker/internal/export/gcs"
	"github.com/dvloznov/profit-tracker/internal/export/notion"
	infraBQ "github.com/dvloznov/profit-tracker/internal/infra/bigquery"
	"github.com/dvloznov/profit-tracker/internal/jobs"
	"github.com/dvloznov/profit-tracker/internal/report"
	"github.com/dvloznov/profit-tracker/internal/store"
	"github.com/dvloznov/profit-tracker/internal/store/memory"
	"github.com/dvloznov/profit-tracker/internal/store/sqlite"
)

// Destination names accepted by report jobs.
const (
	DestinationStdout = "stdout"
	DestinationGCS    = "gcs"
	DestinationNotion = "notion"
)

// OpenRepository opens the ledger repository selected by cfg.Driver.
func OpenRepository(ctx context.Context, cfg config.StorageConfig) (store.Repository, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.NewStore(), nil
	case config.DriverSQLite:
		return sqlite.Open(cfg.SQLitePath)
	case config.DriverBigQuery:
		return infraBQ.NewRepository(ctx, cfg.BigQueryProject, cfg.BigQueryDataset)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// Exporters holds the configured report destinations.
type Exporters struct {
	byName  map[string]report.Exporter
	closers []io.Closer
}

// NewExporters builds stdout (always, writing to out) plus GCS and Notion
// when configured.
func NewExporters(ctx context.Context, cfg config.ExportConfig, out io.Writer) (*Exporters, error) {
	e := &Exporters{
		byName: map[string]report.Exporter{
			DestinationStdout: report.JSONExporter{W: out},
		},
	}

	if cfg.GCSBucket != "" {
		sw, err := gcs.NewStorageWriter(ctx)
		if err != nil {
			return nil, fmt.Errorf("NewExporters: %w", err)
		}
		exp := gcs.NewExporter(cfg.GCSBucket, sw)
		if cfg.GCSVerify {
			exp.WithReadBack(sw)
		}
		e.byName[DestinationGCS] = exp
		e.closers = append(e.closers, sw)
	}

	if cfg.NotionToken != "" && cfg.NotionDatabaseID != "" {
		e.byName[DestinationNotion] = notion.NewExporter(notion.NewClient(cfg.NotionToken), cfg.NotionDatabaseID)
	}

	return e, nil
}

// Map returns the exporters keyed by destination name.
func (e *Exporters) Map() map[string]report.Exporter {
	return e.byName
}

// Names lists the configured destinations in a stable order.
func (e *Exporters) Names() []string {
	var names []string
	for _, n := range []string{DestinationStdout, DestinationGCS, DestinationNotion} {
		if _, ok := e.byName[n]; ok {
			names = append(names, n)
		}
	}
	return names
}

// Close releases the clients behind the exporters.
func (e *Exporters) Close() error {
	var firstErr error
	for _, c := range e.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ReportJobHandler runs report jobs through gen and records where each
// report was delivered.
func ReportJobHandler(gen *report.Generator, log zerolog.Logger) jobs.JobHandler {
	return func(ctx context.Context, job *jobs.ReportJob) error {
		log.Info().
			Str("job_id", job.JobID).
			Str("user_id", job.UserID).
			Str("month", job.Month).
			Str("destination", job.Destination).
			Int("attempt", job.RetryCount+1).
			Msg("Processing report job")

		_, location, err := gen.Generate(ctx, job.UserID, job.Month, job.Destination)
		if err != nil {
			log.Error().Err(err).Str("job_id", job.JobID).Msg("Report job failed")
			return err
		}

		job.Location = location
		return nil
	}
}
