package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/profit-tracker/internal/config"
	"github.com/dvloznov/profit-tracker/internal/logger"
)

var (
	configPath    = flag.String("config", "", "Config file; its storage.bigquery_* values are the flag defaults")
	projectID     = flag.String("project", "", "GCP project ID (required unless set in config)")
	datasetID     = flag.String("dataset", "", "BigQuery dataset ID (default from config, else profit_tracker)")
	appliedBy     = flag.String("applied-by", "migrate-cli", "Name of the tool applying migrations")
	migrationsDir = flag.String("migrations", "migrations/bigquery", "Path to migrations directory")
	dryRun        = flag.Bool("dry-run", false, "List pending migrations without running them")
)

func main() {
	flag.Parse()
	log := logger.New()

	if *configPath != "" {
		cfg, err := config.LoadFromFile(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load config")
		}
		if *projectID == "" {
			*projectID = cfg.Storage.BigQueryProject
		}
		if *datasetID == "" {
			*datasetID = cfg.Storage.BigQueryDataset
		}
	}
	if *datasetID == "" {
		*datasetID = "profit_tracker"
	}
	if *projectID == "" {
		log.Fatal().Msg("-project flag is required. Please specify your GCP project ID.")
	}

	ctx := context.Background()

	dir, err := findMigrationsDir(*migrationsDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to locate migrations")
	}
	migrations, err := readMigrations(dir, *projectID, *datasetID, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read migrations")
	}
	log.Info().Int("count", len(migrations)).Str("dir", dir).Msg("Found migration files")

	client, err := bigquery.NewClient(ctx, *projectID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer client.Close()

	log.Info().Str("project", *projectID).Str("dataset", *datasetID).Msg("Connected to BigQuery")

	applied, err := getAppliedMigrations(ctx, client)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get applied migrations")
	}
	log.Info().Int("count", len(applied)).Msg("Found already applied migrations")

	pending, drifted := plan(migrations, applied)
	for _, m := range drifted {
		log.Warn().Str("migration", m.Filename).Msg("Applied migration changed on disk since it ran")
	}

	if len(pending) == 0 {
		log.Info().Msg("No new migrations to apply. Database is up to date.")
		return
	}

	for _, m := range pending {
		if *dryRun {
			log.Info().Str("migration", m.Filename).Msg("[PENDING]")
			continue
		}

		log.Info().Str("migration", m.Filename).Msg("[RUN]")

		if err := runQuery(ctx, client.Query(m.SQL)); err != nil {
			log.Fatal().Err(err).Str("migration", m.Filename).Msg("Failed to execute migration")
		}

		if err := recordMigration(ctx, client, m); err != nil {
			log.Fatal().Err(err).Str("migration", m.Filename).Msg("Failed to record migration")
		}

		log.Info().Str("migration", m.Filename).Msg("[OK]")
	}

	if !*dryRun {
		log.Info().Int("applied", len(pending)).Msg("Successfully applied migrations")
	}
}

func qualified(table string) string {
	return fmt.Sprintf("`%s.%s.%s`", *projectID, *datasetID, table)
}

// getAppliedMigrations retrieves the list of already applied migrations.
// A missing schema_migrations table means nothing has been applied.
func getAppliedMigrations(ctx context.Context, client *bigquery.Client) ([]AppliedMigration, error) {
	q := client.Query(`
		SELECT version, name, applied_at, checksum, applied_by
		FROM ` + qualified("schema_migrations") + `
		ORDER BY version ASC`)

	it, err := q.Read(ctx)
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
			return []AppliedMigration{}, nil
		}
		return nil, fmt.Errorf("reading applied migrations: %w", err)
	}

	var applied []AppliedMigration
	for {
		var row struct {
			Version   int64
			Name      string
			AppliedAt time.Time
			Checksum  bigquery.NullString
			AppliedBy bigquery.NullString
		}

		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating results: %w", err)
		}

		applied = append(applied, AppliedMigration{
			Version:   int(row.Version),
			Name:      row.Name,
			AppliedAt: row.AppliedAt,
			Checksum:  row.Checksum.StringVal,
			AppliedBy: row.AppliedBy.StringVal,
		})
	}

	return applied, nil
}

// recordMigration records a successfully applied migration in schema_migrations
func recordMigration(ctx context.Context, client *bigquery.Client, m Migration) error {
	q := client.Query(`
		INSERT INTO ` + qualified("schema_migrations") + `
		(version, name, applied_at, checksum, applied_by)
		VALUES (@version, @name, CURRENT_TIMESTAMP(), @checksum, @applied_by)`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "version", Value: m.Version},
		{Name: "name", Value: m.Name},
		{Name: "checksum", Value: m.Checksum},
		{Name: "applied_by", Value: *appliedBy},
	}
	return runQuery(ctx, q)
}

func runQuery(ctx context.Context, q *bigquery.Query) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}

	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}

	return nil
}
