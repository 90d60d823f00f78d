package report

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/profit-tracker/internal/reserve"
	"github.com/dvloznov/profit-tracker/internal/store"
)

// Generator loads a user's ledger, builds a report and exports it.
type Generator struct {
	repo      store.Repository
	exporters map[string]Exporter
	opts      reserve.Options
	now       func() time.Time
	log       zerolog.Logger
}

// NewGenerator wires a generator. exporters is keyed by destination name
// ("gcs", "notion", "stdout", ...).
func NewGenerator(repo store.Repository, exporters map[string]Exporter, opts reserve.Options, log zerolog.Logger) *Generator {
	return &Generator{
		repo:      repo,
		exporters: exporters,
		opts:      opts,
		now:       time.Now,
		log:       log,
	}
}

// HasExporter reports whether destination is configured.
func (g *Generator) HasExporter(destination string) bool {
	_, ok := g.exporters[destination]
	return ok
}

// Generate builds the report for month (yyyy-mm) and sends it to destination.
func (g *Generator) Generate(ctx context.Context, userID, month, destination string) (*Report, string, error) {
	exporter, ok := g.exporters[destination]
	if !ok {
		return nil, "", fmt.Errorf("Generate: unknown export destination %q", destination)
	}

	now := g.now()
	period, err := ParseMonth(month, now.Location())
	if err != nil {
		return nil, "", fmt.Errorf("Generate: %w", err)
	}

	txs, err := g.repo.ListTransactions(ctx, userID)
	if err != nil {
		return nil, "", fmt.Errorf("Generate: loading transactions: %w", err)
	}
	split, err := g.repo.GetSplit(ctx, userID)
	if err != nil {
		return nil, "", fmt.Errorf("Generate: loading split: %w", err)
	}
	goals, err := g.repo.ListGoals(ctx, userID)
	if err != nil {
		return nil, "", fmt.Errorf("Generate: loading goals: %w", err)
	}

	r := Build(userID, period, store.Values(txs), split, store.GoalValues(goals), now, g.opts)

	location, err := exporter.Export(ctx, r)
	if err != nil {
		return nil, "", fmt.Errorf("Generate: exporting to %s: %w", destination, err)
	}

	g.log.Info().
		Str("report_id", r.ID).
		Str("user_id", userID).
		Str("month", month).
		Str("destination", destination).
		Str("location", location).
		Msg("Report exported")

	return r, location, nil
}
