// Package report builds monthly summary reports and hands them to exporters.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/profit-tracker/internal/domain"
	"github.com/dvloznov/profit-tracker/internal/reserve"
	"github.com/dvloznov/profit-tracker/internal/summary"
)

// Report is a point-in-time summary of one user's month.
type Report struct {
	ID          string            `json:"id"`
	UserID      string            `json:"user_id"`
	Period      summary.Period    `json:"period"`
	GeneratedAt time.Time         `json:"generated_at"`
	Dashboard   summary.Dashboard `json:"dashboard"`
}

// Month is the yyyy-mm label of the reported period.
func (r *Report) Month() string {
	return r.Period.Label()
}

// ParseMonth parses a yyyy-mm label into a period in loc.
func ParseMonth(label string, loc *time.Location) (summary.Period, error) {
	t, err := time.ParseInLocation("2006-01", label, loc)
	if err != nil {
		return summary.Period{}, fmt.Errorf("invalid month %q, expected YYYY-MM", label)
	}
	return summary.MonthOf(t), nil
}

// Build assembles the report for period p. For a past month the reserve
// trend and balance are taken as of the end of that month; for the current
// or a future month they are taken as of now.
func Build(userID string, p summary.Period, txs []domain.Transaction, split domain.AllocationSplit, goals []domain.Goal, now time.Time, opts reserve.Options) *Report {
	asOf := now
	if end := p.To.Add(-time.Nanosecond); end.Before(now) {
		asOf = end
	}
	return &Report{
		ID:          uuid.New().String(),
		UserID:      userID,
		Period:      p,
		GeneratedAt: now,
		Dashboard:   summary.BuildForPeriod(txs, split, goals, p, asOf, opts),
	}
}

// Exporter delivers a finished report somewhere and returns where it went.
type Exporter interface {
	Export(ctx context.Context, r *Report) (string, error)
}

// JSONExporter writes the report as indented JSON to W.
type JSONExporter struct {
	W io.Writer
}

func (e JSONExporter) Export(ctx context.Context, r *Report) (string, error) {
	if err := Encode(e.W, r); err != nil {
		return "", err
	}
	return "stdout", nil
}

// Encode writes r as indented JSON.
func Encode(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}
