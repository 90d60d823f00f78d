package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/profit-tracker/internal/domain"
	"github.com/dvloznov/profit-tracker/internal/reserve"
	"github.com/dvloznov/profit-tracker/internal/store/memory"
)

type recordingExporter struct {
	got []*Report
	err error
}

func (e *recordingExporter) Export(ctx context.Context, r *Report) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	e.got = append(e.got, r)
	return "mem://" + r.ID, nil
}

func ledger() []domain.Transaction {
	return []domain.Transaction{
		{Amount: decimal.NewFromInt(3000), Kind: domain.KindIncome, Date: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
		{Amount: decimal.NewFromInt(800), Kind: domain.KindExpense, Date: time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC)},
		{Amount: decimal.NewFromInt(1000), Kind: domain.KindIncome, Date: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)},
	}
}

func TestParseMonth(t *testing.T) {
	p, err := ParseMonth("2024-02", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), p.From)

	_, err = ParseMonth("February", time.UTC)
	assert.Error(t, err)
}

func TestBuildPastMonthUsesMonthEnd(t *testing.T) {
	p, err := ParseMonth("2024-01", time.UTC)
	require.NoError(t, err)
	now := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	r := Build("alice", p, ledger(), domain.DefaultSplit(), nil, now, reserve.Options{})

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "2024-01", r.Month())
	assert.Equal(t, now, r.GeneratedAt)
	assert.Equal(t, "2200", r.Dashboard.Month.Profit.String())
	assert.Equal(t, "2200", r.Dashboard.CurrentBalance.String(), "February income is after the report cut-off")
	last := r.Dashboard.Reserve[len(r.Dashboard.Reserve)-1]
	assert.Equal(t, 2024, last.Date.Year())
	assert.Equal(t, time.January, last.Date.Month())
	assert.Equal(t, 31, last.Date.Day())
}

func TestBuildCurrentMonthUsesNow(t *testing.T) {
	p, err := ParseMonth("2024-02", time.UTC)
	require.NoError(t, err)
	now := time.Date(2024, 2, 20, 12, 0, 0, 0, time.UTC)

	r := Build("alice", p, ledger(), domain.DefaultSplit(), nil, now, reserve.Options{})
	assert.Equal(t, "3200", r.Dashboard.CurrentBalance.String())
	assert.True(t, r.Dashboard.Reserve[len(r.Dashboard.Reserve)-1].Date.Equal(now))
}

func TestJSONExporter(t *testing.T) {
	var buf bytes.Buffer
	p, _ := ParseMonth("2024-01", time.UTC)
	r := Build("alice", p, ledger(), domain.DefaultSplit(), nil, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), reserve.Options{})

	loc, err := JSONExporter{W: &buf}.Export(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "stdout", loc)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "alice", decoded["user_id"])
}

func newGenerator(t *testing.T, exp Exporter) (*Generator, *memory.Store) {
	t.Helper()
	repo := memory.NewStore()
	ctx := context.Background()
	for i, tx := range ledger() {
		tx := tx
		tx.ID = string(rune('a' + i))
		tx.UserID = "alice"
		require.NoError(t, repo.InsertTransaction(ctx, &tx))
	}
	g := NewGenerator(repo, map[string]Exporter{"mem": exp}, reserve.Options{}, zerolog.New(io.Discard))
	g.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }
	return g, repo
}

func TestGenerate(t *testing.T) {
	exp := &recordingExporter{}
	g, repo := newGenerator(t, exp)
	require.NoError(t, repo.SaveSplit(context.Background(), "alice", domain.AllocationSplit{OwnerPay: 50, TaxReserve: 50}))

	r, loc, err := g.Generate(context.Background(), "alice", "2024-02", "mem")
	require.NoError(t, err)
	assert.Equal(t, "mem://"+r.ID, loc)
	require.Len(t, exp.got, 1)
	assert.Equal(t, "1000", r.Dashboard.Month.Revenue.String())
	assert.Equal(t, "500", r.Dashboard.Allocation.OwnerPay.String())
	assert.True(t, g.HasExporter("mem"))
	assert.False(t, g.HasExporter("gcs"))
}

func TestGenerateErrors(t *testing.T) {
	g, _ := newGenerator(t, &recordingExporter{err: errors.New("bucket gone")})

	_, _, err := g.Generate(context.Background(), "alice", "2024-02", "gcs")
	assert.ErrorContains(t, err, "unknown export destination")

	_, _, err = g.Generate(context.Background(), "alice", "24-2", "mem")
	assert.ErrorContains(t, err, "invalid month")

	_, _, err = g.Generate(context.Background(), "alice", "2024-02", "mem")
	assert.ErrorContains(t, err, "bucket gone")
}
