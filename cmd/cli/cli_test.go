package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/profit-tracker/internal/domain"
)

var fixedNow = time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC)

type harness struct {
	t  *testing.T
	db string
}

func newHarness(t *testing.T) *harness {
	t.Setenv("PT_STORAGE_DRIVER", "")
	return &harness{t: t, db: filepath.Join(t.TempDir(), "ledger.sqlite")}
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	out := &bytes.Buffer{}
	root := newRoot(&cli{out: out, now: func() time.Time { return fixedNow }})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"--db", h.db, "--user", "alice"}, args...))
	err := root.Execute()
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, out)
	return out
}

func TestParseSplit(t *testing.T) {
	s, err := parseSplit("40/30/20/10")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSplit(), s)

	_, err = parseSplit("50/50")
	assert.Error(t, err)
	_, err = parseSplit("40/30/20/x")
	assert.Error(t, err)
	_, err = parseSplit("40/30/20/20")
	assert.ErrorContains(t, err, "sum to 100")
}

func TestRebalanceFromFlagDoesNotTouchStore(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("rebalance", "reinvestment", "50", "--from", "40/30/20/10")
	assert.Regexp(t, `owner_pay\s+40\s+29`, out)
	assert.Regexp(t, `tax_reserve\s+10\s+7`, out)

	out = h.mustRun("rebalance", "savings", "20", "--dry-run")
	assert.Regexp(t, `owner_pay\s+40\s+40`, out)
}

func TestRebalancePersists(t *testing.T) {
	h := newHarness(t)

	h.mustRun("rebalance", "owner_pay", "100")
	out := h.mustRun("rebalance", "tax_reserve", "25")
	assert.Regexp(t, `owner_pay\s+100\s+75`, out)
	assert.Regexp(t, `tax_reserve\s+0\s+25`, out)

	_, err := h.run("rebalance", "yacht", "10")
	assert.Error(t, err)
	_, err = h.run("rebalance", "savings", "ten")
	assert.Error(t, err)
}

func TestLedgerCommands(t *testing.T) {
	h := newHarness(t)

	h.mustRun("tx", "add", "--kind", "income", "--amount", "1000", "--date", "2024-01-10", "--desc", "Invoice 1")
	h.mustRun("tx", "add", "--kind", "expense", "--amount", "200", "--date", "2024-02-20")
	id := strings.TrimSpace(h.mustRun("tx", "add", "--kind", "income", "--amount", "500", "--date", "2024-03-01"))
	require.NotEmpty(t, id)

	out := h.mustRun("tx", "list", "--from", "2024-02-01", "--to", "2024-03-01")
	assert.Contains(t, out, "2024-02-20")
	assert.Contains(t, out, "2024-03-01")
	assert.NotContains(t, out, "Invoice 1")

	out = h.mustRun("reserve")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 7)
	assert.Regexp(t, `2024-01-01\s+0`, lines[1])
	assert.Regexp(t, `2024-03-20\s+1300`, lines[6])

	out = h.mustRun("reserve", "--as-of", "2024-02-29")
	assert.Regexp(t, `2024-02-29\s+800`, out)

	out = h.mustRun("summary")
	assert.Regexp(t, `Revenue\s+500.00`, out)
	assert.Regexp(t, `Cash reserve\s+1300`, out)
	assert.Regexp(t, `owner_pay\s+40\s+200.00`, out)

	out = h.mustRun("summary", "--month", "2024-02")
	assert.Regexp(t, `Profit\s+-200.00`, out)
	assert.Regexp(t, `Cash reserve\s+800`, out)

	h.mustRun("tx", "rm", id)
	_, err := h.run("tx", "rm", id)
	assert.Error(t, err)
}

func TestTxAddValidation(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("tx", "add", "--kind", "gift", "--amount", "10")
	assert.Error(t, err)
	_, err = h.run("tx", "add", "--kind", "income", "--amount", "-10")
	assert.Error(t, err)
	_, err = h.run("tx", "add", "--kind", "income")
	assert.Error(t, err)
	_, err = h.run("tx", "list", "--from", "2024-03-10", "--to", "2024-03-01")
	assert.Error(t, err)
}

func TestGoalAndReport(t *testing.T) {
	h := newHarness(t)

	h.mustRun("tx", "add", "--kind", "income", "--amount", "2500", "--date", "2024-03-02")
	h.mustRun("goal", "add", "--name", "Van", "--target", "5000", "--deadline", "2024-12-31")

	out := h.mustRun("goal", "list")
	assert.Regexp(t, `Van\s+5000.00\s+2024-12-31`, out)

	out = h.mustRun("summary")
	assert.Regexp(t, `Van\s+5000.00\s+50.0%`, out)

	out = h.mustRun("report", "--month", "2024-03")
	assert.Contains(t, out, `"user_id": "alice"`)
	assert.Contains(t, out, `"display_balance": "2500"`)

	_, err := h.run("report", "--dest", "notion")
	assert.ErrorContains(t, err, "not configured")

	_, err = h.run("report", "--verify")
	assert.ErrorContains(t, err, "--verify only applies to --dest gcs")
}

func TestConfigInitAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pt.yaml")
	out := &bytes.Buffer{}

	root := newRootCmd(out)
	root.SetArgs([]string{"config", "init", "--output", path})
	require.NoError(t, root.Execute())

	root = newRootCmd(out)
	root.SetArgs([]string{"config", "validate", "--file", path})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "is valid (storage: sqlite, workers: 5)")
}
