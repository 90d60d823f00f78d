package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/profit-tracker/internal/api/middleware"
	"github.com/dvloznov/profit-tracker/internal/domain"
	"github.com/dvloznov/profit-tracker/internal/jobs"
	"github.com/dvloznov/profit-tracker/internal/jobs/inmemory"
	"github.com/dvloznov/profit-tracker/internal/logger"
	"github.com/dvloznov/profit-tracker/internal/reserve"
	"github.com/dvloznov/profit-tracker/internal/store/memory"
	"github.com/dvloznov/profit-tracker/internal/summary"
)

var fixedNow = time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func do(t *testing.T, h http.HandlerFunc, method, target, body, user string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	rec := httptest.NewRecorder()
	middleware.Auth(h).ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func seed(t *testing.T, repo *memory.Store, user string, kind domain.Kind, amount string, date time.Time) {
	t.Helper()
	require.NoError(t, repo.InsertTransaction(context.Background(), &domain.Transaction{
		ID:        user + "-" + date.Format("0102") + "-" + amount,
		UserID:    user,
		Amount:    decimal.RequireFromString(amount),
		Kind:      kind,
		Date:      date,
		CreatedAt: date,
	}))
}

func TestRebalance(t *testing.T) {
	repo := memory.NewStore()
	h := NewSplitHandler(repo, logger.NewWithWriter(io.Discard))

	rec := do(t, h.Rebalance, http.MethodPost, "/api/split/rebalance", `{"bucket":"reinvestment","value":50}`, "alice")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp rebalanceResponse
	decode(t, rec, &resp)
	assert.Equal(t, domain.DefaultSplit(), resp.Previous)
	assert.Equal(t, domain.AllocationSplit{OwnerPay: 29, Reinvestment: 50, Savings: 14, TaxReserve: 7}, resp.Split)

	saved, err := repo.GetSplit(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, resp.Split, saved)

	other, err := repo.GetSplit(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSplit(), other)
}

func TestRebalanceChainsFromSavedSplit(t *testing.T) {
	repo := memory.NewStore()
	h := NewSplitHandler(repo, logger.NewWithWriter(io.Discard))

	require.Equal(t, http.StatusOK, do(t, h.Rebalance, http.MethodPost, "/", `{"bucket":"owner_pay","value":100}`, "alice").Code)
	rec := do(t, h.Rebalance, http.MethodPost, "/", `{"bucket":"taxReserve","value":25}`, "alice")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp rebalanceResponse
	decode(t, rec, &resp)
	assert.Equal(t, domain.AllocationSplit{OwnerPay: 100}, resp.Previous)
	assert.Equal(t, domain.AllocationSplit{OwnerPay: 75, TaxReserve: 25}, resp.Split)
}

func TestRebalanceBadRequests(t *testing.T) {
	h := NewSplitHandler(memory.NewStore(), logger.NewWithWriter(io.Discard))

	for name, body := range map[string]string{
		"unknown bucket": `{"bucket":"yacht","value":10}`,
		"missing value":  `{"bucket":"savings"}`,
		"unknown field":  `{"bucket":"savings","value":10,"force":true}`,
		"not json":       `savings=10`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := do(t, h.Rebalance, http.MethodPost, "/", body, "alice")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestPutSplit(t *testing.T) {
	repo := memory.NewStore()
	h := NewSplitHandler(repo, logger.NewWithWriter(io.Discard))

	rec := do(t, h.PutSplit, http.MethodPut, "/", `{"owner_pay":25,"reinvestment":25,"savings":25,"tax_reserve":20}`, "alice")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "sum to 100")

	rec = do(t, h.PutSplit, http.MethodPut, "/", `{"owner_pay":25,"reinvestment":25,"savings":25,"tax_reserve":25}`, "alice")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h.GetSplit, http.MethodGet, "/", "", "alice")
	var s domain.AllocationSplit
	decode(t, rec, &s)
	assert.Equal(t, domain.AllocationSplit{OwnerPay: 25, Reinvestment: 25, Savings: 25, TaxReserve: 25}, s)
}

func TestTransactionsLifecycle(t *testing.T) {
	repo := memory.NewStore()
	h := NewTransactionsHandler(repo, logger.NewWithWriter(io.Discard))
	h.now = clock

	rec := do(t, h.CreateTransaction, http.MethodPost, "/", `{"amount":"1200.50","kind":"income","date":"2023-02-10","description":"Invoice 7"}`, "alice")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created domain.Transaction
	decode(t, rec, &created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "alice", created.UserID)
	assert.True(t, created.Amount.Equal(decimal.RequireFromString("1200.50")))

	rec = do(t, h.CreateTransaction, http.MethodPost, "/", `{"amount":75,"kind":"expense"}`, "alice")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var defaulted domain.Transaction
	decode(t, rec, &defaulted)
	assert.True(t, defaulted.Date.Equal(time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)))

	rec = do(t, h.ListTransactions, http.MethodGet, "/api/transactions", "", "alice")
	var all []domain.Transaction
	decode(t, rec, &all)
	assert.Len(t, all, 2)

	rec = do(t, h.ListTransactions, http.MethodGet, "/api/transactions?start_date=2023-02-01&end_date=2023-02-10", "", "alice")
	var feb []domain.Transaction
	decode(t, rec, &feb)
	require.Len(t, feb, 1)
	assert.Equal(t, created.ID, feb[0].ID)

	rec = do(t, h.ListTransactions, http.MethodGet, "/api/transactions", "", "bob")
	assert.JSONEq(t, `[]`, rec.Body.String())

	del := func(w http.ResponseWriter, r *http.Request) { h.DeleteTransaction(w, r, created.ID) }
	assert.Equal(t, http.StatusNotFound, do(t, del, http.MethodDelete, "/", "", "bob").Code)
	assert.Equal(t, http.StatusNoContent, do(t, del, http.MethodDelete, "/", "", "alice").Code)
	assert.Equal(t, http.StatusNotFound, do(t, del, http.MethodDelete, "/", "", "alice").Code)
}

func TestCreateTransactionValidation(t *testing.T) {
	h := NewTransactionsHandler(memory.NewStore(), logger.NewWithWriter(io.Discard))
	h.now = clock

	for name, body := range map[string]string{
		"bad kind":        `{"amount":"10","kind":"refund"}`,
		"negative amount": `{"amount":"-10","kind":"income"}`,
		"bad date":        `{"amount":"10","kind":"income","date":"10/02/2023"}`,
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, do(t, h.CreateTransaction, http.MethodPost, "/", body, "alice").Code)
		})
	}

	rec := do(t, h.ListTransactions, http.MethodGet, "/api/transactions?start_date=yesterday", "", "alice")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboard(t *testing.T) {
	repo := memory.NewStore()
	seed(t, repo, "alice", domain.KindIncome, "1000", time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC))
	seed(t, repo, "alice", domain.KindExpense, "200", time.Date(2023, 2, 20, 0, 0, 0, 0, time.UTC))
	seed(t, repo, "alice", domain.KindIncome, "500", time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC))
	seed(t, repo, "alice", domain.KindIncome, "999", time.Date(2023, 3, 20, 0, 0, 0, 0, time.UTC))

	h := NewDashboardHandler(repo, reserve.Options{}, logger.NewWithWriter(io.Discard))
	h.now = clock

	rec := do(t, h.GetDashboard, http.MethodGet, "/api/dashboard", "", "alice")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var d summary.Dashboard
	decode(t, rec, &d)
	assert.True(t, d.DisplayBalance.Equal(decimal.NewFromInt(1300)), "display %s", d.DisplayBalance)
	assert.True(t, d.Month.Revenue.Equal(decimal.NewFromInt(1499)), "revenue %s", d.Month.Revenue)
	assert.Equal(t, domain.DefaultSplit(), d.Split)
	require.NotEmpty(t, d.Reserve)
	assert.True(t, d.Reserve[0].Balance.IsZero())
	for _, s := range d.Reserve {
		assert.False(t, s.Date.After(fixedNow))
	}

	rec = do(t, h.GetDashboard, http.MethodGet, "/api/dashboard?month=2023-02", "", "alice")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &d)
	assert.True(t, d.Month.Profit.Equal(decimal.NewFromInt(-200)), "profit %s", d.Month.Profit)
	assert.True(t, d.DisplayBalance.Equal(decimal.NewFromInt(800)), "display %s", d.DisplayBalance)

	rec = do(t, h.GetDashboard, http.MethodGet, "/api/dashboard?month=Feb", "", "alice")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReserveEndpointIncludesFutureWhenConfigured(t *testing.T) {
	repo := memory.NewStore()
	seed(t, repo, "alice", domain.KindIncome, "100", time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC))
	seed(t, repo, "alice", domain.KindIncome, "50", time.Date(2023, 3, 20, 0, 0, 0, 0, time.UTC))

	for _, tt := range []struct {
		opts reserve.Options
		want int64
	}{
		{reserve.Options{}, 100},
		{reserve.Options{IncludeFuture: true}, 150},
	} {
		h := NewDashboardHandler(repo, tt.opts, logger.NewWithWriter(io.Discard))
		h.now = clock

		rec := do(t, h.GetReserve, http.MethodGet, "/api/reserve", "", "alice")
		var samples []domain.ReserveSample
		decode(t, rec, &samples)
		require.NotEmpty(t, samples)
		assert.True(t, samples[len(samples)-1].Balance.Equal(decimal.NewFromInt(tt.want)))
	}
}

func TestGoals(t *testing.T) {
	repo := memory.NewStore()
	h := NewGoalsHandler(repo, logger.NewWithWriter(io.Discard))
	h.now = clock

	rec := do(t, h.CreateGoal, http.MethodPost, "/", `{"name":"Van","target":"12000","deadline":"2024-06-30"}`, "alice")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var g domain.Goal
	decode(t, rec, &g)
	require.NotNil(t, g.Deadline)

	assert.Equal(t, http.StatusBadRequest, do(t, h.CreateGoal, http.MethodPost, "/", `{"name":"Zero","target":0}`, "alice").Code)

	rec = do(t, h.ListGoals, http.MethodGet, "/", "", "alice")
	var list struct {
		Goals []domain.Goal `json:"goals"`
		Count int           `json:"count"`
	}
	decode(t, rec, &list)
	assert.Equal(t, 1, list.Count)

	del := func(w http.ResponseWriter, r *http.Request) { h.DeleteGoal(w, r, g.ID) }
	assert.Equal(t, http.StatusNotFound, do(t, del, http.MethodDelete, "/", "", "bob").Code)
	assert.Equal(t, http.StatusNoContent, do(t, del, http.MethodDelete, "/", "", "alice").Code)
}

func TestCreateReport(t *testing.T) {
	store := inmemory.NewStore()
	queue := inmemory.NewQueue(10, 1, 0, store)
	defer queue.Close()

	h := NewReportsHandler(queue, func(d string) bool { return d == "stdout" || d == "gcs" }, logger.NewWithWriter(io.Discard))
	h.now = clock

	rec := do(t, h.CreateReport, http.MethodPost, "/", `{"month":"2023-02","destination":"gcs"}`, "alice")
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var resp map[string]string
	decode(t, rec, &resp)

	job, err := store.GetJob(context.Background(), resp["job_id"])
	require.NoError(t, err)
	assert.Equal(t, "alice", job.UserID)
	assert.Equal(t, "2023-02", job.Month)
	assert.Equal(t, "gcs", job.Destination)

	rec = do(t, h.CreateReport, http.MethodPost, "/", `{}`, "alice")
	require.Equal(t, http.StatusAccepted, rec.Code)
	decode(t, rec, &resp)
	assert.Equal(t, "2023-03", resp["month"])

	assert.Equal(t, http.StatusBadRequest, do(t, h.CreateReport, http.MethodPost, "/", `{"destination":"notion"}`, "alice").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h.CreateReport, http.MethodPost, "/", `{"month":"March"}`, "alice").Code)
}

func TestCreateReportWhileWorkersRun(t *testing.T) {
	store := inmemory.NewStore()
	queue := inmemory.NewQueue(200, 4, 0, store)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, queue.Start(ctx, func(ctx context.Context, job *jobs.ReportJob) error {
		job.Location = "stdout"
		return nil
	}))

	h := NewReportsHandler(queue, func(d string) bool { return d == "stdout" }, logger.NewWithWriter(io.Discard))
	h.now = clock

	ids := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		rec := do(t, h.CreateReport, http.MethodPost, "/", `{"month":"2023-02"}`, "alice")
		require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
		var resp map[string]string
		decode(t, rec, &resp)
		assert.Equal(t, string(jobs.JobStatusPending), resp["status"])
		ids = append(ids, resp["job_id"])
	}

	require.Eventually(t, func() bool {
		for _, id := range ids {
			job, err := store.GetJob(ctx, id)
			if err != nil || job.Status != jobs.JobStatusCompleted {
				return false
			}
		}
		return true
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, queue.Stop(context.Background()))
}

func TestJobsAreScopedToUser(t *testing.T) {
	store := inmemory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.SaveJob(ctx, &jobs.ReportJob{JobID: "j1", UserID: "alice", Status: jobs.JobStatusCompleted}))
	require.NoError(t, store.SaveJob(ctx, &jobs.ReportJob{JobID: "j2", UserID: "bob", Status: jobs.JobStatusPending}))

	h := NewJobsHandler(store, logger.NewWithWriter(io.Discard))

	get := func(id string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) { h.GetJob(w, r, id) }
	}
	assert.Equal(t, http.StatusOK, do(t, get("j1"), http.MethodGet, "/", "", "alice").Code)
	assert.Equal(t, http.StatusNotFound, do(t, get("j2"), http.MethodGet, "/", "", "alice").Code)
	assert.Equal(t, http.StatusNotFound, do(t, get("nope"), http.MethodGet, "/", "", "alice").Code)

	rec := do(t, h.ListJobs, http.MethodGet, "/api/jobs?limit=10", "", "alice")
	var list struct {
		Jobs  []jobs.ReportJob `json:"jobs"`
		Count int              `json:"count"`
	}
	decode(t, rec, &list)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "j1", list.Jobs[0].JobID)
}
