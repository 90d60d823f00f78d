package handlers

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/profit-tracker/internal/api/middleware"
	"github.com/dvloznov/profit-tracker/internal/report"
	"github.com/dvloznov/profit-tracker/internal/reserve"
	"github.com/dvloznov/profit-tracker/internal/store"
	"github.com/dvloznov/profit-tracker/internal/summary"
)

// DashboardHandler serves the dashboard summary and reserve trend.
type DashboardHandler struct {
	repo store.Repository
	opts reserve.Options
	now  func() time.Time
	log  zerolog.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(repo store.Repository, opts reserve.Options, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{repo: repo, opts: opts, now: time.Now, log: log}
}

// GetDashboard handles GET /api/dashboard. An optional month=YYYY-MM
// query parameter reports a past month as of its last day.
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)
	now := h.now()

	var period *summary.Period
	if month := r.URL.Query().Get("month"); month != "" {
		p, err := report.ParseMonth(month, now.Location())
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		period = &p
	}

	txs, err := h.repo.ListTransactions(ctx, userID)
	if err != nil {
		writeStoreError(w, h.log, err, "transactions")
		return
	}
	s, err := h.repo.GetSplit(ctx, userID)
	if err != nil {
		writeStoreError(w, h.log, err, "split")
		return
	}
	goals, err := h.repo.ListGoals(ctx, userID)
	if err != nil {
		writeStoreError(w, h.log, err, "goals")
		return
	}

	if period != nil {
		rep := report.Build(userID, *period, store.Values(txs), s, store.GoalValues(goals), now, h.opts)
		middleware.WriteJSON(w, http.StatusOK, rep.Dashboard)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, summary.BuildDashboard(store.Values(txs), s, store.GoalValues(goals), now, h.opts))
}

// GetReserve handles GET /api/reserve, the trend samples alone.
func (h *DashboardHandler) GetReserve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	txs, err := h.repo.ListTransactions(ctx, middleware.UserID(ctx))
	if err != nil {
		writeStoreError(w, h.log, err, "transactions")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, reserve.Sample(store.Values(txs), h.now(), h.opts))
}
