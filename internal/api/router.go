// Package api assembles the HTTP routes of the profit tracker.
package api

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/profit-tracker/internal/api/handlers"
	"github.com/dvloznov/profit-tracker/internal/api/middleware"
	"github.com/dvloznov/profit-tracker/internal/jobs"
	"github.com/dvloznov/profit-tracker/internal/reserve"
	"github.com/dvloznov/profit-tracker/internal/store"
)

// Deps is everything the routes need.
type Deps struct {
	Repo        store.Repository
	Publisher   jobs.Publisher
	JobStore    jobs.JobStore
	HasExporter func(destination string) bool
	Reserve     reserve.Options
	Log         zerolog.Logger
}

// NewRouter returns the API handler with middleware applied.
func NewRouter(d Deps) http.Handler {
	transactionsHandler := handlers.NewTransactionsHandler(d.Repo, d.Log)
	splitHandler := handlers.NewSplitHandler(d.Repo, d.Log)
	dashboardHandler := handlers.NewDashboardHandler(d.Repo, d.Reserve, d.Log)
	goalsHandler := handlers.NewGoalsHandler(d.Repo, d.Log)
	reportsHandler := handlers.NewReportsHandler(d.Publisher, d.HasExporter, d.Log)
	jobsHandler := handlers.NewJobsHandler(d.JobStore, d.Log)

	mux := http.NewServeMux()

	// Transactions endpoints
	mux.HandleFunc("GET /api/transactions", transactionsHandler.ListTransactions)
	mux.HandleFunc("POST /api/transactions", transactionsHandler.CreateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", func(w http.ResponseWriter, r *http.Request) {
		transactionsHandler.DeleteTransaction(w, r, r.PathValue("id"))
	})

	// Split endpoints
	mux.HandleFunc("GET /api/split", splitHandler.GetSplit)
	mux.HandleFunc("PUT /api/split", splitHandler.PutSplit)
	mux.HandleFunc("POST /api/split/rebalance", splitHandler.Rebalance)

	// Dashboard endpoints
	mux.HandleFunc("GET /api/dashboard", dashboardHandler.GetDashboard)
	mux.HandleFunc("GET /api/reserve", dashboardHandler.GetReserve)

	// Goals endpoints
	mux.HandleFunc("GET /api/goals", goalsHandler.ListGoals)
	mux.HandleFunc("POST /api/goals", goalsHandler.CreateGoal)
	mux.HandleFunc("DELETE /api/goals/{id}", func(w http.ResponseWriter, r *http.Request) {
		goalsHandler.DeleteGoal(w, r, r.PathValue("id"))
	})

	// Reports and jobs endpoints
	mux.HandleFunc("POST /api/reports", reportsHandler.CreateReport)
	mux.HandleFunc("GET /api/jobs", jobsHandler.ListJobs)
	mux.HandleFunc("GET /api/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		jobsHandler.GetJob(w, r, r.PathValue("id"))
	})

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return middleware.Recovery(d.Log)(
		middleware.RequestID(
			middleware.Logger(d.Log)(
				middleware.CORS(
					middleware.Auth(mux),
				),
			),
		),
	)
}
