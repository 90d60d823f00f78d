package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/profit-tracker/internal/api/middleware"
	"github.com/dvloznov/profit-tracker/internal/jobs"
	"github.com/dvloznov/profit-tracker/internal/report"
	"github.com/dvloznov/profit-tracker/internal/summary"
)

// ReportsHandler enqueues monthly report jobs.
type ReportsHandler struct {
	publisher   jobs.Publisher
	hasExporter func(destination string) bool
	now         func() time.Time
	log         zerolog.Logger
}

// NewReportsHandler creates a new reports handler. hasExporter tells
// whether a destination name is configured.
func NewReportsHandler(publisher jobs.Publisher, hasExporter func(string) bool, log zerolog.Logger) *ReportsHandler {
	return &ReportsHandler{publisher: publisher, hasExporter: hasExporter, now: time.Now, log: log}
}

type createReportRequest struct {
	Month       string `json:"month"`
	Destination string `json:"destination"`
}

// CreateReport handles POST /api/reports. Month defaults to the current
// month and destination to stdout.
func (h *ReportsHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createReportRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	now := h.now()
	if req.Month == "" {
		req.Month = summary.MonthOf(now).Label()
	}
	if _, err := report.ParseMonth(req.Month, now.Location()); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Destination == "" {
		req.Destination = "stdout"
	}
	if !h.hasExporter(req.Destination) {
		middleware.WriteError(w, http.StatusBadRequest, "Unknown or unconfigured destination "+strconv.Quote(req.Destination))
		return
	}

	job := &jobs.ReportJob{
		UserID:      middleware.UserID(ctx),
		Month:       req.Month,
		Destination: req.Destination,
	}
	if err := h.publisher.PublishReport(ctx, job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue report job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue report job")
		return
	}

	// The queue owns the job from here; respond from the values it filled in.
	jobID, status := job.JobID, job.Status

	h.log.Info().
		Str("job_id", jobID).
		Str("user_id", job.UserID).
		Str("month", job.Month).
		Str("destination", job.Destination).
		Msg("Report job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": jobID,
		"month":  job.Month,
		"status": string(status),
	})
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /api/jobs/{id}. Jobs of other users are reported as
// missing.
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, jobID)
	if err == nil && job.UserID != middleware.UserID(ctx) {
		err = jobs.ErrJobNotFound
	}
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Job not found")
			return
		}
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	filter := jobs.JobFilter{
		UserID: middleware.UserID(ctx),
		Status: jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
