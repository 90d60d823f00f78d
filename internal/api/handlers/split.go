package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/profit-tracker/internal/api/middleware"
	"github.com/dvloznov/profit-tracker/internal/domain"
	"github.com/dvloznov/profit-tracker/internal/split"
	"github.com/dvloznov/profit-tracker/internal/store"
)

// SplitHandler serves the profit allocation split.
type SplitHandler struct {
	repo store.SplitRepository
	log  zerolog.Logger
}

// NewSplitHandler creates a new split handler.
func NewSplitHandler(repo store.SplitRepository, log zerolog.Logger) *SplitHandler {
	return &SplitHandler{repo: repo, log: log}
}

// GetSplit handles GET /api/split
func (h *SplitHandler) GetSplit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	s, err := h.repo.GetSplit(ctx, middleware.UserID(ctx))
	if err != nil {
		writeStoreError(w, h.log, err, "split")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, s)
}

// PutSplit handles PUT /api/split. The body must be a complete split
// summing to 100.
func (h *SplitHandler) PutSplit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var s domain.AllocationSplit
	if err := decodeJSON(r, &s); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.Validate(); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.repo.SaveSplit(ctx, middleware.UserID(ctx), s); err != nil {
		writeStoreError(w, h.log, err, "split")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, s)
}

type rebalanceRequest struct {
	Bucket string `json:"bucket"`
	Value  *int   `json:"value"`
}

type rebalanceResponse struct {
	Previous domain.AllocationSplit `json:"previous"`
	Split    domain.AllocationSplit `json:"split"`
}

// Rebalance handles POST /api/split/rebalance. One bucket is set to the
// requested value and the others are rescaled to keep the total at 100.
func (h *SplitHandler) Rebalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)

	var req rebalanceRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	bucket, err := domain.ParseBucket(req.Bucket)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Value == nil {
		middleware.WriteError(w, http.StatusBadRequest, "value is required")
		return
	}

	current, err := h.repo.GetSplit(ctx, userID)
	if err != nil {
		writeStoreError(w, h.log, err, "split")
		return
	}

	next := split.Rebalance(current, bucket, *req.Value)
	if err := h.repo.SaveSplit(ctx, userID, next); err != nil {
		writeStoreError(w, h.log, err, "split")
		return
	}

	h.log.Info().
		Str("user_id", userID).
		Str("bucket", string(bucket)).
		Int("value", *req.Value).
		Str("from", current.String()).
		Str("to", next.String()).
		Msg("Split rebalanced")

	middleware.WriteJSON(w, http.StatusOK, rebalanceResponse{Previous: current, Split: next})
}
