package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/profit-tracker/internal/api/middleware"
	"github.com/dvloznov/profit-tracker/internal/domain"
	"github.com/dvloznov/profit-tracker/internal/store"
)

// GoalsHandler handles growth savings goal endpoints.
type GoalsHandler struct {
	repo store.GoalRepository
	now  func() time.Time
	log  zerolog.Logger
}

// NewGoalsHandler creates a new goals handler.
func NewGoalsHandler(repo store.GoalRepository, log zerolog.Logger) *GoalsHandler {
	return &GoalsHandler{repo: repo, now: time.Now, log: log}
}

type createGoalRequest struct {
	Name     string          `json:"name"`
	Target   decimal.Decimal `json:"target"`
	Deadline string          `json:"deadline"`
}

// ListGoals handles GET /api/goals
func (h *GoalsHandler) ListGoals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	goals, err := h.repo.ListGoals(ctx, middleware.UserID(ctx))
	if err != nil {
		writeStoreError(w, h.log, err, "goals")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"goals": goals,
		"count": len(goals),
	})
}

// CreateGoal handles POST /api/goals
func (h *GoalsHandler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createGoalRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	now := h.now()
	goal := &domain.Goal{
		ID:        uuid.New().String(),
		UserID:    middleware.UserID(ctx),
		Name:      req.Name,
		Target:    req.Target,
		CreatedAt: now,
	}
	if req.Deadline != "" {
		d, err := parseDate(req.Deadline, now.Location())
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		goal.Deadline = &d
	}
	if err := goal.Validate(); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.repo.InsertGoal(ctx, goal); err != nil {
		h.log.Error().Err(err).Msg("Failed to insert goal")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save goal")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, goal)
}

// DeleteGoal handles DELETE /api/goals/{id}
func (h *GoalsHandler) DeleteGoal(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()

	if err := h.repo.DeleteGoal(ctx, middleware.UserID(ctx), id); err != nil {
		writeStoreError(w, h.log, err, "goal")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
