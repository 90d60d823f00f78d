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

// TransactionsHandler handles ledger endpoints.
type TransactionsHandler struct {
	repo store.TransactionRepository
	now  func() time.Time
	log  zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(repo store.TransactionRepository, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{repo: repo, now: time.Now, log: log}
}

type createTransactionRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Kind        string          `json:"kind"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
}

// ListTransactions handles GET /api/transactions. The optional start_date
// and end_date query parameters are inclusive calendar dates.
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)
	query := r.URL.Query()
	startStr, endStr := query.Get("start_date"), query.Get("end_date")

	var (
		txs []*domain.Transaction
		err error
	)
	if startStr == "" && endStr == "" {
		txs, err = h.repo.ListTransactions(ctx, userID)
	} else {
		loc := h.now().Location()
		start := time.Date(1970, 1, 1, 0, 0, 0, 0, loc)
		end := domain.DayOf(h.now()).AddDate(100, 0, 0)
		if startStr != "" {
			if start, err = parseDate(startStr, loc); err != nil {
				middleware.WriteError(w, http.StatusBadRequest, "Invalid start_date format")
				return
			}
		}
		if endStr != "" {
			if end, err = parseDate(endStr, loc); err != nil {
				middleware.WriteError(w, http.StatusBadRequest, "Invalid end_date format")
				return
			}
			end = domain.DayOf(end).AddDate(0, 0, 1)
		}
		txs, err = h.repo.ListTransactionsBetween(ctx, userID, domain.DayOf(start), end)
	}
	if err != nil {
		writeStoreError(w, h.log, err, "transactions")
		return
	}

	if txs == nil {
		txs = []*domain.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, txs)
}

// CreateTransaction handles POST /api/transactions
func (h *TransactionsHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	kind, err := domain.ParseKind(req.Kind)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := h.now()
	date := domain.DayOf(now)
	if req.Date != "" {
		if date, err = parseDate(req.Date, now.Location()); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	tx := &domain.Transaction{
		ID:          uuid.New().String(),
		UserID:      middleware.UserID(ctx),
		Amount:      req.Amount,
		Kind:        kind,
		Date:        date,
		Description: req.Description,
		Category:    req.Category,
		CreatedAt:   now,
	}
	if err := tx.Validate(); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.repo.InsertTransaction(ctx, tx); err != nil {
		h.log.Error().Err(err).Msg("Failed to insert transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save transaction")
		return
	}

	h.log.Info().
		Str("user_id", tx.UserID).
		Str("transaction_id", tx.ID).
		Str("kind", string(tx.Kind)).
		Msg("Transaction recorded")

	middleware.WriteJSON(w, http.StatusCreated, tx)
}

// DeleteTransaction handles DELETE /api/transactions/{id}
func (h *TransactionsHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()

	if err := h.repo.DeleteTransaction(ctx, middleware.UserID(ctx), id); err != nil {
		writeStoreError(w, h.log, err, "transaction")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
