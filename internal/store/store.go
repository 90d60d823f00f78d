// Package store defines the persistence contracts for the ledger.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/dvloznov/profit-tracker/internal/domain"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// TransactionRepository provides ledger transaction operations.
type TransactionRepository interface {
	// InsertTransaction stores a new transaction. The ID must be set.
	InsertTransaction(ctx context.Context, tx *domain.Transaction) error

	// GetTransaction returns ErrNotFound for unknown ids or ids owned by another user.
	GetTransaction(ctx context.Context, userID, id string) (*domain.Transaction, error)

	// DeleteTransaction returns ErrNotFound when nothing was deleted.
	DeleteTransaction(ctx context.Context, userID, id string) error

	// ListTransactions returns all of a user's transactions ordered by date.
	ListTransactions(ctx context.Context, userID string) ([]*domain.Transaction, error)

	// ListTransactionsBetween returns transactions dated within [start, end).
	ListTransactionsBetween(ctx context.Context, userID string, start, end time.Time) ([]*domain.Transaction, error)
}

// SplitRepository persists each user's profit split.
type SplitRepository interface {
	// GetSplit returns domain.DefaultSplit when the user never saved one.
	GetSplit(ctx context.Context, userID string) (domain.AllocationSplit, error)

	// SaveSplit replaces the user's split.
	SaveSplit(ctx context.Context, userID string, split domain.AllocationSplit) error
}

// GoalRepository persists growth savings goals.
type GoalRepository interface {
	InsertGoal(ctx context.Context, goal *domain.Goal) error
	ListGoals(ctx context.Context, userID string) ([]*domain.Goal, error)
	DeleteGoal(ctx context.Context, userID, id string) error
}

// Repository is everything the service needs from storage.
type Repository interface {
	TransactionRepository
	SplitRepository
	GoalRepository

	Close() error
}

// Values dereferences a list of transactions for the pure calculators.
func Values(txs []*domain.Transaction) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx != nil {
			out = append(out, *tx)
		}
	}
	return out
}

// GoalValues dereferences a list of goals.
func GoalValues(goals []*domain.Goal) []domain.Goal {
	out := make([]domain.Goal, 0, len(goals))
	for _, g := range goals {
		if g != nil {
			out = append(out, *g)
		}
	}
	return out
}
