package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dvloznov/profit-tracker/internal/domain"
	"github.com/dvloznov/profit-tracker/internal/store"
)

// Store is an in-memory implementation of store.Repository.
// It is safe for concurrent use. Data is lost on restart - for persistence,
// use the sqlite or bigquery repositories.
type Store struct {
	mu           sync.RWMutex
	transactions map[string]*domain.Transaction
	splits       map[string]domain.AllocationSplit
	goals        map[string]*domain.Goal
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		transactions: make(map[string]*domain.Transaction),
		splits:       make(map[string]domain.AllocationSplit),
		goals:        make(map[string]*domain.Goal),
	}
}

// InsertTransaction implements store.TransactionRepository.
func (s *Store) InsertTransaction(ctx context.Context, tx *domain.Transaction) error {
	if tx.ID == "" {
		return fmt.Errorf("transaction ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.transactions[tx.ID]; exists {
		return fmt.Errorf("transaction %s already exists", tx.ID)
	}
	// Copy to avoid external modifications
	txCopy := *tx
	s.transactions[tx.ID] = &txCopy
	return nil
}

// GetTransaction implements store.TransactionRepository.
func (s *Store) GetTransaction(ctx context.Context, userID, id string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, exists := s.transactions[id]
	if !exists || tx.UserID != userID {
		return nil, fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
	}
	txCopy := *tx
	return &txCopy, nil
}

// DeleteTransaction implements store.TransactionRepository.
func (s *Store) DeleteTransaction(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, exists := s.transactions[id]
	if !exists || tx.UserID != userID {
		return fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
	}
	delete(s.transactions, id)
	return nil
}

// ListTransactions implements store.TransactionRepository.
func (s *Store) ListTransactions(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	return s.list(userID, func(*domain.Transaction) bool { return true }), nil
}

// ListTransactionsBetween implements store.TransactionRepository.
func (s *Store) ListTransactionsBetween(ctx context.Context, userID string, start, end time.Time) ([]*domain.Transaction, error) {
	return s.list(userID, func(tx *domain.Transaction) bool {
		return !tx.Date.Before(start) && tx.Date.Before(end)
	}), nil
}

func (s *Store) list(userID string, keep func(*domain.Transaction) bool) []*domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*domain.Transaction{}
	for _, tx := range s.transactions {
		if tx.UserID != userID || !keep(tx) {
			continue
		}
		txCopy := *tx
		result = append(result, &txCopy)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date.Equal(result[j].Date) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].Date.Before(result[j].Date)
	})
	return result
}

// GetSplit implements store.SplitRepository.
func (s *Store) GetSplit(ctx context.Context, userID string) (domain.AllocationSplit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if split, ok := s.splits[userID]; ok {
		return split, nil
	}
	return domain.DefaultSplit(), nil
}

// SaveSplit implements store.SplitRepository.
func (s *Store) SaveSplit(ctx context.Context, userID string, split domain.AllocationSplit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.splits[userID] = split
	return nil
}

// InsertGoal implements store.GoalRepository.
func (s *Store) InsertGoal(ctx context.Context, goal *domain.Goal) error {
	if goal.ID == "" {
		return fmt.Errorf("goal ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	goalCopy := *goal
	s.goals[goal.ID] = &goalCopy
	return nil
}

// ListGoals implements store.GoalRepository.
func (s *Store) ListGoals(ctx context.Context, userID string) ([]*domain.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*domain.Goal{}
	for _, g := range s.goals {
		if g.UserID != userID {
			continue
		}
		goalCopy := *g
		result = append(result, &goalCopy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// DeleteGoal implements store.GoalRepository.
func (s *Store) DeleteGoal(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, exists := s.goals[id]
	if !exists || g.UserID != userID {
		return fmt.Errorf("goal %s: %w", id, store.ErrNotFound)
	}
	delete(s.goals, id)
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// Ensure Store implements the Repository interface.
var _ store.Repository = (*Store)(nil)
