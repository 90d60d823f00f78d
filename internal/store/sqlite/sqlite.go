package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dvloznov/profit-tracker/internal/domain"
	"github.com/dvloznov/profit-tracker/internal/store"
)

// Store is a store.Repository backed by a SQLite file.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and applies Schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("Open: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("Open: applying schema: %w", err)
	}

	return &Store{db: db}, nil
}

const transactionColumns = `transaction_id, user_id, amount, kind, date, description, category, created_at`

// InsertTransaction implements store.TransactionRepository.
func (s *Store) InsertTransaction(ctx context.Context, tx *domain.Transaction) error {
	if tx.ID == "" {
		return fmt.Errorf("InsertTransaction: transaction ID is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.UserID, tx.Amount.String(), string(tx.Kind), tx.Date.UTC(),
		tx.Description, tx.Category, tx.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("InsertTransaction: %w", err)
	}
	return nil
}

// GetTransaction implements store.TransactionRepository.
func (s *Store) GetTransaction(ctx context.Context, userID, id string) (*domain.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE transaction_id = ? AND user_id = ?`, id, userID)

	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("GetTransaction: %w", err)
	}
	return tx, nil
}

// DeleteTransaction implements store.TransactionRepository.
func (s *Store) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE transaction_id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("DeleteTransaction: %w", err)
	}
	return requireAffected(res, "transaction", id)
}

// ListTransactions implements store.TransactionRepository.
func (s *Store) ListTransactions(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE user_id = ?
		ORDER BY date ASC, created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}
	return collectTransactions(rows)
}

// ListTransactionsBetween implements store.TransactionRepository.
func (s *Store) ListTransactionsBetween(ctx context.Context, userID string, start, end time.Time) ([]*domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE user_id = ? AND date >= ? AND date < ?
		ORDER BY date ASC, created_at ASC`, userID, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("ListTransactionsBetween: %w", err)
	}
	return collectTransactions(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (*domain.Transaction, error) {
	var (
		tx   domain.Transaction
		kind string
	)
	if err := row.Scan(
		&tx.ID,
		&tx.UserID,
		&tx.Amount,
		&kind,
		&tx.Date,
		&tx.Description,
		&tx.Category,
		&tx.CreatedAt,
	); err != nil {
		return nil, err
	}
	tx.Kind = domain.Kind(kind)
	return &tx, nil
}

func collectTransactions(rows *sql.Rows) ([]*domain.Transaction, error) {
	defer rows.Close()

	out := []*domain.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetSplit implements store.SplitRepository.
func (s *Store) GetSplit(ctx context.Context, userID string) (domain.AllocationSplit, error) {
	var split domain.AllocationSplit
	err := s.db.QueryRowContext(ctx, `
		SELECT owner_pay, reinvestment, savings, tax_reserve
		FROM allocation_splits
		WHERE user_id = ?`, userID).
		Scan(&split.OwnerPay, &split.Reinvestment, &split.Savings, &split.TaxReserve)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DefaultSplit(), nil
	}
	if err != nil {
		return domain.AllocationSplit{}, fmt.Errorf("GetSplit: %w", err)
	}
	return split, nil
}

// SaveSplit implements store.SplitRepository.
func (s *Store) SaveSplit(ctx context.Context, userID string, split domain.AllocationSplit) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO allocation_splits (user_id, owner_pay, reinvestment, savings, tax_reserve, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			owner_pay = excluded.owner_pay,
			reinvestment = excluded.reinvestment,
			savings = excluded.savings,
			tax_reserve = excluded.tax_reserve,
			updated_at = excluded.updated_at`,
		userID, split.OwnerPay, split.Reinvestment, split.Savings, split.TaxReserve, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("SaveSplit: %w", err)
	}
	return nil
}

// InsertGoal implements store.GoalRepository.
func (s *Store) InsertGoal(ctx context.Context, goal *domain.Goal) error {
	if goal.ID == "" {
		return fmt.Errorf("InsertGoal: goal ID is required")
	}
	var deadline any
	if goal.Deadline != nil {
		deadline = goal.Deadline.UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO goals (goal_id, user_id, name, target, deadline, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		goal.ID, goal.UserID, goal.Name, goal.Target.String(), deadline, goal.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("InsertGoal: %w", err)
	}
	return nil
}

// ListGoals implements store.GoalRepository.
func (s *Store) ListGoals(ctx context.Context, userID string) ([]*domain.Goal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT goal_id, user_id, name, target, deadline, created_at
		FROM goals
		WHERE user_id = ?
		ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("ListGoals: %w", err)
	}
	defer rows.Close()

	out := []*domain.Goal{}
	for rows.Next() {
		var (
			g        domain.Goal
			deadline sql.NullTime
		)
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.Target, &deadline, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListGoals: scan: %w", err)
		}
		if deadline.Valid {
			d := deadline.Time
			g.Deadline = &d
		}
		out = append(out, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteGoal implements store.GoalRepository.
func (s *Store) DeleteGoal(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM goals WHERE goal_id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("DeleteGoal: %w", err)
	}
	return requireAffected(res, "goal", id)
}

func requireAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, store.ErrNotFound)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

var _ store.Repository = (*Store)(nil)
