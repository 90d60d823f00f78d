package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/profit-tracker/internal/domain"
	"github.com/dvloznov/profit-tracker/internal/store"
)

const (
	transactionsTable = "ledger_transactions"
	splitsTable       = "allocation_splits"
	goalsTable        = "goals"
	dateFormat        = "2006-01-02"
)

// Repository is the BigQuery implementation of store.Repository. It holds a
// shared client to avoid creating a new connection for each operation.
type Repository struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewRepository creates a client for projectID and targets datasetID.
func NewRepository(ctx context.Context, projectID, datasetID string) (*Repository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: creating client: %w", err)
	}
	return &Repository{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
	}, nil
}

// Close closes the BigQuery client connection.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// table returns the fully qualified, backquoted table name for queries.
func (r *Repository) table(name string) string {
	return fmt.Sprintf("`%s.%s.%s`", r.projectID, r.datasetID, name)
}

// InsertTransaction implements store.TransactionRepository.
func (r *Repository) InsertTransaction(ctx context.Context, tx *domain.Transaction) error {
	if tx.ID == "" {
		return fmt.Errorf("InsertTransaction: transaction ID is required")
	}
	inserter := r.client.DatasetInProject(r.projectID, r.datasetID).Table(transactionsTable).Inserter()
	if err := inserter.Put(ctx, []*TransactionRow{NewTransactionRow(tx)}); err != nil {
		return fmt.Errorf("InsertTransaction: inserting row: %w", err)
	}
	return nil
}

// GetTransaction implements store.TransactionRepository.
func (r *Repository) GetTransaction(ctx context.Context, userID, id string) (*domain.Transaction, error) {
	q := r.client.Query(`
		SELECT transaction_id, user_id, transaction_date, amount, kind, description, category, created_ts
		FROM ` + r.table(transactionsTable) + `
		WHERE transaction_id = @transaction_id AND user_id = @user_id
		LIMIT 1
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "transaction_id", Value: id},
		{Name: "user_id", Value: userID},
	}

	txs, err := r.readTransactions(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("GetTransaction: %w", err)
	}
	if len(txs) == 0 {
		return nil, fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
	}
	return txs[0], nil
}

// DeleteTransaction implements store.TransactionRepository.
func (r *Repository) DeleteTransaction(ctx context.Context, userID, id string) error {
	q := r.client.Query(`
		DELETE FROM ` + r.table(transactionsTable) + `
		WHERE transaction_id = @transaction_id AND user_id = @user_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "transaction_id", Value: id},
		{Name: "user_id", Value: userID},
	}

	affected, err := runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("DeleteTransaction: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// ListTransactions implements store.TransactionRepository.
func (r *Repository) ListTransactions(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	q := r.client.Query(`
		SELECT transaction_id, user_id, transaction_date, amount, kind, description, category, created_ts
		FROM ` + r.table(transactionsTable) + `
		WHERE user_id = @user_id
		ORDER BY transaction_date, created_ts
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	txs, err := r.readTransactions(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}
	return txs, nil
}

// ListTransactionsBetween implements store.TransactionRepository. Dates are
// compared at day granularity, matching the DATE column.
func (r *Repository) ListTransactionsBetween(ctx context.Context, userID string, start, end time.Time) ([]*domain.Transaction, error) {
	q := r.client.Query(`
		SELECT transaction_id, user_id, transaction_date, amount, kind, description, category, created_ts
		FROM ` + r.table(transactionsTable) + `
		WHERE user_id = @user_id
		  AND transaction_date >= @start_date
		  AND transaction_date < @end_date
		ORDER BY transaction_date, created_ts
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "start_date", Value: start.Format(dateFormat)},
		{Name: "end_date", Value: end.Format(dateFormat)},
	}

	txs, err := r.readTransactions(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("ListTransactionsBetween: %w", err)
	}
	return txs, nil
}

func (r *Repository) readTransactions(ctx context.Context, q *bigquery.Query) ([]*domain.Transaction, error) {
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("query read: %w", err)
	}

	txs := []*domain.Transaction{}
	for {
		var row TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iter next: %w", err)
		}
		tx, err := row.Domain()
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// GetSplit implements store.SplitRepository.
func (r *Repository) GetSplit(ctx context.Context, userID string) (domain.AllocationSplit, error) {
	q := r.client.Query(`
		SELECT user_id, owner_pay, reinvestment, savings, tax_reserve, updated_ts
		FROM ` + r.table(splitsTable) + `
		WHERE user_id = @user_id
		LIMIT 1
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return domain.AllocationSplit{}, fmt.Errorf("GetSplit: query read: %w", err)
	}

	var row SplitRow
	err = it.Next(&row)
	if err == iterator.Done {
		return domain.DefaultSplit(), nil
	}
	if err != nil {
		return domain.AllocationSplit{}, fmt.Errorf("GetSplit: iter next: %w", err)
	}
	return row.Domain(), nil
}

// SaveSplit implements store.SplitRepository with a MERGE so that a user
// always has at most one row.
func (r *Repository) SaveSplit(ctx context.Context, userID string, split domain.AllocationSplit) error {
	row := NewSplitRow(userID, split, time.Now().UTC())
	q := r.client.Query(`
		MERGE ` + r.table(splitsTable) + ` T
		USING (SELECT @user_id AS user_id) S
		ON T.user_id = S.user_id
		WHEN MATCHED THEN
		  UPDATE SET owner_pay = @owner_pay, reinvestment = @reinvestment,
		             savings = @savings, tax_reserve = @tax_reserve, updated_ts = @updated_ts
		WHEN NOT MATCHED THEN
		  INSERT (user_id, owner_pay, reinvestment, savings, tax_reserve, updated_ts)
		  VALUES (@user_id, @owner_pay, @reinvestment, @savings, @tax_reserve, @updated_ts)
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: row.UserID},
		{Name: "owner_pay", Value: row.OwnerPay},
		{Name: "reinvestment", Value: row.Reinvestment},
		{Name: "savings", Value: row.Savings},
		{Name: "tax_reserve", Value: row.TaxReserve},
		{Name: "updated_ts", Value: row.UpdatedTS},
	}

	if _, err := runDML(ctx, q); err != nil {
		return fmt.Errorf("SaveSplit: %w", err)
	}
	return nil
}

// InsertGoal implements store.GoalRepository.
func (r *Repository) InsertGoal(ctx context.Context, goal *domain.Goal) error {
	if goal.ID == "" {
		return fmt.Errorf("InsertGoal: goal ID is required")
	}
	inserter := r.client.DatasetInProject(r.projectID, r.datasetID).Table(goalsTable).Inserter()
	if err := inserter.Put(ctx, []*GoalRow{NewGoalRow(goal)}); err != nil {
		return fmt.Errorf("InsertGoal: inserting row: %w", err)
	}
	return nil
}

// ListGoals implements store.GoalRepository.
func (r *Repository) ListGoals(ctx context.Context, userID string) ([]*domain.Goal, error) {
	q := r.client.Query(`
		SELECT goal_id, user_id, name, target, deadline, created_ts
		FROM ` + r.table(goalsTable) + `
		WHERE user_id = @user_id
		ORDER BY created_ts
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListGoals: query read: %w", err)
	}

	goals := []*domain.Goal{}
	for {
		var row GoalRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListGoals: iter next: %w", err)
		}
		g, err := row.Domain()
		if err != nil {
			return nil, fmt.Errorf("ListGoals: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, nil
}

// DeleteGoal implements store.GoalRepository.
func (r *Repository) DeleteGoal(ctx context.Context, userID, id string) error {
	q := r.client.Query(`
		DELETE FROM ` + r.table(goalsTable) + `
		WHERE goal_id = @goal_id AND user_id = @user_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "goal_id", Value: id},
		{Name: "user_id", Value: userID},
	}

	affected, err := runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("DeleteGoal: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("goal %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// runDML runs a DML statement to completion and reports the affected row count.
func runDML(ctx context.Context, q *bigquery.Query) (int64, error) {
	job, err := q.Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("run query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return 0, fmt.Errorf("wait for job: %w", err)
	}

	if err := status.Err(); err != nil {
		return 0, fmt.Errorf("job error: %w", err)
	}

	if qs, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok {
		return qs.NumDMLAffectedRows, nil
	}
	return 0, nil
}

var _ store.Repository = (*Repository)(nil)
