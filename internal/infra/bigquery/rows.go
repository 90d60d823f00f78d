package bigquery

import (
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/profit-tracker/internal/domain"
)

// numericScale is the fractional precision of a BigQuery NUMERIC column.
const numericScale = 9

// TransactionRow mirrors a row of the ledger_transactions table.
type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED
	UserID        string `bigquery:"user_id"`        // REQUIRED

	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED
	Amount          *big.Rat   `bigquery:"amount"`           // REQUIRED NUMERIC, never negative
	Kind            string     `bigquery:"kind"`             // REQUIRED: income | expense

	Description bigquery.NullString `bigquery:"description"` // NULLABLE
	Category    bigquery.NullString `bigquery:"category"`    // NULLABLE

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

// SplitRow mirrors a row of the allocation_splits table.
type SplitRow struct {
	UserID       string    `bigquery:"user_id"`
	OwnerPay     int64     `bigquery:"owner_pay"`
	Reinvestment int64     `bigquery:"reinvestment"`
	Savings      int64     `bigquery:"savings"`
	TaxReserve   int64     `bigquery:"tax_reserve"`
	UpdatedTS    time.Time `bigquery:"updated_ts"`
}

// GoalRow mirrors a row of the goals table.
type GoalRow struct {
	GoalID    string            `bigquery:"goal_id"`
	UserID    string            `bigquery:"user_id"`
	Name      string            `bigquery:"name"`
	Target    *big.Rat          `bigquery:"target"`
	Deadline  bigquery.NullDate `bigquery:"deadline"`
	CreatedTS time.Time         `bigquery:"created_ts"`
}

// NewTransactionRow converts a domain transaction. The ledger is day-granular,
// so only the calendar date of tx.Date is kept.
func NewTransactionRow(tx *domain.Transaction) *TransactionRow {
	return &TransactionRow{
		TransactionID:   tx.ID,
		UserID:          tx.UserID,
		TransactionDate: civil.DateOf(tx.Date),
		Amount:          tx.Amount.Rat(),
		Kind:            string(tx.Kind),
		Description:     nullString(tx.Description),
		Category:        nullString(tx.Category),
		CreatedTS:       tx.CreatedAt,
	}
}

// Domain converts the row back into a domain transaction dated at UTC midnight.
func (r *TransactionRow) Domain() (*domain.Transaction, error) {
	amount, err := ratToDecimal(r.Amount)
	if err != nil {
		return nil, fmt.Errorf("transaction %s: %w", r.TransactionID, err)
	}
	return &domain.Transaction{
		ID:          r.TransactionID,
		UserID:      r.UserID,
		Amount:      amount,
		Kind:        domain.Kind(r.Kind),
		Date:        r.TransactionDate.In(time.UTC),
		Description: r.Description.StringVal,
		Category:    r.Category.StringVal,
		CreatedAt:   r.CreatedTS,
	}, nil
}

func NewSplitRow(userID string, s domain.AllocationSplit, now time.Time) *SplitRow {
	return &SplitRow{
		UserID:       userID,
		OwnerPay:     int64(s.OwnerPay),
		Reinvestment: int64(s.Reinvestment),
		Savings:      int64(s.Savings),
		TaxReserve:   int64(s.TaxReserve),
		UpdatedTS:    now,
	}
}

func (r *SplitRow) Domain() domain.AllocationSplit {
	return domain.AllocationSplit{
		OwnerPay:     int(r.OwnerPay),
		Reinvestment: int(r.Reinvestment),
		Savings:      int(r.Savings),
		TaxReserve:   int(r.TaxReserve),
	}
}

func NewGoalRow(g *domain.Goal) *GoalRow {
	row := &GoalRow{
		GoalID:    g.ID,
		UserID:    g.UserID,
		Name:      g.Name,
		Target:    g.Target.Rat(),
		CreatedTS: g.CreatedAt,
	}
	if g.Deadline != nil {
		row.Deadline = bigquery.NullDate{Date: civil.DateOf(*g.Deadline), Valid: true}
	}
	return row
}

func (r *GoalRow) Domain() (*domain.Goal, error) {
	target, err := ratToDecimal(r.Target)
	if err != nil {
		return nil, fmt.Errorf("goal %s: %w", r.GoalID, err)
	}
	g := &domain.Goal{
		ID:        r.GoalID,
		UserID:    r.UserID,
		Name:      r.Name,
		Target:    target,
		CreatedAt: r.CreatedTS,
	}
	if r.Deadline.Valid {
		d := r.Deadline.Date.In(time.UTC)
		g.Deadline = &d
	}
	return g, nil
}

func ratToDecimal(r *big.Rat) (decimal.Decimal, error) {
	if r == nil {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(r.FloatString(numericScale))
	if err != nil {
		return decimal.Zero, fmt.Errorf("converting NUMERIC %s: %w", r.String(), err)
	}
	return d, nil
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}
