package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind tells whether a transaction adds to or takes from the cash reserve.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// ParseKind accepts the kind names case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindIncome:
		return KindIncome, nil
	case KindExpense:
		return KindExpense, nil
	}
	return "", fmt.Errorf("unknown transaction kind %q", s)
}

// Transaction is one ledger entry recorded by a user.
// Amount is always a non-negative magnitude; the sign is carried by Kind.
type Transaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Amount      decimal.Decimal `json:"amount"`
	Kind        Kind            `json:"kind"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Signed returns +Amount for income and -Amount for expenses.
func (t Transaction) Signed() decimal.Decimal {
	if t.Kind == KindExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Validate checks the fields the ledger relies on.
func (t Transaction) Validate() error {
	if t.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if t.Amount.IsNegative() {
		return fmt.Errorf("amount must not be negative")
	}
	if t.Kind != KindIncome && t.Kind != KindExpense {
		return fmt.Errorf("kind must be %q or %q", KindIncome, KindExpense)
	}
	if t.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	return nil
}

// DayOf truncates t to midnight in its own location.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
