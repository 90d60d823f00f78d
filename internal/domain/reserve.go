package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ReserveSample is one point of the cash reserve trend.
type ReserveSample struct {
	Date    time.Time       `json:"date"`
	Balance decimal.Decimal `json:"balance"`
}

// Goal is a growth savings target the reserve is measured against.
type Goal struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Name      string          `json:"name"`
	Target    decimal.Decimal `json:"target"`
	Deadline  *time.Time      `json:"deadline,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func (g Goal) Validate() error {
	if g.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if g.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !g.Target.IsPositive() {
		return fmt.Errorf("target must be positive")
	}
	return nil
}
