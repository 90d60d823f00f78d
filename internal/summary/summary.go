// Package summary assembles the dashboard view of a user's ledger.
package summary

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/profit-tracker/internal/domain"
	"github.com/dvloznov/profit-tracker/internal/reserve"
	"github.com/dvloznov/profit-tracker/internal/split"
)

// Period is a half-open date range [From, To).
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// MonthOf returns the calendar month containing t.
func MonthOf(t time.Time) Period {
	from := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return Period{From: from, To: from.AddDate(0, 1, 0)}
}

func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.From) && t.Before(p.To)
}

// Label formats the period start as yyyy-mm.
func (p Period) Label() string {
	return p.From.Format("2006-01")
}

// MonthTotals is revenue, expenses and profit inside one period.
type MonthTotals struct {
	Period   Period          `json:"period"`
	Revenue  decimal.Decimal `json:"revenue"`
	Expenses decimal.Decimal `json:"expenses"`
	Profit   decimal.Decimal `json:"profit"`
	Count    int             `json:"count"`
}

// Totals sums transactions by kind inside p.
func Totals(txs []domain.Transaction, p Period) MonthTotals {
	out := MonthTotals{Period: p, Revenue: decimal.Zero, Expenses: decimal.Zero}
	for _, tx := range txs {
		if !p.Contains(tx.Date.In(p.From.Location())) {
			continue
		}
		out.Count++
		switch tx.Kind {
		case domain.KindIncome:
			out.Revenue = out.Revenue.Add(tx.Amount)
		case domain.KindExpense:
			out.Expenses = out.Expenses.Add(tx.Amount)
		}
	}
	out.Profit = out.Revenue.Sub(out.Expenses)
	return out
}

// GoalProgress measures the display balance against one goal.
type GoalProgress struct {
	Goal     domain.Goal     `json:"goal"`
	Saved    decimal.Decimal `json:"saved"`
	Percent  decimal.Decimal `json:"percent"`
	Achieved bool            `json:"achieved"`
}

// Progress caps at 100 percent.
func Progress(g domain.Goal, balance decimal.Decimal) GoalProgress {
	saved := balance
	if saved.IsNegative() {
		saved = decimal.Zero
	}
	pct := decimal.Zero
	if g.Target.IsPositive() {
		pct = saved.Div(g.Target).Mul(decimal.NewFromInt(100)).Round(1)
	}
	hundred := decimal.NewFromInt(100)
	if pct.GreaterThan(hundred) {
		pct = hundred
	}
	return GoalProgress{
		Goal:     g,
		Saved:    saved,
		Percent:  pct,
		Achieved: saved.GreaterThanOrEqual(g.Target),
	}
}

// Dashboard is the payload behind the dashboard summary endpoint.
type Dashboard struct {
	Now            time.Time              `json:"now"`
	Month          MonthTotals            `json:"month"`
	Reserve        []domain.ReserveSample `json:"reserve"`
	CurrentBalance decimal.Decimal        `json:"current_balance"`
	DisplayBalance decimal.Decimal        `json:"display_balance"`
	Split          domain.AllocationSplit `json:"split"`
	Allocation     split.Allocation       `json:"allocation"`
	Goals          []GoalProgress         `json:"goals"`
}

// BuildDashboard computes every dashboard aggregate for the month of now.
func BuildDashboard(txs []domain.Transaction, s domain.AllocationSplit, goals []domain.Goal, now time.Time, opts reserve.Options) Dashboard {
	return BuildForPeriod(txs, s, goals, MonthOf(now), now, opts)
}

// BuildForPeriod is BuildDashboard with an explicit month, used by reports
// generated for a past month.
func BuildForPeriod(txs []domain.Transaction, s domain.AllocationSplit, goals []domain.Goal, p Period, now time.Time, opts reserve.Options) Dashboard {
	month := Totals(txs, p)
	current := reserve.Balance(txs, now, opts)
	samples := reserve.Sample(txs, now, opts)
	display := samples[len(samples)-1].Balance

	progress := make([]GoalProgress, 0, len(goals))
	for _, g := range goals {
		progress = append(progress, Progress(g, display))
	}

	return Dashboard{
		Now:            now,
		Month:          month,
		Reserve:        samples,
		CurrentBalance: current,
		DisplayBalance: display,
		Split:          s,
		Allocation:     split.Allocate(s, month.Profit),
		Goals:          progress,
	}
}
