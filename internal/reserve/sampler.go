// Package reserve reconstructs the cash reserve trend from a transaction ledger.
package reserve

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/profit-tracker/internal/domain"
)

// Options tunes how the authoritative current balance is computed.
type Options struct {
	// IncludeFuture counts transactions dated after now in the final balance.
	// Off by default.
	IncludeFuture bool `json:"include_future" yaml:"include_future"`
}

// SampleDates returns the chart dates for now: the 1st and 15th of the two
// previous months, the 1st of the current month, and now itself.
// Dates never exceed now and are non-decreasing.
func SampleDates(now time.Time) []time.Time {
	start := domain.DayOf(now)
	start = start.AddDate(0, 0, 1-start.Day()).AddDate(0, -2, 0)

	dates := make([]time.Time, 0, 6)
	for i := 0; i < 5; i++ {
		d := start.AddDate(0, i/2, (i%2)*14)
		if d.After(now) {
			d = now
		}
		dates = append(dates, d)
	}
	if !dates[len(dates)-1].Equal(now) {
		dates = append(dates, now)
	}
	return dates
}

// Sample builds the reserve trend for now. Every balance is floored at zero
// for display and the last point always carries the current total.
func Sample(txs []domain.Transaction, now time.Time, opts Options) []domain.ReserveSample {
	sorted := make([]domain.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	dates := SampleDates(now)
	samples := make([]domain.ReserveSample, 0, len(dates))

	running := decimal.Zero
	next := 0
	for _, d := range dates {
		cutoff := domain.DayOf(d)
		for next < len(sorted) && !dayIn(sorted[next].Date, now).After(cutoff) {
			running = running.Add(sorted[next].Signed())
			next++
		}
		samples = append(samples, domain.ReserveSample{Date: d, Balance: floor(running)})
	}

	if len(samples) == 0 {
		return []domain.ReserveSample{{Date: now, Balance: decimal.Zero}}
	}

	samples[len(samples)-1].Balance = floor(Balance(txs, now, opts))
	return samples
}

// Balance is the true, unclamped reserve: income minus expenses.
func Balance(txs []domain.Transaction, now time.Time, opts Options) decimal.Decimal {
	today := domain.DayOf(now)
	total := decimal.Zero
	for _, tx := range txs {
		if !opts.IncludeFuture && dayIn(tx.Date, now).After(today) {
			continue
		}
		total = total.Add(tx.Signed())
	}
	return total
}

// dayIn compares ledger dates on the calendar of now's location.
func dayIn(t, now time.Time) time.Time {
	return domain.DayOf(t.In(now.Location()))
}

func floor(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
