package reserve

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/profit-tracker/internal/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func income(amount string, date time.Time) domain.Transaction {
	return domain.Transaction{Amount: decimal.RequireFromString(amount), Kind: domain.KindIncome, Date: date}
}

func expense(amount string, date time.Time) domain.Transaction {
	return domain.Transaction{Amount: decimal.RequireFromString(amount), Kind: domain.KindExpense, Date: date}
}

func balances(samples []domain.ReserveSample) []string {
	out := make([]string, len(samples))
	for i, s := range samples {
		out[i] = s.Balance.String()
	}
	return out
}

func TestSampleDates(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want []time.Time
	}{
		{
			name: "mid month appends now",
			now:  time.Date(2024, 3, 10, 12, 30, 0, 0, time.UTC),
			want: []time.Time{
				day(2024, 1, 1), day(2024, 1, 15), day(2024, 2, 1), day(2024, 2, 15), day(2024, 3, 1),
				time.Date(2024, 3, 10, 12, 30, 0, 0, time.UTC),
			},
		},
		{
			name: "midnight on the first ends exactly at now",
			now:  day(2023, 3, 1),
			want: []time.Time{day(2023, 1, 1), day(2023, 1, 15), day(2023, 2, 1), day(2023, 2, 15), day(2023, 3, 1)},
		},
		{
			name: "crosses a year boundary",
			now:  day(2024, 1, 20),
			want: []time.Time{day(2023, 11, 1), day(2023, 11, 15), day(2023, 12, 1), day(2023, 12, 15), day(2024, 1, 1), day(2024, 1, 20)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SampleDates(tt.now)
			assert.Equal(t, tt.want, got)
			for i := 1; i < len(got); i++ {
				assert.False(t, got[i].Before(got[i-1]), "dates must be non-decreasing")
			}
			assert.True(t, got[len(got)-1].Equal(tt.now))
		})
	}
}

func TestSampleFinalBalance(t *testing.T) {
	txs := []domain.Transaction{
		expense("200", day(2023, 1, 10)),
		income("1000", day(2023, 1, 5)),
	}

	got := Sample(txs, day(2023, 3, 1), Options{})
	require.Len(t, got, 5)
	assert.Equal(t, []string{"0", "800", "800", "800", "800"}, balances(got))
	assert.True(t, got[len(got)-1].Balance.Equal(decimal.NewFromInt(800)))
}

func TestSampleEmptyLedger(t *testing.T) {
	now := time.Date(2024, 6, 18, 9, 0, 0, 0, time.UTC)
	got := Sample(nil, now, Options{})

	require.NotEmpty(t, got)
	assert.True(t, got[len(got)-1].Date.Equal(now))
	for _, s := range got {
		assert.True(t, s.Balance.IsZero())
	}
}

func TestSampleClampsNegativeBalances(t *testing.T) {
	txs := []domain.Transaction{
		income("100", day(2024, 1, 5)),
		expense("500", day(2024, 1, 20)),
		income("50", day(2024, 2, 20)),
	}

	got := Sample(txs, day(2024, 3, 10), Options{})
	assert.Equal(t, []string{"0", "100", "0", "0", "0", "0"}, balances(got))
	for _, s := range got {
		assert.False(t, s.Balance.IsNegative())
	}
}

func TestSampleRunningBalance(t *testing.T) {
	txs := []domain.Transaction{
		income("1000", day(2023, 12, 20)),
		income("250.50", day(2024, 1, 15)),
		expense("100", day(2024, 2, 2)),
		income("40", day(2024, 3, 9)),
	}

	got := Sample(txs, time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC), Options{})
	assert.Equal(t, []string{"1000", "1250.5", "1250.5", "1150.5", "1150.5", "1190.5"}, balances(got))
}

func TestSampleSameDayTransactionCounts(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	txs := []domain.Transaction{income("75", time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC))}

	got := Sample(txs, now, Options{})
	assert.Equal(t, "75", got[len(got)-1].Balance.String())
}

func TestSampleFutureTransactions(t *testing.T) {
	now := day(2024, 3, 1)
	txs := []domain.Transaction{
		income("500", day(2024, 2, 10)),
		income("300", day(2024, 4, 1)),
	}

	excluded := Sample(txs, now, Options{})
	assert.Equal(t, "500", excluded[len(excluded)-1].Balance.String())

	included := Sample(txs, now, Options{IncludeFuture: true})
	assert.Equal(t, "800", included[len(included)-1].Balance.String())
	assert.Equal(t, "500", included[len(included)-2].Balance.String())
}

func TestSampleDoesNotReorderInput(t *testing.T) {
	txs := []domain.Transaction{
		income("1", day(2024, 2, 2)),
		income("2", day(2024, 1, 2)),
	}
	_ = Sample(txs, day(2024, 3, 5), Options{})
	assert.Equal(t, day(2024, 2, 2), txs[0].Date)
}

func TestBalanceIsUnclamped(t *testing.T) {
	txs := []domain.Transaction{
		income("100", day(2024, 1, 5)),
		expense("300", day(2024, 1, 6)),
	}
	assert.Equal(t, "-200", Balance(txs, day(2024, 2, 1), Options{}).String())
}
