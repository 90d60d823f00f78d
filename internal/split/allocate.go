package split

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/profit-tracker/internal/domain"
)

// Allocation is a profit amount broken down by bucket.
type Allocation struct {
	Profit       decimal.Decimal `json:"profit"`
	OwnerPay     decimal.Decimal `json:"owner_pay"`
	Reinvestment decimal.Decimal `json:"reinvestment"`
	Savings      decimal.Decimal `json:"savings"`
	TaxReserve   decimal.Decimal `json:"tax_reserve"`
}

// Allocate applies s to profit in whole cents using largest remainders: each
// bucket gets its share rounded down, then the leftover cents go to the
// buckets with the largest dropped fractions, ties in domain.Buckets order.
// Shares are never negative, a 0% bucket gets nothing, and the shares add up
// to profit truncated to cents. A non-positive profit has nothing to allocate.
func Allocate(s domain.AllocationSplit, profit decimal.Decimal) Allocation {
	out := Allocation{
		Profit:       profit,
		OwnerPay:     decimal.Zero,
		Reinvestment: decimal.Zero,
		Savings:      decimal.Zero,
		TaxReserve:   decimal.Zero,
	}
	if !profit.IsPositive() {
		return out
	}

	total := profit.Shift(2).Truncate(0)
	hundred := decimal.NewFromInt(100)

	type part struct {
		bucket    domain.Bucket
		cents     decimal.Decimal
		remainder decimal.Decimal
	}
	parts := make([]part, 0, len(domain.Buckets))
	assigned := decimal.Zero
	for _, b := range domain.Buckets {
		exact := total.Mul(decimal.NewFromInt(int64(s.Get(b)))).Div(hundred)
		cents := exact.Floor()
		parts = append(parts, part{bucket: b, cents: cents, remainder: exact.Sub(cents)})
		assigned = assigned.Add(cents)
	}

	order := make([]int, len(parts))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return parts[order[i]].remainder.GreaterThan(parts[order[j]].remainder)
	})
	left := total.Sub(assigned).IntPart()
	for _, i := range order {
		if left <= 0 || !parts[i].remainder.IsPositive() {
			break
		}
		parts[i].cents = parts[i].cents.Add(decimal.NewFromInt(1))
		left--
	}

	for _, p := range parts {
		share := p.cents.Shift(-2)
		switch p.bucket {
		case domain.BucketOwnerPay:
			out.OwnerPay = share
		case domain.BucketReinvestment:
			out.Reinvestment = share
		case domain.BucketSavings:
			out.Savings = share
		case domain.BucketTaxReserve:
			out.TaxReserve = share
		}
	}
	return out
}

// Get returns the share of bucket b.
func (a Allocation) Get(b domain.Bucket) decimal.Decimal {
	switch b {
	case domain.BucketOwnerPay:
		return a.OwnerPay
	case domain.BucketReinvestment:
		return a.Reinvestment
	case domain.BucketSavings:
		return a.Savings
	case domain.BucketTaxReserve:
		return a.TaxReserve
	}
	return decimal.Zero
}
