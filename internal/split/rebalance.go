// Package split keeps a user's four-bucket profit split summing to 100.
package split

import (
	"math"

	"github.com/dvloznov/profit-tracker/internal/domain"
)

// Rebalance sets changed to value and redistributes the difference over the
// other three buckets in proportion to their previous weights.
//
// The result always sums to exactly 100 with no negative bucket. value is
// clamped to [0, 100]. The other buckets are visited in domain.Buckets order;
// rounding leftovers land on the last one visited, spilling backwards only if
// that bucket would otherwise go below zero.
func Rebalance(current domain.AllocationSplit, changed domain.Bucket, value int) domain.AllocationSplit {
	value = clamp(value, 0, 100)

	working := current.With(changed, value)
	total := working.Sum()
	if total == 100 {
		return working
	}
	diff := 100 - total

	others := othersOf(changed)
	othersSum := 0
	for _, b := range others {
		othersSum += current.Get(b)
	}

	last := others[len(others)-1]
	if othersSum == 0 {
		working = working.With(last, max(0, working.Get(last)+diff))
	} else {
		for _, b := range others {
			prev := current.Get(b)
			proportion := float64(prev) / float64(othersSum)
			next := int(math.Round(float64(prev) + float64(diff)*proportion))
			working = working.With(b, max(0, next))
		}
	}

	return settle(working, others)
}

// settle pushes the residual left over by rounding onto the last of others.
func settle(s domain.AllocationSplit, others []domain.Bucket) domain.AllocationSplit {
	residual := 100 - s.Sum()
	for i := len(others) - 1; i >= 0 && residual != 0; i-- {
		b := others[i]
		v := s.Get(b) + residual
		if v < 0 {
			residual = v
			v = 0
		} else {
			residual = 0
		}
		s = s.With(b, v)
	}
	return s
}

func othersOf(changed domain.Bucket) []domain.Bucket {
	out := make([]domain.Bucket, 0, len(domain.Buckets)-1)
	for _, b := range domain.Buckets {
		if b != changed {
			out = append(out, b)
		}
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
