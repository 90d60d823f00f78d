package domain

import (
	"fmt"
	"strings"
)

// Bucket names one of the four profit split buckets.
type Bucket string

const (
	BucketOwnerPay     Bucket = "owner_pay"
	BucketReinvestment Bucket = "reinvestment"
	BucketSavings      Bucket = "savings"
	BucketTaxReserve   Bucket = "tax_reserve"
)

// Buckets is the fixed iteration order used wherever rounding leftovers
// have to land somewhere deterministic.
var Buckets = []Bucket{BucketOwnerPay, BucketReinvestment, BucketSavings, BucketTaxReserve}

// ParseBucket accepts snake_case or camelCase bucket names.
func ParseBucket(s string) (Bucket, error) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", ""))
	for _, b := range Buckets {
		if strings.ReplaceAll(string(b), "_", "") == key {
			return b, nil
		}
	}
	return "", fmt.Errorf("unknown bucket %q", s)
}

// AllocationSplit partitions profit into four integer percentages.
type AllocationSplit struct {
	OwnerPay     int `json:"owner_pay" yaml:"owner_pay"`
	Reinvestment int `json:"reinvestment" yaml:"reinvestment"`
	Savings      int `json:"savings" yaml:"savings"`
	TaxReserve   int `json:"tax_reserve" yaml:"tax_reserve"`
}

// DefaultSplit is what a user starts with before configuring anything.
func DefaultSplit() AllocationSplit {
	return AllocationSplit{OwnerPay: 40, Reinvestment: 30, Savings: 20, TaxReserve: 10}
}

// Get returns the percentage held by b. Unknown buckets read as zero.
func (s AllocationSplit) Get(b Bucket) int {
	switch b {
	case BucketOwnerPay:
		return s.OwnerPay
	case BucketReinvestment:
		return s.Reinvestment
	case BucketSavings:
		return s.Savings
	case BucketTaxReserve:
		return s.TaxReserve
	}
	return 0
}

// With returns a copy of s with b set to v.
func (s AllocationSplit) With(b Bucket, v int) AllocationSplit {
	switch b {
	case BucketOwnerPay:
		s.OwnerPay = v
	case BucketReinvestment:
		s.Reinvestment = v
	case BucketSavings:
		s.Savings = v
	case BucketTaxReserve:
		s.TaxReserve = v
	}
	return s
}

func (s AllocationSplit) Sum() int {
	return s.OwnerPay + s.Reinvestment + s.Savings + s.TaxReserve
}

// Validate reports whether s is a stable split that may be persisted.
func (s AllocationSplit) Validate() error {
	for _, b := range Buckets {
		if v := s.Get(b); v < 0 || v > 100 {
			return fmt.Errorf("%s must be between 0 and 100, got %d", b, v)
		}
	}
	if s.Sum() != 100 {
		return fmt.Errorf("split must sum to 100, got %d", s.Sum())
	}
	return nil
}

func (s AllocationSplit) String() string {
	return fmt.Sprintf("%d/%d/%d/%d", s.OwnerPay, s.Reinvestment, s.Savings, s.TaxReserve)
}
