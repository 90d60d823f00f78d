// Package storetest holds the behaviour every store.Repository must share.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/profit-tracker/internal/domain"
	"github.com/dvloznov/profit-tracker/internal/store"
)

// Run exercises repo against the store contracts. newRepo must return an
// empty repository on every call.
func Run(t *testing.T, newRepo func(t *testing.T) store.Repository) {
	t.Run("transactions round trip", func(t *testing.T) {
		testTransactions(t, newRepo(t))
	})
	t.Run("transactions between", func(t *testing.T) {
		testTransactionsBetween(t, newRepo(t))
	})
	t.Run("splits", func(t *testing.T) {
		testSplits(t, newRepo(t))
	})
	t.Run("goals", func(t *testing.T) {
		testGoals(t, newRepo(t))
	})
}

func at(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleTx(id, user string, kind domain.Kind, amount string, date time.Time) *domain.Transaction {
	return &domain.Transaction{
		ID:          id,
		UserID:      user,
		Amount:      decimal.RequireFromString(amount),
		Kind:        kind,
		Date:        date,
		Description: "desc " + id,
		Category:    "sales",
		CreatedAt:   date.Add(time.Hour),
	}
}

func testTransactions(t *testing.T, repo store.Repository) {
	ctx := context.Background()
	defer repo.Close()

	require.NoError(t, repo.InsertTransaction(ctx, sampleTx("t2", "alice", domain.KindExpense, "19.99", at(2024, 2, 3))))
	require.NoError(t, repo.InsertTransaction(ctx, sampleTx("t1", "alice", domain.KindIncome, "1250.50", at(2024, 1, 10))))
	require.NoError(t, repo.InsertTransaction(ctx, sampleTx("t3", "bob", domain.KindIncome, "10", at(2024, 1, 1))))

	got, err := repo.GetTransaction(ctx, "alice", "t1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.UserID)
	assert.Equal(t, domain.KindIncome, got.Kind)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("1250.50")), "amount %s", got.Amount)
	assert.True(t, got.Date.Equal(at(2024, 1, 10)))
	assert.Equal(t, "desc t1", got.Description)
	assert.Equal(t, "sales", got.Category)

	_, err = repo.GetTransaction(ctx, "bob", "t1")
	assert.True(t, errors.Is(err, store.ErrNotFound))

	list, err := repo.ListTransactions(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "t1", list[0].ID)
	assert.Equal(t, "t2", list[1].ID)

	require.NoError(t, repo.DeleteTransaction(ctx, "alice", "t2"))
	assert.True(t, errors.Is(repo.DeleteTransaction(ctx, "alice", "t2"), store.ErrNotFound))

	list, err = repo.ListTransactions(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	empty, err := repo.ListTransactions(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func testTransactionsBetween(t *testing.T, repo store.Repository) {
	ctx := context.Background()
	defer repo.Close()

	for _, tx := range []*domain.Transaction{
		sampleTx("a", "alice", domain.KindIncome, "1", at(2024, 2, 29)),
		sampleTx("b", "alice", domain.KindIncome, "2", at(2024, 3, 1)),
		sampleTx("c", "alice", domain.KindExpense, "3", at(2024, 3, 31)),
		sampleTx("d", "alice", domain.KindIncome, "4", at(2024, 4, 1)),
	} {
		require.NoError(t, repo.InsertTransaction(ctx, tx))
	}

	got, err := repo.ListTransactionsBetween(ctx, "alice", at(2024, 3, 1), at(2024, 4, 1))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
}

func testSplits(t *testing.T, repo store.Repository) {
	ctx := context.Background()
	defer repo.Close()

	s, err := repo.GetSplit(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSplit(), s)

	custom := domain.AllocationSplit{OwnerPay: 29, Reinvestment: 50, Savings: 14, TaxReserve: 7}
	require.NoError(t, repo.SaveSplit(ctx, "alice", custom))
	require.NoError(t, repo.SaveSplit(ctx, "alice", custom.With(domain.BucketSavings, 15).With(domain.BucketTaxReserve, 6)))

	s, err = repo.GetSplit(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.AllocationSplit{OwnerPay: 29, Reinvestment: 50, Savings: 15, TaxReserve: 6}, s)

	other, err := repo.GetSplit(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSplit(), other)
}

func testGoals(t *testing.T, repo store.Repository) {
	ctx := context.Background()
	defer repo.Close()

	deadline := at(2025, 6, 30)
	require.NoError(t, repo.InsertGoal(ctx, &domain.Goal{
		ID: "g1", UserID: "alice", Name: "New van", Target: decimal.NewFromInt(12000),
		Deadline: &deadline, CreatedAt: at(2024, 1, 1),
	}))
	require.NoError(t, repo.InsertGoal(ctx, &domain.Goal{
		ID: "g2", UserID: "alice", Name: "Buffer", Target: decimal.RequireFromString("2500.50"),
		CreatedAt: at(2024, 2, 1),
	}))

	goals, err := repo.ListGoals(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, goals, 2)
	assert.Equal(t, "g1", goals[0].ID)
	require.NotNil(t, goals[0].Deadline)
	assert.True(t, goals[0].Deadline.Equal(deadline))
	assert.Nil(t, goals[1].Deadline)
	assert.True(t, goals[1].Target.Equal(decimal.RequireFromString("2500.5")))

	require.NoError(t, repo.DeleteGoal(ctx, "alice", "g1"))
	assert.True(t, errors.Is(repo.DeleteGoal(ctx, "bob", "g2"), store.ErrNotFound))

	goals, err = repo.ListGoals(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, goals, 1)
}
