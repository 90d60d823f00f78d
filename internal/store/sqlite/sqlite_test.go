package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/profit-tracker/internal/domain"
	"github.com/dvloznov/profit-tracker/internal/store"
	"github.com/dvloznov/profit-tracker/internal/store/storetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "ledger.sqlite"))
	require.NoError(t, err)
	return s
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Repository { return newTestStore(t) })
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.sqlite")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	split := domain.AllocationSplit{OwnerPay: 50, Reinvestment: 0, Savings: 0, TaxReserve: 50}
	require.NoError(t, s.SaveSplit(ctx, "alice", split))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetSplit(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, split, got)
}

func TestInsertTransactionRequiresID(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	assert.Error(t, s.InsertTransaction(context.Background(), &domain.Transaction{UserID: "alice"}))
}
