package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/biswap-org/curve-launchpad/internal/storage"
	"github.com/biswap-org/curve-launchpad/internal/storage/models"
)

func newTestStorage(t *testing.T) storage.Storage {
	t.Helper()

	store, err := NewStorageWithDialector(sqlite.Open(":memory:"), zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, store.RunMigrations())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleReceipt(id, mint string, executedAt time.Time) *models.TradeReceipt {
	return &models.TradeReceipt{
		ReceiptID:            id,
		Mint:                 mint,
		UserAddress:          "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin",
		IsBuy:                true,
		SolAmount:            27_960,
		TokenAmount:          1_000_000_000,
		Fee:                  279,
		VirtualSolReserves:   30_000_027_960,
		VirtualTokenReserves: 1_072_999_000_000_000,
		RealSolReserves:      27_960,
		RealTokenReserves:    999_999_000_000_000,
		ExecutedAt:           executedAt,
	}
}

func TestReceiptRoundTrip(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	receipt := sampleReceipt("r-1", "mint-a", time.Now().UTC())
	require.NoError(t, store.SaveReceipt(ctx, receipt))

	got, err := store.GetReceipt(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, receipt.Mint, got.Mint)
	assert.Equal(t, receipt.SolAmount, got.SolAmount)
	assert.Equal(t, receipt.TokenAmount, got.TokenAmount)
	assert.Equal(t, receipt.Fee, got.Fee)
	assert.True(t, got.IsBuy)

	_, err = store.GetReceipt(ctx, "missing")
	assert.Error(t, err)
}

func TestReceiptIDIsUnique(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveReceipt(ctx, sampleReceipt("r-1", "mint-a", time.Now())))
	assert.Error(t, store.SaveReceipt(ctx, sampleReceipt("r-1", "mint-a", time.Now())))
}

func TestListReceiptsFiltersAndPaginates(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	base := time.Now().UTC()

	require.NoError(t, store.SaveReceipt(ctx, sampleReceipt("r-1", "mint-a", base)))
	require.NoError(t, store.SaveReceipt(ctx, sampleReceipt("r-2", "mint-b", base.Add(time.Second))))
	require.NoError(t, store.SaveReceipt(ctx, sampleReceipt("r-3", "mint-a", base.Add(2*time.Second))))

	all, err := store.ListReceipts(ctx, "", 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "r-3", all[0].ReceiptID, "newest first")

	mintA, err := store.ListReceipts(ctx, "mint-a", 10, 0)
	require.NoError(t, err)
	require.Len(t, mintA, 2)

	page, err := store.ListReceipts(ctx, "mint-a", 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "r-1", page[0].ReceiptID)
}

func TestCurveSnapshotUpsert(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	snapshot := &models.CurveSnapshot{
		Mint:                 "mint-a",
		Creator:              "creator-a",
		Name:                 "Test Token",
		Symbol:               "TEST",
		URI:                  "https://example.com/test.json",
		VirtualSolReserves:   30_000_000_000,
		VirtualTokenReserves: 1_073_000_000_000_000,
		RealSolReserves:      0,
		RealTokenReserves:    1_000_000_000_000_000,
		TokenTotalSupply:     1_000_000_000_000_000,
	}
	require.NoError(t, store.SaveCurveSnapshot(ctx, snapshot))

	// Saving the same mint again replaces the row instead of duplicating it.
	updated := &models.CurveSnapshot{
		Mint:                 "mint-a",
		Creator:              "creator-a",
		Name:                 "Test Token",
		Symbol:               "TEST",
		URI:                  "https://example.com/test.json",
		VirtualSolReserves:   30_000_027_960,
		VirtualTokenReserves: 1_072_999_000_000_000,
		RealSolReserves:      27_960,
		RealTokenReserves:    999_999_000_000_000,
		TokenTotalSupply:     1_000_000_000_000_000,
		Complete:             false,
	}
	require.NoError(t, store.SaveCurveSnapshot(ctx, updated))

	got, err := store.GetCurveSnapshot(ctx, "mint-a")
	require.NoError(t, err)
	assert.Equal(t, uint64(27_960), got.RealSolReserves)
	assert.Equal(t, uint64(30_000_027_960), got.VirtualSolReserves)

	list, err := store.ListCurveSnapshots(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestGetCurveSnapshotMissing(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.GetCurveSnapshot(context.Background(), "missing")
	assert.Error(t, err)
}
