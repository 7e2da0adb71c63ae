package transactions

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/skinvault/skinfolio/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func buyRequest(skinID string) domain.TransactionRequest {
	return domain.TransactionRequest{
		SkinID:            skinID,
		Kind:              domain.KindBuy,
		Quantity:          1,
		UnitPrice:         decimal.NewFromInt(10),
		CommissionPercent: decimal.NewFromInt(13),
		Currency:          "USD",
	}
}

func TestStoreCreateAssignsIDAndTime(t *testing.T) {
	store := newTestStore(t)

	tx, err := store.Create(context.Background(), buyRequest("ak47-redline"))
	require.NoError(t, err)
	require.NotEmpty(t, tx.ID)
	require.False(t, tx.ExecutedAt.IsZero(), "store assigns time when unset")
	require.True(t, tx.NetTotal.Equal(decimal.NewFromInt(10)))
}

func TestStoreCreateRejectsInvalidRequest(t *testing.T) {
	store := newTestStore(t)

	req := buyRequest("ak47-redline")
	req.Quantity = 0
	_, err := store.Create(context.Background(), req)

	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)

	txs, err := store.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, txs, "no partial state after a rejected request")
}

func TestStoreListKeepsAppendOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, skin := range []string{"ak47", "awp", "m4a4"} {
		_, err := store.Create(ctx, buyRequest(skin))
		require.NoError(t, err)
	}

	txs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	require.Equal(t, "ak47", txs[0].SkinID)
	require.Equal(t, "awp", txs[1].SkinID)
	require.Equal(t, "m4a4", txs[2].SkinID)
}

func TestStoreDeleteTombstones(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.Create(ctx, buyRequest("ak47"))
	require.NoError(t, err)
	second, err := store.Create(ctx, buyRequest("awp"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, first.ID))

	txs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.Equal(t, second.ID, txs[0].ID)

	require.ErrorIs(t, store.Delete(ctx, first.ID), ErrNotFound)
	require.ErrorIs(t, store.Delete(ctx, "never-existed"), ErrNotFound)
}

func TestStoreListBySkin(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, buyRequest("ak47"))
	require.NoError(t, err)
	_, err = store.Create(ctx, buyRequest("awp"))
	require.NoError(t, err)
	_, err = store.Create(ctx, buyRequest("ak47"))
	require.NoError(t, err)

	txs, err := store.ListBySkin(ctx, "ak47")
	require.NoError(t, err)
	require.Len(t, txs, 2)
	for _, tx := range txs {
		require.Equal(t, "ak47", tx.SkinID)
	}
}

func TestStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir)
	require.NoError(t, err)
	created, err := store.Create(ctx, buyRequest("karambit"))
	require.NoError(t, err)
	deleted, err := store.Create(ctx, buyRequest("bayonet"))
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, deleted.ID))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	txs, err := reopened.List(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.Equal(t, created.ID, txs[0].ID)
	require.Equal(t, created.ExecutedAt.Unix(), txs[0].ExecutedAt.Unix())
}

func TestStoreHonorsContextCancellation(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Create(ctx, buyRequest("ak47"))
	require.ErrorIs(t, err, context.Canceled)
	_, err = store.List(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestStoreKeepsExplicitExecutedAt(t *testing.T) {
	store := newTestStore(t)

	at := time.Date(2023, 11, 5, 10, 30, 0, 0, time.UTC)
	req := buyRequest("ak47")
	req.ExecutedAt = at

	tx, err := store.Create(context.Background(), req)
	require.NoError(t, err)
	require.True(t, tx.ExecutedAt.Equal(at))
}
