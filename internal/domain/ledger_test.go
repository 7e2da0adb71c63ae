package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func tx(t *testing.T, id, skinID string, kind Kind, qty int64, price string, commission string, at time.Time) Transaction {
	t.Helper()
	unitPrice, err := decimal.NewFromString(price)
	require.NoError(t, err)
	comm, err := decimal.NewFromString(commission)
	require.NoError(t, err)

	created, err := NewTransaction(id, TransactionRequest{
		SkinID:            skinID,
		Kind:              kind,
		Quantity:          qty,
		UnitPrice:         unitPrice,
		CommissionPercent: comm,
		ExecutedAt:        at,
	})
	require.NoError(t, err)
	return created
}

func TestComputeLedger_BuysOnly(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	txs := []Transaction{
		tx(t, "a", "ak47-redline", KindBuy, 2, "10", "0", base),
		tx(t, "b", "ak47-redline", KindBuy, 3, "20", "0", base.Add(time.Hour)),
	}

	snapshot := ComputeLedger(txs)

	require.EqualValues(t, 5, snapshot.OpenQuantity)
	require.True(t, snapshot.RealizedPnl.IsZero())
	require.NotNil(t, snapshot.AvgEntryPrice)
	// (2*10 + 3*20) / 5 = 16
	require.True(t, snapshot.AvgEntryPrice.Equal(decimal.NewFromInt(16)),
		"avg entry price = %s", snapshot.AvgEntryPrice)
}

func TestComputeLedger_BuyThenPartialSell(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	txs := []Transaction{
		tx(t, "a", "awp-asiimov", KindBuy, 2, "10", "0", base),
		tx(t, "b", "awp-asiimov", KindSell, 1, "15", "0", base.Add(time.Hour)),
	}

	snapshot := ComputeLedger(txs)

	require.EqualValues(t, 1, snapshot.OpenQuantity)
	require.NotNil(t, snapshot.AvgEntryPrice)
	require.True(t, snapshot.AvgEntryPrice.Equal(decimal.NewFromInt(10)))
	require.True(t, snapshot.RealizedPnl.Equal(decimal.NewFromInt(5)),
		"realized pnl = %s", snapshot.RealizedPnl)
}

func TestComputeLedger_SellCommissionReducesProceeds(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	txs := []Transaction{
		tx(t, "a", "m4a4-howl", KindBuy, 1, "100", "13", base),
		tx(t, "b", "m4a4-howl", KindSell, 1, "200", "13", base.Add(time.Hour)),
	}

	snapshot := ComputeLedger(txs)

	// Proceeds 200 * 0.87 = 174, cost 100 (buys pay no commission).
	require.True(t, snapshot.RealizedPnl.Equal(decimal.NewFromInt(74)),
		"realized pnl = %s", snapshot.RealizedPnl)
}

func TestComputeLedger_FullSellResetsExactlyToZero(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	txs := []Transaction{
		tx(t, "a", "glock-fade", KindBuy, 3, "3.33", "0", base),
		tx(t, "b", "glock-fade", KindBuy, 7, "7.77", "0", base.Add(time.Minute)),
		tx(t, "c", "glock-fade", KindSell, 10, "5.55", "0", base.Add(time.Hour)),
	}

	snapshot := ComputeLedger(txs)

	require.EqualValues(t, 0, snapshot.OpenQuantity)
	require.Nil(t, snapshot.AvgEntryPrice)

	// Selling again after the position closed must not move anything.
	txs = append(txs, tx(t, "d", "glock-fade", KindSell, 1, "9", "0", base.Add(2*time.Hour)))
	again := ComputeLedger(txs)
	require.EqualValues(t, 0, again.OpenQuantity)
	require.True(t, again.RealizedPnl.Equal(snapshot.RealizedPnl))
	// But the event stays visible in the timeline.
	require.Len(t, again.Timeline, 4)
	require.Equal(t, "d", again.Timeline[0].ID)
}

func TestComputeLedger_OversellAllocatesProportionally(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	txs := []Transaction{
		tx(t, "a", "usp-kill-confirmed", KindBuy, 1, "10", "0", base),
		// Sell 2 while only 1 is open: proceeds allocated to the covered
		// half, the excess is ignored.
		tx(t, "b", "usp-kill-confirmed", KindSell, 2, "30", "0", base.Add(time.Hour)),
	}

	snapshot := ComputeLedger(txs)

	require.EqualValues(t, 0, snapshot.OpenQuantity)
	// proceeds = 60 * (1/2) = 30, removed cost = 10, pnl = 20
	require.True(t, snapshot.RealizedPnl.Equal(decimal.NewFromInt(20)),
		"realized pnl = %s", snapshot.RealizedPnl)
}

func TestComputeLedger_SellOnFlatPositionIsAuditOnly(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	txs := []Transaction{
		tx(t, "a", "deagle-blaze", KindSell, 2, "50", "0", base),
	}

	snapshot := ComputeLedger(txs)

	require.EqualValues(t, 0, snapshot.OpenQuantity)
	require.True(t, snapshot.RealizedPnl.IsZero())
	require.Nil(t, snapshot.AvgEntryPrice)
	require.Len(t, snapshot.Timeline, 1)
}

func TestComputeLedger_StableOrderForEqualTimestamps(t *testing.T) {
	// Batch imports carry one timestamp for many rows; file order decides.
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	txs := []Transaction{
		tx(t, "buy-first", "p90-asiimov", KindBuy, 1, "10", "0", at),
		tx(t, "sell-second", "p90-asiimov", KindSell, 1, "20", "0", at),
	}

	snapshot := ComputeLedger(txs)

	require.EqualValues(t, 0, snapshot.OpenQuantity)
	require.True(t, snapshot.RealizedPnl.Equal(decimal.NewFromInt(10)))
	// Reverse chronological output keeps the later file row first.
	require.Equal(t, "sell-second", snapshot.Timeline[0].ID)
	require.Equal(t, "buy-first", snapshot.Timeline[1].ID)
}

func TestComputeLedger_Idempotent(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	txs := []Transaction{
		tx(t, "a", "karambit-doppler", KindBuy, 4, "123.45", "0", base),
		tx(t, "b", "karambit-doppler", KindSell, 2, "150.10", "13", base.Add(time.Hour)),
		tx(t, "c", "karambit-doppler", KindBuy, 1, "99.99", "0", base.Add(2*time.Hour)),
	}

	first := ComputeLedger(txs)
	second := ComputeLedger(txs)

	require.Equal(t, first, second)
	// The input slice order must not be mutated by the internal sort.
	require.Equal(t, "a", txs[0].ID)
	require.Equal(t, "b", txs[1].ID)
	require.Equal(t, "c", txs[2].ID)
}

func TestComputeLedger_Empty(t *testing.T) {
	snapshot := ComputeLedger(nil)
	require.EqualValues(t, 0, snapshot.OpenQuantity)
	require.Nil(t, snapshot.AvgEntryPrice)
	require.True(t, snapshot.RealizedPnl.IsZero())
	require.Empty(t, snapshot.Timeline)
}
