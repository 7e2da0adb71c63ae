package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestTransactionRequestValidate(t *testing.T) {
	valid := TransactionRequest{
		SkinID:            "ak47-redline",
		Kind:              KindBuy,
		Quantity:          2,
		UnitPrice:         decimal.NewFromInt(10),
		CommissionPercent: decimal.NewFromInt(13),
	}
	require.NoError(t, valid.Validate())

	cases := []struct {
		name   string
		mutate func(*TransactionRequest)
		field  string
	}{
		{"missing skin", func(r *TransactionRequest) { r.SkinID = "" }, "skin_id"},
		{"bad kind", func(r *TransactionRequest) { r.Kind = "trade" }, "type"},
		{"zero quantity", func(r *TransactionRequest) { r.Quantity = 0 }, "quantity"},
		{"negative quantity", func(r *TransactionRequest) { r.Quantity = -3 }, "quantity"},
		{"negative price", func(r *TransactionRequest) { r.UnitPrice = decimal.NewFromInt(-1) }, "unit_price"},
		{"negative commission", func(r *TransactionRequest) { r.CommissionPercent = decimal.NewFromInt(-1) }, "commission_percent"},
		{"commission at 100", func(r *TransactionRequest) { r.CommissionPercent = decimal.NewFromInt(100) }, "commission_percent"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)

			err := req.Validate()
			require.Error(t, err)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			require.Equal(t, tc.field, vErr.Field)
		})
	}
}

func TestTransactionRequestNetTotal(t *testing.T) {
	buy := TransactionRequest{
		Kind:              KindBuy,
		Quantity:          3,
		UnitPrice:         decimal.NewFromInt(10),
		CommissionPercent: decimal.NewFromInt(13),
	}
	// Buys pay no commission.
	require.True(t, buy.NetTotal().Equal(decimal.NewFromInt(30)))

	sell := buy
	sell.Kind = KindSell
	// 30 * 0.87 = 26.1
	require.True(t, sell.NetTotal().Equal(decimal.RequireFromString("26.1")),
		"sell net total = %s", sell.NetTotal())
}

func TestNewTransactionDerivesNetTotal(t *testing.T) {
	at := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	created, err := NewTransaction("id-1", TransactionRequest{
		SkinID:            "bayonet-lore",
		Kind:              KindSell,
		Quantity:          2,
		UnitPrice:         decimal.NewFromInt(50),
		CommissionPercent: decimal.NewFromInt(10),
		ExecutedAt:        at,
	})
	require.NoError(t, err)
	require.Equal(t, "id-1", created.ID)
	require.True(t, created.NetTotal.Equal(decimal.NewFromInt(90)))
	require.Equal(t, at, created.ExecutedAt)
}

func TestParseKind(t *testing.T) {
	for raw, want := range map[string]Kind{"buy": KindBuy, "SELL": KindSell, " Buy ": KindBuy} {
		kind, err := ParseKind(raw)
		require.NoError(t, err)
		require.Equal(t, want, kind)
	}

	_, err := ParseKind("swap")
	require.Error(t, err)
}

func TestManagementCluePriority(t *testing.T) {
	require.Less(t, ClueSell.Priority(), ClueHold.Priority())
	require.Less(t, ClueHold.Priority(), ClueWatch.Priority())
	require.Greater(t, ManagementClue("mystery").Priority(), ClueWatch.Priority())
}
