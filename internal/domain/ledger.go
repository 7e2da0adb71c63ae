package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEvent is one timeline entry of a position's history.
type LedgerEvent struct {
	ID        string          `json:"id"`
	Date      time.Time       `json:"date"`
	Kind      Kind            `json:"type"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	NetTotal  decimal.Decimal `json:"net_total"`
}

// LedgerSnapshot is the derived average-cost state of one skin position.
// It is rebuilt from the full transaction list on every call and never
// mutated in place, so it cannot drift from the source transactions.
type LedgerSnapshot struct {
	SkinID        string           `json:"skin_id"`
	OpenQuantity  int64            `json:"open_quantity"`
	AvgEntryPrice *decimal.Decimal `json:"avg_entry_price"` // nil when the position is flat
	RealizedPnl   decimal.Decimal  `json:"realized_pnl"`
	Timeline      []LedgerEvent    `json:"timeline"` // most recent first
}

// ComputeLedger replays the transactions of a single position in
// chronological order and returns the resulting snapshot.
//
// Buys accumulate open quantity and cost basis. Sells deplete the basis at
// the average cost of the open quantity; when a sell exceeds what is open,
// proceeds are allocated proportionally to the covered part and the excess
// is ignored (likely missing pre-ledger buy history, kept for product
// clarification rather than modeled as shorting). Sells against a flat
// position still appear in the timeline for audit visibility.
//
// The function is pure: identical inputs always produce identical snapshots.
func ComputeLedger(txs []Transaction) LedgerSnapshot {
	ordered := make([]Transaction, len(txs))
	copy(ordered, txs)
	// Stable keeps file order for same-timestamp batch imports.
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ExecutedAt.Before(ordered[j].ExecutedAt)
	})

	var (
		snapshot     LedgerSnapshot
		openQuantity int64
		costBasis    decimal.Decimal
		realizedPnl  decimal.Decimal
	)

	for _, tx := range ordered {
		if snapshot.SkinID == "" {
			snapshot.SkinID = tx.SkinID
		}

		switch tx.Kind {
		case KindBuy:
			openQuantity += tx.Quantity
			costBasis = costBasis.Add(tx.NetTotal)
		case KindSell:
			if openQuantity > 0 {
				sellQty := tx.Quantity
				if sellQty > openQuantity {
					sellQty = openQuantity
				}
				avgCost := costBasis.Div(decimal.NewFromInt(openQuantity))
				proceeds := tx.NetTotal.Mul(decimal.NewFromInt(sellQty)).Div(decimal.NewFromInt(tx.Quantity))
				removedCost := avgCost.Mul(decimal.NewFromInt(sellQty))

				realizedPnl = realizedPnl.Add(proceeds.Sub(removedCost))
				openQuantity -= sellQty
				costBasis = costBasis.Sub(removedCost)

				if openQuantity <= 0 {
					// Exact reset, no residual basis once the position closes.
					openQuantity = 0
					costBasis = decimal.Zero
				}
			}
		}

		snapshot.Timeline = append(snapshot.Timeline, LedgerEvent{
			ID:        tx.ID,
			Date:      tx.ExecutedAt,
			Kind:      tx.Kind,
			Quantity:  tx.Quantity,
			UnitPrice: tx.UnitPrice,
			NetTotal:  tx.NetTotal,
		})
	}

	// Timeline is displayed most recent first.
	for i, j := 0, len(snapshot.Timeline)-1; i < j; i, j = i+1, j-1 {
		snapshot.Timeline[i], snapshot.Timeline[j] = snapshot.Timeline[j], snapshot.Timeline[i]
	}

	snapshot.OpenQuantity = openQuantity
	snapshot.RealizedPnl = realizedPnl
	if openQuantity > 0 {
		avg := costBasis.Div(decimal.NewFromInt(openQuantity))
		snapshot.AvgEntryPrice = &avg
	}
	return snapshot
}
