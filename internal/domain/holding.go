package domain

import (
	"github.com/shopspring/decimal"
)

// ManagementClue is the advisory ranking computed by the remote analytics
// service for one holding. This core only consumes and orders it.
type ManagementClue string

const (
	ClueSell       ManagementClue = "sell"
	ClueReduce     ManagementClue = "reduce"
	ClueHold       ManagementClue = "hold"
	ClueAccumulate ManagementClue = "accumulate"
	ClueWatch      ManagementClue = "watch"
)

// cluePriority orders clues by how urgently they need attention.
var cluePriority = map[ManagementClue]int{
	ClueSell:       0,
	ClueReduce:     1,
	ClueAccumulate: 2,
	ClueHold:       3,
	ClueWatch:      4,
}

// Priority returns the display rank of the clue, unknown clues sort last.
func (c ManagementClue) Priority() int {
	if p, ok := cluePriority[c]; ok {
		return p
	}
	return len(cluePriority)
}

// SkinQuote is the per-skin market data supplied by the remote pricing and
// analytics service.
type SkinQuote struct {
	SkinID          string          `json:"skin_id"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	Change7dPercent decimal.Decimal `json:"change_7d_percent"`
	LiquidityScore  decimal.Decimal `json:"liquidity_score"`
	Clue            ManagementClue  `json:"management_clue"`
}

// Holding is one row of the holdings view: the open position of a skin
// joined with its latest quote.
type Holding struct {
	SkinID          string           `json:"skin_id"`
	Name            string           `json:"name"`
	Quantity        int64            `json:"quantity"`
	AvgEntryPrice   *decimal.Decimal `json:"avg_entry_price"`
	CurrentPrice    decimal.Decimal  `json:"current_price"`
	LineValue       decimal.Decimal  `json:"line_value"` // quantity x current price
	Change7dPercent decimal.Decimal  `json:"change_7d_percent"`
	RealizedPnl     decimal.Decimal  `json:"realized_pnl"`
	UnrealizedPnl   decimal.Decimal  `json:"unrealized_pnl"`
	Clue            ManagementClue   `json:"management_clue"`
}

// SearchName implements query.Row.
func (h Holding) SearchName() string { return h.Name }

// SearchID implements query.Row.
func (h Holding) SearchID() string { return h.SkinID }

// Category implements query.Row, holdings are filtered by management clue.
func (h Holding) Category() string { return string(h.Clue) }

// TransactionRow is one row of the transactions view.
type TransactionRow struct {
	Transaction
	Name string `json:"name"`
}

// SearchName implements query.Row.
func (t TransactionRow) SearchName() string { return t.Name }

// SearchID implements query.Row.
func (t TransactionRow) SearchID() string { return t.SkinID }

// Category implements query.Row, transactions are filtered by type.
func (t TransactionRow) Category() string { return string(t.Kind) }
