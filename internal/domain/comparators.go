package domain

import (
	"strings"

	"github.com/skinvault/skinfolio/internal/query"
)

// HoldingComparators returns the sort keys supported by the holdings view.
// Value-descending is the default ordering.
func HoldingComparators() query.Comparators[Holding] {
	return query.Comparators[Holding]{
		Default: query.SortValueDesc,
		ByKey: map[query.SortKey]query.Less[Holding]{
			query.SortValueDesc: func(a, b Holding) bool { return a.LineValue.GreaterThan(b.LineValue) },
			query.SortValueAsc:  func(a, b Holding) bool { return a.LineValue.LessThan(b.LineValue) },
			query.SortNameAsc: func(a, b Holding) bool {
				return strings.ToLower(a.Name) < strings.ToLower(b.Name)
			},
			query.SortNameDesc: func(a, b Holding) bool {
				return strings.ToLower(a.Name) > strings.ToLower(b.Name)
			},
			query.SortQuantityDesc: func(a, b Holding) bool { return a.Quantity > b.Quantity },
			query.SortQuantityAsc:  func(a, b Holding) bool { return a.Quantity < b.Quantity },
			query.SortChange7dDesc: func(a, b Holding) bool { return a.Change7dPercent.GreaterThan(b.Change7dPercent) },
			query.SortChange7dAsc:  func(a, b Holding) bool { return a.Change7dPercent.LessThan(b.Change7dPercent) },
			query.SortClue:         func(a, b Holding) bool { return a.Clue.Priority() < b.Clue.Priority() },
		},
	}
}

// TransactionRowComparators returns the sort keys supported by the
// transactions view. Most recent first is the default ordering.
func TransactionRowComparators() query.Comparators[TransactionRow] {
	return query.Comparators[TransactionRow]{
		Default: query.SortDateDesc,
		ByKey: map[query.SortKey]query.Less[TransactionRow]{
			query.SortDateDesc:  func(a, b TransactionRow) bool { return a.ExecutedAt.After(b.ExecutedAt) },
			query.SortDateAsc:   func(a, b TransactionRow) bool { return a.ExecutedAt.Before(b.ExecutedAt) },
			query.SortValueDesc: func(a, b TransactionRow) bool { return a.NetTotal.GreaterThan(b.NetTotal) },
			query.SortValueAsc:  func(a, b TransactionRow) bool { return a.NetTotal.LessThan(b.NetTotal) },
			query.SortNameAsc: func(a, b TransactionRow) bool {
				return strings.ToLower(a.Name) < strings.ToLower(b.Name)
			},
			query.SortNameDesc: func(a, b TransactionRow) bool {
				return strings.ToLower(a.Name) > strings.ToLower(b.Name)
			},
			query.SortQuantityDesc: func(a, b TransactionRow) bool { return a.Quantity > b.Quantity },
			query.SortQuantityAsc:  func(a, b TransactionRow) bool { return a.Quantity < b.Quantity },
		},
	}
}
