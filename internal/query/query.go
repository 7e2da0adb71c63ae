// Package query implements the deterministic search, filter, sort and
// paginate pipeline behind the holdings and transactions views.
package query

import (
	"math"
	"sort"
	"strings"
)

// FilterAll disables category filtering.
const FilterAll = "all"

// Row is the minimal surface a collection element exposes to the pipeline.
type Row interface {
	SearchName() string
	SearchID() string
	Category() string
}

// SortKey selects one comparator out of a fixed enumerated set.
type SortKey string

const (
	SortValueDesc    SortKey = "value_desc"
	SortValueAsc     SortKey = "value_asc"
	SortNameAsc      SortKey = "name_asc"
	SortNameDesc     SortKey = "name_desc"
	SortQuantityDesc SortKey = "quantity_desc"
	SortQuantityAsc  SortKey = "quantity_asc"
	SortChange7dDesc SortKey = "change7d_desc"
	SortChange7dAsc  SortKey = "change7d_asc"
	SortClue         SortKey = "clue"
	SortDateDesc     SortKey = "date_desc"
	SortDateAsc      SortKey = "date_asc"
)

// Less reports whether a sorts before b.
type Less[T any] func(a, b T) bool

// Comparators maps the sort keys supported by one view to their ordering.
// Default is used when the requested key is unknown or empty.
type Comparators[T any] struct {
	Default SortKey
	ByKey   map[SortKey]Less[T]
}

// ViewQuery is the user-controlled state of one collection view.
type ViewQuery struct {
	Search   string  `json:"search"`
	Filter   string  `json:"filter"`
	Sort     SortKey `json:"sort"`
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
}

// PagedResult is one bounded page of a filtered, sorted collection.
type PagedResult[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageCount  int `json:"page_count"`
	TotalCount int `json:"total_count"`
}

// Matches reports whether the row passes both the free-text search and the
// category filter. The predicates are conjunctive; an empty search and the
// "all" filter match everything.
func Matches(r Row, search, filter string) bool {
	if search != "" {
		needle := strings.ToLower(search)
		if !strings.Contains(strings.ToLower(r.SearchName()), needle) &&
			!strings.Contains(strings.ToLower(r.SearchID()), needle) {
			return false
		}
	}
	if filter != "" && !strings.EqualFold(filter, FilterAll) {
		if !strings.EqualFold(filter, r.Category()) {
			return false
		}
	}
	return true
}

// FilterSortPage runs the full pipeline over the collection. The sort is
// stable so rows with equal keys keep their pre-sort relative order, and the
// requested page is clamped into [1, pageCount] rather than returning an
// empty slice for stale page numbers.
func FilterSortPage[T Row](items []T, q ViewQuery, cmps Comparators[T]) PagedResult[T] {
	filtered := make([]T, 0, len(items))
	for _, it := range items {
		if Matches(it, strings.TrimSpace(q.Search), q.Filter) {
			filtered = append(filtered, it)
		}
	}

	less, ok := cmps.ByKey[q.Sort]
	if !ok {
		less = cmps.ByKey[cmps.Default]
	}
	if less != nil {
		sort.SliceStable(filtered, func(i, j int) bool { return less(filtered[i], filtered[j]) })
	}

	pageSize := q.PageSize
	if pageSize < 1 {
		pageSize = 1
	}
	total := len(filtered)
	pageCount := (total + pageSize - 1) / pageSize
	if pageCount < 1 {
		pageCount = 1
	}
	page := ClampInt(float64(q.Page), 1, pageCount)

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return PagedResult[T]{
		Items:      filtered[start:end],
		Page:       page,
		PageCount:  pageCount,
		TotalCount: total,
	}
}

// ClampInt converts raw to an int bounded into [min, max]. Non-finite input
// collapses to min.
func ClampInt(raw float64, min, max int) int {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return min
	}
	v := int(math.Floor(raw))
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
