package query

import (
	"sync"
	"time"
)

// Session owns the mutable ViewQuery of one collection view and recomputes
// the paged result on every mutation. Search-text edits are coalesced: the
// recompute fires only after the debounce interval passes without another
// edit, and the latest text always wins.
type Session[T Row] struct {
	mu       sync.Mutex
	items    []T
	cmps     Comparators[T]
	query    ViewQuery
	debounce time.Duration
	timer    *time.Timer
	onChange func(PagedResult[T])
}

// NewSession creates a session with the given comparators and page size.
// onChange may be nil when the caller polls Result instead.
func NewSession[T Row](cmps Comparators[T], pageSize int, debounce time.Duration, onChange func(PagedResult[T])) *Session[T] {
	if pageSize < 1 {
		pageSize = 1
	}
	return &Session[T]{
		cmps:     cmps,
		debounce: debounce,
		onChange: onChange,
		query: ViewQuery{
			Filter:   FilterAll,
			Sort:     cmps.Default,
			Page:     1,
			PageSize: pageSize,
		},
	}
}

// SetItems replaces the underlying collection and re-clamps the page.
func (s *Session[T]) SetItems(items []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	s.recomputeLocked()
}

// SetSearch schedules a debounced recompute with the new search text.
func (s *Session[T]) SetSearch(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query.Search = text
	s.query.Page = 1
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.debounce <= 0 {
		s.recomputeLocked()
		return
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.recomputeLocked()
	})
}

// SetFilter changes the category filter and recomputes immediately.
func (s *Session[T]) SetFilter(filter string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query.Filter = filter
	s.query.Page = 1
	s.recomputeLocked()
}

// SetSort changes the sort key and recomputes immediately.
func (s *Session[T]) SetSort(key SortKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query.Sort = key
	s.recomputeLocked()
}

// SetPage moves to the requested page, clamped into the valid range.
func (s *Session[T]) SetPage(page int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query.Page = page
	s.recomputeLocked()
}

// SetPageSize changes the page size and re-clamps the page.
func (s *Session[T]) SetPageSize(size int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if size < 1 {
		size = 1
	}
	s.query.PageSize = size
	s.recomputeLocked()
}

// Flush forces a pending debounced recompute to run now.
func (s *Session[T]) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil && s.timer.Stop() {
		s.recomputeLocked()
	}
}

// Query returns a copy of the current view query.
func (s *Session[T]) Query() ViewQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Result recomputes and returns the current page.
func (s *Session[T]) Result() PagedResult[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recomputeLocked()
}

func (s *Session[T]) recomputeLocked() PagedResult[T] {
	res := FilterSortPage(s.items, s.query, s.cmps)
	// Keep the invariant: the stored page is always within [1, pageCount].
	s.query.Page = res.Page
	if s.onChange != nil {
		s.onChange(res)
	}
	return res
}
