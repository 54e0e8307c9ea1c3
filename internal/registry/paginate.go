package registry

import "fmt"

const DefaultPageSize = 6

// Page is a window onto a result set.
type Page[T any] struct {
	Items      []T
	PageIndex  int
	TotalPages int
	Total      int
}

// Paginate returns page pageIndex (1-based) of items. The caller clamps
// pageIndex; an out-of-range index yields an empty page. TotalPages is at
// least 1. A non-positive pageSize falls back to DefaultPageSize.
func Paginate[T any](items []T, pageIndex, pageSize int) Page[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	total := (len(items) + pageSize - 1) / pageSize
	if total < 1 {
		total = 1
	}

	p := Page[T]{
		Items:      []T{},
		PageIndex:  pageIndex,
		TotalPages: total,
		Total:      len(items),
	}
	if pageIndex < 1 {
		return p
	}

	start := (pageIndex - 1) * pageSize
	if start >= len(items) {
		return p
	}
	end := min(start+pageSize, len(items))
	p.Items = items[start:end]
	return p
}

func (p Page[T]) HasPrev() bool { return p.PageIndex > 1 }

func (p Page[T]) HasNext() bool { return p.PageIndex < p.TotalPages }

// Label renders the page indicator, e.g. "Page 1 of 3".
func (p Page[T]) Label() string {
	return fmt.Sprintf("Page %d of %d", p.PageIndex, p.TotalPages)
}
