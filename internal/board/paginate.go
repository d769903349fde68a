package board

import "errors"

var ErrInvalidPageSize = errors.New("page size must be positive")

// Page is one slice of a paginated list.
type Page[T any] struct {
	Items      []T  `json:"items"`
	PageNumber int  `json:"page"`
	PageSize   int  `json:"page_size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// Paginate returns page pageNumber (1-based) of items. Page numbers outside
// 1..TotalPages produce an empty page rather than an error.
func Paginate[T any](items []T, pageSize, pageNumber int) (Page[T], error) {
	if pageSize <= 0 {
		return Page[T]{}, ErrInvalidPageSize
	}

	total := len(items)
	totalPages := (total + pageSize - 1) / pageSize

	page := Page[T]{
		Items:      make([]T, 0),
		PageNumber: pageNumber,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    pageNumber < totalPages,
		HasPrev:    pageNumber > 1,
	}

	if pageNumber < 1 || pageNumber > totalPages {
		return page, nil
	}

	start := (pageNumber - 1) * pageSize
	end := start + pageSize
	if end > total {
		end = total
	}
	page.Items = append(page.Items, items[start:end]...)
	return page, nil
}

// PageLink is one entry of the page navigation bar.
type PageLink struct {
	Number   int  `json:"number,omitempty"`
	Current  bool `json:"current,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
}

// VisiblePages returns the navigation entries for current out of total pages:
// the first and last page, the pages next to current, and an ellipsis where a
// run of pages is skipped.
func VisiblePages(current, total int) []PageLink {
	links := make([]PageLink, 0)
	if total <= 1 {
		return links
	}

	for n := 1; n <= total; n++ {
		switch {
		case n == 1 || n == total || abs(n-current) <= 1:
			links = append(links, PageLink{Number: n, Current: n == current})
		case n == current-2 || n == current+2:
			links = append(links, PageLink{Ellipsis: true})
		}
	}
	return links
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
