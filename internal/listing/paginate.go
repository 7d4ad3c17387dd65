package listing

const DefaultPageSize = 6

// Page is one slice of a sorted result set.
type Page[T any] struct {
	Items      []T  `json:"items"`
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	Start      int  `json:"start"`
	End        int  `json:"end"`
	HasPrev    bool `json:"has_prev"`
	HasNext    bool `json:"has_next"`
}

// Paginate clamps page into [1, TotalPages]. An empty list still has one
// (empty) page. Start and End are 1-based and both zero when empty.
func Paginate[T any](items []T, page, size int) Page[T] {
	if size <= 0 {
		size = DefaultPageSize
	}

	total := len(items)
	totalPages := (total + size - 1) / size
	if totalPages < 1 {
		totalPages = 1
	}
	page = min(max(page, 1), totalPages)

	from := min((page-1)*size, total)
	to := min(from+size, total)

	p := Page[T]{
		Items:      make([]T, to-from),
		Page:       page,
		PageSize:   size,
		Total:      total,
		TotalPages: totalPages,
		End:        to,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	}
	copy(p.Items, items[from:to])
	if total > 0 {
		p.Start = from + 1
	}
	return p
}
