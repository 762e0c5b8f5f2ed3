package pipeline

import "github.com/custodia-labs/metatext-core/internal/core/domain"

// TotalPages returns the page count for total items, never less than 1
func TotalPages(total, perPage int) int {
	perPage = normalizePerPage(perPage)
	pages := (total + perPage - 1) / perPage
	if pages < 1 {
		return 1
	}
	return pages
}

// ClampPage forces page into [1, totalPages]
func ClampPage(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// Paginate slices filtered into the requested page. An out-of-range page is
// clamped to the nearest valid one, so the window is never silently empty
// while the filtered set has chunks.
func Paginate(filtered []*domain.Chunk, perPage, page int) domain.PageWindow {
	perPage = normalizePerPage(perPage)
	total := len(filtered)
	totalPages := TotalPages(total, perPage)
	page = ClampPage(page, totalPages)

	start := (page - 1) * perPage
	end := start + perPage
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	display := make([]*domain.Chunk, end-start)
	copy(display, filtered[start:end])

	return domain.PageWindow{
		DisplayChunks:       display,
		TotalFilteredChunks: total,
		CurrentPage:         page,
		TotalPages:          totalPages,
		StartIndex:          start,
		EndIndex:            end,
		ChunksPerPage:       perPage,
	}
}

// Paginator holds the current page and page size and keeps the page valid
// as the filtered set changes.
type Paginator struct {
	perPage     int
	currentPage int
}

// NewPaginator creates a paginator on page 1
func NewPaginator(perPage int) *Paginator {
	return &Paginator{
		perPage:     normalizePerPage(perPage),
		currentPage: 1,
	}
}

// PerPage returns the page size
func (p *Paginator) PerPage() int {
	return p.perPage
}

// CurrentPage returns the last applied page
func (p *Paginator) CurrentPage() int {
	return p.currentPage
}

// SetPerPage changes the page size; the next Apply recomputes the window
func (p *Paginator) SetPerPage(perPage int) {
	p.perPage = normalizePerPage(perPage)
}

// SetPage requests a page; the next Apply clamps it
func (p *Paginator) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	p.currentPage = page
}

// Apply computes the window for filtered and stores the corrected page
func (p *Paginator) Apply(filtered []*domain.Chunk) domain.PageWindow {
	window := Paginate(filtered, p.perPage, p.currentPage)
	p.currentPage = window.CurrentPage
	return window
}

func normalizePerPage(perPage int) int {
	if perPage <= 0 {
		return domain.DefaultChunksPerPage
	}
	return perPage
}
