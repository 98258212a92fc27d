package repository

import (
	"context"

	"github.com/easybudgetapp/easybudget_backend/config"
)

const defaultPerPage = 15

// Envelope is the paginated list shape returned to API consumers.
// From/To are nil on an empty page so they serialize as null, not zero.
type Envelope[T any] struct {
	Data        []*T  `json:"data"`
	Total       int64 `json:"total"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	LastPage    int   `json:"last_page"`
	From        *int  `json:"from"`
	To          *int  `json:"to"`
}

// Paginate runs the filtered count plus one page fetch and wraps the result.
// page and perPage are normalized: anything below 1 falls back to the
// defaults, and perPage is clamped to PAGINATION_MAX_PER_PAGE. A page past
// the end returns an empty data slice with the real total.
func (r *Repository[T]) Paginate(ctx context.Context, criteria Criteria, orderBy map[string]string, page int, perPage int) *Envelope[T] {
	page, perPage = normalizePage(page, perPage)

	total := r.Count(ctx, criteria)
	offset := (page - 1) * perPage
	data := r.FindBy(ctx, criteria, orderBy, perPage, offset)

	envelope := &Envelope[T]{
		Data:        data,
		Total:       total,
		CurrentPage: page,
		PerPage:     perPage,
		LastPage:    lastPage(total, perPage),
	}
	if len(data) > 0 {
		from := offset + 1
		to := offset + len(data)
		envelope.From = &from
		envelope.To = &to
	}
	return envelope
}

func normalizePage(page int, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if maxPerPage := config.MaxPerPage(); perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}

// lastPage is at least 1 even with zero rows, so "page 1 of 1" always holds.
func lastPage(total int64, perPage int) int {
	if total <= 0 {
		return 1
	}
	pages := int((total + int64(perPage) - 1) / int64(perPage))
	if pages < 1 {
		return 1
	}
	return pages
}
