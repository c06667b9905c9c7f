// Package pagination computes the page numbers shown by list paginators.
package pagination

import (
	"net/url"
	"strconv"
)

// DefaultWindow is the number of page links shown around the current page.
const DefaultWindow = 5

// PerPageOptions are the page sizes offered by the per-page switcher.
var PerPageOptions = []int{10, 20}

// VisiblePages returns the ordered page numbers to display for current out of total pages.
// The window is centered on current and then shifted as a whole to stay inside [1, total].
// current is used as-is; callers clamp it for navigation, not for display.
// total must be >= 1. Even windows also return exactly window pages, one more before
// current than after it.
func VisiblePages(current, total, window int) []int {
	half := window / 2
	start := current - half
	// Same as current+half for odd windows; keeps even windows at exactly window pages.
	end := start + window - 1

	if start < 1 {
		start = 1
		end = min(total, window)
	}
	if end > total {
		end = total
		start = max(1, total-window+1)
	}

	pages := make([]int, 0, max(end-start+1, 0))
	for p := start; p <= end; p++ {
		pages = append(pages, p)
	}
	return pages
}

// Pager is the view-model rendered by the paginator partial.
type Pager struct {
	Current        int
	Total          int
	PerPage        int
	Pages          []int
	First          int
	Prev           int
	Next           int
	Last           int
	PerPageOptions []int
}

// New builds a Pager. A total below 1 is treated as a single page.
func New(current, total, perPage int) Pager {
	if total < 1 {
		total = 1
	}
	return Pager{
		Current:        current,
		Total:          total,
		PerPage:        perPage,
		Pages:          VisiblePages(current, total, DefaultWindow),
		First:          1,
		Prev:           max(current-1, 1),
		Next:           min(current+1, total),
		Last:           total,
		PerPageOptions: PerPageOptions,
	}
}

// HasPrev reports whether a previous page exists.
func (p Pager) HasPrev() bool { return p.Current > 1 }

// HasNext reports whether a next page exists.
func (p Pager) HasNext() bool { return p.Current < p.Total }

// Params are the page and page size requested by a list screen.
type Params struct {
	Page    int
	PerPage int
}

// ParseParams reads page and per_page from a query string.
// Unknown page sizes fall back to the first option.
func ParseParams(q url.Values) Params {
	p := Params{Page: 1, PerPage: PerPageOptions[0]}
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		p.Page = n
	}
	if n, err := strconv.Atoi(q.Get("per_page")); err == nil {
		for _, opt := range PerPageOptions {
			if n == opt {
				p.PerPage = n
				break
			}
		}
	}
	return p
}

// Offset returns the zero-based row offset for the page.
func (p Params) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PerPage
}

// Query encodes the params back into query values.
func (p Params) Query() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(p.Page))
	v.Set("per_page", strconv.Itoa(p.PerPage))
	return v
}

// TotalPages returns how many pages of size perPage hold entries rows, at least 1.
func TotalPages(entries int64, perPage int) int {
	if perPage < 1 || entries <= 0 {
		return 1
	}
	return int((entries + int64(perPage) - 1) / int64(perPage))
}
