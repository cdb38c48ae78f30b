package common

import (
	"net/http"
	"strconv"
)

// Pagination describes the page window echoed back on list responses.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
}

// ParsePagination reads the page and limit query parameters. Non-numeric or
// non-positive values fall back to page 1 and defaultPerPage, and limit is
// clamped to maxPerPage.
func ParsePagination(r *http.Request, defaultPerPage, maxPerPage int) (page, perPage int) {
	page = 1
	perPage = defaultPerPage
	q := r.URL.Query()
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(q.Get("limit")); err == nil && l > 0 {
		perPage = l
	}
	if maxPerPage > 0 && perPage > maxPerPage {
		perPage = maxPerPage
	}
	return
}
