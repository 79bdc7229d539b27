package handlers

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"storefront/internal/catalog"
)

const maxPageSize = 100

var errInvalidPagination = errors.New("invalid pagination params")

type listingQuery struct {
	Search  string `form:"search"`
	Sort    string `form:"sort"`
	InStock string `form:"inStock"`
	Page    string `form:"page"`
	Limit   string `form:"limit"`
}

func (q listingQuery) params() catalog.Params {
	return catalog.Params{
		Search:  strings.TrimSpace(q.Search),
		Sort:    catalog.ParseSortMode(q.Sort),
		InStock: parseToggle(q.InStock),
	}
}

// values is the query string the pagination links carry forward.
func (q listingQuery) values() url.Values {
	v := url.Values{}
	p := q.params()
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	if p.Sort != catalog.SortNone {
		v.Set("sort", strconv.Itoa(int(p.Sort)))
	}
	if p.InStock {
		v.Set("inStock", "true")
	}
	if q.Limit != "" {
		v.Set("limit", q.Limit)
	}
	return v
}

func parseToggle(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "on", "1":
		return true
	}
	return false
}

func parsePaginationParams(pageStr, limitStr string, defaultLimit int) (int, int, error) {
	page := catalog.DefaultPage
	limit := defaultLimit
	if limit < 1 {
		limit = catalog.DefaultPageSize
	}

	if pageStr != "" {
		p, err := strconv.Atoi(pageStr)
		if err != nil || p < 1 {
			return 0, 0, fmt.Errorf("%w: page %q", errInvalidPagination, pageStr)
		}
		page = p
	}

	if limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l < 1 {
			return 0, 0, fmt.Errorf("%w: limit %q", errInvalidPagination, limitStr)
		}
		limit = min(l, maxPageSize)
	}

	return page, limit, nil
}
