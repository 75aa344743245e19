package api

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/types"
)

// parsePagination reads page and limit. Missing or invalid values fall back
// to the first page and the default size; page and limit are capped at
// MaxPage and MaxPageSize.
func parsePagination(c *gin.Context) types.Pagination {
	p := types.Pagination{Page: 1, Limit: types.DefaultPageSize}
	if page, err := strconv.Atoi(c.Query("page")); err == nil && page > 0 {
		p.Page = page
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 {
		p.Limit = limit
	}
	if p.Page > types.MaxPage {
		p.Page = types.MaxPage
	}
	if p.Limit > types.MaxPageSize {
		p.Limit = types.MaxPageSize
	}
	return p
}

func requestURL(r *http.Request) *url.URL {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}
	u := *r.URL
	u.Scheme = scheme
	u.Host = r.Host
	return &u
}

func pageLink(c *gin.Context, page int) *string {
	u := requestURL(c.Request)
	q := u.Query()
	if page == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u.RawQuery = q.Encode()
	link := u.String()
	return &link
}

// newPage builds the paginated envelope with absolute next/previous links.
func newPage[T any](c *gin.Context, p types.Pagination, count int64, results []T) types.Page[T] {
	if results == nil {
		results = []T{}
	}
	page := types.Page[T]{Count: count, Results: results}
	if int64(p.Page)*int64(p.Limit) < count {
		page.Next = pageLink(c, p.Page+1)
	}
	if p.Page > 1 {
		page.Previous = pageLink(c, p.Page-1)
	}
	return page
}
