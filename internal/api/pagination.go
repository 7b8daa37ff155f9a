package api

import (
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Bigbrotherx/foodgram/backend/internal/errs"
	"github.com/Bigbrotherx/foodgram/backend/internal/types"
)

const maxPageSize = 100

// window is the slice of a listing one request asks for
type window struct {
	Limit  int
	Offset int
	Page   int // 0 for limit/offset listings
}

// pageSize reads the "limit" parameter; invalid values fall back to the default
func pageSize(c *gin.Context, fallback int) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 {
		return fallback
	}
	if n > maxPageSize {
		return maxPageSize
	}
	return n
}

// pageWindow reads page-number parameters: page (1-based) and limit
func pageWindow(c *gin.Context, fallback int) (window, error) {
	size := pageSize(c, fallback)
	page := 1
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return window{}, errs.NotFound("page")
		}
		page = n
	}
	return window{Limit: size, Offset: (page - 1) * size, Page: page}, nil
}

// offsetWindow reads limit/offset parameters
func offsetWindow(c *gin.Context, fallback int) window {
	offset, err := strconv.Atoi(c.Query("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return window{Limit: pageSize(c, fallback), Offset: offset}
}

// newPage wraps results in the list envelope with next and previous links
func newPage[T any](c *gin.Context, w window, count int64, results []T) (types.Page[T], error) {
	if w.Page > 1 && int64(w.Offset) >= count {
		return types.Page[T]{}, errs.NotFound("page")
	}
	p := types.Page[T]{Count: count, Results: results}
	if p.Results == nil {
		p.Results = []T{}
	}

	hasNext := int64(w.Offset+w.Limit) < count
	if w.Page > 0 {
		if hasNext {
			p.Next = linkTo(c, map[string]string{"page": strconv.Itoa(w.Page + 1)})
		}
		switch {
		case w.Page == 2:
			p.Previous = linkTo(c, nil, "page")
		case w.Page > 2:
			p.Previous = linkTo(c, map[string]string{"page": strconv.Itoa(w.Page - 1)})
		}
		return p, nil
	}

	limit := strconv.Itoa(w.Limit)
	if hasNext {
		p.Next = linkTo(c, map[string]string{"limit": limit, "offset": strconv.Itoa(w.Offset + w.Limit)})
	}
	if w.Offset > 0 {
		if prev := w.Offset - w.Limit; prev > 0 {
			p.Previous = linkTo(c, map[string]string{"limit": limit, "offset": strconv.Itoa(prev)})
		} else {
			p.Previous = linkTo(c, map[string]string{"limit": limit}, "offset")
		}
	}
	return p, nil
}

// linkTo builds an absolute URL of the current request with query changes
func linkTo(c *gin.Context, set map[string]string, drop ...string) *string {
	q := c.Request.URL.Query()
	for k, v := range set {
		q.Set(k, v)
	}
	for _, k := range drop {
		q.Del(k)
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	u := url.URL{Scheme: scheme, Host: c.Request.Host, Path: c.Request.URL.Path, RawQuery: q.Encode()}
	link := u.String()
	return &link
}
