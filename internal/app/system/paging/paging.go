// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// DefaultLimit is the page size when the request does not name one.
const DefaultLimit = 50

// MaxLimit caps the page size a client may ask for.
const MaxLimit = 200

// Page is an offset window over a newest-first listing.
type Page struct {
	Limit  int64 `json:"limit"`
	Offset int64 `json:"offset"`
}

func parseInt(r *http.Request, key string, def int64) int64 {
	s := query.Get(r, key)
	if s == "" {
		return def
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return def
	}
	return n
}

// Parse reads ?limit= and ?offset=. Missing or invalid values fall back to
// the defaults; limit is clamped to [1, MaxLimit] and offset to >= 0.
func Parse(r *http.Request) Page {
	p := Page{
		Limit:  parseInt(r, "limit", DefaultLimit),
		Offset: parseInt(r, "offset", 0),
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Meta describes a returned page alongside the total row count.
type Meta struct {
	Limit   int64 `json:"limit"`
	Offset  int64 `json:"offset"`
	Total   int64 `json:"total"`
	HasNext bool  `json:"hasNext"`
	HasPrev bool  `json:"hasPrev"`
}

// Meta computes paging indicators for a page that returned shown rows.
func (p Page) Meta(shown int, total int64) Meta {
	return Meta{
		Limit:   p.Limit,
		Offset:  p.Offset,
		Total:   total,
		HasNext: p.Offset+int64(shown) < total,
		HasPrev: p.Offset > 0,
	}
}
