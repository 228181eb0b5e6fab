// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// PageSize is the number of rows shown in paged lists.
const PageSize = 50

// LimitPlusOne returns PageSize+1 as int64 for look-ahead pagination
// (fetch one extra document to detect a next page).
func LimitPlusOne() int64 { return int64(PageSize + 1) }

// ParseStart extracts the 1-based "start" query parameter.
// Returns 1 if not present or invalid.
func ParseStart(r *http.Request) int {
	s := query.Get(r, "start")
	if s == "" {
		return 1
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Skip converts a 1-based start into a Mongo skip value.
func Skip(start int) int64 {
	if start < 1 {
		return 0
	}
	return int64(start - 1)
}

// Page describes the window shown after trimming a look-ahead fetch.
type Page struct {
	Start     int // 1-based index of the first row (0 if none)
	End       int // 1-based index of the last row (0 if none)
	HasPrev   bool
	HasNext   bool
	PrevStart int
	NextStart int
}

// Trim cuts a PageSize+1 fetch down to PageSize and describes the page.
func Trim[T any](rows *[]T, start int) Page {
	if start < 1 {
		start = 1
	}
	hasNext := len(*rows) > PageSize
	if hasNext {
		*rows = (*rows)[:PageSize]
	}
	shown := len(*rows)

	prev := start - PageSize
	if prev < 1 {
		prev = 1
	}
	p := Page{
		HasPrev:   start > 1,
		HasNext:   hasNext,
		PrevStart: prev,
		NextStart: start + shown,
	}
	if shown > 0 {
		p.Start = start
		p.End = start + shown - 1
	}
	return p
}

// Link returns base with q's values and start set, for pager anchors.
func Link(base string, q url.Values, start int) string {
	v := url.Values{}
	for k, vals := range q {
		if k == "start" {
			continue
		}
		for _, s := range vals {
			if s != "" {
				v.Add(k, s)
			}
		}
	}
	if start > 1 {
		v.Set("start", strconv.Itoa(start))
	}
	if len(v) == 0 {
		return base
	}
	return base + "?" + v.Encode()
}
