// Package handler serves the web shell: JSON page models for the UI routes
// and the /api endpoints behind the forms.
package handler

import (
	"net/http"
	"strconv"

	"eduplatform-web/internal/domain"
	"eduplatform-web/internal/httputil"
	"eduplatform-web/internal/querycache"
	"eduplatform-web/internal/service"
)

// Session is the part of the session store the handlers read
type Session interface {
	Snapshot() domain.SessionState
	User() *domain.User
}

// writeResult answers with the data of a query result. Stale data survives
// a failed refetch and is still served.
func writeResult[T any](w http.ResponseWriter, r *http.Request, res querycache.Result[T]) {
	switch {
	case res.Status == querycache.StatusIdle:
		httputil.Error(w, http.StatusNotFound, "Not found")
	case res.Err != nil && !res.HasData:
		httputil.Fail(w, r, res.Err)
	case res.Err != nil:
		httputil.OK(w, http.StatusOK, res.Data, "Showing cached data")
	default:
		httputil.OK(w, http.StatusOK, res.Data, "")
	}
}

// pageParams reads ?page=&size=. Missing or invalid values fall back to the
// first page of DefaultPageSize.
func pageParams(r *http.Request) (page, size int) {
	q := r.URL.Query()
	page, _ = strconv.Atoi(q.Get("page"))
	size, _ = strconv.Atoi(q.Get("size"))
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = service.DefaultPageSize
	}
	return page, size
}

func courseFilters(r *http.Request) domain.CourseFilters {
	q := r.URL.Query()
	f := domain.CourseFilters{
		Level:      domain.CourseLevel(q.Get("level")),
		CategoryID: q.Get("categoryId"),
	}
	if v, err := strconv.ParseFloat(q.Get("minPrice"), 64); err == nil {
		f.MinPrice = &v
	}
	if v, err := strconv.ParseFloat(q.Get("maxPrice"), 64); err == nil {
		f.MaxPrice = &v
	}
	return f
}
