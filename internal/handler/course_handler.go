package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"eduplatform-web/internal/domain"
	"eduplatform-web/internal/httputil"
	"eduplatform-web/internal/service"
)

// CourseHandler serves the course catalogue pages and the instructor's
// course management endpoints
type CourseHandler struct {
	courses *service.CourseService
}

func NewCourseHandler(courses *service.CourseService) *CourseHandler {
	return &CourseHandler{courses: courses}
}

// List handles GET /courses. With ?q= it searches instead of listing.
func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	page, size := pageParams(r)
	filters := courseFilters(r)

	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		writeResult(w, r, h.courses.Search(r.Context(), q, page, size, filters))
		return
	}
	writeResult(w, r, h.courses.Courses(r.Context(), page, size, filters))
}

// Detail handles GET /courses/{slug}
func (h *CourseHandler) Detail(w http.ResponseWriter, r *http.Request) {
	writeResult(w, r, h.courses.Course(r.Context(), chi.URLParam(r, "slug")))
}

// Stats handles GET /api/courses/{id}/stats
func (h *CourseHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeResult(w, r, h.courses.Stats(r.Context(), chi.URLParam(r, "id")))
}

// Create handles POST /api/courses
func (h *CourseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CourseRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Fail(w, r, err)
		return
	}
	course, err := h.courses.Create(r.Context(), req)
	if err != nil {
		httputil.Fail(w, r, err)
		return
	}
	httputil.OK(w, http.StatusCreated, course, "Course created successfully")
}

// Update handles PUT /api/courses/{id}
func (h *CourseHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.CourseRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Fail(w, r, err)
		return
	}
	course, err := h.courses.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		httputil.Fail(w, r, err)
		return
	}
	httputil.OK(w, http.StatusOK, course, "Course updated successfully")
}

// Publish handles POST /api/courses/{id}/publish
func (h *CourseHandler) Publish(w http.ResponseWriter, r *http.Request) {
	course, err := h.courses.Publish(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Fail(w, r, err)
		return
	}
	httputil.OK(w, http.StatusOK, course, "Course published successfully")
}

// Delete handles DELETE /api/courses/{id}
func (h *CourseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.courses.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.Fail(w, r, err)
		return
	}
	httputil.OK(w, http.StatusOK, nil, "Course deleted successfully")
}
