package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"eduplatform-web/internal/domain"
)

func filterQuery(q url.Values, f domain.CourseFilters) url.Values {
	if f.Level != "" {
		q.Set("level", string(f.Level))
	}
	if f.CategoryID != "" {
		q.Set("categoryId", f.CategoryID)
	}
	if f.MinPrice != nil {
		q.Set("minPrice", strconv.FormatFloat(*f.MinPrice, 'f', -1, 64))
	}
	if f.MaxPrice != nil {
		q.Set("maxPrice", strconv.FormatFloat(*f.MaxPrice, 'f', -1, 64))
	}
	return q
}

// Courses lists published courses
func (c *Client) Courses(ctx context.Context, page, size int, filters domain.CourseFilters) (domain.Page[domain.Course], error) {
	var out domain.Page[domain.Course]
	err := c.do(ctx, request{
		method: http.MethodGet, path: "/courses", route: "/courses",
		query: filterQuery(pageQuery(page, size), filters),
	}, &out)
	return out, err
}

// SearchCourses runs a full-text search over published courses
func (c *Client) SearchCourses(ctx context.Context, query string, page, size int, filters domain.CourseFilters) (domain.Page[domain.Course], error) {
	q := filterQuery(pageQuery(page, size), filters)
	q.Set("q", query)

	var out domain.Page[domain.Course]
	err := c.do(ctx, request{
		method: http.MethodGet, path: "/courses/search", route: "/courses/search", query: q,
	}, &out)
	return out, err
}

func (c *Client) CourseBySlug(ctx context.Context, slug string) (domain.Course, error) {
	var out domain.Course
	seg, err := pathID("slug", slug)
	if err != nil {
		return out, err
	}
	err = c.do(ctx, request{
		method: http.MethodGet, path: "/courses/slug/" + seg, route: "/courses/slug/{slug}",
	}, &out)
	return out, err
}

func (c *Client) CreateCourse(ctx context.Context, req domain.CourseRequest) (domain.Course, error) {
	var out domain.Course
	err := c.do(ctx, request{
		method: http.MethodPost, path: "/courses", route: "/courses", body: req,
	}, &out)
	return out, err
}

func (c *Client) UpdateCourse(ctx context.Context, id string, req domain.CourseRequest) (domain.Course, error) {
	var out domain.Course
	seg, err := pathID("course id", id)
	if err != nil {
		return out, err
	}
	err = c.do(ctx, request{
		method: http.MethodPut, path: "/courses/" + seg, route: "/courses/{id}", body: req,
	}, &out)
	return out, err
}

func (c *Client) PublishCourse(ctx context.Context, id string) (domain.Course, error) {
	var out domain.Course
	seg, err := pathID("course id", id)
	if err != nil {
		return out, err
	}
	err = c.do(ctx, request{
		method: http.MethodPost, path: "/courses/" + seg + "/publish", route: "/courses/{id}/publish",
	}, &out)
	return out, err
}

func (c *Client) DeleteCourse(ctx context.Context, id string) error {
	seg, err := pathID("course id", id)
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		method: http.MethodDelete, path: "/courses/" + seg, route: "/courses/{id}",
	}, nil)
}

func (c *Client) CourseStats(ctx context.Context, id string) (domain.CourseStats, error) {
	var out domain.CourseStats
	seg, err := pathID("course id", id)
	if err != nil {
		return out, err
	}
	err = c.do(ctx, request{
		method: http.MethodGet, path: "/courses/" + seg + "/stats", route: "/courses/{id}/stats",
	}, &out)
	return out, err
}
