package service

import (
	"context"
	"fmt"
	"strings"

	"eduplatform-web/internal/domain"
	"eduplatform-web/internal/notify"
	"eduplatform-web/internal/querycache"
)

// DefaultPageSize is the listing page size when the caller does not pick one
const DefaultPageSize = 20

// CourseAPI is the part of the REST client the course views use
type CourseAPI interface {
	Courses(ctx context.Context, page, size int, filters domain.CourseFilters) (domain.Page[domain.Course], error)
	SearchCourses(ctx context.Context, query string, page, size int, filters domain.CourseFilters) (domain.Page[domain.Course], error)
	CourseBySlug(ctx context.Context, slug string) (domain.Course, error)
	CreateCourse(ctx context.Context, req domain.CourseRequest) (domain.Course, error)
	UpdateCourse(ctx context.Context, id string, req domain.CourseRequest) (domain.Course, error)
	PublishCourse(ctx context.Context, id string) (domain.Course, error)
	DeleteCourse(ctx context.Context, id string) error
	CourseStats(ctx context.Context, id string) (domain.CourseStats, error)
}

type CourseService struct {
	api   CourseAPI
	cache *querycache.Gateway
}

func NewCourseService(api CourseAPI, cache *querycache.Gateway) *CourseService {
	return &CourseService{api: api, cache: cache}
}

// listParams is the key segment of a listing: paging plus the filters that are set
func listParams(page, size int, f domain.CourseFilters) querycache.Params {
	p := querycache.Params{"page": page, "size": size}
	if f.Level != "" {
		p["level"] = f.Level
	}
	if f.CategoryID != "" {
		p["categoryId"] = f.CategoryID
	}
	if f.MinPrice != nil {
		p["minPrice"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		p["maxPrice"] = *f.MaxPrice
	}
	return p
}

func normalizePage(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	return page, size
}

// Courses returns a page of published courses
func (s *CourseService) Courses(ctx context.Context, page, size int, filters domain.CourseFilters) querycache.Result[domain.Page[domain.Course]] {
	page, size = normalizePage(page, size)
	key, fetch := s.listQuery(page, size, filters)
	return querycache.Query(ctx, s.cache, key, fetch, querycache.QueryOptions{})
}

func (s *CourseService) listQuery(page, size int, filters domain.CourseFilters) (querycache.Key, func(context.Context) (domain.Page[domain.Course], error)) {
	return querycache.Keys.Courses.List(listParams(page, size, filters)),
		func(ctx context.Context) (domain.Page[domain.Course], error) {
			return s.api.Courses(ctx, page, size, filters)
		}
}

// CourseList follows one page of the catalogue. While another page loads
// the previous one stays visible, flagged as a placeholder.
type CourseList struct {
	svc *CourseService
	obs *querycache.Observer[domain.Page[domain.Course]]
}

func (s *CourseService) NewCourseList(ctx context.Context) *CourseList {
	return &CourseList{
		svc: s,
		obs: querycache.Observe[domain.Page[domain.Course]](ctx, s.cache, querycache.QueryOptions{KeepPreviousData: true}),
	}
}

// Show switches the list to page with filters and starts loading it
func (l *CourseList) Show(page, size int, filters domain.CourseFilters) {
	page, size = normalizePage(page, size)
	key, fetch := l.svc.listQuery(page, size, filters)
	l.obs.SetKey(key, fetch)
}

func (l *CourseList) Current() querycache.Result[domain.Page[domain.Course]] { return l.obs.Current() }

func (l *CourseList) Wait(ctx context.Context) querycache.Result[domain.Page[domain.Course]] {
	return l.obs.Wait(ctx)
}

func (l *CourseList) Close() { l.obs.Close() }

// Course returns one course by slug. An empty slug leaves the query idle.
func (s *CourseService) Course(ctx context.Context, slug string) querycache.Result[domain.Course] {
	return querycache.Query(ctx, s.cache, querycache.Keys.Courses.Detail(slug),
		func(ctx context.Context) (domain.Course, error) {
			return s.api.CourseBySlug(ctx, slug)
		},
		querycache.QueryOptions{Enabled: func() bool { return slug != "" }})
}

// Search runs a full-text search. An empty query leaves it idle.
func (s *CourseService) Search(ctx context.Context, query string, page, size int, filters domain.CourseFilters) querycache.Result[domain.Page[domain.Course]] {
	query = strings.TrimSpace(query)
	page, size = normalizePage(page, size)
	return querycache.Query(ctx, s.cache, querycache.Keys.Courses.Search(query, listParams(page, size, filters)),
		func(ctx context.Context) (domain.Page[domain.Course], error) {
			return s.api.SearchCourses(ctx, query, page, size, filters)
		},
		querycache.QueryOptions{Enabled: func() bool { return query != "" }})
}

// Stats returns the enrollment statistics of a course
func (s *CourseService) Stats(ctx context.Context, courseID string) querycache.Result[domain.CourseStats] {
	return querycache.Query(ctx, s.cache, querycache.Keys.Courses.Stats(courseID),
		func(ctx context.Context) (domain.CourseStats, error) {
			return s.api.CourseStats(ctx, courseID)
		},
		querycache.QueryOptions{Enabled: func() bool { return courseID != "" }})
}

func (s *CourseService) Create(ctx context.Context, req domain.CourseRequest) (domain.Course, error) {
	if err := ValidateCourse(req, true); err != nil {
		return domain.Course{}, err
	}
	return querycache.Mutate(ctx, s.cache, func(ctx context.Context) (domain.Course, error) {
		return s.api.CreateCourse(ctx, req)
	}, querycache.MutationOptions[domain.Course]{
		ErrorTitle: "Failed to create course",
		OnSuccess: func(ctx context.Context, _ domain.Course) {
			s.cache.Invalidate(ctx, querycache.Keys.Courses.All())
		},
		Success: func(c domain.Course) notify.Notification {
			return notify.Success("Course created successfully!", fmt.Sprintf("%s has been created.", c.Title))
		},
	})
}

// Update saves changes to a course. The course's detail entry and every
// listing are invalidated.
func (s *CourseService) Update(ctx context.Context, courseID string, req domain.CourseRequest) (domain.Course, error) {
	if err := ValidateCourse(req, false); err != nil {
		return domain.Course{}, err
	}
	return querycache.Mutate(ctx, s.cache, func(ctx context.Context) (domain.Course, error) {
		return s.api.UpdateCourse(ctx, courseID, req)
	}, querycache.MutationOptions[domain.Course]{
		ErrorTitle: "Failed to update course",
		OnSuccess:  s.invalidateCourse,
		Success:    toast[domain.Course]("Course updated successfully!", ""),
	})
}

func (s *CourseService) Publish(ctx context.Context, courseID string) (domain.Course, error) {
	return querycache.Mutate(ctx, s.cache, func(ctx context.Context) (domain.Course, error) {
		return s.api.PublishCourse(ctx, courseID)
	}, querycache.MutationOptions[domain.Course]{
		ErrorTitle: "Failed to publish course",
		OnSuccess:  s.invalidateCourse,
		Success:    toast[domain.Course]("Course published successfully!", "Your course is now visible to students."),
	})
}

func (s *CourseService) Delete(ctx context.Context, courseID string) error {
	_, err := querycache.Mutate(ctx, s.cache, exec(func(ctx context.Context) error {
		return s.api.DeleteCourse(ctx, courseID)
	}), querycache.MutationOptions[struct{}]{
		ErrorTitle: "Failed to delete course",
		OnSuccess: func(ctx context.Context, _ struct{}) {
			s.cache.Invalidate(ctx, querycache.Keys.Courses.All())
		},
		Success: toast[struct{}]("Course deleted successfully", ""),
	})
	return err
}

func (s *CourseService) invalidateCourse(ctx context.Context, c domain.Course) {
	if c.Slug != "" {
		s.cache.InvalidateExact(ctx, querycache.Keys.Courses.Detail(c.Slug))
	}
	s.cache.Invalidate(ctx, querycache.Keys.Courses.All())
}
