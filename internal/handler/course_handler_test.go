package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eduplatform-web/internal/domain"
	"eduplatform-web/internal/testutil"
)

func TestCourseHandler_List(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, domain.RoleStudent)

	goCourse := testutil.NewTestCourse(testutil.WithTitle("Go in depth"))
	h.api.CoursesFunc = func(_ context.Context, page, size int, f domain.CourseFilters) (domain.Page[domain.Course], error) {
		assert.Equal(t, 1, page)
		assert.Equal(t, 5, size)
		assert.Equal(t, domain.CourseLevelBeginner, f.Level)
		require.NotNil(t, f.MaxPrice)
		assert.Equal(t, 49.5, *f.MaxPrice)
		assert.Nil(t, f.MinPrice)
		return testutil.NewCoursePage(goCourse), nil
	}

	w := h.get(t, "/courses?page=1&size=5&level=BEGINNER&maxPrice=49.5&minPrice=cheap")

	got := testutil.DecodeData[domain.Page[domain.Course]](t, w, http.StatusOK)
	require.Len(t, got.Content, 1)
	assert.Equal(t, "Go in depth", got.Content[0].Title)
	assert.Zero(t, h.api.Calls("SearchCourses"))
}

func TestCourseHandler_ListDefaults(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, domain.RoleStudent)
	h.api.CoursesFunc = func(_ context.Context, page, size int, _ domain.CourseFilters) (domain.Page[domain.Course], error) {
		assert.Equal(t, 0, page)
		assert.Equal(t, 20, size)
		return testutil.NewCoursePage(), nil
	}

	testutil.DecodeEnvelope(t, h.get(t, "/courses?page=-3&size=abc"), http.StatusOK)
	assert.Equal(t, 1, h.api.Calls("Courses"))
}

func TestCourseHandler_ListIsCached(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, domain.RoleStudent)

	testutil.DecodeEnvelope(t, h.get(t, "/courses"), http.StatusOK)
	testutil.DecodeEnvelope(t, h.get(t, "/courses"), http.StatusOK)

	assert.Equal(t, 1, h.api.Calls("Courses"))
}

func TestCourseHandler_Search(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, domain.RoleStudent)
	h.api.SearchCoursesFunc = func(_ context.Context, query string, _, _ int, _ domain.CourseFilters) (domain.Page[domain.Course], error) {
		assert.Equal(t, "golang", query)
		return testutil.NewCoursePage(testutil.NewTestCourse()), nil
	}

	got := testutil.DecodeData[domain.Page[domain.Course]](t, h.get(t, "/courses?q=+golang+"), http.StatusOK)
	assert.Len(t, got.Content, 1)
	assert.Zero(t, h.api.Calls("Courses"))
}

func TestCourseHandler_Detail(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, domain.RoleStudent)
	h.api.CourseBySlugFunc = func(_ context.Context, slug string) (domain.Course, error) {
		if slug != "go-basics" {
			return domain.Course{}, &domain.APIError{Status: http.StatusNotFound, Message: "Course not found"}
		}
		return testutil.NewTestCourse(testutil.WithSlug(slug)), nil
	}

	got := testutil.DecodeData[domain.Course](t, h.get(t, "/courses/go-basics"), http.StatusOK)
	assert.Equal(t, "go-basics", got.Slug)

	env := testutil.DecodeEnvelope(t, h.get(t, "/courses/missing"), http.StatusNotFound)
	assert.Equal(t, "Course not found", env.Message)
	assert.Equal(t, 2, h.api.Calls("CourseBySlug"), "a 404 is not retried")
}

func TestCourseHandler_UpstreamUnreachable(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, domain.RoleStudent)
	h.api.CoursesFunc = func(context.Context, int, int, domain.CourseFilters) (domain.Page[domain.Course], error) {
		return domain.Page[domain.Course]{}, &domain.APIError{Err: errors.New("connection refused")}
	}

	env := testutil.DecodeEnvelope(t, h.get(t, "/courses"), http.StatusBadGateway)
	assert.False(t, env.Success)
	assert.Equal(t, 4, h.api.Calls("Courses"), "one attempt and three retries")
}

func TestCourseHandler_Create(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, domain.RoleInstructor)
	h.api.CreateCourseFunc = func(_ context.Context, req domain.CourseRequest) (domain.Course, error) {
		return testutil.NewTestCourse(testutil.WithTitle(req.Title)), nil
	}

	w := h.do(t, http.MethodPost, "/api/courses", map[string]any{"title": "Go in depth", "level": "ADVANCED", "price": 19.99})

	got := testutil.DecodeData[domain.Course](t, w, http.StatusCreated)
	assert.Equal(t, "Go in depth", got.Title)
}

func TestCourseHandler_CreateValidation(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, domain.RoleAdmin)

	w := h.do(t, http.MethodPost, "/api/courses", map[string]any{"price": -1})

	env := testutil.DecodeEnvelope(t, w, http.StatusBadRequest)
	assert.Contains(t, env.Errors, "title")
	assert.Contains(t, env.Errors, "level")
	assert.Contains(t, env.Errors, "price")
	assert.Zero(t, h.api.Calls("CreateCourse"))
}

func TestCourseHandler_UpdatePublishDelete(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, domain.RoleInstructor)
	h.api.UpdateCourseFunc = func(_ context.Context, id string, req domain.CourseRequest) (domain.Course, error) {
		assert.Equal(t, "c1", id)
		return testutil.NewTestCourse(testutil.WithCourseID(id), testutil.WithTitle(req.Title)), nil
	}
	h.api.PublishCourseFunc = func(_ context.Context, id string) (domain.Course, error) {
		return testutil.NewTestCourse(testutil.WithCourseID(id), testutil.WithCourseStatus(domain.CourseStatusPublished)), nil
	}

	updated := testutil.DecodeData[domain.Course](t, h.do(t, http.MethodPut, "/api/courses/c1", map[string]any{"title": "Go, revised"}), http.StatusOK)
	assert.Equal(t, "Go, revised", updated.Title)

	published := testutil.DecodeData[domain.Course](t, h.do(t, http.MethodPost, "/api/courses/c1/publish", nil), http.StatusOK)
	assert.Equal(t, domain.CourseStatusPublished, published.Status)

	env := testutil.DecodeEnvelope(t, h.do(t, http.MethodDelete, "/api/courses/c1", nil), http.StatusOK)
	assert.Equal(t, "Course deleted successfully", env.Message)
	assert.Equal(t, 1, h.api.Calls("DeleteCourse"))
}

func TestCourseHandler_Stats(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, domain.RoleInstructor)
	h.api.CourseStatsFunc = func(_ context.Context, id string) (domain.CourseStats, error) {
		assert.Equal(t, "c1", id)
		return domain.CourseStats{TotalEnrollments: 12, TotalRevenue: 240}, nil
	}

	got := testutil.DecodeData[domain.CourseStats](t, h.get(t, "/api/courses/c1/stats"), http.StatusOK)
	assert.Equal(t, 12, got.TotalEnrollments)
	assert.Equal(t, 240.0, got.TotalRevenue)
}
