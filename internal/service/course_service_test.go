package service

import (
	"context"
	"net/http"
	"testing"

	"eduplatform-web/internal/domain"
	"eduplatform-web/internal/querycache"
	"eduplatform-web/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourseService_CourseIsCached(t *testing.T) {
	h := newHarness(t)
	course := testutil.NewTestCourse(testutil.WithSlug("intro-to-go"))
	h.api.CourseBySlugFunc = func(_ context.Context, slug string) (domain.Course, error) {
		assert.Equal(t, "intro-to-go", slug)
		return course, nil
	}
	svc := NewCourseService(h.api, h.cache)

	for i := 0; i < 3; i++ {
		r := svc.Course(context.Background(), "intro-to-go")
		require.Equal(t, querycache.StatusSuccess, r.Status)
		assert.Equal(t, course.ID, r.Data.ID)
	}
	assert.Equal(t, 1, h.api.Calls("CourseBySlug"))
}

func TestCourseService_DisabledQueries(t *testing.T) {
	h := newHarness(t)
	svc := NewCourseService(h.api, h.cache)

	assert.Equal(t, querycache.StatusIdle, svc.Course(context.Background(), "").Status)
	assert.Equal(t, querycache.StatusIdle, svc.Search(context.Background(), "   ", 0, 20, domain.CourseFilters{}).Status)
	assert.Equal(t, querycache.StatusIdle, svc.Stats(context.Background(), "").Status)
	assert.Zero(t, h.api.Calls("CourseBySlug"))
	assert.Zero(t, h.api.Calls("SearchCourses"))
	assert.Zero(t, h.api.Calls("CourseStats"))
}

func TestCourseService_FiltersAreStructuralKeys(t *testing.T) {
	h := newHarness(t)
	h.api.CoursesFunc = func(_ context.Context, page, size int, _ domain.CourseFilters) (domain.Page[domain.Course], error) {
		return testutil.NewCoursePage(testutil.NewTestCourse()), nil
	}
	svc := NewCourseService(h.api, h.cache)

	maxA, maxB := 50.0, 50.0
	svc.Courses(context.Background(), 0, 20, domain.CourseFilters{Level: domain.CourseLevelBeginner, MaxPrice: &maxA})
	svc.Courses(context.Background(), 0, 20, domain.CourseFilters{Level: domain.CourseLevelBeginner, MaxPrice: &maxB})
	assert.Equal(t, 1, h.api.Calls("Courses"))

	svc.Courses(context.Background(), 1, 20, domain.CourseFilters{Level: domain.CourseLevelBeginner, MaxPrice: &maxA})
	assert.Equal(t, 2, h.api.Calls("Courses"))

	// Page size 0 means the default size
	svc.Courses(context.Background(), 0, 0, domain.CourseFilters{})
	svc.Courses(context.Background(), 0, DefaultPageSize, domain.CourseFilters{})
	assert.Equal(t, 3, h.api.Calls("Courses"))
}

func TestCourseService_UpdateInvalidatesDetailAndLists(t *testing.T) {
	h := newHarness(t)
	course := testutil.NewTestCourse(testutil.WithCourseID("c1"), testutil.WithSlug("intro-to-go"))
	h.api.CourseBySlugFunc = func(context.Context, string) (domain.Course, error) { return course, nil }
	h.api.CoursesFunc = func(context.Context, int, int, domain.CourseFilters) (domain.Page[domain.Course], error) {
		return testutil.NewCoursePage(course), nil
	}
	h.api.UpdateCourseFunc = func(_ context.Context, id string, req domain.CourseRequest) (domain.Course, error) {
		assert.Equal(t, "c1", id)
		updated := course
		updated.Title = req.Title
		return updated, nil
	}
	svc := NewCourseService(h.api, h.cache)
	ctx := context.Background()

	svc.Course(ctx, "intro-to-go")
	svc.Courses(ctx, 0, 20, domain.CourseFilters{})
	svc.Courses(ctx, 1, 20, domain.CourseFilters{})
	require.Equal(t, 1, h.api.Calls("CourseBySlug"))
	require.Equal(t, 2, h.api.Calls("Courses"))

	_, err := svc.Update(ctx, "c1", domain.CourseRequest{Title: "Intro to Go, 2nd edition"})
	require.NoError(t, err)
	assert.Contains(t, h.titles(), "Course updated successfully!")

	svc.Course(ctx, "intro-to-go")
	svc.Courses(ctx, 0, 20, domain.CourseFilters{})
	svc.Courses(ctx, 1, 20, domain.CourseFilters{})
	assert.Equal(t, 2, h.api.Calls("CourseBySlug"))
	assert.Equal(t, 4, h.api.Calls("Courses"))
}

func TestCourseService_Create(t *testing.T) {
	h := newHarness(t)
	h.api.CreateCourseFunc = func(_ context.Context, req domain.CourseRequest) (domain.Course, error) {
		return testutil.NewTestCourse(testutil.WithTitle(req.Title), testutil.WithCourseStatus(domain.CourseStatusDraft)), nil
	}
	svc := NewCourseService(h.api, h.cache)

	_, err := svc.Create(context.Background(), domain.CourseRequest{Title: "Go"})
	assert.True(t, IsValidation(err))
	assert.Zero(t, h.api.Calls("CreateCourse"))

	c, err := svc.Create(context.Background(), domain.CourseRequest{Title: "Concurrency in Go", Level: domain.CourseLevelAdvanced})
	require.NoError(t, err)
	assert.Equal(t, domain.CourseStatusDraft, c.Status)

	n := h.toasts.Notifications()
	require.Len(t, n, 1)
	assert.Equal(t, "Course created successfully!", n[0].Title)
	assert.Equal(t, "Concurrency in Go has been created.", n[0].Description)
}

func TestCourseService_MutationErrorsAreNotRetried(t *testing.T) {
	h := newHarness(t)
	h.api.PublishCourseFunc = func(context.Context, string) (domain.Course, error) {
		return domain.Course{}, &domain.APIError{Status: http.StatusServiceUnavailable}
	}
	svc := NewCourseService(h.api, h.cache)

	_, err := svc.Publish(context.Background(), "c1")
	require.Error(t, err)
	assert.Equal(t, 1, h.api.Calls("PublishCourse"))
	assert.Equal(t, []string{"Failed to publish course"}, h.titles())
}

func TestCourseService_QueriesRetryTransientErrors(t *testing.T) {
	h := newHarness(t)
	h.api.CourseStatsFunc = func(context.Context, string) (domain.CourseStats, error) {
		if h.api.Calls("CourseStats") < 3 {
			return domain.CourseStats{}, &domain.APIError{Status: http.StatusInternalServerError}
		}
		return domain.CourseStats{TotalEnrollments: 42}, nil
	}
	svc := NewCourseService(h.api, h.cache)

	r := svc.Stats(context.Background(), "c1")
	require.Equal(t, querycache.StatusSuccess, r.Status)
	assert.Equal(t, 42, r.Data.TotalEnrollments)
	assert.Equal(t, 3, h.api.Calls("CourseStats"))
	assert.Zero(t, h.toasts.Len())
}

func TestCourseService_Delete(t *testing.T) {
	h := newHarness(t)
	h.api.CoursesFunc = func(context.Context, int, int, domain.CourseFilters) (domain.Page[domain.Course], error) {
		return testutil.NewCoursePage(), nil
	}
	svc := NewCourseService(h.api, h.cache)

	svc.Courses(context.Background(), 0, 20, domain.CourseFilters{})
	require.NoError(t, svc.Delete(context.Background(), "c1"))
	svc.Courses(context.Background(), 0, 20, domain.CourseFilters{})

	assert.Equal(t, 2, h.api.Calls("Courses"))
	assert.Equal(t, []string{"Course deleted successfully"}, h.titles())
}

func TestCourseList_KeepsPreviousPage(t *testing.T) {
	h := newHarness(t)
	release := make(chan struct{})
	h.api.CoursesFunc = func(_ context.Context, page, _ int, _ domain.CourseFilters) (domain.Page[domain.Course], error) {
		if page == 1 {
			<-release
		}
		return testutil.NewCoursePage(testutil.NewTestCourse(testutil.WithTitle([]string{"first", "second"}[page]))), nil
	}
	svc := NewCourseService(h.api, h.cache)
	list := svc.NewCourseList(context.Background())
	defer list.Close()

	list.Show(0, 20, domain.CourseFilters{})
	r := list.Wait(context.Background())
	require.Equal(t, querycache.StatusSuccess, r.Status)
	assert.Equal(t, "first", r.Data.Content[0].Title)

	list.Show(1, 20, domain.CourseFilters{})
	r = list.Current()
	assert.True(t, r.IsPlaceholder)
	assert.Equal(t, "first", r.Data.Content[0].Title)

	close(release)
	r = list.Wait(context.Background())
	assert.False(t, r.IsPlaceholder)
	assert.Equal(t, "second", r.Data.Content[0].Title)
}
