package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"eduplatform-web/internal/domain"
)

// Counter for generating unique IDs
var idCounter atomic.Int64

// nextID generates a unique ID for test fixtures
func nextID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, idCounter.Add(1))
}

// NewTestUser creates a test user with sensible defaults.
// Pass options to override specific fields.
func NewTestUser(opts ...func(*domain.User)) domain.User {
	id := nextID("user")
	created := time.Now().UTC().Truncate(time.Second)
	u := domain.User{
		ID:            id,
		Email:         id + "@example.com",
		FirstName:     "Test",
		LastName:      "User",
		Role:          domain.RoleStudent,
		Status:        domain.UserStatusActive,
		EmailVerified: true,
		CreatedAt:     &created,
	}

	for _, opt := range opts {
		opt(&u)
	}
	return u
}

// User option functions

// WithUserID sets the user ID
func WithUserID(id string) func(*domain.User) {
	return func(u *domain.User) {
		u.ID = id
	}
}

// WithRole sets the role
func WithRole(role domain.Role) func(*domain.User) {
	return func(u *domain.User) {
		u.Role = role
	}
}

// WithEmail sets the email
func WithEmail(email string) func(*domain.User) {
	return func(u *domain.User) {
		u.Email = email
	}
}

// WithName sets the first and last name
func WithName(first, last string) func(*domain.User) {
	return func(u *domain.User) {
		u.FirstName = first
		u.LastName = last
	}
}

// NewLoginResponse creates a login reply for user with a one hour token
func NewLoginResponse(user domain.User) domain.LoginResponse {
	return domain.LoginResponse{
		AccessToken:  nextID("access"),
		RefreshToken: nextID("refresh"),
		ExpiresIn:    3600,
		User:         &user,
	}
}

// NewTestCourse creates a published test course with sensible defaults
func NewTestCourse(opts ...func(*domain.Course)) domain.Course {
	id := nextID("course")
	price := 49.99
	c := domain.Course{
		ID:       id,
		Title:    "Course " + id,
		Slug:     strings.ToLower(id),
		Level:    domain.CourseLevelBeginner,
		Status:   domain.CourseStatusPublished,
		Price:    &price,
		Currency: "USD",
	}

	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Course option functions

// WithCourseID sets the course ID
func WithCourseID(id string) func(*domain.Course) {
	return func(c *domain.Course) {
		c.ID = id
	}
}

// WithSlug sets the slug
func WithSlug(slug string) func(*domain.Course) {
	return func(c *domain.Course) {
		c.Slug = slug
	}
}

// WithTitle sets the title
func WithTitle(title string) func(*domain.Course) {
	return func(c *domain.Course) {
		c.Title = title
	}
}

// WithCourseStatus sets the publication status
func WithCourseStatus(status domain.CourseStatus) func(*domain.Course) {
	return func(c *domain.Course) {
		c.Status = status
	}
}

// NewCoursePage wraps courses in a single page listing
func NewCoursePage(courses ...domain.Course) domain.Page[domain.Course] {
	p := domain.Page[domain.Course]{
		Content:          courses,
		TotalElements:    int64(len(courses)),
		TotalPages:       1,
		First:            true,
		Last:             true,
		NumberOfElements: len(courses),
		Empty:            len(courses) == 0,
	}
	p.Pageable.PageSize = len(courses)
	return p
}
