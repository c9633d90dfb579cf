// Package testutil provides shared test utilities, mocks, and fixtures
// for testing the eduplatform web shell.
package testutil

import (
	"context"
	"errors"
	"sync"

	"eduplatform-web/internal/domain"
)

// Common test errors
var (
	ErrMockNotImplemented = errors.New("mock function not implemented")
	ErrMockNotFound       = errors.New("mock: not found")
)

// MockAPI implements the REST client interfaces used by the services.
// Unset functions succeed with zero values, except Login which has no
// sensible default.
type MockAPI struct {
	mu    sync.Mutex
	calls map[string]int

	// Function overrides - set these to customize behavior
	LoginFunc              func(ctx context.Context, creds domain.Credentials) (domain.LoginResponse, error)
	RegisterFunc           func(ctx context.Context, req domain.RegisterRequest) error
	LogoutFunc             func(ctx context.Context) error
	VerifyEmailFunc        func(ctx context.Context, token string) error
	ResendVerificationFunc func(ctx context.Context, email string) error
	ForgotPasswordFunc     func(ctx context.Context, email string) error
	ResetPasswordFunc      func(ctx context.Context, token, newPassword string) error
	ChangePasswordFunc     func(ctx context.Context, req domain.ChangePasswordRequest) error

	ProfileFunc          func(ctx context.Context) (domain.User, error)
	UpdateProfileFunc    func(ctx context.Context, req domain.UpdateProfileRequest) (domain.User, error)
	UserFunc             func(ctx context.Context, id string) (domain.User, error)
	UsersFunc            func(ctx context.Context, page, size int) (domain.Page[domain.User], error)
	SearchUsersFunc      func(ctx context.Context, term string, page, size int) (domain.Page[domain.User], error)
	UpdateUserStatusFunc func(ctx context.Context, id string, status domain.UserStatus) (domain.User, error)
	UserStatsFunc        func(ctx context.Context, id string) (domain.UserStats, error)
	DeleteUserFunc       func(ctx context.Context, id string) error

	CoursesFunc       func(ctx context.Context, page, size int, filters domain.CourseFilters) (domain.Page[domain.Course], error)
	SearchCoursesFunc func(ctx context.Context, query string, page, size int, filters domain.CourseFilters) (domain.Page[domain.Course], error)
	CourseBySlugFunc  func(ctx context.Context, slug string) (domain.Course, error)
	CreateCourseFunc  func(ctx context.Context, req domain.CourseRequest) (domain.Course, error)
	UpdateCourseFunc  func(ctx context.Context, id string, req domain.CourseRequest) (domain.Course, error)
	PublishCourseFunc func(ctx context.Context, id string) (domain.Course, error)
	DeleteCourseFunc  func(ctx context.Context, id string) error
	CourseStatsFunc   func(ctx context.Context, id string) (domain.CourseStats, error)
}

// NewMockAPI creates a MockAPI with no overrides
func NewMockAPI() *MockAPI {
	return &MockAPI{calls: make(map[string]int)}
}

func (m *MockAPI) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[method]++
}

// Calls returns how many times method was called
func (m *MockAPI) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// Reset clears all recorded calls
func (m *MockAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = make(map[string]int)
}

func (m *MockAPI) Login(ctx context.Context, creds domain.Credentials) (domain.LoginResponse, error) {
	m.record("Login")
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, creds)
	}
	return domain.LoginResponse{}, ErrMockNotImplemented
}

func (m *MockAPI) Register(ctx context.Context, req domain.RegisterRequest) error {
	m.record("Register")
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, req)
	}
	return nil
}

func (m *MockAPI) Logout(ctx context.Context) error {
	m.record("Logout")
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx)
	}
	return nil
}

func (m *MockAPI) VerifyEmail(ctx context.Context, token string) error {
	m.record("VerifyEmail")
	if m.VerifyEmailFunc != nil {
		return m.VerifyEmailFunc(ctx, token)
	}
	return nil
}

func (m *MockAPI) ResendVerification(ctx context.Context, email string) error {
	m.record("ResendVerification")
	if m.ResendVerificationFunc != nil {
		return m.ResendVerificationFunc(ctx, email)
	}
	return nil
}

func (m *MockAPI) ForgotPassword(ctx context.Context, email string) error {
	m.record("ForgotPassword")
	if m.ForgotPasswordFunc != nil {
		return m.ForgotPasswordFunc(ctx, email)
	}
	return nil
}

func (m *MockAPI) ResetPassword(ctx context.Context, token, newPassword string) error {
	m.record("ResetPassword")
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, token, newPassword)
	}
	return nil
}

func (m *MockAPI) ChangePassword(ctx context.Context, req domain.ChangePasswordRequest) error {
	m.record("ChangePassword")
	if m.ChangePasswordFunc != nil {
		return m.ChangePasswordFunc(ctx, req)
	}
	return nil
}

func (m *MockAPI) Profile(ctx context.Context) (domain.User, error) {
	m.record("Profile")
	if m.ProfileFunc != nil {
		return m.ProfileFunc(ctx)
	}
	return domain.User{}, nil
}

func (m *MockAPI) UpdateProfile(ctx context.Context, req domain.UpdateProfileRequest) (domain.User, error) {
	m.record("UpdateProfile")
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, req)
	}
	return domain.User{}, nil
}

func (m *MockAPI) User(ctx context.Context, id string) (domain.User, error) {
	m.record("User")
	if m.UserFunc != nil {
		return m.UserFunc(ctx, id)
	}
	return domain.User{}, ErrMockNotFound
}

func (m *MockAPI) Users(ctx context.Context, page, size int) (domain.Page[domain.User], error) {
	m.record("Users")
	if m.UsersFunc != nil {
		return m.UsersFunc(ctx, page, size)
	}
	return domain.Page[domain.User]{}, nil
}

func (m *MockAPI) SearchUsers(ctx context.Context, term string, page, size int) (domain.Page[domain.User], error) {
	m.record("SearchUsers")
	if m.SearchUsersFunc != nil {
		return m.SearchUsersFunc(ctx, term, page, size)
	}
	return domain.Page[domain.User]{}, nil
}

func (m *MockAPI) UpdateUserStatus(ctx context.Context, id string, status domain.UserStatus) (domain.User, error) {
	m.record("UpdateUserStatus")
	if m.UpdateUserStatusFunc != nil {
		return m.UpdateUserStatusFunc(ctx, id, status)
	}
	return domain.User{ID: id, Status: status}, nil
}

func (m *MockAPI) UserStats(ctx context.Context, id string) (domain.UserStats, error) {
	m.record("UserStats")
	if m.UserStatsFunc != nil {
		return m.UserStatsFunc(ctx, id)
	}
	return domain.UserStats{}, nil
}

func (m *MockAPI) DeleteUser(ctx context.Context, id string) error {
	m.record("DeleteUser")
	if m.DeleteUserFunc != nil {
		return m.DeleteUserFunc(ctx, id)
	}
	return nil
}

func (m *MockAPI) Courses(ctx context.Context, page, size int, filters domain.CourseFilters) (domain.Page[domain.Course], error) {
	m.record("Courses")
	if m.CoursesFunc != nil {
		return m.CoursesFunc(ctx, page, size, filters)
	}
	return domain.Page[domain.Course]{}, nil
}

func (m *MockAPI) SearchCourses(ctx context.Context, query string, page, size int, filters domain.CourseFilters) (domain.Page[domain.Course], error) {
	m.record("SearchCourses")
	if m.SearchCoursesFunc != nil {
		return m.SearchCoursesFunc(ctx, query, page, size, filters)
	}
	return domain.Page[domain.Course]{}, nil
}

func (m *MockAPI) CourseBySlug(ctx context.Context, slug string) (domain.Course, error) {
	m.record("CourseBySlug")
	if m.CourseBySlugFunc != nil {
		return m.CourseBySlugFunc(ctx, slug)
	}
	return domain.Course{}, ErrMockNotFound
}

func (m *MockAPI) CreateCourse(ctx context.Context, req domain.CourseRequest) (domain.Course, error) {
	m.record("CreateCourse")
	if m.CreateCourseFunc != nil {
		return m.CreateCourseFunc(ctx, req)
	}
	return domain.Course{}, ErrMockNotImplemented
}

func (m *MockAPI) UpdateCourse(ctx context.Context, id string, req domain.CourseRequest) (domain.Course, error) {
	m.record("UpdateCourse")
	if m.UpdateCourseFunc != nil {
		return m.UpdateCourseFunc(ctx, id, req)
	}
	return domain.Course{}, ErrMockNotImplemented
}

func (m *MockAPI) PublishCourse(ctx context.Context, id string) (domain.Course, error) {
	m.record("PublishCourse")
	if m.PublishCourseFunc != nil {
		return m.PublishCourseFunc(ctx, id)
	}
	return domain.Course{}, ErrMockNotImplemented
}

func (m *MockAPI) DeleteCourse(ctx context.Context, id string) error {
	m.record("DeleteCourse")
	if m.DeleteCourseFunc != nil {
		return m.DeleteCourseFunc(ctx, id)
	}
	return nil
}

func (m *MockAPI) CourseStats(ctx context.Context, id string) (domain.CourseStats, error) {
	m.record("CourseStats")
	if m.CourseStatsFunc != nil {
		return m.CourseStatsFunc(ctx, id)
	}
	return domain.CourseStats{}, nil
}

// MockStateStore implements domain.StateStore for testing. Unlike the
// in-memory backend it can be told to fail.
type MockStateStore struct {
	mu sync.RWMutex

	// Function overrides
	LoadFunc   func(ctx context.Context, key string) ([]byte, error)
	SaveFunc   func(ctx context.Context, key string, value []byte) error
	DeleteFunc func(ctx context.Context, key string) error

	// In-memory storage for simple tests
	Data map[string][]byte
}

// NewMockStateStore creates a MockStateStore with initialized maps
func NewMockStateStore() *MockStateStore {
	return &MockStateStore{Data: make(map[string][]byte)}
}

func (m *MockStateStore) Load(ctx context.Context, key string) ([]byte, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx, key)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.Data[key]
	if !ok {
		return nil, domain.ErrStateNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MockStateStore) Save(ctx context.Context, key string, value []byte) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, key, value)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Data == nil {
		m.Data = make(map[string][]byte)
	}
	m.Data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MockStateStore) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Data, key)
	return nil
}
