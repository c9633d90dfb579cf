package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eduplatform-web/internal/domain"
	"eduplatform-web/internal/testutil"
)

func userPage(users ...domain.User) domain.Page[domain.User] {
	return domain.Page[domain.User]{Content: users, TotalElements: int64(len(users)), TotalPages: 1, First: true, Last: true}
}

func TestUserHandler_List(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, domain.RoleAdmin)
	bob := testutil.NewTestUser(testutil.WithName("Bob", "Builder"))
	h.api.UsersFunc = func(_ context.Context, page, size int) (domain.Page[domain.User], error) {
		assert.Equal(t, 2, page)
		assert.Equal(t, 10, size)
		return userPage(bob), nil
	}

	got := testutil.DecodeData[domain.Page[domain.User]](t, h.get(t, "/api/users?page=2&size=10"), http.StatusOK)
	require.Len(t, got.Content, 1)
	assert.Equal(t, "Bob", got.Content[0].FirstName)
}

func TestUserHandler_Search(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, domain.RoleAdmin)
	h.api.SearchUsersFunc = func(_ context.Context, term string, _, _ int) (domain.Page[domain.User], error) {
		assert.Equal(t, "bob", term)
		return userPage(testutil.NewTestUser()), nil
	}

	got := testutil.DecodeData[domain.Page[domain.User]](t, h.get(t, "/api/users?q=bob"), http.StatusOK)
	assert.Len(t, got.Content, 1)
	assert.Zero(t, h.api.Calls("Users"))
}

func TestUserHandler_Get(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, domain.RoleAdmin)
	h.api.UserFunc = func(_ context.Context, id string) (domain.User, error) {
		if id != "u7" {
			return domain.User{}, &domain.APIError{Status: http.StatusNotFound, Message: "User not found"}
		}
		return testutil.NewTestUser(testutil.WithUserID(id)), nil
	}

	got := testutil.DecodeData[domain.User](t, h.get(t, "/api/users/u7"), http.StatusOK)
	assert.Equal(t, "u7", got.ID)

	env := testutil.DecodeEnvelope(t, h.get(t, "/api/users/u8"), http.StatusNotFound)
	assert.Equal(t, "User not found", env.Message)
}

func TestUserHandler_UpdateStatus(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, domain.RoleAdmin)
	h.api.UpdateUserStatusFunc = func(_ context.Context, id string, status domain.UserStatus) (domain.User, error) {
		u := testutil.NewTestUser(testutil.WithUserID(id))
		u.Status = status
		return u, nil
	}

	w := h.do(t, http.MethodPut, "/api/users/u7/status", map[string]string{"status": "SUSPENDED"})

	got := testutil.DecodeData[domain.User](t, w, http.StatusOK)
	assert.Equal(t, domain.UserStatusSuspended, got.Status)
	assert.Eventually(t, func() bool { return len(h.toasts.Notifications()) > 0 }, time.Second, 5*time.Millisecond)
}

func TestUserHandler_UpdateStatusRejectsUnknownStatus(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, domain.RoleAdmin)

	w := h.do(t, http.MethodPut, "/api/users/u7/status", map[string]string{"status": "BANISHED"})

	testutil.DecodeEnvelope(t, w, http.StatusBadRequest)
	assert.Zero(t, h.api.Calls("UpdateUserStatus"))
}

func TestUserHandler_DeleteInvalidatesListings(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, domain.RoleAdmin)

	testutil.DecodeEnvelope(t, h.get(t, "/api/users"), http.StatusOK)
	require.Equal(t, 1, h.api.Calls("Users"))

	env := testutil.DecodeEnvelope(t, h.do(t, http.MethodDelete, "/api/users/u7", nil), http.StatusOK)
	assert.Equal(t, "User deleted", env.Message)

	testutil.DecodeEnvelope(t, h.get(t, "/api/users"), http.StatusOK)
	assert.Equal(t, 2, h.api.Calls("Users"))
}

func TestUserHandler_Stats(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, domain.RoleAdmin)
	h.api.UserStatsFunc = func(_ context.Context, id string) (domain.UserStats, error) {
		assert.Equal(t, "u7", id)
		return domain.UserStats{TotalCoursesEnrolled: 4, CompletedCourses: 1}, nil
	}

	got := testutil.DecodeData[domain.UserStats](t, h.get(t, "/api/users/u7/stats"), http.StatusOK)
	assert.Equal(t, 4, got.TotalCoursesEnrolled)
	assert.Equal(t, 1, got.CompletedCourses)
}
