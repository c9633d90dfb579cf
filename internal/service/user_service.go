package service

import (
	"context"
	"strings"

	"eduplatform-web/internal/domain"
	"eduplatform-web/internal/querycache"
)

// UserAPI is the part of the REST client the user administration views use
type UserAPI interface {
	User(ctx context.Context, id string) (domain.User, error)
	Users(ctx context.Context, page, size int) (domain.Page[domain.User], error)
	SearchUsers(ctx context.Context, term string, page, size int) (domain.Page[domain.User], error)
	UpdateUserStatus(ctx context.Context, id string, status domain.UserStatus) (domain.User, error)
	UserStats(ctx context.Context, id string) (domain.UserStats, error)
	DeleteUser(ctx context.Context, id string) error
}

// UserService backs the admin user pages
type UserService struct {
	api   UserAPI
	cache *querycache.Gateway
}

func NewUserService(api UserAPI, cache *querycache.Gateway) *UserService {
	return &UserService{api: api, cache: cache}
}

func (s *UserService) Users(ctx context.Context, page, size int) querycache.Result[domain.Page[domain.User]] {
	page, size = normalizePage(page, size)
	return querycache.Query(ctx, s.cache, querycache.Keys.Users.List(querycache.Params{"page": page, "size": size}),
		func(ctx context.Context) (domain.Page[domain.User], error) {
			return s.api.Users(ctx, page, size)
		}, querycache.QueryOptions{})
}

func (s *UserService) Search(ctx context.Context, term string, page, size int) querycache.Result[domain.Page[domain.User]] {
	term = strings.TrimSpace(term)
	page, size = normalizePage(page, size)
	return querycache.Query(ctx, s.cache, querycache.Keys.Users.Search(term, querycache.Params{"page": page, "size": size}),
		func(ctx context.Context) (domain.Page[domain.User], error) {
			return s.api.SearchUsers(ctx, term, page, size)
		}, querycache.QueryOptions{Enabled: func() bool { return term != "" }})
}

func (s *UserService) User(ctx context.Context, id string) querycache.Result[domain.User] {
	return querycache.Query(ctx, s.cache, querycache.Keys.Users.Detail(id),
		func(ctx context.Context) (domain.User, error) {
			return s.api.User(ctx, id)
		}, querycache.QueryOptions{Enabled: func() bool { return id != "" }})
}

func (s *UserService) Stats(ctx context.Context, id string) querycache.Result[domain.UserStats] {
	return querycache.Query(ctx, s.cache, querycache.Keys.Users.Stats(id),
		func(ctx context.Context) (domain.UserStats, error) {
			return s.api.UserStats(ctx, id)
		}, querycache.QueryOptions{Enabled: func() bool { return id != "" }})
}

// UpdateStatus suspends, reactivates or deactivates an account
func (s *UserService) UpdateStatus(ctx context.Context, id string, status domain.UserStatus) (domain.User, error) {
	return querycache.Mutate(ctx, s.cache, func(ctx context.Context) (domain.User, error) {
		return s.api.UpdateUserStatus(ctx, id, status)
	}, querycache.MutationOptions[domain.User]{
		ErrorTitle: "Failed to update user status",
		OnSuccess: func(ctx context.Context, _ domain.User) {
			s.cache.Invalidate(ctx, querycache.Keys.Users.All())
		},
		Success: toast[domain.User]("User status updated", ""),
	})
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	_, err := querycache.Mutate(ctx, s.cache, exec(func(ctx context.Context) error {
		return s.api.DeleteUser(ctx, id)
	}), querycache.MutationOptions[struct{}]{
		ErrorTitle: "Failed to delete user",
		OnSuccess: func(ctx context.Context, _ struct{}) {
			s.cache.Invalidate(ctx, querycache.Keys.Users.All())
		},
		Success: toast[struct{}]("User deleted", ""),
	})
	return err
}
