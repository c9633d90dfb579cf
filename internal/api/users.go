package api

import (
	"context"
	"net/http"
	"net/url"

	"eduplatform-web/internal/domain"
)

// Profile returns the profile of the logged-in user
func (c *Client) Profile(ctx context.Context) (domain.User, error) {
	var out domain.User
	err := c.do(ctx, request{method: http.MethodGet, path: "/users/profile", route: "/users/profile"}, &out)
	return out, err
}

func (c *Client) UpdateProfile(ctx context.Context, req domain.UpdateProfileRequest) (domain.User, error) {
	var out domain.User
	err := c.do(ctx, request{method: http.MethodPut, path: "/users/profile", route: "/users/profile", body: req}, &out)
	return out, err
}

func (c *Client) User(ctx context.Context, id string) (domain.User, error) {
	var out domain.User
	seg, err := pathID("user id", id)
	if err != nil {
		return out, err
	}
	err = c.do(ctx, request{method: http.MethodGet, path: "/users/" + seg, route: "/users/{id}"}, &out)
	return out, err
}

// Users lists every user. Admin only.
func (c *Client) Users(ctx context.Context, page, size int) (domain.Page[domain.User], error) {
	var out domain.Page[domain.User]
	err := c.do(ctx, request{
		method: http.MethodGet, path: "/users", route: "/users", query: pageQuery(page, size),
	}, &out)
	return out, err
}

// SearchUsers searches users by name or email. Admin only.
func (c *Client) SearchUsers(ctx context.Context, term string, page, size int) (domain.Page[domain.User], error) {
	q := pageQuery(page, size)
	q.Set("searchTerm", term)

	var out domain.Page[domain.User]
	err := c.do(ctx, request{method: http.MethodGet, path: "/users/search", route: "/users/search", query: q}, &out)
	return out, err
}

func (c *Client) UpdateUserStatus(ctx context.Context, id string, status domain.UserStatus) (domain.User, error) {
	var out domain.User
	seg, err := pathID("user id", id)
	if err != nil {
		return out, err
	}
	q := url.Values{}
	q.Set("status", string(status))
	err = c.do(ctx, request{
		method: http.MethodPut, path: "/users/" + seg + "/status", route: "/users/{id}/status", query: q,
	}, &out)
	return out, err
}

func (c *Client) UserStats(ctx context.Context, id string) (domain.UserStats, error) {
	var out domain.UserStats
	seg, err := pathID("user id", id)
	if err != nil {
		return out, err
	}
	err = c.do(ctx, request{method: http.MethodGet, path: "/users/" + seg + "/stats", route: "/users/{id}/stats"}, &out)
	return out, err
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	seg, err := pathID("user id", id)
	if err != nil {
		return err
	}
	return c.do(ctx, request{method: http.MethodDelete, path: "/users/" + seg, route: "/users/{id}"}, nil)
}
