// Package api is the client of the course marketplace REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"eduplatform-web/internal/domain"
	"eduplatform-web/internal/observability"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const maxBodySize = 4 << 20

// Session is what the client needs from the session store: the credentials
// to send, and the mutators driven by the token refresh flow.
type Session interface {
	AccessToken() string
	RefreshToken() string
	User() *domain.User
	SetAuth(resp domain.LoginResponse) error
	Logout(ctx context.Context)
}

// Pagination is the optional paging metadata of the response envelope
type Pagination struct {
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
}

// envelope is the wrapper of every API response
type envelope struct {
	Success    *bool           `json:"success"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Pagination *Pagination     `json:"pagination,omitempty"`
	Error      *errorDetails   `json:"error,omitempty"`
	// Some error bodies are flat: {status, message, errors}
	Errors map[string][]string `json:"errors,omitempty"`
}

type errorDetails struct {
	Status           int               `json:"status"`
	Error            string            `json:"error"`
	Message          string            `json:"message"`
	ErrorCode        string            `json:"errorCode"`
	ValidationErrors map[string]string `json:"validationErrors"`
}

// Client talks to the REST API. It attaches the bearer token of the
// session, and on a 401 refreshes the token once and replays the request.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	session    Session
	logger     *slog.Logger

	refreshes singleflight.Group
}

// Option configures a Client
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.httpClient = hc } }

func WithTimeout(d time.Duration) Option { return func(c *Client) { c.httpClient.Timeout = d } }

// WithRateLimit caps outgoing requests per second. rps <= 0 disables it.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithSession(s Session) Option { return func(c *Client) { c.session = s } }

func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.logger = l } }

// NewClient creates a client for the API rooted at baseURL
// (e.g. http://localhost:8080/api/v1)
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: observability.Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// request describes one API call. route is the path template used as the
// metrics label.
type request struct {
	method string
	path   string
	route  string
	query  url.Values
	body   any
	// noRefresh skips the 401 refresh flow (auth endpoints)
	noRefresh bool
}

type response struct {
	status int
	body   []byte
	env    envelope
}

// do sends req and decodes the envelope's data into out (when out is not nil)
func (c *Client) do(ctx context.Context, req request, out any) error {
	resp, err := c.roundTrip(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if len(resp.env.Data) == 0 || string(resp.env.Data) == "null" {
		return &domain.MalformedResponseError{Operation: req.method + " " + req.route, Field: "data"}
	}
	if err := json.Unmarshal(resp.env.Data, out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", domain.ErrMalformedResponse, req.method, req.route, err)
	}
	return nil
}

// roundTrip sends req, running the refresh-and-replay flow on a 401
func (c *Client) roundTrip(ctx context.Context, req request) (*response, error) {
	token := c.accessToken()
	resp, err := c.send(ctx, req, token)
	if err == nil || !domain.IsUnauthenticated(err) || req.noRefresh || c.session == nil {
		return resp, err
	}

	if refreshErr := c.refresh(ctx, token); refreshErr != nil {
		observability.FromContext(ctx).Info("Token refresh failed, logging out", "error", refreshErr)
		c.session.Logout(ctx)
		return nil, err
	}
	return c.send(ctx, req, c.accessToken())
}

func (c *Client) accessToken() string {
	if c.session == nil {
		return ""
	}
	return c.session.AccessToken()
}

// refresh exchanges the refresh token for new credentials. Concurrent
// callers share one refresh; a caller whose token was already replaced by
// someone else's refresh just replays.
func (c *Client) refresh(ctx context.Context, staleToken string) error {
	if current := c.accessToken(); current != "" && current != staleToken {
		return nil
	}

	_, err, _ := c.refreshes.Do("refresh", func() (any, error) {
		refreshToken := c.session.RefreshToken()
		if refreshToken == "" {
			observability.TokenRefreshesTotal.WithLabelValues("missing").Inc()
			return nil, domain.ErrSessionExpired
		}

		resp, err := c.Refresh(context.WithoutCancel(ctx), refreshToken)
		if err != nil {
			observability.TokenRefreshesTotal.WithLabelValues("failure").Inc()
			return nil, err
		}
		if resp.User == nil {
			resp.User = c.session.User()
		}
		if resp.RefreshToken == "" {
			resp.RefreshToken = refreshToken
		}
		if err := c.session.SetAuth(resp); err != nil {
			observability.TokenRefreshesTotal.WithLabelValues("failure").Inc()
			return nil, err
		}
		observability.TokenRefreshesTotal.WithLabelValues("success").Inc()
		return nil, nil
	})
	return err
}

// send performs a single HTTP exchange and maps failures to *domain.APIError
func (c *Client) send(ctx context.Context, req request, token string) (*response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &domain.APIError{Err: fmt.Errorf("rate limiter: %w", err)}
		}
	}

	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	requestID := observability.RequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	httpReq.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		observability.UpstreamRequestDuration.WithLabelValues(req.method, req.route, "0").Observe(time.Since(start).Seconds())
		return nil, &domain.APIError{Err: err}
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodySize))
	observability.UpstreamRequestDuration.WithLabelValues(req.method, req.route, strconv.Itoa(httpResp.StatusCode)).
		Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, &domain.APIError{Status: httpResp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	c.logger.Debug("API call",
		"method", req.method, "route", req.route, "status", httpResp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(), "request_id", requestID)

	resp := &response{status: httpResp.StatusCode, body: raw}
	if len(bytes.TrimSpace(raw)) > 0 {
		// Error bodies are not always JSON; only successes must decode
		if err := json.Unmarshal(raw, &resp.env); err != nil && httpResp.StatusCode < 400 {
			return nil, fmt.Errorf("%w: %s %s: %v", domain.ErrMalformedResponse, req.method, req.route, err)
		}
	}

	if httpResp.StatusCode >= 400 {
		return nil, apiError(httpResp.StatusCode, resp.env)
	}
	if resp.env.Success != nil && !*resp.env.Success {
		return nil, apiError(httpResp.StatusCode, resp.env)
	}
	return resp, nil
}

// apiError builds the error of a failed call from whichever error layout the
// server used
func apiError(status int, env envelope) *domain.APIError {
	e := &domain.APIError{Status: status, Message: env.Message}

	if len(env.Errors) > 0 {
		e.Errors = env.Errors
	}
	if d := env.Error; d != nil {
		if e.Message == "" {
			e.Message = d.Message
		}
		if len(d.ValidationErrors) > 0 && e.Errors == nil {
			e.Errors = make(map[string][]string, len(d.ValidationErrors))
			for field, msg := range d.ValidationErrors {
				e.Errors[field] = []string{msg}
			}
		}
	}
	return e
}

// pageQuery builds the page/size query parameters
func pageQuery(page, size int) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	return q
}

// pathID validates and escapes an identifier used as a path segment
func pathID(name, value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("%w: %s is required", domain.ErrInvalidInput, name)
	}
	return url.PathEscape(value), nil
}

// Ping checks that the API host answers at all. Any HTTP status counts as
// reachable; only transport failures are reported.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.APIError{Err: err}
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
	resp.Body.Close()
	return nil
}
