package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"eduplatform-web/internal/httputil"
	"eduplatform-web/internal/observability"
)

// RateLimitConfig is a per-IP request budget
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Logger   *slog.Logger
}

// AuthRateLimit is the budget of the login, registration and password
// endpoints, which each end up as a call to the REST API
var AuthRateLimit = RateLimitConfig{Requests: 10, Window: time.Minute}

// RateLimit limits requests per client IP and answers 429 with the JSON envelope
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.Requests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	logger := cfg.Logger
	if logger == nil {
		logger = observability.Logger()
	}

	return httprate.Limit(
		cfg.Requests,
		cfg.Window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			logger.Warn("rate limit exceeded",
				"ip", r.RemoteAddr,
				"path", r.URL.Path,
				"method", r.Method,
				"request_id", observability.RequestID(r.Context()),
			)
			httputil.Error(w, http.StatusTooManyRequests, "Too many requests, please try again later")
		}),
	)
}
