package handler

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"eduplatform-web/internal/httputil"
)

// Health returns basic health check
func Health(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status    string `json:"status"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// ReadinessCheck is one dependency probed by Ready
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Pinger is implemented by the state backends and the API client
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck probes p
func PingCheck(name string, p Pinger) ReadinessCheck {
	return ReadinessCheck{Name: name, Check: p.Ping}
}

// ConnCheck reports a connection that knows whether it was closed
func ConnCheck(name string, conn interface{ IsClosed() bool }) ReadinessCheck {
	return ReadinessCheck{Name: name, Check: func(context.Context) error {
		if conn.IsClosed() {
			return errors.New("connection closed")
		}
		return nil
	}}
}

// Ready runs every check in parallel and answers 503 if any is down
func Ready(checks ...ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		results := make(map[string]HealthCheckResult, len(checks))
		var mu sync.Mutex
		var wg sync.WaitGroup
		for _, c := range checks {
			wg.Add(1)
			go func(c ReadinessCheck) {
				defer wg.Done()
				res := runCheck(ctx, c)
				mu.Lock()
				results[c.Name] = res
				mu.Unlock()
			}(c)
		}
		wg.Wait()

		status, code := "ready", http.StatusOK
		for _, res := range results {
			if res.Status != "up" {
				status, code = "not_ready", http.StatusServiceUnavailable
				break
			}
		}

		httputil.JSON(w, code, map[string]any{
			"status":    status,
			"timestamp": time.Now().Format(time.RFC3339),
			"checks":    results,
		})
	}
}

func runCheck(ctx context.Context, c ReadinessCheck) HealthCheckResult {
	start := time.Now()
	err := c.Check(ctx)
	res := HealthCheckResult{Status: "up", LatencyMs: time.Since(start).Milliseconds()}
	if err != nil {
		res.Status = "down"
		res.Error = err.Error()
	}
	return res
}
