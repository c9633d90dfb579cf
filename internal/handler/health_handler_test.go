package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eduplatform-web/internal/testutil"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type closable bool

func (c closable) IsClosed() bool { return bool(c) }

type readiness struct {
	Status string                       `json:"status"`
	Checks map[string]HealthCheckResult `json:"checks"`
}

func decodeReadiness(t *testing.T, w *httptest.ResponseRecorder) readiness {
	t.Helper()
	var out readiness
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth_ReturnsOK(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodHead} {
		t.Run(method, func(t *testing.T) {
			w := testutil.Serve(http.HandlerFunc(Health), httptest.NewRequest(method, "/health", nil))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		})
	}
}

func TestReady_AllUp(t *testing.T) {
	h := Ready(
		PingCheck("state", pingerFunc(func(context.Context) error { return nil })),
		PingCheck("api", pingerFunc(func(context.Context) error { return nil })),
		ConnCheck("rabbitmq", closable(false)),
	)

	w := testutil.Serve(h, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	out := decodeReadiness(t, w)
	assert.Equal(t, "ready", out.Status)
	assert.Len(t, out.Checks, 3)
	for name, res := range out.Checks {
		assert.Equal(t, "up", res.Status, name)
	}
}

func TestReady_DependencyDown(t *testing.T) {
	tests := []struct {
		name  string
		check ReadinessCheck
		error string
	}{
		{"api unreachable", PingCheck("api", pingerFunc(func(context.Context) error { return errors.New("connection refused") })), "connection refused"},
		{"broker closed", ConnCheck("rabbitmq", closable(true)), "connection closed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Ready(PingCheck("state", pingerFunc(func(context.Context) error { return nil })), tt.check)

			w := testutil.Serve(h, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			assert.Equal(t, http.StatusServiceUnavailable, w.Code)
			out := decodeReadiness(t, w)
			assert.Equal(t, "not_ready", out.Status)
			assert.Equal(t, "up", out.Checks["state"].Status)
			assert.Equal(t, "down", out.Checks[tt.check.Name].Status)
			assert.Equal(t, tt.error, out.Checks[tt.check.Name].Error)
		})
	}
}

func TestReady_NoChecks(t *testing.T) {
	w := testutil.Serve(Ready(), httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", decodeReadiness(t, w).Status)
}

func TestReady_ChecksGetDeadline(t *testing.T) {
	var hadDeadline bool
	h := Ready(PingCheck("state", pingerFunc(func(ctx context.Context) error {
		_, hadDeadline = ctx.Deadline()
		return nil
	})))

	testutil.Serve(h, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.True(t, hadDeadline)
}
