package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eduplatform-web/internal/notify"
	ws "eduplatform-web/internal/websocket"
)

// serveWithHub runs the router on a real listener with the hub loop running
func serveWithHub(t *testing.T, h *harness) string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = h.hub.Run(ctx)
	}()

	srv := httptest.NewServer(h.router)
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/notifications"
}

func TestWebSocketHandler_DeliversNotifications(t *testing.T) {
	h := newHarness(t)
	url := serveWithHub(t, h)

	header := http.Header{"Origin": []string{"http://localhost:3000"}}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	require.Eventually(t, func() bool { return h.hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	h.hub.Notify(context.Background(), notify.Success("Course created successfully!", "Go in depth has been created."))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg ws.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, ws.TypeNotification, msg.Type)
	require.NotNil(t, msg.Notification)
	assert.Equal(t, notify.LevelSuccess, msg.Notification.Level)
	assert.Equal(t, "Course created successfully!", msg.Notification.Title)
}

func TestWebSocketHandler_RejectsUnknownOrigin(t *testing.T) {
	h := newHarness(t)
	url := serveWithHub(t, h)

	header := http.Header{"Origin": []string{"http://evil.example"}}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if conn != nil {
		conn.Close()
	}

	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Zero(t, h.hub.ClientCount())
}
