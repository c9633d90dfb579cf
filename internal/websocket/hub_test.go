package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eduplatform-web/internal/domain"
	"eduplatform-web/internal/notify"
)

func newTestClient(buffer int) *Client {
	return &Client{id: "test-client", send: make(chan []byte, buffer)}
}

func runHub(t *testing.T) (*Hub, context.CancelFunc, <-chan error) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- hub.Run(ctx) }()
	t.Cleanup(cancel)
	return hub, cancel, errCh
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return Message{}
	}
}

func TestHub_NotifyReachesEveryClient(t *testing.T) {
	hub, _, _ := runHub(t)
	a, b := newTestClient(8), newTestClient(8)
	hub.Register(a)
	hub.Register(b)

	hub.Notify(context.Background(), notify.Success("Course published", "Go in depth is live"))

	for _, c := range []*Client{a, b} {
		msg := receive(t, c)
		assert.Equal(t, TypeNotification, msg.Type)
		require.NotNil(t, msg.Notification)
		assert.Equal(t, "Course published", msg.Notification.Title)
		assert.Equal(t, notify.LevelSuccess, msg.Notification.Level)
	}
	assert.Equal(t, 2, hub.ClientCount())
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub, _, _ := runHub(t)
	c := newTestClient(8)
	hub.Register(c)
	hub.Unregister(c)

	select {
	case _, ok := <-c.send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send channel not closed")
	}
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)

	// A second unregister is harmless
	hub.Unregister(c)
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	hub, cancel, errCh := runHub(t)
	c := newTestClient(8)
	hub.Register(c)

	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}

	_, ok := <-c.send
	assert.False(t, ok)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_RegisterAfterShutdown(t *testing.T) {
	hub, cancel, errCh := runHub(t)
	cancel()
	<-errCh

	c := newTestClient(1)
	hub.Register(c)

	_, ok := <-c.send
	assert.False(t, ok)
	assert.False(t, hub.Broadcast([]byte("late")))
}

func TestHub_DropsClientThatStoppedReading(t *testing.T) {
	hub, _, _ := runHub(t)
	stuck := newTestClient(0)
	hub.Register(stuck)

	hub.Redirect("/login")

	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	_, ok := <-stuck.send
	assert.False(t, ok)
}

func TestHub_BroadcastNeverBlocks(t *testing.T) {
	hub := NewHub()

	for i := 0; i < cap(hub.broadcast); i++ {
		require.True(t, hub.Broadcast([]byte("x")))
	}
	assert.False(t, hub.Broadcast([]byte("overflow")))
}

func TestHub_OnSessionChange(t *testing.T) {
	hub, _, _ := runHub(t)
	c := newTestClient(8)
	hub.Register(c)

	anonymous := domain.SessionState{}
	signedIn := domain.SessionState{IsAuthenticated: true, User: &domain.User{ID: "u1"}, Tokens: &domain.Tokens{AccessToken: "a"}}

	hub.OnSessionChange(anonymous, signedIn)
	hub.OnSessionChange(signedIn, anonymous)

	msg := receive(t, c)
	assert.Equal(t, TypeRedirect, msg.Type)
	assert.Equal(t, "/login", msg.Location)
	assert.Nil(t, msg.Notification)

	select {
	case data := <-c.send:
		t.Fatalf("unexpected message %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}
