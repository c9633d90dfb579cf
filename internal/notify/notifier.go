package notify

import (
	"context"
	"log/slog"
	"sync"

	"eduplatform-web/internal/observability"
)

// Notifier delivers notifications to the user
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Discard drops every notification
var Discard Notifier = NotifierFunc(func(context.Context, Notification) {})

// LogNotifier writes notifications to a structured logger
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = observability.Logger()
	}
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(ctx context.Context, n Notification) {
	level := slog.LevelInfo
	switch n.Level {
	case LevelError:
		level = slog.LevelError
	case LevelWarning:
		level = slog.LevelWarn
	}

	attrs := []any{"notification_id", n.ID, "title", n.Title}
	if n.Description != "" {
		attrs = append(attrs, "description", n.Description)
	}
	if reqID := observability.RequestID(ctx); reqID != "" {
		attrs = append(attrs, "request_id", reqID)
	}
	l.logger.Log(ctx, level, "Notification", attrs...)
}

// Multi fans a notification out to several notifiers and counts it once
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) {
	observability.NotificationsSentTotal.WithLabelValues(string(n.Level)).Inc()
	for _, target := range m {
		if target != nil {
			target.Notify(ctx, n)
		}
	}
}

// Recorder keeps every notification it receives. Useful in tests.
type Recorder struct {
	mu   sync.Mutex
	sent []Notification
}

func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

// Notifications returns a copy of what was recorded
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.sent...)
}

func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}
