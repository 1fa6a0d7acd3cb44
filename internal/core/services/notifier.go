package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/SscSPs/finance_sync/internal/core/domain"
	portssvc "github.com/SscSPs/finance_sync/internal/core/ports/services"
	"github.com/SscSPs/finance_sync/internal/middleware"
	"github.com/google/uuid"
)

const defaultNotificationHistory = 50

// NotificationCenter keeps the most recent notifications in a ring buffer and logs each one.
type NotificationCenter struct {
	mu    sync.Mutex
	ring  []domain.Notification
	next  int
	count int
}

// NewNotificationCenter keeps up to size notifications.
func NewNotificationCenter(size int) *NotificationCenter {
	if size <= 0 {
		size = defaultNotificationHistory
	}
	return &NotificationCenter{ring: make([]domain.Notification, size)}
}

var _ portssvc.NotificationSvcFacade = (*NotificationCenter)(nil)

func (c *NotificationCenter) Notify(ctx context.Context, n domain.Notification) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}

	c.mu.Lock()
	c.ring[c.next] = n
	c.next = (c.next + 1) % len(c.ring)
	if c.count < len(c.ring) {
		c.count++
	}
	c.mu.Unlock()

	attrs := []any{
		slog.String("notification_id", n.ID),
		slog.String("level", string(n.Level)),
		slog.String("title", n.Title),
		slog.String("message", n.Message),
	}
	if n.Resource != "" {
		attrs = append(attrs, slog.String("resource", string(n.Resource)))
	}
	logger := middleware.GetLoggerFromCtx(ctx)
	switch n.Level {
	case domain.NotifyError:
		logger.Error("Notification", attrs...)
	case domain.NotifyWarning:
		logger.Warn("Notification", attrs...)
	default:
		logger.Info("Notification", attrs...)
	}
}

// Recent returns up to limit notifications, newest first. A non-positive limit returns all.
func (c *NotificationCenter) Recent(limit int) []domain.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	if limit <= 0 || limit > c.count {
		limit = c.count
	}
	out := make([]domain.Notification, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (c.next - i + len(c.ring)) % len(c.ring)
		out = append(out, c.ring[idx])
	}
	return out
}
