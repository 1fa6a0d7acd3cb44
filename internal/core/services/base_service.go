package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SscSPs/finance_sync/internal/core/domain"
	portssvc "github.com/SscSPs/finance_sync/internal/core/ports/services"
	"github.com/SscSPs/finance_sync/internal/middleware"
)

// EventTracker receives analytics events. utils.PosthogClientWrapper satisfies it.
type EventTracker interface {
	Enqueue(distinctID string, event string, properties map[string]any)
}

// BaseService provides common functionality for all services
type BaseService struct {
	Notifier portssvc.Notifier
	Tracker  EventTracker
	Clock    func() time.Time
	// Timeout bounds every data-layer call. Zero disables it.
	Timeout time.Duration
}

// ServiceOption is a functional option shared by all services.
type ServiceOption func(*BaseService)

// WithNotifier routes user-facing notifications to n.
func WithNotifier(n portssvc.Notifier) ServiceOption {
	return func(s *BaseService) {
		s.Notifier = n
	}
}

// WithEventTracker enables analytics events.
func WithEventTracker(t EventTracker) ServiceOption {
	return func(s *BaseService) {
		s.Tracker = t
	}
}

// WithClock overrides time.Now.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *BaseService) {
		s.Clock = clock
	}
}

// WithTimeout bounds data-layer calls.
func WithTimeout(d time.Duration) ServiceOption {
	return func(s *BaseService) {
		s.Timeout = d
	}
}

func newBaseService(options ...ServiceOption) BaseService {
	base := BaseService{}
	for _, option := range options {
		option(&base)
	}
	return base
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogWarn logs a warning with consistent formatting
func (s *BaseService) LogWarn(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Warn(msg, keyvals...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

func (s *BaseService) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

// withTimeout derives the context used for one data-layer call.
func (s *BaseService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.Timeout)
}

func (s *BaseService) notify(ctx context.Context, level domain.NotificationLevel, resource domain.ResourceType, title, message string) {
	if s.Notifier == nil {
		return
	}
	s.Notifier.Notify(ctx, domain.Notification{
		Level:     level,
		Title:     title,
		Message:   message,
		Resource:  resource,
		CreatedAt: s.now(),
	})
}

// Track sends an analytics event attributed to the authenticated user, or to "system".
func (s *BaseService) Track(ctx context.Context, event string, properties map[string]any) {
	if s.Tracker == nil {
		return
	}
	distinctID, ok := middleware.GetUserIDFromCtx(ctx)
	if !ok {
		distinctID = "system"
	}
	s.Tracker.Enqueue(distinctID, event, properties)
}
