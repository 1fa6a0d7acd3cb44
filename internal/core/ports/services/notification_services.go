package services

import (
	"context"

	"github.com/SscSPs/finance_sync/internal/core/domain"
)

// Notifier receives user-facing notifications.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

// NotificationReaderSvc serves recent notifications, newest first.
type NotificationReaderSvc interface {
	Recent(limit int) []domain.Notification
}

// NotificationSvcFacade combines the notification interfaces.
type NotificationSvcFacade interface {
	Notifier
	NotificationReaderSvc
}
