package domain

import "time"

// NotificationLevel is the severity of a user-facing notification.
type NotificationLevel string

const (
	NotifySuccess NotificationLevel = "success"
	NotifyInfo    NotificationLevel = "info"
	NotifyWarning NotificationLevel = "warning"
	NotifyError   NotificationLevel = "error"
)

// Notification is a toast-style message for the UI.
type Notification struct {
	ID        string            `json:"id"`
	Level     NotificationLevel `json:"level"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Resource  ResourceType      `json:"resource,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}
