package services

import (
	"context"
	"time"

	"github.com/SscSPs/finance_sync/internal/core/domain"
)

// MetricsSvc exposes the derived dashboard view.
type MetricsSvc interface {
	// Dashboard computes metrics for the calendar month containing ref.
	Dashboard(ctx context.Context, ref time.Time) domain.DashboardMetrics
}
