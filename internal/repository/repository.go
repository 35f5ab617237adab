package repository

import (
	"context"

	"sdnview/internal/domain"
	"sdnview/internal/identity"
)

// RunHistory records reconciliation pass summaries
type RunHistory interface {
	RecordRun(ctx context.Context, run domain.ReconcileRun) error
	ListRuns(ctx context.Context, limit int) ([]domain.ReconcileRun, error)
}

// Repository is the full persistence surface of the service
type Repository interface {
	identity.Store
	RunHistory

	// Close releases resources
	Close() error
}
