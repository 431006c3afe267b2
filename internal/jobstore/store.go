// Package jobstore owns the job lifecycle table. The orchestrator is the only
// writer; handlers and pollers are read-only observers.
package jobstore

import (
	"context"

	"server/internal/domain"
)

// Store is the three-state job table contract. Create inserts a pending
// record; SetComplete and SetFailed perform the single permitted terminal
// transition. A second terminal write returns domain.ErrJobFinished and
// leaves the record untouched.
type Store interface {
	Create(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*domain.Job, error)
	SetComplete(ctx context.Context, id string, result *domain.GenerationResult) error
	SetFailed(ctx context.Context, id string, message string) error
}
