package jobstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"server/internal/domain"
)

// MemoryStore keeps all jobs in process memory. This is the default driver;
// jobs do not survive a restart. Terminal records older than the retention
// window are evicted by the janitor so the table stays bounded.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*domain.Job
	now  func() time.Time
}

// NewMemoryStore creates an empty in-memory job store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: make(map[string]*domain.Job),
		now:  time.Now,
	}
}

// Create inserts a pending record. The record is visible to Get before this
// method returns, so a client may poll immediately after submission.
func (s *MemoryStore) Create(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; ok {
		return fmt.Errorf("%w: %s", domain.ErrJobExists, id)
	}
	s.jobs[id] = &domain.Job{
		ID:      id,
		Status:  domain.JobStatusPending,
		Created: s.now(),
	}
	return nil
}

// Get returns a copy of the job record.
func (s *MemoryStore) Get(ctx context.Context, id string) (*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return job.Clone(), nil
}

// SetComplete transitions a pending job to complete.
func (s *MemoryStore) SetComplete(ctx context.Context, id string, result *domain.GenerationResult) error {
	return s.finish(id, func(job *domain.Job) {
		job.Status = domain.JobStatusComplete
		job.Result = result
	})
}

// SetFailed transitions a pending job to failed.
func (s *MemoryStore) SetFailed(ctx context.Context, id string, message string) error {
	return s.finish(id, func(job *domain.Job) {
		job.Status = domain.JobStatusFailed
		job.Error = message
	})
}

func (s *MemoryStore) finish(id string, apply func(*domain.Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}
	if job.Terminal() {
		return fmt.Errorf("%w: %s is %s", domain.ErrJobFinished, id, job.Status)
	}
	apply(job)
	finished := s.now()
	job.Finished = &finished
	return nil
}

// StartJanitor evicts terminal jobs once their finish time falls outside the
// retention window. It blocks until ctx is cancelled and is meant to run in
// its own goroutine. Pending jobs are never evicted.
func (s *MemoryStore) StartJanitor(ctx context.Context, retention, sweepInterval time.Duration) {
	if retention <= 0 || sweepInterval <= 0 {
		return
	}
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.evictBefore(s.now().Add(-retention))
		}
	}
}

func (s *MemoryStore) evictBefore(cutoff time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, job := range s.jobs {
		if job.Terminal() && job.Finished != nil && job.Finished.Before(cutoff) {
			delete(s.jobs, id)
		}
	}
}

var _ Store = (*MemoryStore)(nil)
