package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"server/internal/domain"
)

// PostgresStore persists job records in PostgreSQL for deployments that need
// jobs to survive a process restart.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a job store backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the job table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	query := `
CREATE TABLE IF NOT EXISTS generation_jobs (
    id            TEXT PRIMARY KEY,
    status        TEXT NOT NULL,
    result_json   JSONB,
    error_message TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    finished_at   TIMESTAMPTZ
);
`
	_, err := s.pool.Exec(ctx, query)
	return err
}

// Create inserts a pending record.
func (s *PostgresStore) Create(ctx context.Context, id string) error {
	query := `
INSERT INTO generation_jobs (id, status)
VALUES ($1, $2)
ON CONFLICT (id) DO NOTHING;
`
	tag, err := s.pool.Exec(ctx, query, id, domain.JobStatusPending)
	if err != nil {
		return fmt.Errorf("jobstore: create job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrJobExists, id)
	}
	return nil
}

// Get fetches a job record by id.
func (s *PostgresStore) Get(ctx context.Context, id string) (*domain.Job, error) {
	query := `
SELECT id, status, result_json, error_message, created_at, finished_at
FROM generation_jobs
WHERE id = $1;
`
	row := s.pool.QueryRow(ctx, query, id)
	var (
		job        domain.Job
		resultJSON []byte
		finished   *time.Time
	)
	if err := row.Scan(&job.ID, &job.Status, &resultJSON, &job.Error, &job.Created, &finished); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("jobstore: get job: %w", err)
	}
	job.Finished = finished
	if len(resultJSON) > 0 {
		var result domain.GenerationResult
		if err := json.Unmarshal(resultJSON, &result); err != nil {
			return nil, fmt.Errorf("jobstore: decode result: %w", err)
		}
		job.Result = &result
	}
	return &job, nil
}

// SetComplete transitions a pending job to complete.
func (s *PostgresStore) SetComplete(ctx context.Context, id string, result *domain.GenerationResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("jobstore: encode result: %w", err)
	}
	query := `
UPDATE generation_jobs
SET status = $2, result_json = $3, finished_at = NOW()
WHERE id = $1 AND status = $4;
`
	tag, err := s.pool.Exec(ctx, query, id, domain.JobStatusComplete, resultJSON, domain.JobStatusPending)
	if err != nil {
		return fmt.Errorf("jobstore: complete job: %w", err)
	}
	return s.checkTransition(ctx, id, tag.RowsAffected())
}

// SetFailed transitions a pending job to failed.
func (s *PostgresStore) SetFailed(ctx context.Context, id string, message string) error {
	query := `
UPDATE generation_jobs
SET status = $2, error_message = $3, finished_at = NOW()
WHERE id = $1 AND status = $4;
`
	tag, err := s.pool.Exec(ctx, query, id, domain.JobStatusFailed, message, domain.JobStatusPending)
	if err != nil {
		return fmt.Errorf("jobstore: fail job: %w", err)
	}
	return s.checkTransition(ctx, id, tag.RowsAffected())
}

// checkTransition distinguishes a missing job from a double terminal write
// when the guarded UPDATE matched no rows.
func (s *PostgresStore) checkTransition(ctx context.Context, id string, affected int64) error {
	if affected > 0 {
		return nil
	}
	if _, err := s.Get(ctx, id); errors.Is(err, domain.ErrNotFound) {
		return domain.ErrNotFound
	}
	return fmt.Errorf("%w: %s", domain.ErrJobFinished, id)
}

var _ Store = (*PostgresStore)(nil)
