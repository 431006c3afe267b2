package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"server/internal/domain"
)

const redisKeyPrefix = "thumbjob:"

// RedisStore keeps job records in Redis so multiple API instances can share
// one job table. Records carry a TTL equal to the retention window once
// terminal; pending records do not expire.
type RedisStore struct {
	client    *redis.Client
	retention time.Duration
}

type redisJob struct {
	ID       string                   `json:"id"`
	Status   domain.JobStatus         `json:"status"`
	Created  time.Time                `json:"created"`
	Finished *time.Time               `json:"finished,omitempty"`
	Result   *domain.GenerationResult `json:"result,omitempty"`
	Error    string                   `json:"error,omitempty"`
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(client *redis.Client, retention time.Duration) *RedisStore {
	return &RedisStore{client: client, retention: retention}
}

func redisKey(id string) string {
	return redisKeyPrefix + id
}

// Create inserts a pending record, failing if the id is already taken.
func (s *RedisStore) Create(ctx context.Context, id string) error {
	payload, err := json.Marshal(redisJob{
		ID:      id,
		Status:  domain.JobStatusPending,
		Created: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("jobstore: encode job: %w", err)
	}
	ok, err := s.client.SetNX(ctx, redisKey(id), payload, 0).Result()
	if err != nil {
		return fmt.Errorf("jobstore: create job: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrJobExists, id)
	}
	return nil
}

// Get fetches a job record by id.
func (s *RedisStore) Get(ctx context.Context, id string) (*domain.Job, error) {
	raw, err := s.client.Get(ctx, redisKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("jobstore: get job: %w", err)
	}
	var rec redisJob
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("jobstore: decode job: %w", err)
	}
	return &domain.Job{
		ID:       rec.ID,
		Status:   rec.Status,
		Created:  rec.Created,
		Finished: rec.Finished,
		Result:   rec.Result,
		Error:    rec.Error,
	}, nil
}

// SetComplete transitions a pending job to complete.
func (s *RedisStore) SetComplete(ctx context.Context, id string, result *domain.GenerationResult) error {
	return s.finish(ctx, id, func(rec *redisJob) {
		rec.Status = domain.JobStatusComplete
		rec.Result = result
	})
}

// SetFailed transitions a pending job to failed.
func (s *RedisStore) SetFailed(ctx context.Context, id string, message string) error {
	return s.finish(ctx, id, func(rec *redisJob) {
		rec.Status = domain.JobStatusFailed
		rec.Error = message
	})
}

// finish reads, mutates, and writes back the record. Each job id has exactly
// one writer (the detached task that owns it), so the read-modify-write is
// race-free without a transaction.
func (s *RedisStore) finish(ctx context.Context, id string, apply func(*redisJob)) error {
	raw, err := s.client.Get(ctx, redisKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("jobstore: get job: %w", err)
	}
	var rec redisJob
	if err := json.Unmarshal(raw, &rec); err != nil {
		return fmt.Errorf("jobstore: decode job: %w", err)
	}
	if rec.Status != domain.JobStatusPending {
		return fmt.Errorf("%w: %s is %s", domain.ErrJobFinished, id, rec.Status)
	}
	apply(&rec)
	finished := time.Now()
	rec.Finished = &finished
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("jobstore: encode job: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(id), payload, s.retention).Err(); err != nil {
		return fmt.Errorf("jobstore: finish job: %w", err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
