package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/mailprobe/internal/domain"
)

var (
	ErrJobNotFound = errors.New("verification job not found")
	ErrUnavailable = errors.New("job store unavailable")
)

// DefaultJobTTL bounds how long finished job state lingers in Redis.
const DefaultJobTTL = 60 * time.Minute

// JobStore keeps bulk verification job sessions and their latest progress
// snapshot in Redis. The store degrades gracefully: a nil client makes
// every call return ErrUnavailable so the API can answer 503 for bulk
// endpoints while single verification keeps working.
type JobStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewJobStore wraps a Redis client. client may be nil when Redis is down
// or unconfigured.
func NewJobStore(client *redis.Client, ttl time.Duration) *JobStore {
	if ttl <= 0 {
		ttl = DefaultJobTTL
	}
	return &JobStore{redis: client, ttl: ttl}
}

// Available reports whether a Redis client is wired in.
func (s *JobStore) Available() bool {
	return s.redis != nil
}

// Ping verifies the Redis connection.
func (s *JobStore) Ping(ctx context.Context) error {
	if s.redis == nil {
		return ErrUnavailable
	}
	return s.redis.Ping(ctx).Err()
}

// SaveJob writes the job session under its key, refreshing the TTL.
func (s *JobStore) SaveJob(ctx context.Context, job *domain.VerificationJob) error {
	if s.redis == nil {
		return ErrUnavailable
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job %s: %w", job.ID, err)
	}
	return s.redis.Set(ctx, jobKey(job.ID), data, s.ttl).Err()
}

// GetJob loads a job session.
func (s *JobStore) GetJob(ctx context.Context, jobID string) (*domain.VerificationJob, error) {
	if s.redis == nil {
		return nil, ErrUnavailable
	}
	data, err := s.redis.Get(ctx, jobKey(jobID)).Bytes()
	if err == redis.Nil {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}

	var job domain.VerificationJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to decode job %s: %w", jobID, err)
	}
	return &job, nil
}

// SaveProgress writes the latest progress snapshot for a job.
func (s *JobStore) SaveProgress(ctx context.Context, progress *domain.JobProgress) error {
	if s.redis == nil {
		return ErrUnavailable
	}
	data, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("failed to marshal progress for %s: %w", progress.JobID, err)
	}
	return s.redis.Set(ctx, progressKey(progress.JobID), data, s.ttl).Err()
}

// GetProgress loads the latest progress snapshot for a job.
func (s *JobStore) GetProgress(ctx context.Context, jobID string) (*domain.JobProgress, error) {
	if s.redis == nil {
		return nil, ErrUnavailable
	}
	data, err := s.redis.Get(ctx, progressKey(jobID)).Bytes()
	if err == redis.Nil {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}

	var progress domain.JobProgress
	if err := json.Unmarshal(data, &progress); err != nil {
		return nil, fmt.Errorf("failed to decode progress for %s: %w", jobID, err)
	}
	return &progress, nil
}

func jobKey(jobID string) string {
	return fmt.Sprintf("verify:job:%s", jobID)
}

func progressKey(jobID string) string {
	return fmt.Sprintf("verify:job:%s:progress", jobID)
}
