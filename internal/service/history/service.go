package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/mailprobe/internal/domain"
)

// Service implements job history business logic. It is safe for
// concurrent use; all methods take typed inputs and return typed outputs.
type Service struct {
	repo Repository
}

// NewService creates a history service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// StartJob records a new bulk run in the processing state and returns it
// with a fresh ID.
func (s *Service) StartJob(ctx context.Context, filename string, totalRecords int) (*domain.VerificationJob, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return nil, fmt.Errorf("filename is required")
	}

	job := &domain.VerificationJob{
		ID:           uuid.New().String(),
		Filename:     filename,
		Status:       domain.JobProcessing,
		TotalRecords: totalRecords,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return job, nil
}

// CompleteJob stores a finished run: the full result set plus the final
// counters. Pass-through records count toward the total but neither
// verdict bucket.
func (s *Service) CompleteJob(ctx context.Context, jobID string, results []domain.RecordResult) error {
	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	valid, invalid := 0, 0
	for _, rr := range results {
		if rr.Result == nil {
			continue
		}
		if rr.Result.Valid {
			valid++
		} else {
			invalid++
		}
	}

	if err := s.repo.SaveResults(ctx, jobID, results); err != nil {
		return fmt.Errorf("save results: %w", err)
	}

	now := time.Now().UTC()
	job.Status = domain.JobCompleted
	job.TotalRecords = len(results)
	job.ValidCount = valid
	job.InvalidCount = invalid
	job.CompletedAt = &now
	if err := s.repo.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

// FailJob marks a run as failed with its error message.
func (s *Service) FailJob(ctx context.Context, jobID, message string) error {
	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	job.Status = domain.JobFailed
	job.Error = message
	job.CompletedAt = &now
	if err := s.repo.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

// GetJob returns one job by ID.
func (s *Service) GetJob(ctx context.Context, jobID string) (*domain.VerificationJob, error) {
	return s.repo.GetJob(ctx, jobID)
}

// ListJobs returns recent jobs, newest first.
func (s *Service) ListJobs(ctx context.Context, limit, offset int) ([]domain.VerificationJob, int, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListJobs(ctx, limit, offset)
}

// Results returns a completed job's outcomes in input order.
func (s *Service) Results(ctx context.Context, jobID string) ([]domain.RecordResult, error) {
	if _, err := s.repo.GetJob(ctx, jobID); err != nil {
		return nil, err
	}
	return s.repo.ResultsForJob(ctx, jobID)
}
