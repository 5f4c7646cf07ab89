package history

import (
	"context"

	"github.com/ignite/mailprobe/internal/domain"
)

// Repository defines the data access contract for job history.
type Repository interface {
	// CreateJob inserts a new job row.
	CreateJob(ctx context.Context, job *domain.VerificationJob) error

	// UpdateJob persists a job's status, counters and completion time.
	// Returns ErrNotFound if the job doesn't exist.
	UpdateJob(ctx context.Context, job *domain.VerificationJob) error

	// GetJob returns one job. Returns ErrNotFound if it doesn't exist.
	GetJob(ctx context.Context, jobID string) (*domain.VerificationJob, error)

	// ListJobs returns recent jobs, newest first, with the total count.
	ListJobs(ctx context.Context, limit, offset int) ([]domain.VerificationJob, int, error)

	// SaveResults batch-inserts the per-record outcomes of a job,
	// preserving input order.
	SaveResults(ctx context.Context, jobID string, results []domain.RecordResult) error

	// ResultsForJob returns a job's results in input order.
	ResultsForJob(ctx context.Context, jobID string) ([]domain.RecordResult, error)
}
