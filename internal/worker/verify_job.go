package worker

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ignite/mailprobe/internal/domain"
	"github.com/ignite/mailprobe/internal/service/history"
	"github.com/ignite/mailprobe/internal/storage"
	"github.com/ignite/mailprobe/internal/verify"
)

// ErrEmptyUpload is returned when an uploaded file has no header row.
var ErrEmptyUpload = errors.New("uploaded file contains no records")

// BatchValidator runs records through the verification engine in batches.
// *verify.Verifier is the production implementation.
type BatchValidator interface {
	ValidateBatch(ctx context.Context, source verify.RecordSource) <-chan domain.BatchProgressEvent
}

// EventPublisher receives every batch event a running job emits, in order.
// The API layer's SSE hub implements it.
type EventPublisher interface {
	PublishJobEvent(jobID string, event domain.BatchProgressEvent)
}

// VerifyJobRunner executes bulk verification jobs in the background. For each
// job it parses the uploaded CSV, feeds the records through the engine and
// relays events three ways: live to the EventPublisher, as progress snapshots
// to the Redis job store, and as the durable outcome to the history service.
//
// The history service is required; the job store and publisher may be nil
// (progress is then only observable through the history record).
type VerifyJobRunner struct {
	validator BatchValidator
	history   *history.Service
	jobs      *storage.JobStore
	events    EventPublisher
}

// NewVerifyJobRunner creates a runner wired to the given collaborators.
func NewVerifyJobRunner(validator BatchValidator, hist *history.Service, jobs *storage.JobStore, events EventPublisher) *VerifyJobRunner {
	return &VerifyJobRunner{
		validator: validator,
		history:   hist,
		jobs:      jobs,
		events:    events,
	}
}

// Launch registers a new job for an uploaded file sitting at tempPath and
// starts processing it in the background. The temp file is removed when
// processing finishes, successfully or not.
func (r *VerifyJobRunner) Launch(ctx context.Context, filename, tempPath string) (*domain.VerificationJob, error) {
	job, err := r.history.StartJob(ctx, filename, 0)
	if err != nil {
		return nil, err
	}

	r.saveJob(ctx, job)
	r.saveProgress(ctx, &domain.JobProgress{
		JobID:     job.ID,
		Status:    domain.JobProcessing,
		UpdatedAt: time.Now().UTC(),
	})

	log.Printf("[VerifyJob] Started job %s: file=%s", job.ID, filename)
	go r.run(job, tempPath)
	return job, nil
}

func (r *VerifyJobRunner) run(job *domain.VerificationJob, tempPath string) {
	ctx := context.Background()
	defer os.Remove(tempPath)
	start := time.Now()

	file, err := os.Open(tempPath)
	if err != nil {
		r.fail(ctx, job, fmt.Sprintf("open upload: %v", err))
		return
	}
	records, err := ReadRecords(file)
	file.Close()
	if err != nil {
		r.fail(ctx, job, err.Error())
		return
	}

	total := len(records)
	processed := 0
	for ev := range r.validator.ValidateBatch(ctx, verify.NewSliceSource(records)) {
		r.publish(job.ID, ev)

		switch ev.Type {
		case domain.EventProgress:
			processed += len(ev.PartialResults)
			r.saveProgress(ctx, &domain.JobProgress{
				JobID:     job.ID,
				Status:    domain.JobProcessing,
				Progress:  ev.Progress,
				Processed: processed,
				Total:     total,
				UpdatedAt: time.Now().UTC(),
			})
		case domain.EventComplete:
			r.complete(ctx, job, ev.Results, start)
		case domain.EventError:
			r.markFailed(ctx, job, ev.Error)
		}
	}
}

func (r *VerifyJobRunner) complete(ctx context.Context, job *domain.VerificationJob, results []domain.RecordResult, start time.Time) {
	if err := r.history.CompleteJob(ctx, job.ID, results); err != nil {
		log.Printf("[VerifyJob] job %s: persist results: %v", job.ID, err)
		r.markFailed(ctx, job, "failed to persist results")
		return
	}
	if updated, err := r.history.GetJob(ctx, job.ID); err == nil {
		*job = *updated
	}

	r.saveJob(ctx, job)
	r.saveProgress(ctx, &domain.JobProgress{
		JobID:     job.ID,
		Status:    domain.JobCompleted,
		Progress:  100,
		Processed: len(results),
		Total:     len(results),
		UpdatedAt: time.Now().UTC(),
	})

	log.Printf("[VerifyJob] Completed job %s: %d records, %d valid, %d invalid in %.2fs",
		job.ID, job.TotalRecords, job.ValidCount, job.InvalidCount, time.Since(start).Seconds())
}

// fail publishes a terminal error event before recording the failure. Used
// for errors raised before the engine starts emitting events itself.
func (r *VerifyJobRunner) fail(ctx context.Context, job *domain.VerificationJob, msg string) {
	r.publish(job.ID, domain.BatchProgressEvent{Type: domain.EventError, Error: msg})
	r.markFailed(ctx, job, msg)
}

func (r *VerifyJobRunner) markFailed(ctx context.Context, job *domain.VerificationJob, msg string) {
	if err := r.history.FailJob(ctx, job.ID, msg); err != nil {
		log.Printf("[VerifyJob] job %s: record failure: %v", job.ID, err)
	}

	now := time.Now().UTC()
	job.Status = domain.JobFailed
	job.Error = msg
	job.CompletedAt = &now
	r.saveJob(ctx, job)
	r.saveProgress(ctx, &domain.JobProgress{
		JobID:     job.ID,
		Status:    domain.JobFailed,
		Error:     msg,
		UpdatedAt: now,
	})

	log.Printf("[VerifyJob] Job %s failed: %s", job.ID, msg)
}

func (r *VerifyJobRunner) publish(jobID string, ev domain.BatchProgressEvent) {
	if r.events == nil {
		return
	}
	r.events.PublishJobEvent(jobID, ev)
}

func (r *VerifyJobRunner) saveJob(ctx context.Context, job *domain.VerificationJob) {
	if r.jobs == nil || !r.jobs.Available() {
		return
	}
	if err := r.jobs.SaveJob(ctx, job); err != nil {
		log.Printf("[VerifyJob] job %s: cache job: %v", job.ID, err)
	}
}

func (r *VerifyJobRunner) saveProgress(ctx context.Context, progress *domain.JobProgress) {
	if r.jobs == nil || !r.jobs.Available() {
		return
	}
	if err := r.jobs.SaveProgress(ctx, progress); err != nil {
		log.Printf("[VerifyJob] job %s: cache progress: %v", progress.JobID, err)
	}
}

// ReadRecords parses a CSV stream into records keyed by the header row.
// Rows wider than the header drop their extra cells; short rows simply omit
// the missing columns. Column names are trimmed but otherwise kept verbatim
// so untouched records round-trip with their original headers.
func ReadRecords(r io.Reader) ([]domain.Record, error) {
	cr := csv.NewReader(bufio.NewReaderSize(r, 64*1024))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyUpload
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records []domain.Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", len(records)+2, err)
		}

		rec := make(domain.Record, len(header))
		for i, cell := range row {
			if i >= len(header) || header[i] == "" {
				continue
			}
			rec[header[i]] = cell
		}
		records = append(records, rec)
	}
	return records, nil
}
