package history

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/ignite/mailprobe/internal/domain"
)

// mockRepo is an in-memory repository for testing.
type mockRepo struct {
	mu      sync.RWMutex
	jobs    map[string]*domain.VerificationJob
	results map[string][]domain.RecordResult
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		jobs:    make(map[string]*domain.VerificationJob),
		results: make(map[string][]domain.RecordResult),
	}
}

func (m *mockRepo) CreateJob(_ context.Context, job *domain.VerificationJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *mockRepo) UpdateJob(_ context.Context, job *domain.VerificationJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[job.ID]; !ok {
		return ErrNotFound
	}
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *mockRepo) GetJob(_ context.Context, jobID string) (*domain.VerificationJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *job
	return &cp, nil
}

func (m *mockRepo) ListJobs(_ context.Context, limit, offset int) ([]domain.VerificationJob, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.VerificationJob
	for _, job := range m.jobs {
		out = append(out, *job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := len(out)
	if offset < len(out) {
		out = out[offset:]
	} else {
		out = nil
	}
	if limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func (m *mockRepo) SaveResults(_ context.Context, jobID string, results []domain.RecordResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[jobID] = results
	return nil
}

func (m *mockRepo) ResultsForJob(_ context.Context, jobID string) ([]domain.RecordResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.results[jobID], nil
}

func validResult(email string) *domain.VerificationResult {
	return &domain.VerificationResult{
		Email:  email,
		Valid:  true,
		Checks: domain.CheckSet{DNS: true, MX: true, SPF: true, Mailbox: true, SMTP: true},
		Reason: domain.ReasonValid,
	}
}

func invalidResult(email string) *domain.VerificationResult {
	return &domain.VerificationResult{
		Email:  email,
		Valid:  false,
		Reason: domain.ReasonInvalidFormat,
	}
}

func TestStartJob_CreatesProcessingJob(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	job, err := svc.StartJob(ctx, "subscribers.csv", 120)
	if err != nil {
		t.Fatalf("StartJob: %v", err)
	}
	if _, err := uuid.Parse(job.ID); err != nil {
		t.Errorf("job ID %q is not a UUID: %v", job.ID, err)
	}
	if job.Status != domain.JobProcessing {
		t.Errorf("status = %s, want %s", job.Status, domain.JobProcessing)
	}

	stored, err := svc.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if stored.Filename != "subscribers.csv" || stored.TotalRecords != 120 {
		t.Errorf("stored job = %+v", stored)
	}
}

func TestStartJob_EmptyFilename_Fails(t *testing.T) {
	svc := NewService(newMockRepo())
	if _, err := svc.StartJob(context.Background(), "   ", 1); err == nil {
		t.Error("expected error for empty filename")
	}
}

func TestCompleteJob_CountsOutcomes(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	job, _ := svc.StartJob(ctx, "list.csv", 4)
	results := []domain.RecordResult{
		{Record: domain.Record{"email": "a@ok.test"}, Result: validResult("a@ok.test")},
		{Record: domain.Record{"email": "bad"}, Result: invalidResult("bad")},
		{Record: domain.Record{"name": "no address"}},
		{Record: domain.Record{"email": "b@ok.test"}, Result: validResult("b@ok.test")},
	}
	if err := svc.CompleteJob(ctx, job.ID, results); err != nil {
		t.Fatalf("CompleteJob: %v", err)
	}

	stored, _ := svc.GetJob(ctx, job.ID)
	if stored.Status != domain.JobCompleted {
		t.Errorf("status = %s, want %s", stored.Status, domain.JobCompleted)
	}
	if stored.ValidCount != 2 || stored.InvalidCount != 1 {
		t.Errorf("counts = %d valid / %d invalid, want 2/1", stored.ValidCount, stored.InvalidCount)
	}
	if stored.TotalRecords != 4 {
		t.Errorf("total = %d, want 4", stored.TotalRecords)
	}
	if stored.CompletedAt == nil {
		t.Error("expected CompletedAt to be set")
	}

	got, err := svc.Results(ctx, job.ID)
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	if len(got) != 4 {
		t.Errorf("results = %d rows, want 4", len(got))
	}
}

func TestCompleteJob_MissingJob(t *testing.T) {
	svc := NewService(newMockRepo())
	if err := svc.CompleteJob(context.Background(), "ghost", nil); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFailJob_RecordsError(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	job, _ := svc.StartJob(ctx, "list.csv", 10)
	if err := svc.FailJob(ctx, job.ID, "reading records: disk read failed"); err != nil {
		t.Fatalf("FailJob: %v", err)
	}

	stored, _ := svc.GetJob(ctx, job.ID)
	if stored.Status != domain.JobFailed {
		t.Errorf("status = %s, want %s", stored.Status, domain.JobFailed)
	}
	if stored.Error == "" || stored.CompletedAt == nil {
		t.Errorf("failed job = %+v, want error and completion time", stored)
	}
}

func TestListJobs_DefaultsLimit(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.StartJob(ctx, "list.csv", 1); err != nil {
			t.Fatalf("StartJob #%d: %v", i, err)
		}
	}

	jobs, total, err := svc.ListJobs(ctx, 0, 0)
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if total != 3 || len(jobs) != 3 {
		t.Errorf("ListJobs = %d rows, total %d, want 3/3", len(jobs), total)
	}
}
