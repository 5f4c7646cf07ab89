package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/mailprobe/internal/domain"
)

func setupJobStore(t *testing.T) (*JobStore, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewJobStore(client, time.Hour)
	cleanup := func() {
		client.Close()
		mr.Close()
	}
	return store, mr, cleanup
}

func TestJobStoreRoundTrip(t *testing.T) {
	store, _, cleanup := setupJobStore(t)
	defer cleanup()
	ctx := context.Background()

	job := &domain.VerificationJob{
		ID:           "7b0d6f2e-test",
		Filename:     "subscribers.csv",
		Status:       domain.JobProcessing,
		TotalRecords: 120,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	if err := store.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob: %v", err)
	}

	got, err := store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.Filename != job.Filename || got.Status != job.Status || got.TotalRecords != job.TotalRecords {
		t.Errorf("GetJob = %+v, want %+v", got, job)
	}
}

func TestJobStoreMissingJob(t *testing.T) {
	store, _, cleanup := setupJobStore(t)
	defer cleanup()

	if _, err := store.GetJob(context.Background(), "nope"); err != ErrJobNotFound {
		t.Errorf("GetJob(missing) err = %v, want ErrJobNotFound", err)
	}
	if _, err := store.GetProgress(context.Background(), "nope"); err != ErrJobNotFound {
		t.Errorf("GetProgress(missing) err = %v, want ErrJobNotFound", err)
	}
}

func TestJobStoreProgressRoundTrip(t *testing.T) {
	store, _, cleanup := setupJobStore(t)
	defer cleanup()
	ctx := context.Background()

	progress := &domain.JobProgress{
		JobID:     "7b0d6f2e-test",
		Status:    domain.JobProcessing,
		Progress:  40,
		Processed: 10,
		Total:     25,
		UpdatedAt: time.Now().UTC(),
	}
	if err := store.SaveProgress(ctx, progress); err != nil {
		t.Fatalf("SaveProgress: %v", err)
	}

	got, err := store.GetProgress(ctx, progress.JobID)
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if got.Progress != 40 || got.Processed != 10 || got.Total != 25 {
		t.Errorf("GetProgress = %+v, want %+v", got, progress)
	}
}

func TestJobStoreEntriesExpire(t *testing.T) {
	store, mr, cleanup := setupJobStore(t)
	defer cleanup()
	ctx := context.Background()

	job := &domain.VerificationJob{ID: "ttl-test", Status: domain.JobProcessing}
	if err := store.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob: %v", err)
	}

	mr.FastForward(2 * time.Hour)

	if _, err := store.GetJob(ctx, job.ID); err != ErrJobNotFound {
		t.Errorf("GetJob after TTL err = %v, want ErrJobNotFound", err)
	}
}

func TestJobStoreUnavailable(t *testing.T) {
	store := NewJobStore(nil, time.Hour)
	ctx := context.Background()

	if store.Available() {
		t.Error("store with nil client must report unavailable")
	}
	if err := store.Ping(ctx); err != ErrUnavailable {
		t.Errorf("Ping err = %v, want ErrUnavailable", err)
	}
	if err := store.SaveJob(ctx, &domain.VerificationJob{ID: "x"}); err != ErrUnavailable {
		t.Errorf("SaveJob err = %v, want ErrUnavailable", err)
	}
	if _, err := store.GetJob(ctx, "x"); err != ErrUnavailable {
		t.Errorf("GetJob err = %v, want ErrUnavailable", err)
	}
}
