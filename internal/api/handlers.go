package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ignite/mailprobe/internal/domain"
	"github.com/ignite/mailprobe/internal/service/history"
	"github.com/ignite/mailprobe/internal/storage"
)

// Verifier runs the single-address verification pipeline.
// *verify.Verifier is the production implementation.
type Verifier interface {
	Verify(ctx context.Context, email string) domain.VerificationResult
}

// JobLauncher starts a background bulk job for an uploaded file.
// *worker.VerifyJobRunner is the production implementation.
type JobLauncher interface {
	Launch(ctx context.Context, filename, tempPath string) (*domain.VerificationJob, error)
}

// Handlers carries the request handlers for the verification API.
type Handlers struct {
	verifier       Verifier
	runner         JobLauncher
	history        *history.Service
	jobs           *storage.JobStore
	hub            *EventsHub
	db             *sql.DB
	maxUploadBytes int64
}

// NewHandlers wires the API handlers to their collaborators. db is used only
// for health reporting and may be nil in tests.
func NewHandlers(
	verifier Verifier,
	runner JobLauncher,
	hist *history.Service,
	jobs *storage.JobStore,
	hub *EventsHub,
	db *sql.DB,
	maxUploadBytes int64,
) *Handlers {
	return &Handlers{
		verifier:       verifier,
		runner:         runner,
		history:        hist,
		jobs:           jobs,
		hub:            hub,
		db:             db,
		maxUploadBytes: maxUploadBytes,
	}
}

// jobStoreReady reports whether Redis-backed job state is usable.
func (h *Handlers) jobStoreReady() bool {
	return h.jobs != nil && h.jobs.Available()
}

// lookupJob prefers the Redis mirror (fresh during a run) and falls back to
// the durable history record.
func (h *Handlers) lookupJob(ctx context.Context, jobID string) (*domain.VerificationJob, error) {
	if h.jobStoreReady() {
		if job, err := h.jobs.GetJob(ctx, jobID); err == nil {
			return job, nil
		}
	}
	return h.history.GetJob(ctx, jobID)
}

func (h *Handlers) respondJobError(w http.ResponseWriter, err error) {
	if errors.Is(err, history.ErrNotFound) || errors.Is(err, storage.ErrJobNotFound) {
		respondError(w, http.StatusNotFound, "job not found")
		return
	}
	respondSafeError(w, http.StatusInternalServerError, err, "internal error")
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// Health check

// HealthCheck reports the state of the service and its backends.
// GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{}
	status := "ok"

	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			checks["postgres"] = "down"
			status = "degraded"
		} else {
			checks["postgres"] = "up"
		}
	}

	if h.jobStoreReady() {
		if err := h.jobs.Ping(ctx); err != nil {
			checks["redis"] = "down"
			status = "degraded"
		} else {
			checks["redis"] = "up"
		}
	} else {
		checks["redis"] = "not_configured"
		status = "degraded"
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    status,
		"service":   "mailprobe",
		"timestamp": time.Now().UTC(),
		"checks":    checks,
	})
}
