package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/mailprobe/internal/domain"
)

// HandleVerify verifies one address synchronously.
// POST /api/verify  {"email": "user@example.com"}
func (h *Handlers) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		respondError(w, http.StatusBadRequest, "email is required")
		return
	}

	result := h.verifier.Verify(r.Context(), req.Email)
	respondJSON(w, http.StatusOK, result)
}

// HandleBulkVerify accepts a CSV upload and starts a background job.
// Streams the file to disk so large lists never sit in memory.
// POST /api/verify/bulk  (multipart form: file)
func (h *Handlers) HandleBulkVerify(w http.ResponseWriter, r *http.Request) {
	if !h.jobStoreReady() {
		respondError(w, http.StatusServiceUnavailable, "bulk verification requires the job store")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respondError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file too large (max %dMB)", h.maxUploadBytes/(1024*1024)))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	filename := header.Filename
	if filename == "" {
		filename = "upload.csv"
	}

	tmp, err := os.CreateTemp("", "mailprobe-upload-*.csv")
	if err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, "could not store upload")
		return
	}
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		respondSafeError(w, http.StatusInternalServerError, err, "could not store upload")
		return
	}
	tmp.Close()

	job, err := h.runner.Launch(r.Context(), filename, tmp.Name())
	if err != nil {
		os.Remove(tmp.Name())
		respondSafeError(w, http.StatusInternalServerError, err, "could not start verification job")
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id": job.ID,
		"status": job.Status,
	})
}

// HandleJobStatus returns a bulk job with its latest progress snapshot.
// GET /api/verify/bulk/{jobID}
func (h *Handlers) HandleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	job, err := h.lookupJob(r.Context(), jobID)
	if err != nil {
		h.respondJobError(w, err)
		return
	}

	resp := map[string]interface{}{"job": job}
	if h.jobStoreReady() {
		if progress, err := h.jobs.GetProgress(r.Context(), jobID); err == nil {
			resp["progress"] = progress
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

// HandleJobResults returns the stored per-record outcomes of a finished job.
// GET /api/verify/bulk/{jobID}/results
func (h *Handlers) HandleJobResults(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	job, err := h.history.GetJob(r.Context(), jobID)
	if err != nil {
		h.respondJobError(w, err)
		return
	}
	if job.Status == domain.JobProcessing {
		respondError(w, http.StatusConflict, "job is still processing")
		return
	}

	results, err := h.history.Results(r.Context(), jobID)
	if err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, "could not load results")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"job":     job,
		"results": results,
	})
}

// HandleListJobs returns the job history, newest first.
// GET /api/verify/jobs?limit=50&offset=0
func (h *Handlers) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	jobs, total, err := h.history.ListJobs(r.Context(), limit, offset)
	if err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, "could not list jobs")
		return
	}
	if jobs == nil {
		jobs = []domain.VerificationJob{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobs,
		"total": total,
	})
}

// HandleJobEvents streams a job's progress as Server-Sent Events. The stream
// closes after the terminal complete or error event.
// GET /api/verify/bulk/{jobID}/events
func (h *Handlers) HandleJobEvents(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	if _, err := h.lookupJob(r.Context(), jobID); err != nil {
		h.respondJobError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Subscribe before checking stored state so no event can slip between the
	// check and the subscription.
	ch, cancel := h.hub.Subscribe(jobID)
	defer cancel()

	if h.replayFinished(r.Context(), w, flusher, jobID) {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case msg := <-ch:
			writeSSE(w, flusher, msg)
			if isTerminalEvent(msg) {
				return
			}
		}
	}
}

// replayFinished emits a synthetic terminal event for jobs that already
// finished, so late subscribers are not left waiting on a dead stream.
func (h *Handlers) replayFinished(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, jobID string) bool {
	job, err := h.lookupJob(ctx, jobID)
	if err != nil {
		return false
	}

	switch job.Status {
	case domain.JobCompleted:
		ev := domain.BatchProgressEvent{Type: domain.EventComplete}
		if results, err := h.history.Results(ctx, jobID); err == nil {
			ev.Results = results
		}
		if payload, err := json.Marshal(ev); err == nil {
			writeSSE(w, flusher, payload)
		}
		return true
	case domain.JobFailed:
		ev := domain.BatchProgressEvent{Type: domain.EventError, Error: job.Error}
		if payload, err := json.Marshal(ev); err == nil {
			writeSSE(w, flusher, payload)
		}
		return true
	}
	return false
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, payload []byte) {
	w.Write([]byte("data: "))
	w.Write(payload)
	w.Write([]byte("\n\n"))
	flusher.Flush()
}

func isTerminalEvent(payload []byte) bool {
	var env struct {
		Type domain.BatchEventType `json:"type"`
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		return false
	}
	return env.Type == domain.EventComplete || env.Type == domain.EventError
}
