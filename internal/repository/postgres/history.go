package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ignite/mailprobe/internal/domain"
	"github.com/ignite/mailprobe/internal/service/history"
)

// HistoryRepo implements history.Repository against PostgreSQL.
type HistoryRepo struct{ db *sql.DB }

// NewHistoryRepo creates a Postgres-backed job history repository.
func NewHistoryRepo(db *sql.DB) *HistoryRepo { return &HistoryRepo{db: db} }

func (r *HistoryRepo) CreateJob(ctx context.Context, job *domain.VerificationJob) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO verification_jobs (id, filename, status, total_records, valid_count, invalid_count, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, job.ID, job.Filename, job.Status, job.TotalRecords, job.ValidCount, job.InvalidCount, job.Error, job.CreatedAt)
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

func (r *HistoryRepo) UpdateJob(ctx context.Context, job *domain.VerificationJob) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE verification_jobs
		SET status = $2, total_records = $3, valid_count = $4, invalid_count = $5, error = $6, completed_at = $7
		WHERE id = $1
	`, job.ID, job.Status, job.TotalRecords, job.ValidCount, job.InvalidCount, job.Error, job.CompletedAt)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return history.ErrNotFound
	}
	return nil
}

func (r *HistoryRepo) GetJob(ctx context.Context, jobID string) (*domain.VerificationJob, error) {
	var job domain.VerificationJob
	err := r.db.QueryRowContext(ctx, `
		SELECT id, filename, status, total_records, valid_count, invalid_count, COALESCE(error, ''), created_at, completed_at
		FROM verification_jobs
		WHERE id = $1
	`, jobID).Scan(
		&job.ID, &job.Filename, &job.Status, &job.TotalRecords,
		&job.ValidCount, &job.InvalidCount, &job.Error, &job.CreatedAt, &job.CompletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, history.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &job, nil
}

func (r *HistoryRepo) ListJobs(ctx context.Context, limit, offset int) ([]domain.VerificationJob, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM verification_jobs`,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, filename, status, total_records, valid_count, invalid_count, COALESCE(error, ''), created_at, completed_at
		FROM verification_jobs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []domain.VerificationJob
	for rows.Next() {
		var job domain.VerificationJob
		if err := rows.Scan(
			&job.ID, &job.Filename, &job.Status, &job.TotalRecords,
			&job.ValidCount, &job.InvalidCount, &job.Error, &job.CreatedAt, &job.CompletedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, job)
	}
	return out, total, rows.Err()
}

func (r *HistoryRepo) SaveResults(ctx context.Context, jobID string, results []domain.RecordResult) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin results tx: %w", err)
	}
	defer tx.Rollback()

	for i, rr := range results {
		recordJSON, err := json.Marshal(rr.Record)
		if err != nil {
			return fmt.Errorf("marshal record %d: %w", i, err)
		}

		// Pass-through rows keep NULL verdict columns.
		var email, reason sql.NullString
		var valid sql.NullBool
		var checksJSON []byte
		if rr.Result != nil {
			email = sql.NullString{String: rr.Result.Email, Valid: true}
			reason = sql.NullString{String: rr.Result.Reason, Valid: true}
			valid = sql.NullBool{Bool: rr.Result.Valid, Valid: true}
			if checksJSON, err = json.Marshal(rr.Result.Checks); err != nil {
				return fmt.Errorf("marshal checks %d: %w", i, err)
			}
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO verification_results (job_id, position, record, email, valid, checks, reason)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, jobID, i, recordJSON, email, valid, checksJSON, reason); err != nil {
			return fmt.Errorf("insert result %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit results: %w", err)
	}
	return nil
}

func (r *HistoryRepo) ResultsForJob(ctx context.Context, jobID string) ([]domain.RecordResult, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT record, email, valid, checks, reason
		FROM verification_results
		WHERE job_id = $1
		ORDER BY position
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("results for job: %w", err)
	}
	defer rows.Close()

	var out []domain.RecordResult
	for rows.Next() {
		var recordJSON, checksJSON []byte
		var email, reason sql.NullString
		var valid sql.NullBool
		if err := rows.Scan(&recordJSON, &email, &valid, &checksJSON, &reason); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}

		var rr domain.RecordResult
		if err := json.Unmarshal(recordJSON, &rr.Record); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		if email.Valid {
			result := &domain.VerificationResult{
				Email:  email.String,
				Valid:  valid.Bool,
				Reason: reason.String,
			}
			if len(checksJSON) > 0 {
				if err := json.Unmarshal(checksJSON, &result.Checks); err != nil {
					return nil, fmt.Errorf("decode checks: %w", err)
				}
			}
			rr.Result = result
		}
		out = append(out, rr)
	}
	return out, rows.Err()
}
