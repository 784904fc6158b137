package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"birthfire/internal/constants"
	"birthfire/internal/models"
	"birthfire/internal/state"
	"birthfire/internal/store"
)

type postgresBirthdayJobStore struct {
	db *sql.DB
}

// NewPostgresBirthdayJobStore creates the delayed-job backend on the
// birthday_jobs table. Due jobs are surfaced by polling scheduled_at.
func NewPostgresBirthdayJobStore(db *sql.DB) store.BirthdayJobStore {
	return &postgresBirthdayJobStore{db: db}
}

func (r *postgresBirthdayJobStore) Submit(ctx context.Context, jobID, userID string, scheduledAt time.Time) error {
	// ON CONFLICT DO NOTHING: the job id encodes the fire instant, so a
	// duplicate submit is the same occurrence and must not reset job state.
	query := `
		INSERT INTO birthfire_schema.birthday_jobs (job_id, user_id, status, max_attempts, scheduled_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (job_id) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query,
		jobID, userID, state.StatusQueued, constants.MaxDeliveryAttempts, scheduledAt)
	return err
}

func (r *postgresBirthdayJobStore) Cancel(ctx context.Context, jobID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM birthfire_schema.birthday_jobs WHERE job_id = $1`, jobID)
	return err
}

func (r *postgresBirthdayJobStore) FetchDue(ctx context.Context, now time.Time, limit int) ([]models.BirthdayJob, error) {
	query := `
		SELECT job_id, user_id, status, attempts, max_attempts, scheduled_at,
		       executed_at, finished_at, last_error, locked_by, locked_at, created_at
		FROM birthfire_schema.birthday_jobs
		WHERE status = $1 AND scheduled_at <= $2
		ORDER BY scheduled_at ASC
		LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, state.StatusQueued, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []models.BirthdayJob
	for rows.Next() {
		var job models.BirthdayJob
		err := rows.Scan(
			&job.JobID,
			&job.UserID,
			&job.Status,
			&job.Attempts,
			&job.MaxAttempts,
			&job.ScheduledAt,
			&job.ExecutedAt,
			&job.FinishedAt,
			&job.LastError,
			&job.LockedBy,
			&job.LockedAt,
			&job.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (r *postgresBirthdayJobStore) Lock(ctx context.Context, jobID, lockedBy string) (bool, error) {
	// The status guard makes the claim atomic: only one instance can move
	// a queued row to processing.
	query := `
		UPDATE birthfire_schema.birthday_jobs
		SET status = $2, locked_by = $3, locked_at = now(), executed_at = now(),
		    attempts = attempts + 1
		WHERE job_id = $1 AND status = $4`

	result, err := r.db.ExecContext(ctx, query,
		jobID, state.StatusProcessing, lockedBy, state.StatusQueued)
	if err != nil {
		return false, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}

func (r *postgresBirthdayJobStore) MarkSuccess(ctx context.Context, jobID string) error {
	// Completed jobs are removed rather than archived; the schedule store
	// plus the next submit is the durable record of what comes next.
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM birthfire_schema.birthday_jobs WHERE job_id = $1`, jobID)
	return err
}

func (r *postgresBirthdayJobStore) MarkFailure(ctx context.Context, jobID string, errMsg string, attempts, maxAttempts int) error {
	target := state.StatusQueued
	if attempts >= maxAttempts {
		target = state.StatusFailed
	}
	if !state.IsValidTransition(state.StatusProcessing, target) {
		return fmt.Errorf("job %s: transition %s -> %s not allowed", jobID, state.StatusProcessing, target)
	}

	if target == state.StatusFailed {
		query := `
			UPDATE birthfire_schema.birthday_jobs
			SET status = $2, last_error = $3, finished_at = now(), locked_by = NULL, locked_at = NULL
			WHERE job_id = $1`
		_, err := r.db.ExecContext(ctx, query, jobID, target, errMsg)
		return err
	}

	// Requeue for redelivery. The delivery guard keeps the retry safe.
	query := `
		UPDATE birthfire_schema.birthday_jobs
		SET status = $2, last_error = $3, locked_by = NULL, locked_at = NULL
		WHERE job_id = $1`
	_, err := r.db.ExecContext(ctx, query, jobID, target, errMsg)
	return err
}

func (r *postgresBirthdayJobStore) UnlockStale(ctx context.Context, timeout time.Duration) error {
	query := `
		UPDATE birthfire_schema.birthday_jobs
		SET status = $1, locked_by = NULL, locked_at = NULL
		WHERE status = $2 AND locked_at < $3`

	cutoff := time.Now().Add(-timeout)
	_, err := r.db.ExecContext(ctx, query, state.StatusQueued, state.StatusProcessing, cutoff)
	return err
}

func (r *postgresBirthdayJobStore) Close() error {
	return r.db.Close()
}
