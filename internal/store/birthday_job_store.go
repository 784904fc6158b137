package store

import (
	"context"
	"time"

	"birthfire/internal/models"
)

// BirthdayJobStore is the delayed-job backend: a priority-by-time queue that
// surfaces jobs no earlier than their scheduled instant and supports
// cancellation by job id. Delivery is at-least-once; consumers must tolerate
// duplicates.
type BirthdayJobStore interface {
	// Submit registers a job to fire at scheduledAt. Submitting an already
	// known job id is a no-op, which makes rescheduling to the same instant
	// idempotent.
	Submit(ctx context.Context, jobID, userID string, scheduledAt time.Time) error

	// Cancel removes a pending job. Cancelling an unknown id is a no-op.
	Cancel(ctx context.Context, jobID string) error

	// FetchDue returns up to limit queued jobs whose scheduled instant is at
	// or before now, oldest first.
	FetchDue(ctx context.Context, now time.Time, limit int) ([]models.BirthdayJob, error)

	// Lock claims a due job for this instance. Reports false when another
	// instance got there first.
	Lock(ctx context.Context, jobID, lockedBy string) (bool, error)

	MarkSuccess(ctx context.Context, jobID string) error

	MarkFailure(ctx context.Context, jobID string, errMsg string, attempts, maxAttempts int) error

	// UnlockStale releases jobs whose lock is older than timeout, so work
	// held by a crashed instance becomes due again.
	UnlockStale(ctx context.Context, timeout time.Duration) error

	Close() error
}
