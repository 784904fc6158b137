package models

import (
	"time"

	"birthfire/internal/state"
)

// BirthdayJob is one pending delayed delivery for a user. JobID is derived
// deterministically from the user and the fire instant, so re-submitting the
// same occurrence is a no-op at the store level.
type BirthdayJob struct {
	JobID       string
	UserID      string
	Status      state.JobStatus
	Attempts    int
	MaxAttempts int
	ScheduledAt time.Time
	ExecutedAt  *time.Time
	FinishedAt  *time.Time
	LastError   *string
	LockedBy    *string
	LockedAt    *time.Time
	CreatedAt   time.Time
}
