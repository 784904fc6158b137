package store

import "context"

// ScheduleStore maps a user to the identifier of their one outstanding
// delayed job. The scheduling engine owns the mapping; at most one entry
// exists per user.
type ScheduleStore interface {
	// Get returns the stored job id, or "" when the user has no entry.
	Get(ctx context.Context, userID string) (string, error)

	Set(ctx context.Context, userID, jobID string) error

	Delete(ctx context.Context, userID string) error

	Close() error
}
