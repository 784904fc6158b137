package store

import (
	"context"
	"errors"

	"birthfire/internal/models"
)

// ErrUserNotFound is returned by Update and Delete when no row matched.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailTaken is returned by Create and Update on a unique email conflict.
var ErrEmailTaken = errors.New("email already exists")

// UserStore is the slice of the user record the birthday pipeline needs.
type UserStore interface {
	// Create inserts a user and returns its ID. BirthdayMD is derived by
	// the store from the birthday date.
	Create(ctx context.Context, user *models.User) (string, error)

	// FindByID looks up a user. Returns (nil, nil) when absent.
	FindByID(ctx context.Context, userID string) (*models.User, error)

	// Update applies the set fields of patch. A birthday change recomputes
	// BirthdayMD and clears LastDeliveredDate, since the stored delivery
	// marker no longer refers to the new recurrence.
	Update(ctx context.Context, userID string, patch models.UserPatch) (*models.User, error)

	// Delete removes a user. Returns ErrUserNotFound when absent.
	Delete(ctx context.Context, userID string) error

	// FindEligibleCandidates returns users whose BirthdayMD is in monthDays
	// and whose LastDeliveredDate is not in excludedDates. When verifiedOnly
	// is set, unverified users are filtered out.
	FindEligibleCandidates(ctx context.Context, monthDays, excludedDates []string, verifiedOnly bool) ([]models.User, error)

	// MarkDelivered atomically sets LastDeliveredDate to today only if it
	// differs. Reports whether the update applied; a false return means a
	// concurrent or earlier firing already won this calendar day.
	MarkDelivered(ctx context.Context, userID, today string) (bool, error)

	// ScanAll streams every user to fn, for the bootstrap reschedule pass.
	ScanAll(ctx context.Context, fn func(models.User) error) error

	Close() error
}
