package models

import (
	"fmt"
	"time"
)

// User is the slice of the user record the birthday pipeline reads and
// writes. Identity and the core business fields are owned by the user
// management surface; this package only adds the scheduling columns.
type User struct {
	ID            string
	Name          string
	Email         string
	Birthday      string // ISO calendar date, year ignored for recurrence
	BirthdayMD    string // derived "MM-DD", kept consistent with Birthday
	Timezone      string
	EmailVerified bool

	// LastDeliveredDate is the ISO local date of the most recent delivered
	// greeting, empty if none. The conditional update on this column is the
	// at-most-once guard.
	LastDeliveredDate string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// MonthDay derives the "MM-DD" index value from an ISO birthday date.
func MonthDay(birthday string) (string, error) {
	t, err := time.Parse("2006-01-02", birthday)
	if err != nil {
		return "", fmt.Errorf("invalid birthday date %q: %w", birthday, err)
	}
	return t.Format("01-02"), nil
}
