// Package occurrence computes the next absolute instant at which an annual
// civil date/time occurs in a given IANA zone.
package occurrence

import (
	"errors"
	"fmt"
	"time"
)

// searchHorizonYears bounds the candidate search. Sixteen years is enough to
// find the next leap year for a Feb-29 birthday from any starting point,
// including the century exceptions.
const searchHorizonYears = 16

// ErrNoOccurrence is returned when no valid occurrence exists within the
// search horizon. Callers must treat it as "no next occurrence is currently
// computable" and clear any standing schedule rather than retry.
var ErrNoOccurrence = errors.New("no next occurrence within search horizon")

// Next returns the next UTC instant at or after now at which the civil date
// (month, day) occurs at (hour, minute) local time in timezone.
//
// Candidate years are scanned upward from the local current year. A candidate
// is discarded when the civil date does not exist in that year (Feb 29 in a
// non-leap year) or when applying the time-of-day rolls the date, which
// happens when the whole local day was skipped by an offset transition.
func Next(month time.Month, day int, timezone string, hour, minute int, now time.Time) (time.Time, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("resolve timezone %q: %w", timezone, err)
	}

	localNow := now.In(loc)

	for i := 0; i < searchHorizonYears; i++ {
		year := localNow.Year() + i

		candidate := time.Date(year, month, day, hour, minute, 0, 0, loc)
		// time.Date normalizes out-of-range dates (Feb 29 in a non-leap
		// year becomes Mar 1) and nonexistent wall times; a changed month
		// or day means the civil date was not valid as given.
		if candidate.Month() != month || candidate.Day() != day {
			continue
		}

		if candidate.Before(now) {
			continue
		}
		return candidate.UTC(), nil
	}

	return time.Time{}, ErrNoOccurrence
}

// NextForBirthday is Next keyed off an ISO birthday date; the year part is
// ignored, only month and day feed the recurrence.
func NextForBirthday(birthday, timezone string, hour, minute int, now time.Time) (time.Time, error) {
	bd, err := time.Parse("2006-01-02", birthday)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid birthday date %q: %w", birthday, err)
	}
	return Next(bd.Month(), bd.Day(), timezone, hour, minute, now)
}
