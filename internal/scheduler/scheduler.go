// Package scheduler owns the one outstanding delayed delivery per user:
// whether it should exist, when it fires, and replacing it when the user's
// birthday or timezone changes.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"birthfire/internal/config"
	"birthfire/internal/models"
	"birthfire/internal/occurrence"
	"birthfire/internal/store"
)

type Engine struct {
	schedules store.ScheduleStore
	jobs      store.BirthdayJobStore
	cfg       *config.Config
	log       zerolog.Logger
	now       func() time.Time
}

func NewEngine(schedules store.ScheduleStore, jobs store.BirthdayJobStore, cfg *config.Config, log zerolog.Logger) *Engine {
	return &Engine{
		schedules: schedules,
		jobs:      jobs,
		cfg:       cfg,
		log:       log.With().Str("component", "scheduler").Logger(),
		now:       time.Now,
	}
}

// JobID derives the delayed-job identifier for one occurrence. Rescheduling
// to the same instant yields the same id; a changed instant yields a new one.
func JobID(userID string, runAt time.Time) string {
	return fmt.Sprintf("birthday-%s-%d", userID, runAt.UnixMilli())
}

// Eligible reports whether a user should have a standing schedule at all.
func (e *Engine) Eligible(user models.User) bool {
	if !e.cfg.IncludeUnverified && !user.EmailVerified {
		return false
	}
	return user.Birthday != "" && user.Timezone != ""
}

// ScheduleUser computes the user's next occurrence and replaces their
// schedule entry with it. An ineligible user, or one whose next occurrence is
// not computable, has any standing entry cleared instead; both paths are
// idempotent.
//
// The job is registered with the backend before the mapping is updated, so a
// crash between the two leaves at worst a dangling job, which the dispatch
// protocol absorbs.
func (e *Engine) ScheduleUser(ctx context.Context, user models.User) error {
	prevJobID, err := e.schedules.Get(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("read schedule entry for user %s: %w", user.ID, err)
	}

	if !e.Eligible(user) {
		return e.clear(ctx, user.ID, prevJobID)
	}

	now := e.now()
	hour, minute := e.cfg.SendTime()

	runAt, err := occurrence.NextForBirthday(user.Birthday, user.Timezone, hour, minute, now)
	if err != nil {
		e.log.Warn().Err(err).Str("user_id", user.ID).Msg("next occurrence not computable")
		return e.clear(ctx, user.ID, prevJobID)
	}

	jobID := JobID(user.ID, runAt)

	if prevJobID != "" && prevJobID != jobID {
		// Best effort: a lost cancellation only produces a stale firing,
		// which the delivery guard turns into a no-op.
		if err := e.jobs.Cancel(ctx, prevJobID); err != nil {
			e.log.Warn().Err(err).Str("job_id", prevJobID).Msg("cancel of stale job failed")
		}
	}

	if err := e.jobs.Submit(ctx, jobID, user.ID, runAt); err != nil {
		return fmt.Errorf("submit job %s: %w", jobID, err)
	}
	if err := e.schedules.Set(ctx, user.ID, jobID); err != nil {
		return fmt.Errorf("store schedule entry for user %s: %w", user.ID, err)
	}

	e.log.Debug().
		Str("user_id", user.ID).
		Str("job_id", jobID).
		Time("run_at", runAt).
		Msg("user scheduled")
	return nil
}

// RemoveUser clears the schedule entry unconditionally, for when the user
// record itself was deleted.
func (e *Engine) RemoveUser(ctx context.Context, userID string) error {
	prevJobID, err := e.schedules.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("read schedule entry for user %s: %w", userID, err)
	}
	return e.clear(ctx, userID, prevJobID)
}

func (e *Engine) clear(ctx context.Context, userID, prevJobID string) error {
	if prevJobID != "" {
		if err := e.jobs.Cancel(ctx, prevJobID); err != nil {
			e.log.Warn().Err(err).Str("job_id", prevJobID).Msg("cancel of stale job failed")
		}
	}
	return e.schedules.Delete(ctx, userID)
}

// SetNowFunc overrides the clock, for tests.
func (e *Engine) SetNowFunc(now func() time.Time) {
	e.now = now
}
