// Package users is the user-lifecycle entry point into the scheduling
// engine: every create, update and delete re-evaluates the user's standing
// schedule.
package users

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"birthfire/internal/constants"
	"birthfire/internal/lock"
	"birthfire/internal/models"
	"birthfire/internal/scheduler"
	"birthfire/internal/store"
)

type Service struct {
	store   store.UserStore
	engine  *scheduler.Engine
	lockMgr lock.DistributedLockManager
	log     zerolog.Logger
}

func NewService(userStore store.UserStore, engine *scheduler.Engine, lockMgr lock.DistributedLockManager, log zerolog.Logger) *Service {
	return &Service{
		store:   userStore,
		engine:  engine,
		lockMgr: lockMgr,
		log:     log.With().Str("component", "users").Logger(),
	}
}

func (s *Service) Create(ctx context.Context, user models.User) (*models.User, error) {
	if _, err := s.store.Create(ctx, &user); err != nil {
		return nil, err
	}
	if err := s.engine.ScheduleUser(ctx, user); err != nil {
		return nil, fmt.Errorf("schedule created user %s: %w", user.ID, err)
	}
	return &user, nil
}

func (s *Service) FindByID(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, store.ErrUserNotFound
	}
	return user, nil
}

// Update applies the patch and re-evaluates the schedule. The store clears
// the delivered-date marker on a birthday change, so the new recurrence is
// not suppressed by a delivery that belonged to the old one.
func (s *Service) Update(ctx context.Context, userID string, patch models.UserPatch) (*models.User, error) {
	user, err := s.store.Update(ctx, userID, patch)
	if err != nil {
		return nil, err
	}
	if err := s.engine.ScheduleUser(ctx, *user); err != nil {
		return nil, fmt.Errorf("reschedule updated user %s: %w", userID, err)
	}
	return user, nil
}

func (s *Service) Delete(ctx context.Context, userID string) error {
	if err := s.store.Delete(ctx, userID); err != nil {
		return err
	}
	return s.engine.RemoveUser(ctx, userID)
}

// ScheduleAll walks every user and (re)schedules each, for process startup.
// Rescheduling is idempotent, so re-running the scan is always safe; a
// distributed lock keeps replicas from scanning concurrently.
func (s *Service) ScheduleAll(ctx context.Context) error {
	if err := s.lockMgr.Acquire(ctx, constants.BootstrapLock); err != nil {
		return fmt.Errorf("acquire bootstrap lock: %w", err)
	}
	defer s.lockMgr.Release(ctx, constants.BootstrapLock)

	started := time.Now()
	var scanned, failed int

	err := s.store.ScanAll(ctx, func(user models.User) error {
		scanned++
		if err := s.engine.ScheduleUser(ctx, user); err != nil {
			failed++
			s.log.Error().Err(err).Str("user_id", user.ID).Msg("bootstrap scheduling failed")
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("bootstrap scan: %w", err)
	}

	s.log.Info().
		Int("scanned", scanned).
		Int("failed", failed).
		Dur("took", time.Since(started)).
		Msg("scheduling bootstrap completed")
	return nil
}

// StartRescheduleLoop re-runs ScheduleAll on the given cron schedule until
// ctx is cancelled. The periodic pass heals schedules lost to transient
// submit failures without waiting for a process restart.
func (s *Service) StartRescheduleLoop(ctx context.Context, schedule string) error {
	runner := cron.New()
	_, err := runner.AddFunc(schedule, func() {
		if err := s.ScheduleAll(ctx); err != nil {
			s.log.Error().Err(err).Msg("periodic reschedule failed")
		}
	})
	if err != nil {
		return fmt.Errorf("reschedule loop: %w", err)
	}

	runner.Start()
	go func() {
		<-ctx.Done()
		runner.Stop()
	}()
	return nil
}
