// Package dispatch drains due birthday jobs under bounded concurrency and
// rate, applying the at-most-once delivery protocol.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"birthfire/internal/config"
	"birthfire/internal/models"
	"birthfire/internal/scheduler"
	"birthfire/internal/sender"
	"birthfire/internal/store"
)

type Dispatcher struct {
	users   store.UserStore
	jobs    store.BirthdayJobStore
	engine  *scheduler.Engine
	sender  sender.MessageSender
	console sender.MessageSender
	cfg     *config.Config
	log     zerolog.Logger
	limiter *rate.Limiter
	now     func() time.Time
}

func NewDispatcher(users store.UserStore, jobs store.BirthdayJobStore, engine *scheduler.Engine, msgSender sender.MessageSender, cfg *config.Config, log zerolog.Logger) *Dispatcher {
	var limiter *rate.Limiter
	if cfg.RateMax > 0 {
		// Token bucket: RateMax events per RateDuration, bursts capped at
		// one window's worth.
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RateMax)/cfg.RateDuration.Seconds()), cfg.RateMax)
	}

	return &Dispatcher{
		users:   users,
		jobs:    jobs,
		engine:  engine,
		sender:  msgSender,
		console: sender.NewConsoleSender(),
		cfg:     cfg,
		log:     log.With().Str("component", "dispatcher").Logger(),
		limiter: limiter,
		now:     time.Now,
	}
}

// Start runs the fetch-lock-process loop until ctx is cancelled. In-flight
// handlers are drained before returning.
func (d *Dispatcher) Start(ctx context.Context) error {
	if err := d.jobs.UnlockStale(ctx, d.cfg.StaleLockAge); err != nil {
		return fmt.Errorf("unlock stale jobs: %w", err)
	}

	sem := semaphore.NewWeighted(int64(d.cfg.WorkerConcurrency))
	var wg sync.WaitGroup

	ticker := time.NewTicker(d.cfg.FetchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		case <-ticker.C:
			d.processDueJobs(ctx, sem, &wg)
		}
	}
}

func (d *Dispatcher) processDueJobs(ctx context.Context, sem *semaphore.Weighted, wg *sync.WaitGroup) {
	jobs, err := d.jobs.FetchDue(ctx, d.now(), d.cfg.BatchSize)
	if err != nil {
		d.log.Error().Err(err).Msg("fetch due jobs failed")
		return
	}

	for _, job := range jobs {
		if d.limiter != nil {
			if err := d.limiter.Wait(ctx); err != nil {
				return
			}
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			return
		}

		// Claim the row only once capacity is secured, so a job never sits
		// in processing while this instance waits on the limiter.
		ok, err := d.jobs.Lock(ctx, job.JobID, d.cfg.Instance)
		if err != nil || !ok {
			sem.Release(1)
			continue
		}
		wg.Add(1)

		go func(job models.BirthdayJob) {
			defer sem.Release(1)
			defer wg.Done()

			if err := d.Process(ctx, job); err != nil {
				d.log.Error().Err(err).Str("job_id", job.JobID).Msg("job processing failed")
				if markErr := d.jobs.MarkFailure(ctx, job.JobID, err.Error(), job.Attempts+1, job.MaxAttempts); markErr != nil {
					d.log.Error().Err(markErr).Str("job_id", job.JobID).Msg("mark failure failed")
				}
				return
			}
			if err := d.jobs.MarkSuccess(ctx, job.JobID); err != nil {
				d.log.Error().Err(err).Str("job_id", job.JobID).Msg("mark success failed")
			}
		}(job)
	}
}

// Process handles one due job. Duplicate and stale firings are expected here:
// everything before the conditional delivery update is advisory, the update
// itself is the only gate, and the user is rescheduled for the next year no
// matter which branch was taken.
func (d *Dispatcher) Process(ctx context.Context, job models.BirthdayJob) error {
	user, err := d.users.FindByID(ctx, job.UserID)
	if err != nil {
		return fmt.Errorf("load user %s: %w", job.UserID, err)
	}
	if user == nil {
		// Deleted after the job was scheduled.
		return d.engine.RemoveUser(ctx, job.UserID)
	}

	if !d.engine.Eligible(*user) {
		// ScheduleUser clears the entry for ineligible users.
		return d.engine.ScheduleUser(ctx, *user)
	}

	loc, err := time.LoadLocation(user.Timezone)
	if err != nil {
		d.log.Warn().Err(err).Str("user_id", user.ID).Msg("timezone unresolvable at dispatch")
		return d.engine.ScheduleUser(ctx, *user)
	}

	localNow := d.now().In(loc)
	today := localNow.Format("2006-01-02")

	if localNow.Format("01-02") != user.BirthdayMD {
		// Birthday was edited between scheduling and firing; pick up the
		// corrected value instead of delivering.
		return d.engine.ScheduleUser(ctx, *user)
	}

	applied, err := d.users.MarkDelivered(ctx, user.ID, today)
	if err != nil {
		return fmt.Errorf("delivery guard for user %s: %w", user.ID, err)
	}

	if applied {
		d.deliver(ctx, *user)
	}

	// Always advance the schedule, delivered or not.
	return d.engine.ScheduleUser(ctx, *user)
}

func (d *Dispatcher) deliver(ctx context.Context, user models.User) {
	target := d.sender
	if !user.EmailVerified {
		// Included by the unverified override: log-only delivery.
		target = d.console
	}
	if err := target.Send(ctx, user); err != nil {
		// Not retried and the delivered-date marker stays: a resend here
		// would break at-most-once.
		d.log.Error().Err(err).Str("user_id", user.ID).Msg("greeting send failed")
		return
	}
	d.log.Info().Str("user_id", user.ID).Msg("greeting delivered")
}

// SetNowFunc overrides the clock, for tests.
func (d *Dispatcher) SetNowFunc(now func() time.Time) {
	d.now = now
}

// SetConsoleSender overrides the log-only channel, for tests.
func (d *Dispatcher) SetConsoleSender(s sender.MessageSender) {
	d.console = s
}
