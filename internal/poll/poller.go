// Package poll is the backend-free dispatch mode: a per-minute tick scans the
// narrow slice of users whose birthday can be "today" somewhere on Earth and
// applies the same delivery guard the queue dispatcher uses.
package poll

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"birthfire/internal/config"
	"birthfire/internal/constants"
	"birthfire/internal/lock"
	"birthfire/internal/models"
	"birthfire/internal/sender"
	"birthfire/internal/store"
)

type Poller struct {
	users   store.UserStore
	sender  sender.MessageSender
	console sender.MessageSender
	locks   lock.DistributedLockManager
	cfg     *config.Config
	log     zerolog.Logger
	now     func() time.Time
}

func NewPoller(users store.UserStore, msgSender sender.MessageSender, lockMgr lock.DistributedLockManager, cfg *config.Config, log zerolog.Logger) *Poller {
	return &Poller{
		users:   users,
		sender:  msgSender,
		console: sender.NewConsoleSender(),
		locks:   lockMgr,
		cfg:     cfg,
		log:     log.With().Str("component", "poller").Logger(),
		now:     time.Now,
	}
}

// Start ticks once per minute until ctx is cancelled. Delivery timing is
// bounded by the tick cadence: a tick missed while the process was down is
// not replayed.
func (p *Poller) Start(ctx context.Context) error {
	runner := cron.New()
	_, err := runner.AddFunc("* * * * *", func() {
		if err := p.Tick(ctx); err != nil {
			p.log.Error().Err(err).Msg("tick failed")
		}
	})
	if err != nil {
		return err
	}

	runner.Start()
	<-ctx.Done()

	stopped := runner.Stop()
	<-stopped.Done()
	return ctx.Err()
}

// Tick performs one scan. A distributed lock serializes ticks across
// replicas, so each minute is scanned once. Candidate narrowing keeps the
// query bounded: only users whose month-day can be "local today" in some zone
// right now are fetched, minus those already delivered on any of those dates.
func (p *Poller) Tick(ctx context.Context) error {
	if err := p.locks.Acquire(ctx, constants.PollTickLock); err != nil {
		return fmt.Errorf("acquire tick lock: %w", err)
	}
	defer p.locks.Release(ctx, constants.PollTickLock)

	nowUtc := p.now().UTC()

	monthDays := PossibleTodayMonthDays(nowUtc)
	isoDates := PossibleTodayDates(nowUtc)

	candidates, err := p.users.FindEligibleCandidates(ctx, monthDays, isoDates, !p.cfg.IncludeUnverified)
	if err != nil {
		return err
	}

	hour, minute := p.cfg.SendTime()

	for _, user := range candidates {
		p.processCandidate(ctx, user, nowUtc, hour, minute)
	}
	return nil
}

func (p *Poller) processCandidate(ctx context.Context, user models.User, nowUtc time.Time, hour, minute int) {
	loc, err := time.LoadLocation(user.Timezone)
	if err != nil {
		p.log.Warn().Err(err).Str("user_id", user.ID).Msg("timezone unresolvable")
		return
	}

	localNow := nowUtc.In(loc)
	if localNow.Hour() != hour || localNow.Minute() != minute {
		return
	}

	// The candidate set is a superset; re-check that the user's local today
	// really is their birthday.
	if localNow.Format("01-02") != user.BirthdayMD {
		return
	}

	today := localNow.Format("2006-01-02")
	applied, err := p.users.MarkDelivered(ctx, user.ID, today)
	if err != nil {
		p.log.Error().Err(err).Str("user_id", user.ID).Msg("delivery guard failed")
		return
	}
	if !applied {
		return
	}

	target := p.sender
	if !user.EmailVerified {
		target = p.console
	}
	if err := target.Send(ctx, user); err != nil {
		p.log.Error().Err(err).Str("user_id", user.ID).Msg("greeting send failed")
		return
	}
	p.log.Info().Str("user_id", user.ID).Msg("greeting delivered")
}

// Extreme standard offsets: Etc/GMT+12 is UTC-12, Etc/GMT-14 is UTC+14
// (POSIX sign convention). Between them every inhabited zone's "today" is
// covered.
var edgeZones = []string{"Etc/GMT+12", "Etc/GMT-14"}

// PossibleTodayMonthDays returns the distinct "MM-DD" values that can be the
// local calendar date somewhere on Earth at the given UTC instant. At most
// three values exist.
func PossibleTodayMonthDays(nowUtc time.Time) []string {
	return possibleTodayFormats(nowUtc, "01-02")
}

// PossibleTodayDates is the same set as full ISO dates, used to pre-exclude
// users already delivered today in any active zone.
func PossibleTodayDates(nowUtc time.Time) []string {
	return possibleTodayFormats(nowUtc, "2006-01-02")
}

func possibleTodayFormats(nowUtc time.Time, layout string) []string {
	seen := make(map[string]struct{}, 3)
	var out []string

	add := func(v string) {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}

	for _, zone := range edgeZones {
		if loc, err := time.LoadLocation(zone); err == nil {
			add(nowUtc.In(loc).Format(layout))
		}
	}
	add(nowUtc.Format(layout))

	return out
}

// SetNowFunc overrides the clock, for tests.
func (p *Poller) SetNowFunc(now func() time.Time) {
	p.now = now
}

// SetConsoleSender overrides the log-only channel, for tests.
func (p *Poller) SetConsoleSender(s sender.MessageSender) {
	p.console = s
}
