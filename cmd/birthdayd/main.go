package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"birthfire/app"
	"birthfire/internal/config"
	"birthfire/internal/logging"
)

func main() {
	logLevel := os.Getenv("BIRTHDAY_LOG_LEVEL")
	log := logging.New(logLevel)
	if os.Getenv("BIRTHDAY_LOG_FORMAT") == "console" {
		log = logging.NewConsole(logLevel)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := app.NewContainer(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("wire dependencies")
	}
	defer container.Close()

	log.Info().
		Str("instance", cfg.Instance).
		Str("mode", string(cfg.Mode)).
		Str("send_time", cfg.SendTimeLocal).
		Msg("birthdayd starting")

	switch cfg.Mode {
	case config.ModePoll:
		// Poll mode re-evaluates eligibility every tick; no standing
		// schedules, so no bootstrap pass is needed.
		err = container.Poller.Start(ctx)
	default:
		go func() {
			if err := container.Users.ScheduleAll(ctx); err != nil {
				log.Error().Err(err).Msg("scheduling bootstrap failed")
			}
		}()
		// The nightly pass re-submits schedules lost to transient failures.
		if err := container.Users.StartRescheduleLoop(ctx, "@midnight"); err != nil {
			log.Fatal().Err(err).Msg("start reschedule loop")
		}
		err = container.Dispatcher.Start(ctx)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("run loop terminated")
	}

	log.Info().Msg("birthdayd shutdown complete")
}
