package app

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"birthfire/internal/config"
	"birthfire/internal/db"
	"birthfire/internal/dispatch"
	"birthfire/internal/lock"
	"birthfire/internal/poll"
	"birthfire/internal/scheduler"
	"birthfire/internal/sender"
	"birthfire/internal/store"
	pgstore "birthfire/internal/store/postgres"
	redisstore "birthfire/internal/store/redis"
	"birthfire/internal/users"
)

// Container holds all application dependencies. It is the single source of
// truth for wiring and ensures connections and services are created once.
type Container struct {
	Config *config.Config

	DB    *sql.DB
	Redis *redis.Client

	UserStore     store.UserStore
	ScheduleStore store.ScheduleStore
	JobStore      store.BirthdayJobStore

	LockManager lock.DistributedLockManager
	Sender      sender.MessageSender

	Engine     *scheduler.Engine
	Dispatcher *dispatch.Dispatcher
	Poller     *poll.Poller
	Users      *users.Service
}

// NewContainer creates and wires all dependencies; call once per process.
// Pass WithDB / WithRedis to inject connections for testing.
func NewContainer(ctx context.Context, cfg *config.Config, log zerolog.Logger, opts ...ContainerOption) (*Container, error) {
	opt := &containerConfig{}
	for _, o := range opts {
		o(opt)
	}

	sqlDB := opt.db
	if sqlDB == nil {
		var err error
		sqlDB, err = openPostgresDB(cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("init storage: %w", err)
		}
	}

	lockMgr := lock.NewPostgresDistributedLockManager(sqlDB)

	if !opt.skipMigrations {
		if err := db.Init(ctx, sqlDB, lockMgr); err != nil {
			return nil, fmt.Errorf("init schema: %w", err)
		}
	}

	userStore := pgstore.NewPostgresUserStore(sqlDB)
	jobStore := pgstore.NewPostgresBirthdayJobStore(sqlDB)

	var msgSender sender.MessageSender
	if cfg.AMQP != nil {
		amqpSender, err := sender.NewAMQPSender(*cfg.AMQP)
		if err != nil {
			return nil, fmt.Errorf("init amqp sender: %w", err)
		}
		msgSender = amqpSender
	} else {
		msgSender = sender.NewConsoleSender()
	}

	c := &Container{
		Config:      cfg,
		DB:          sqlDB,
		UserStore:   userStore,
		JobStore:    jobStore,
		LockManager: lockMgr,
		Sender:      msgSender,
	}

	// Poll mode keeps no standing schedules, so the schedule store and the
	// queue-side services are not built and Redis is never dialed.
	if cfg.Mode == config.ModePoll {
		c.Poller = poll.NewPoller(userStore, msgSender, lockMgr, cfg, log)
		return c, nil
	}

	redisClient := opt.redis
	if redisClient == nil {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
	}

	scheduleStore := redisstore.NewRedisScheduleStore(redisClient)
	engine := scheduler.NewEngine(scheduleStore, jobStore, cfg, log)

	c.Redis = redisClient
	c.ScheduleStore = scheduleStore
	c.Engine = engine
	c.Dispatcher = dispatch.NewDispatcher(userStore, jobStore, engine, msgSender, cfg, log)
	c.Users = users.NewService(userStore, engine, lockMgr, log)
	return c, nil
}

// Close releases the shared connections.
func (c *Container) Close() error {
	var firstErr error
	if closer, ok := c.Sender.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			firstErr = err
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := c.DB.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func openPostgresDB(connectionURL string) (*sql.DB, error) {
	sqlDB, err := sql.Open("postgres", connectionURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return sqlDB, nil
}
