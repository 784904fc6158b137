package app

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"birthfire/internal/config"
	"birthfire/internal/sender"
)

func TestNewContainer_PollModeSkipsRedisAndQueueServices(t *testing.T) {
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	cfg, err := config.New("test-instance", config.WithMode(config.ModePoll))
	require.NoError(t, err)

	container, err := NewContainer(context.Background(), cfg, zerolog.Nop(),
		WithDB(sqlDB), WithoutMigrations())
	require.NoError(t, err)

	assert.Nil(t, container.Redis, "poll mode must not dial redis")
	assert.Nil(t, container.ScheduleStore)
	assert.Nil(t, container.Engine)
	assert.Nil(t, container.Dispatcher)
	assert.NotNil(t, container.Poller)
	assert.IsType(t, &sender.ConsoleSender{}, container.Sender)
}

func TestNewContainer_QueueModeWiresDispatchPipeline(t *testing.T) {
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	cfg, err := config.New("test-instance")
	require.NoError(t, err)

	container, err := NewContainer(context.Background(), cfg, zerolog.Nop(),
		WithDB(sqlDB), WithRedis(redis.NewClient(&redis.Options{})), WithoutMigrations())
	require.NoError(t, err)

	assert.NotNil(t, container.ScheduleStore)
	assert.NotNil(t, container.Engine)
	assert.NotNil(t, container.Dispatcher)
	assert.NotNil(t, container.Users)
	assert.Nil(t, container.Poller, "queue mode does not run the tick scan")
}
