package config

import (
	"time"

	"github.com/google/uuid"
	"github.com/kelseyhightower/envconfig"
)

// envSpec mirrors the BIRTHDAY_* environment surface.
type envSpec struct {
	Instance          string `envconfig:"INSTANCE"`
	Mode              string `envconfig:"MODE" default:"queue"`
	SendTimeLocal     string `envconfig:"SEND_TIME_LOCAL" default:"09:00"`
	SendAnytime       bool   `envconfig:"SEND_ANYTIME"`
	IncludeUnverified bool   `envconfig:"INCLUDE_UNVERIFIED"`

	WorkerConcurrency  int `envconfig:"WORKER_CONCURRENCY" default:"25"`
	WorkerRateMax      int `envconfig:"WORKER_RATE_MAX"`
	WorkerRateDuration int `envconfig:"WORKER_RATE_DURATION_MS" default:"1000"`

	PostgresURL string `envconfig:"POSTGRES_URL" required:"true"`

	RedisAddress  string `envconfig:"REDIS_ADDRESS" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB"`

	AMQPURL        string `envconfig:"AMQP_URL"`
	AMQPExchange   string `envconfig:"AMQP_EXCHANGE" default:"birthday"`
	AMQPQueue      string `envconfig:"AMQP_QUEUE" default:"birthday.greetings"`
	AMQPRoutingKey string `envconfig:"AMQP_ROUTING_KEY" default:"greeting"`
}

// LoadFromEnv builds a Config from BIRTHDAY_* environment variables. When no
// instance name is given, a random one is generated so job row locks stay
// distinguishable across replicas.
func LoadFromEnv() (*Config, error) {
	var spec envSpec
	if err := envconfig.Process("birthday", &spec); err != nil {
		return nil, err
	}

	instance := spec.Instance
	if instance == "" {
		instance = "birthdayd-" + uuid.NewString()[:8]
	}

	opts := []Option{
		WithMode(Mode(spec.Mode)),
		WithSendTime(spec.SendTimeLocal),
		WithSendAnytime(spec.SendAnytime),
		WithIncludeUnverified(spec.IncludeUnverified),
		WithWorkerConcurrency(spec.WorkerConcurrency),
		WithRateLimit(spec.WorkerRateMax, time.Duration(spec.WorkerRateDuration)*time.Millisecond),
		WithPostgres(spec.PostgresURL),
		WithRedis(RedisConfig{
			Address:  spec.RedisAddress,
			Password: spec.RedisPassword,
			DB:       spec.RedisDB,
		}),
	}
	if spec.AMQPURL != "" {
		opts = append(opts, WithAMQP(AMQPConfig{
			URL:        spec.AMQPURL,
			Exchange:   spec.AMQPExchange,
			Queue:      spec.AMQPQueue,
			RoutingKey: spec.AMQPRoutingKey,
		}))
	}

	return New(instance, opts...)
}
