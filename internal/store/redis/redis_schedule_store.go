package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"birthfire/internal/store"
)

const mappingKeyPrefix = "birthdayJobId:"

type redisScheduleStore struct {
	client *redis.Client
}

// NewRedisScheduleStore creates the user-to-job mapping on Redis. Per-key
// SET/GET/DEL are atomic, which is all the scheduling engine relies on.
func NewRedisScheduleStore(client *redis.Client) store.ScheduleStore {
	return &redisScheduleStore{client: client}
}

func mappingKey(userID string) string {
	return mappingKeyPrefix + userID
}

func (s *redisScheduleStore) Get(ctx context.Context, userID string) (string, error) {
	jobID, err := s.client.Get(ctx, mappingKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return jobID, nil
}

func (s *redisScheduleStore) Set(ctx context.Context, userID, jobID string) error {
	return s.client.Set(ctx, mappingKey(userID), jobID, 0).Err()
}

func (s *redisScheduleStore) Delete(ctx context.Context, userID string) error {
	return s.client.Del(ctx, mappingKey(userID)).Err()
}

func (s *redisScheduleStore) Close() error {
	return s.client.Close()
}
