package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/paologalligit/cinema-seat-advisor/constant"
)

const RedisStateKey = "cinema-monitor:latest_screening_date"

type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// NewRedisClient connects and pings the server with a short timeout.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

// RedisState keeps the latest date under a single key.
type RedisState struct {
	client redisKV
	key    string
}

func NewRedisState(client *redis.Client) *RedisState {
	return &RedisState{client: client, key: RedisStateKey}
}

func (r *RedisState) LoadLatestDate(ctx context.Context) (time.Time, error) {
	value, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, ErrNoState
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("error reading latest date: %w", err)
	}
	return parseDate(value)
}

func (r *RedisState) StoreLatestDate(ctx context.Context, date time.Time) error {
	if err := r.client.Set(ctx, r.key, date.Format(constant.DATE_LAYOUT), 0).Err(); err != nil {
		return fmt.Errorf("error storing latest date: %w", err)
	}
	return nil
}
