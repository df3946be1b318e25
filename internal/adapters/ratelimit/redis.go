package ratelimit

import (
	"context"
	"fmt"
	"time"

	"meetingscheduler/internal/domain"

	"github.com/gomodule/redigo/redis"
)

const keyPrefix = "ratelimit"

// RedisCounter implements domain.RequestCounter as a fixed window: INCR plus a
// window-long EXPIRE NX sent in one MULTI/EXEC. NX keeps the first expiry and needs
// Redis 7 or newer.
type RedisCounter struct {
	pool *redis.Pool
}

var _ domain.RequestCounter = (*RedisCounter)(nil)

// NewPool returns a redigo pool for addr.
func NewPool(addr, password string) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     10,
		IdleTimeout: 5 * time.Minute,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", addr, redis.DialPassword(password), redis.DialConnectTimeout(2*time.Second))
		},
	}
}

func NewRedisCounter(pool *redis.Pool) *RedisCounter {
	return &RedisCounter{pool: pool}
}

// Ping checks that Redis is reachable.
func (c *RedisCounter) Ping(ctx context.Context) error {
	conn, err := c.pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	_, err = conn.Do("PING")
	return err
}

func (c *RedisCounter) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	conn, err := c.pool.GetContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("redis conn: %w", err)
	}
	defer conn.Close()

	counterKey := fmt.Sprintf("%s:%s", keyPrefix, key)
	seconds := int64(window / time.Second)
	if seconds < 1 {
		seconds = 1
	}

	// Every hit re-sends EXPIRE NX, so a key whose expiry was lost heals on the next request.
	if err := conn.Send("MULTI"); err != nil {
		return 0, fmt.Errorf("redis multi: %w", err)
	}
	if err := conn.Send("INCR", counterKey); err != nil {
		return 0, fmt.Errorf("redis incr: %w", err)
	}
	if err := conn.Send("EXPIRE", counterKey, seconds, "NX"); err != nil {
		return 0, fmt.Errorf("redis expire: %w", err)
	}
	replies, err := redis.Values(conn.Do("EXEC"))
	if err != nil {
		return 0, fmt.Errorf("redis exec: %w", err)
	}
	if len(replies) != 2 {
		return 0, fmt.Errorf("redis exec: got %d replies, want 2", len(replies))
	}
	n, err := redis.Int64(replies[0], nil)
	if err != nil {
		return 0, fmt.Errorf("redis incr: %w", err)
	}
	if rerr, ok := replies[1].(redis.Error); ok {
		return n, fmt.Errorf("redis expire: %w", rerr)
	}
	return n, nil
}
