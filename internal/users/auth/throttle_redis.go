// Copyright (c) 2026 Skolar. All rights reserved.
// Author: thang.nd.dev@gmail.com

package auth

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ndthang/skolar/internal/platform/constants"
)

// RedisThrottle is the multi-replica login throttle.
//
// It approximates the in-memory sliding window with a TTL'd counter: the
// counter key expires one full window after the first failure, and a separate
// lock key carries the lockout. Redis owns all expiry, so replicas share
// state without clock coordination.
type RedisThrottle struct {
	client *redis.Client
	config ThrottleConfig
}

// NewRedisThrottle constructs a Redis-backed login throttle.
func NewRedisThrottle(client *redis.Client, config ThrottleConfig) *RedisThrottle {
	return &RedisThrottle{client: client, config: config}
}

func (throttle *RedisThrottle) attemptsKey(email, ip string) string {
	return constants.RedisPrefixLoginAttempts + email + "|" + ip
}

func (throttle *RedisThrottle) lockKey(email, ip string) string {
	return constants.RedisPrefixLoginLock + email + "|" + ip
}

// Acquire implements LoginThrottle.
func (throttle *RedisThrottle) Acquire(context context.Context, email, ip string) error {
	remaining, err := throttle.client.TTL(context, throttle.lockKey(email, ip)).Result()
	if err != nil {
		return fmt.Errorf("redis_throttle_acquire_failed: %w", err)
	}

	// TTL returns a negative duration when the key does not exist.
	if remaining > 0 {
		return rateLimitedError(remaining)
	}

	return nil
}

// RegisterFailure implements LoginThrottle.
func (throttle *RedisThrottle) RegisterFailure(context context.Context, email, ip string) error {
	attemptsKey := throttle.attemptsKey(email, ip)

	count, err := throttle.client.Incr(context, attemptsKey).Result()
	if err != nil {
		return fmt.Errorf("redis_throttle_incr_failed: %w", err)
	}

	// First failure opens the window.
	if count == 1 {
		if err := throttle.client.Expire(context, attemptsKey, throttle.config.Window).Err(); err != nil {
			return fmt.Errorf("redis_throttle_expire_failed: %w", err)
		}
	}

	if count >= int64(throttle.config.MaxFailures) {
		if err := throttle.client.Set(context, throttle.lockKey(email, ip), "1", throttle.config.LockDuration).Err(); err != nil {
			return fmt.Errorf("redis_throttle_lock_failed: %w", err)
		}
		if err := throttle.client.Del(context, attemptsKey).Err(); err != nil {
			return fmt.Errorf("redis_throttle_reset_failed: %w", err)
		}
	}

	return nil
}

// RegisterSuccess implements LoginThrottle.
func (throttle *RedisThrottle) RegisterSuccess(context context.Context, email, ip string) error {
	err := throttle.client.Del(context,
		throttle.attemptsKey(email, ip),
		throttle.lockKey(email, ip),
	).Err()

	if err != nil {
		return fmt.Errorf("redis_throttle_clear_failed: %w", err)
	}

	return nil
}
