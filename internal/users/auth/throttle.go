// Copyright (c) 2026 Skolar. All rights reserved.
// Author: thang.nd.dev@gmail.com

package auth

import (
	"context"
	"sync"
	"time"

	"github.com/ndthang/skolar/internal/platform/apperr"
)

// LoginThrottle guards the login endpoint against credential stuffing.
//
// Attempts are tracked per (email, ip) pair so one noisy client cannot lock
// an account platform-wide, and one attacker rotating emails still burns
// their own address.
type LoginThrottle interface {

	/*
		Acquire checks whether a login attempt may proceed.

		Parameters:
		  - context: context.Context
		  - email: string
		  - ip: string

		Returns:
		  - error: AUTH_LOGIN_RATE_LIMITED with a Retry-After hint while locked
	*/
	Acquire(context context.Context, email, ip string) error

	/*
		RegisterFailure records a failed attempt. Reaching the maximum within
		the window locks the pair and clears the attempt history.

		Parameters:
		  - context: context.Context
		  - email: string
		  - ip: string

		Returns:
		  - error: Persistence failures (memory implementation never fails)
	*/
	RegisterFailure(context context.Context, email, ip string) error

	/*
		RegisterSuccess clears all throttle state for the pair after a
		successful login.

		Parameters:
		  - context: context.Context
		  - email: string
		  - ip: string

		Returns:
		  - error: Persistence failures
	*/
	RegisterSuccess(context context.Context, email, ip string) error
}

// ThrottleConfig tunes the sliding window.
type ThrottleConfig struct {
	Window       time.Duration
	MaxFailures  int
	LockDuration time.Duration
}

// rateLimitedError builds the client-facing lockout error.
func rateLimitedError(retryAfter time.Duration) error {
	seconds := int(retryAfter.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	return apperr.RateLimited(seconds).WithCode("AUTH_LOGIN_RATE_LIMITED")
}

// # In-Memory Implementation

type throttleEntry struct {
	attempts    []time.Time
	lockedUntil time.Time
}

// MemoryThrottle is the default single-process throttle: a mutex-guarded map
// of sliding windows. State is lost on restart, which is acceptable — a
// restart resets at most one window of history.
type MemoryThrottle struct {
	config ThrottleConfig

	mu      sync.Mutex
	entries map[string]*throttleEntry

	// now is swappable in tests.
	now func() time.Time
}

// NewMemoryThrottle constructs an in-memory login throttle.
func NewMemoryThrottle(config ThrottleConfig) *MemoryThrottle {
	return &MemoryThrottle{
		config:  config,
		entries: make(map[string]*throttleEntry),
		now:     time.Now,
	}
}

func throttleKey(email, ip string) string {
	return email + "|" + ip
}

// Acquire implements LoginThrottle.
func (throttle *MemoryThrottle) Acquire(_ context.Context, email, ip string) error {
	throttle.mu.Lock()
	defer throttle.mu.Unlock()

	entry, found := throttle.entries[throttleKey(email, ip)]
	if !found {
		return nil
	}

	now := throttle.now()
	throttle.prune(entry, now)

	if now.Before(entry.lockedUntil) {
		return rateLimitedError(entry.lockedUntil.Sub(now))
	}

	return nil
}

// RegisterFailure implements LoginThrottle.
func (throttle *MemoryThrottle) RegisterFailure(_ context.Context, email, ip string) error {
	throttle.mu.Lock()
	defer throttle.mu.Unlock()

	key := throttleKey(email, ip)
	entry, found := throttle.entries[key]
	if !found {
		entry = &throttleEntry{}
		throttle.entries[key] = entry
	}

	now := throttle.now()
	throttle.prune(entry, now)

	entry.attempts = append(entry.attempts, now)
	if len(entry.attempts) >= throttle.config.MaxFailures {
		// Lock the pair and reset the window: the lock itself carries the
		// penalty, fresh failures after it expires start a clean count.
		entry.lockedUntil = now.Add(throttle.config.LockDuration)
		entry.attempts = nil
	}

	return nil
}

// RegisterSuccess implements LoginThrottle.
func (throttle *MemoryThrottle) RegisterSuccess(_ context.Context, email, ip string) error {
	throttle.mu.Lock()
	defer throttle.mu.Unlock()

	delete(throttle.entries, throttleKey(email, ip))
	return nil
}

// prune drops attempts that slid out of the window and releases expired
// locks. Empty entries are removed lazily on the next access.
func (throttle *MemoryThrottle) prune(entry *throttleEntry, now time.Time) {
	windowStart := now.Add(-throttle.config.Window)

	kept := entry.attempts[:0]
	for _, attempt := range entry.attempts {
		if attempt.After(windowStart) {
			kept = append(kept, attempt)
		}
	}
	entry.attempts = kept

	if !entry.lockedUntil.IsZero() && !now.Before(entry.lockedUntil) {
		entry.lockedUntil = time.Time{}
	}
}
