package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"taskflow/backend/internal/cache"
	"taskflow/backend/internal/config"
)

const (
	failedAttemptsPrefix = "failed_attempts:"
	lockedAccountPrefix  = "locked_account:"
)

// LoginThrottle counts failed logins per username and locks the account once
// the threshold is reached. All state lives in the expiring store, so counters
// and locks clear themselves.
type LoginThrottle struct {
	store        cache.Store
	maxAttempts  int64
	lockDuration time.Duration
	attemptsTTL  time.Duration
}

func NewLoginThrottle(store cache.Store, cfg config.LockoutConfig) *LoginThrottle {
	return &LoginThrottle{
		store:        store,
		maxAttempts:  int64(cfg.MaxFailedAttempts),
		lockDuration: cfg.LockDuration,
		attemptsTTL:  cfg.AttemptsTTL,
	}
}

func (t *LoginThrottle) MaxAttempts() int64 {
	return t.maxAttempts
}

func (t *LoginThrottle) IsLocked(ctx context.Context, username string) (bool, error) {
	locked, err := t.store.Exists(ctx, lockedAccountPrefix+username)
	if err != nil {
		return false, fmt.Errorf("check account lock: %w", err)
	}
	return locked, nil
}

// RecordFailure bumps the counter and sets the lock marker when the
// threshold is reached. It reports the new count and whether the account is
// now locked.
func (t *LoginThrottle) RecordFailure(ctx context.Context, username string) (int64, bool, error) {
	attempts, err := t.store.Increment(ctx, failedAttemptsPrefix+username, t.attemptsTTL)
	if err != nil {
		return 0, false, fmt.Errorf("record failed attempt: %w", err)
	}
	if attempts < t.maxAttempts {
		return attempts, false, nil
	}
	if err := t.Lock(ctx, username); err != nil {
		return attempts, false, err
	}
	return attempts, true, nil
}

func (t *LoginThrottle) GetFailedAttempts(ctx context.Context, username string) (int64, error) {
	raw, err := t.store.Get(ctx, failedAttemptsPrefix+username)
	if errors.Is(err, cache.ErrCacheMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read failed attempts: %w", err)
	}
	attempts, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("read failed attempts: %w", err)
	}
	return attempts, nil
}

func (t *LoginThrottle) ResetFailedAttempts(ctx context.Context, username string) error {
	if err := t.store.Delete(ctx, failedAttemptsPrefix+username); err != nil {
		return fmt.Errorf("reset failed attempts: %w", err)
	}
	return nil
}

func (t *LoginThrottle) Lock(ctx context.Context, username string) error {
	if err := t.store.Set(ctx, lockedAccountPrefix+username, "locked", t.lockDuration); err != nil {
		return fmt.Errorf("lock account: %w", err)
	}
	return nil
}

// Unlock clears both the lock marker and the failure counter.
func (t *LoginThrottle) Unlock(ctx context.Context, username string) error {
	if err := t.store.Delete(ctx, lockedAccountPrefix+username); err != nil {
		return fmt.Errorf("unlock account: %w", err)
	}
	return t.ResetFailedAttempts(ctx, username)
}

// LockRemaining returns how long the lock still holds, or zero when the
// account is not locked.
func (t *LoginThrottle) LockRemaining(ctx context.Context, username string) (time.Duration, error) {
	remaining, err := t.store.TTL(ctx, lockedAccountPrefix+username)
	if errors.Is(err, cache.ErrCacheMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read lock ttl: %w", err)
	}
	return remaining, nil
}
