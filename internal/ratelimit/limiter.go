package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/nkiryanov/aquanexus/internal/apperrors"
)

const window = time.Minute

// Fixed window counters storage
type WindowStore interface {
	// Increment counter for the key and return its value and time left till window end
	// Window starts with the first increment
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Limiter allows up to 'perMinute' attempts for the subject in one minute window
type Limiter struct {
	store     WindowStore
	perMinute int
}

// Create limiter. Limiter without store or with non positive limit allows everything
func NewLimiter(store WindowStore, perMinute int) *Limiter {
	if perMinute < 0 {
		perMinute = 0
	}

	return &Limiter{
		store:     store,
		perMinute: perMinute,
	}
}

// Limiter which never limits
func NewNoOpLimiter() *Limiter {
	return &Limiter{}
}

// Register attempt of the action for the subject
// Return apperrors.ErrTooManyAttempts and time to wait if limit is exceeded
func (l *Limiter) Allow(ctx context.Context, action string, subject string) (time.Duration, error) {
	if l.store == nil || l.perMinute == 0 {
		return 0, nil
	}
	if action == "" || subject == "" {
		return 0, errors.New("action and subject are required")
	}

	count, ttl, err := l.store.IncrementWindow(ctx, key(action, subject), window)
	if err != nil {
		return 0, err
	}

	if count > int64(l.perMinute) {
		return ceilSeconds(ttl), apperrors.ErrTooManyAttempts
	}
	return 0, nil
}

// Subject is hashed so raw emails never reach the store
func key(action string, subject string) string {
	sum := sha256.Sum256([]byte(subject))
	return "rate:" + action + ":" + hex.EncodeToString(sum[:16])
}

func ceilSeconds(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Second
	}
	return ((d + time.Second - 1) / time.Second) * time.Second
}
