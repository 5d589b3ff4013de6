// Package retry runs operations that may fail while a dependency is not ready yet.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultAttempts   = 3
	defaultDelay      = 5 * time.Second
	defaultMultiplier = 1.0
)

type Config struct {
	// Total number of attempts, including the first one
	Attempts int

	// Delay before the second attempt
	Delay time.Duration

	// Every next delay is multiplied by it. 1 means fixed delay
	Multiplier float64

	// Upper bound for a single delay. Zero means no bound
	MaxDelay time.Duration

	// Called after every failed attempt that will be retried
	OnRetry func(attempt int, err error, wait time.Duration)
}

// Defaults: 3 attempts with fixed 5 seconds between them
func DefaultConfig() Config {
	return Config{
		Attempts:   defaultAttempts,
		Delay:      defaultDelay,
		Multiplier: defaultMultiplier,
	}
}

// Mark error as permanent: Do stops immediately and returns it
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do calls op until it succeeds, attempts are exhausted, op returns permanent error or ctx is done
// The last op error is returned (or ctx error if context was cancelled)
func Do(ctx context.Context, cfg Config, op func(ctx context.Context) error) error {
	if cfg.Attempts <= 0 {
		cfg.Attempts = defaultAttempts
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = defaultMultiplier
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = cfg.Delay
	eb.Multiplier = cfg.Multiplier
	eb.RandomizationFactor = 0
	eb.MaxElapsedTime = 0
	eb.MaxInterval = cfg.MaxDelay
	if eb.MaxInterval <= 0 {
		eb.MaxInterval = time.Duration(1<<63 - 1)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(cfg.Attempts-1)), ctx)

	attempt := 0
	operation := func() error {
		attempt++
		return op(ctx)
	}
	notify := func(err error, wait time.Duration) {
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, wait)
		}
	}

	err := backoff.RetryNotify(operation, b, notify)

	// Unwrap permanent error to return the original one
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Err
	}

	return err
}
