// Package retry runs an operation under a bounded exponential backoff that
// only retries errors its predicate classifies as transient.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 100 * time.Millisecond
	DefaultMultiplier  = 2.0
)

// Policy describes how many times an operation runs and how long to wait
// between attempts. Waits are BaseDelay, BaseDelay*Multiplier, ...
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	IsTransient func(error) bool
	OnRetry     func(attempt int, err error, wait time.Duration)
}

// New returns a policy with the given bounds and the default multiplier.
func New(maxAttempts int, baseDelay time.Duration, isTransient func(error) bool) Policy {
	return Policy{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		Multiplier:  DefaultMultiplier,
		IsTransient: isTransient,
	}
}

// Do runs op until it succeeds, fails with a non-transient error, or the
// attempt budget is spent. It returns the number of attempts made and the
// last error.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) (int, error) {
	p = p.normalized()

	attempts := 0
	operation := func() error {
		attempts++
		err := op(ctx)
		if err == nil {
			return nil
		}
		if p.IsTransient == nil || !p.IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		if p.OnRetry != nil {
			p.OnRetry(attempts, err, wait)
		}
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(p.backOff(), ctx), notify)
	return attempts, err
}

func (p Policy) backOff() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.BaseDelay
	eb.Multiplier = p.Multiplier
	eb.RandomizationFactor = 0
	eb.MaxInterval = time.Hour
	eb.MaxElapsedTime = 0
	eb.Reset()
	return backoff.WithMaxRetries(eb, uint64(p.MaxAttempts-1))
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.Multiplier < 1 {
		p.Multiplier = DefaultMultiplier
	}
	return p
}
