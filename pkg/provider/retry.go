// Copyright 2025 Shadow Atlas Contributors
//
// Retry policy for provider fetches: exponential backoff with jitter, built
// on cenkalti/backoff/v4 (the same retry library the pack's erigon teacher
// uses for its RPC calls). Only errs.Kind.Retryable() errors are retried;
// everything else returns immediately.

package provider

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/shadowatlas/atlas/pkg/errs"
)

// RetryPolicy configures exponential backoff for a provider fetch.
type RetryPolicy struct {
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	MaxElapsedTime      time.Duration
	MaxAttempts         int
	RandomizationFactor float64
}

// DefaultRetryPolicy matches spec section 4.1: base 500ms, cap 30s, ±25%
// jitter, 3 attempts.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		InitialInterval:     500 * time.Millisecond,
		MaxInterval:         30 * time.Second,
		MaxElapsedTime:      0, // bounded by MaxAttempts instead of wall clock
		MaxAttempts:         3,
		RandomizationFactor: 0.25,
	}
}

func (p RetryPolicy) backoffStrategy() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.InitialInterval
	eb.MaxInterval = p.MaxInterval
	eb.MaxElapsedTime = p.MaxElapsedTime
	eb.RandomizationFactor = p.RandomizationFactor
	return backoff.WithMaxRetries(eb, uint64(p.MaxAttempts-1))
}

// WithRetry runs fn under the policy, retrying only retryable errs.Kind
// failures and giving up immediately on anything else.
func WithRetry(ctx context.Context, policy RetryPolicy, fn func() error) error {
	operation := func() error {
		err := fn()
		if err == nil {
			return nil
		}
		if !errs.KindOf(err).Retryable() {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.Retry(operation, backoff.WithContext(policy.backoffStrategy(), ctx))
}
