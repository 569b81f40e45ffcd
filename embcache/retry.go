// Copyright 2026 PulseMed Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package embcache

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pulsemed/protosearch/core"
)

// RetryPolicy controls how provider calls are retried. It is passed into
// the cache explicitly so tests can inject zero-delay policies.
type RetryPolicy struct {
	// MaxAttempts is the maximum number of attempts (must be > 0).
	MaxAttempts int

	// BaseDelay is the delay before the second attempt; it doubles on each
	// subsequent retry.
	BaseDelay time.Duration

	// Jitter perturbs a computed delay. Nil means full jitter.
	Jitter func(time.Duration) time.Duration

	// Transient reports whether an error is worth retrying. Nil means
	// DefaultTransient.
	Transient func(error) bool
}

// DefaultRetryPolicy returns the production policy: 3 attempts, 200ms
// base delay, full jitter, transient classification via DefaultTransient.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   200 * time.Millisecond,
		Jitter:      fullJitter,
		Transient:   DefaultTransient,
	}
}

// ZeroDelayPolicy returns a policy with the given attempt count and no
// sleeping between attempts. Intended for tests.
func ZeroDelayPolicy(maxAttempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		BaseDelay:   0,
		Jitter:      func(d time.Duration) time.Duration { return 0 },
		Transient:   DefaultTransient,
	}
}

// DefaultTransient treats provider errors as retriable unless they are
// malformed-response errors or caller-initiated cancellation. Deadline
// expiry on the provider call itself counts as transient (a slow provider
// may answer the next attempt).
func DefaultTransient(err error) bool {
	if errors.Is(err, core.ErrMalformedEmbedding) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return true
}

// Do runs operation, retrying transient failures with exponential backoff.
// The context is checked before each attempt and honored during the sleep
// between attempts. Returns the error from the last attempt if all
// attempts fail, or immediately on a non-transient error.
func (p RetryPolicy) Do(ctx context.Context, operation func() error) error {
	if p.MaxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}
	transient := p.Transient
	if transient == nil {
		transient = DefaultTransient
	}
	jitter := p.Jitter
	if jitter == nil {
		jitter = fullJitter
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		if !transient(lastErr) {
			slog.Debug("operation failed with non-transient error", "attempt", attempt, "error", lastErr)
			return lastErr
		}

		slog.Debug("operation failed, will retry", "attempt", attempt, "maxAttempts", p.MaxAttempts, "error", lastErr)

		if attempt == p.MaxAttempts {
			break
		}

		// Exponential backoff: baseDelay * 2^(attempt-1)
		delay := p.BaseDelay
		for i := 1; i < attempt; i++ {
			delay *= 2
		}
		delay = jitter(delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}

// fullJitter picks a uniform delay in [0, d]. Randomness here only shapes
// retry timing, never scoring.
func fullJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(d) + 1))
}
