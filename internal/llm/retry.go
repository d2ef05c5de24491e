package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// Retrying retries transient failures with exponential backoff and
// jitter. Rate limits and unavailability are retried; a response that
// fails validation is retried once; truncation, cancellation and client
// errors are not.
type Retrying struct {
	inner  Provider
	policy RetryPolicy
}

// WithRetry wraps p.
func WithRetry(p Provider, policy RetryPolicy) *Retrying {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Retrying{inner: p, policy: policy}
}

func (r *Retrying) ModelID() string { return r.inner.ModelID() }

func (r *Retrying) Generate(ctx context.Context, req Request) (*Response, error) {
	var err error
	invalidSeen := false
	for attempt := 0; attempt < r.policy.MaxAttempts; attempt++ {
		var resp *Response
		resp, err = r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !retryable(err, &invalidSeen) || attempt == r.policy.MaxAttempts-1 {
			return nil, err
		}

		t := time.NewTimer(r.wait(attempt, err))
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	return nil, err
}

func retryable(err error, invalidSeen *bool) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var trunc *TruncatedError
	if errors.As(err, &trunc) {
		return false
	}
	var invalid *InvalidResponseError
	if errors.As(err, &invalid) {
		if *invalidSeen {
			return false
		}
		*invalidSeen = true
		return true
	}
	var rl *RateLimitError
	var un *UnavailableError
	return errors.As(err, &rl) || errors.As(err, &un)
}

func (r *Retrying) wait(attempt int, err error) time.Duration {
	var rl *RateLimitError
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}
	mult := r.policy.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := float64(r.policy.InitialWait) * math.Pow(mult, float64(attempt))
	if limit := float64(r.policy.MaxWait); limit > 0 && d > limit {
		d = limit
	}
	d += d * 0.2 * (2*rand.Float64() - 1) // +/-20% jitter
	return time.Duration(math.Max(d, 0))
}
