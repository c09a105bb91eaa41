package fetch

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/dash-mpd-go/dashmpd/dmerrors"
	"github.com/dash-mpd-go/dashmpd/logger"
)

// RetryPolicy configures cenkalti/backoff/v4's exponential backoff for
// segment downloads. The teacher's Downloader used a fixed retryDelay and a
// maxRetries counter (internal/dash/downloader.go); this generalizes that
// into a real backoff curve, since spec.md §4.G calls for "retry with
// exponential backoff" rather than a flat delay.
type RetryPolicy struct {
	MaxAttempts int
}

// DefaultRetryPolicy matches the teacher's maxRetries default of 3.
func DefaultRetryPolicy() RetryPolicy { return RetryPolicy{MaxAttempts: 3} }

// WithRetry runs op, retrying transient failures (everything op returns
// that is not wrapped in backoff.Permanent, e.g. a fatal 4xx) with
// exponential backoff up to MaxAttempts, logging each retry the way the
// teacher's worker loop does via Warnf. When the failure is an
// *dmerrors.HTTPError carrying a Retry-After duration (a 429 or 5xx that
// named one), that duration is honored for the next attempt's wait in
// place of the exponential curve's own delay.
func WithRetry(ctx context.Context, policy RetryPolicy, log logger.Logger, op func() ([]byte, error)) ([]byte, error) {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}

	eb := backoff.NewExponentialBackOff()
	capped := backoff.WithMaxRetries(eb, uint64(policy.MaxAttempts-1))
	aware := &retryAfterBackOff{BackOff: capped}
	bo := backoff.WithContext(aware, ctx)

	var result []byte
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		data, err := op()
		if err != nil {
			var httpErr *dmerrors.HTTPError
			if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
				aware.override = httpErr.RetryAfter
			}
			log.Warnf("fetch attempt %d/%d failed: %v", attempt, policy.MaxAttempts, err)
			return err
		}
		result = data
		return nil
	}, bo)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// retryAfterBackOff wraps another backoff.BackOff, substituting a
// server-requested Retry-After duration for the next wait when one has
// been recorded by the caller.
type retryAfterBackOff struct {
	backoff.BackOff
	override time.Duration
}

func (b *retryAfterBackOff) NextBackOff() time.Duration {
	if b.override > 0 {
		d := b.override
		b.override = 0
		return d
	}
	return b.BackOff.NextBackOff()
}
