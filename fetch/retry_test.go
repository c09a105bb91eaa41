package fetch

import (
	"context"
	"fmt"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dash-mpd-go/dashmpd/logger"
)

func TestWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	data, err := WithRetry(context.Background(), RetryPolicy{MaxAttempts: 5}, logger.Nop(), func() ([]byte, error) {
		attempts++
		if attempts < 3 {
			return nil, fmt.Errorf("transient failure %d", attempts)
		}
		return []byte("ok"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
	assert.Equal(t, 3, attempts)
}

func TestWithRetryGivesUpAfterMaxAttempts(t *testing.T) {
	attempts := 0
	_, err := WithRetry(context.Background(), RetryPolicy{MaxAttempts: 3}, logger.Nop(), func() ([]byte, error) {
		attempts++
		return nil, fmt.Errorf("always fails")
	})
	assert.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithRetryStopsImmediatelyOnPermanentError(t *testing.T) {
	attempts := 0
	_, err := WithRetry(context.Background(), RetryPolicy{MaxAttempts: 5}, logger.Nop(), func() ([]byte, error) {
		attempts++
		return nil, backoff.Permanent(fmt.Errorf("fatal 404"))
	})
	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestWithRetryMaxAttemptsZeroMeansNoRetries(t *testing.T) {
	attempts := 0
	_, err := WithRetry(context.Background(), RetryPolicy{MaxAttempts: 0}, logger.Nop(), func() ([]byte, error) {
		attempts++
		return nil, fmt.Errorf("fails")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}
