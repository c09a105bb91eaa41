package fetch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilRateLimiterNeverBlocks(t *testing.T) {
	var r *RateLimiter
	require.NoError(t, r.Wait(context.Background()))
}

func TestZeroRateIsUnlimited(t *testing.T) {
	r := NewRateLimiter(0)
	require.NoError(t, r.Wait(context.Background()))
}

func TestNewRateLimiterAllowsBurst(t *testing.T) {
	r := NewRateLimiter(10)
	for i := 0; i < 10; i++ {
		assert.True(t, r.limiter.Allow())
	}
}
