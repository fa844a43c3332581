package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostLimiter_DelaysSameHost(t *testing.T) {
	l := NewHostLimiter(50 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://example.com/a"))
	require.NoError(t, l.Wait(ctx, "https://example.com/b"))
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond, "second request to same host must wait")
}

func TestHostLimiter_DifferentHostsIndependent(t *testing.T) {
	l := NewHostLimiter(200 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://one.example.com/a"))
	require.NoError(t, l.Wait(ctx, "https://two.example.com/a"))
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 100*time.Millisecond, "different hosts must not block each other")
}

func TestHostLimiter_ZeroDelay(t *testing.T) {
	l := NewHostLimiter(0)
	require.NoError(t, l.Wait(context.Background(), "https://example.com/a"))
	require.NoError(t, l.Wait(context.Background(), "https://example.com/b"))
}

func TestHostLimiter_CancelledContext(t *testing.T) {
	l := NewHostLimiter(time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, l.Wait(ctx, "https://example.com/a"))
	cancel()
	assert.Error(t, l.Wait(ctx, "https://example.com/b"))
}
