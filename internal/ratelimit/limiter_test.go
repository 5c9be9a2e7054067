package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitForHostEnforcesDelay(t *testing.T) {
	l := NewLimiter(Config{
		RequestsPerSecond: 1000,
		BurstSize:         1000,
		MinDelay:          50 * time.Millisecond,
	})
	ctx := context.Background()

	require.NoError(t, l.WaitForHost(ctx, "example.com"))
	start := time.Now()
	require.NoError(t, l.WaitForHost(ctx, "example.com"))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestWaitForHostIsPerHost(t *testing.T) {
	l := NewLimiter(Config{
		RequestsPerSecond: 1000,
		BurstSize:         1000,
		MinDelay:          200 * time.Millisecond,
	})
	ctx := context.Background()

	require.NoError(t, l.WaitForHost(ctx, "a.example.com"))
	start := time.Now()
	require.NoError(t, l.WaitForHost(ctx, "b.example.com"))
	assert.Less(t, time.Since(start), 100*time.Millisecond,
		"a different host must not inherit another host's delay")
}

func TestWaitForHostRespectsCancellation(t *testing.T) {
	l := NewLimiter(Config{
		RequestsPerSecond: 1000,
		BurstSize:         1000,
		MinDelay:          5 * time.Second,
	})

	require.NoError(t, l.WaitForHost(context.Background(), "example.com"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.WaitForHost(ctx, "example.com")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAllowDrainsBurst(t *testing.T) {
	l := NewLimiter(Config{RequestsPerSecond: 1, BurstSize: 3})

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow(), "request %d within burst", i)
	}
	assert.False(t, l.Allow(), "burst exhausted")
}

func TestResetClearsHostState(t *testing.T) {
	l := NewLimiter(DefaultConfig())
	require.NoError(t, l.WaitForHost(context.Background(), "example.com"))
	assert.Equal(t, 1, l.GetStats().TrackedHosts)

	l.Reset()
	assert.Equal(t, 0, l.GetStats().TrackedHosts)
}
