package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeClock_SleepAdvances(t *testing.T) {
	clock := NewFakeClock()
	start := clock.Now()

	require.NoError(t, clock.Sleep(context.Background(), time.Second))
	require.NoError(t, clock.Sleep(context.Background(), 2*time.Second))

	assert.Equal(t, 3*time.Second, clock.Now().Sub(start))
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, clock.Sleeps())
	assert.Equal(t, 3*time.Second, clock.Elapsed())
}

func TestFakeClock_AdvanceIsNotASleep(t *testing.T) {
	clock := NewFakeClock()
	clock.Advance(time.Minute)

	assert.Empty(t, clock.Sleeps())
	assert.Equal(t, time.Minute, clock.Elapsed())
}

func TestFakeClock_CanceledContext(t *testing.T) {
	clock := NewFakeClock()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, clock.Sleep(ctx, time.Second), context.Canceled)
	assert.Zero(t, clock.Elapsed())
}

func TestFakeClock_OnSleep(t *testing.T) {
	clock := NewFakeClock()
	var calls []int
	clock.OnSleep = func(n int, d time.Duration) { calls = append(calls, n) }

	for range 3 {
		require.NoError(t, clock.Sleep(context.Background(), time.Millisecond))
	}
	assert.Equal(t, []int{1, 2, 3}, calls)
}
