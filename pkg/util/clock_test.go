package util

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualClockFiresDueTimers(t *testing.T) {
	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	c := NewManualClock(start)

	short := c.After(time.Second)
	long := c.After(time.Minute)
	assert.Equal(t, 2, c.Waiters())

	c.Advance(2 * time.Second)
	select {
	case got := <-short:
		assert.Equal(t, start.Add(2*time.Second), got)
	default:
		t.Fatal("short timer did not fire")
	}
	select {
	case <-long:
		t.Fatal("long timer fired early")
	default:
	}
	assert.Equal(t, 1, c.Waiters())
}

func TestSleepStopsOnCancel(t *testing.T) {
	c := NewManualClock(time.Unix(0, 0))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Sleep(ctx, c, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSleepReturnsAfterAdvance(t *testing.T) {
	c := NewManualClock(time.Unix(0, 0))
	done := make(chan error, 1)
	go func() { done <- Sleep(context.Background(), c, time.Second) }()

	require.Eventually(t, func() bool { return c.Waiters() == 1 }, time.Second, time.Millisecond)
	c.Advance(time.Second)
	require.NoError(t, <-done)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "debug", ParseLevel("debug").String())
	assert.Equal(t, "info", ParseLevel("nonsense").String())
}
