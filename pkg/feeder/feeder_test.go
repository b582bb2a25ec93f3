package feeder

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uhyunpark/matchbook/pkg/book"
	"github.com/uhyunpark/matchbook/pkg/engine"
	"github.com/uhyunpark/matchbook/pkg/util"
)

func TestGaussianRanges(t *testing.T) {
	g, err := NewGenerator(ModeGaussian, 100, 42)
	require.NoError(t, err)

	sides := map[string]int{}
	for i := 0; i < 1000; i++ {
		o := g.Next()
		sides[o.Side]++
		assert.GreaterOrEqual(t, o.Quantity, uint64(5))
		assert.LessOrEqual(t, o.Quantity, uint64(15))
		assert.GreaterOrEqual(t, o.Price, 0.0)
	}
	assert.Len(t, sides, 2)
}

func TestRandomWalkSteps(t *testing.T) {
	g, err := NewGenerator(ModeRandomWalk, 100, 7)
	require.NoError(t, err)

	prev := 100.0
	for i := 0; i < 500; i++ {
		o := g.Next()
		assert.GreaterOrEqual(t, o.Quantity, uint64(10))
		assert.LessOrEqual(t, o.Quantity, uint64(50))
		assert.InDelta(t, prev, o.Price, 1.1+1e-9)
		assert.GreaterOrEqual(t, o.Price, 1.0-1e-9)
		prev = o.Price
	}
}

func TestUnknownMode(t *testing.T) {
	_, err := NewGenerator("chaos", 100, 1)
	assert.Error(t, err)
}

// lockedEngine serializes Exec with a mutex; enough for a single feeder.
type lockedEngine struct {
	mu sync.Mutex
	e  *engine.Engine
}

func (l *lockedEngine) Exec(_ context.Context, fn func(*engine.Engine)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(l.e)
	return nil
}

func TestRunPlacesOnePerInterval(t *testing.T) {
	clock := util.NewManualClock(time.Unix(0, 0))
	exec := &lockedEngine{e: engine.New(book.NewLevelBook(), clock)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Stats, 1)
	go func() {
		stats, err := Run(ctx, exec, Config{Mode: ModeGaussian, Interval: time.Second, Mean: 100, Seed: 3}, clock, nil)
		assert.NoError(t, err)
		done <- stats
	}()

	for i := 0; i < 5; i++ {
		require.Eventually(t, func() bool { return clock.Waiters() == 1 }, time.Second, time.Millisecond)
		clock.Advance(time.Second)
	}
	require.Eventually(t, func() bool { return clock.Waiters() == 1 }, time.Second, time.Millisecond)
	cancel()

	stats := <-done
	assert.Equal(t, 5, stats.Placed+stats.Rejected)
	exec.mu.Lock()
	defer exec.mu.Unlock()
	assert.Equal(t, stats.Placed, exec.e.Resting())
}
