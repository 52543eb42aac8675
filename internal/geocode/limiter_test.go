package geocode

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_FirstTurnIsImmediate(t *testing.T) {
	clk := clockwork.NewFakeClock()
	l := NewLimiter(DefaultMinInterval, clk)

	// No previous turn, so nothing registers on the fake clock.
	require.NoError(t, l.Wait(context.Background()))
}

func TestLimiter_SecondTurnWaitsForInterval(t *testing.T) {
	clk := clockwork.NewFakeClock()
	l := NewLimiter(DefaultMinInterval, clk)

	require.NoError(t, l.Wait(context.Background()))

	done := make(chan error, 1)
	go func() { done <- l.Wait(context.Background()) }()

	// Wait until the second caller is parked on the clock.
	clk.BlockUntil(1)
	select {
	case <-done:
		t.Fatal("turn granted before the minimum interval elapsed")
	case <-time.After(50 * time.Millisecond):
	}

	clk.Advance(DefaultMinInterval)
	require.NoError(t, <-done)
}

func TestLimiter_WaitAbortsOnContextCancel(t *testing.T) {
	clk := clockwork.NewFakeClock()
	l := NewLimiter(DefaultMinInterval, clk)

	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Wait(ctx) }()

	clk.BlockUntil(1)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	// The aborted waiter must release its turn so later callers proceed.
	next := make(chan error, 1)
	go func() { next <- l.Wait(context.Background()) }()
	clk.BlockUntil(1)
	clk.Advance(DefaultMinInterval)
	require.NoError(t, <-next)
}

func TestLimiter_SpacesRealTurnsByInterval(t *testing.T) {
	const interval = 20 * time.Millisecond
	l := NewLimiter(interval, nil)

	start := time.Now()
	for range 4 {
		require.NoError(t, l.Wait(context.Background()))
	}

	// Three gaps between four turns.
	assert.GreaterOrEqual(t, time.Since(start), 3*interval)
}
