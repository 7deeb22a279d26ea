package frame

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTime_AdvanceClamps(t *testing.T) {
	var clock Time
	t0 := time.Unix(100, 0)
	assert.Zero(t, clock.Advance(t0))
	assert.Equal(t, 16*time.Millisecond, clock.Advance(t0.Add(16*time.Millisecond)))
	assert.Equal(t, MaxDt, clock.Advance(t0.Add(5*time.Second)))
	assert.Zero(t, clock.Advance(t0))
}

func TestLoop_SingleSlot(t *testing.T) {
	l := NewLoop()
	var calls []string
	l.RequestFrame(func(time.Time) { calls = append(calls, "a") })
	l.RequestFrame(func(time.Time) { calls = append(calls, "b") })

	assert.True(t, l.Step(time.Now()))
	assert.False(t, l.Step(time.Now()), "callbacks do not repeat on their own")
	assert.Equal(t, []string{"b"}, calls)
	assert.Equal(t, uint64(1), l.Frames())
}

func TestLoop_StopCancelsPending(t *testing.T) {
	l := NewLoop()
	ran := 0
	var cb Callback
	cb = func(time.Time) {
		ran++
		l.RequestFrame(cb)
	}
	require.True(t, l.RequestFrame(cb))
	l.Step(time.Now())
	l.Step(time.Now())
	assert.Equal(t, 2, ran)

	l.Stop()
	assert.False(t, l.Pending())
	assert.False(t, l.Step(time.Now()))
	assert.False(t, l.RequestFrame(cb))
	assert.Equal(t, 2, ran)
	assert.True(t, l.Stopped())
}

func TestLoop_RunUntilPollCloses(t *testing.T) {
	l := NewLoop()
	ran := 0
	var cb Callback
	cb = func(time.Time) {
		ran++
		l.RequestFrame(cb)
	}
	l.RequestFrame(cb)

	polls := 0
	err := l.Run(context.Background(), func() bool {
		polls++
		return polls <= 5
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, ran)
}

func TestLoop_RunHonorsContext(t *testing.T) {
	l := NewLoop()
	var cb Callback
	cb = func(time.Time) { l.RequestFrame(cb) }
	l.RequestFrame(cb)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := l.Run(ctx, nil, time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLoop_RunEndsWhenChainStops(t *testing.T) {
	l := NewLoop()
	ran := 0
	l.RequestFrame(func(time.Time) { ran++ })
	require.NoError(t, l.Run(context.Background(), nil, 0))
	assert.Equal(t, 1, ran)
}
