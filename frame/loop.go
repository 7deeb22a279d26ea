package frame

import (
	"context"
	"sync"
	"time"
)

type Callback func(now time.Time)

// Loop is a single-slot frame scheduler. A callback re-requests itself to
// keep animating; Stop cancels the slot and refuses further requests.
type Loop struct {
	mu      sync.Mutex
	pending Callback
	stopped bool
	frames  uint64
}

func NewLoop() *Loop { return &Loop{} }

// RequestFrame schedules fn for the next step, replacing any pending
// callback. It reports false once the loop is stopped.
func (l *Loop) RequestFrame(fn Callback) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return false
	}
	l.pending = fn
	return true
}

// Step runs the pending callback, if any.
func (l *Loop) Step(now time.Time) bool {
	l.mu.Lock()
	fn := l.pending
	l.pending = nil
	if l.stopped || fn == nil {
		l.mu.Unlock()
		return false
	}
	l.frames++
	l.mu.Unlock()

	fn(now)
	return true
}

func (l *Loop) Stop() {
	l.mu.Lock()
	l.stopped = true
	l.pending = nil
	l.mu.Unlock()
}

func (l *Loop) Stopped() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stopped
}

func (l *Loop) Pending() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending != nil
}

func (l *Loop) Frames() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frames
}

// Run pumps frames on the calling goroutine until ctx ends, poll reports the
// host closed, or no callback is pending. poll runs before every step and is
// where hosts drain their event queues. interval <= 0 steps as fast as poll
// returns, which suits vsync-paced presenters.
func (l *Loop) Run(ctx context.Context, poll func() bool, interval time.Duration) error {
	var tick <-chan time.Time
	if interval > 0 {
		t := time.NewTicker(interval)
		defer t.Stop()
		tick = t.C
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if poll != nil && !poll() {
			return nil
		}
		if !l.Step(time.Now()) {
			return nil
		}
		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		}
	}
}
