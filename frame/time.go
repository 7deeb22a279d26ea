package frame

import "time"

// MaxDt bounds a single frame step so a stalled host does not teleport the
// simulation.
const MaxDt = 33 * time.Millisecond

type Time struct {
	Time time.Time
	Dt   time.Duration
}

// Advance records now and returns the clamped step since the previous call.
// The first call yields zero.
func (t *Time) Advance(now time.Time) time.Duration {
	if t.Time.IsZero() {
		t.Time = now
		t.Dt = 0
		return 0
	}
	dt := now.Sub(t.Time)
	if dt < 0 {
		dt = 0
	}
	if dt > MaxDt {
		dt = MaxDt
	}
	t.Dt = dt
	t.Time = now
	return dt
}
