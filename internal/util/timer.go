package util

import "time"

// Timer measures how long a stage of work took.
type Timer struct {
	start time.Time
	now   func() time.Time
}

// StartTimer starts a timer on the wall clock.
func StartTimer() Timer {
	return startTimerWith(time.Now)
}

func startTimerWith(now func() time.Time) Timer {
	return Timer{start: now(), now: now}
}

// Elapsed returns the time since the timer started, 0 for a zero Timer.
func (t Timer) Elapsed() time.Duration {
	if t.start.IsZero() || t.now == nil {
		return 0
	}
	return t.now().Sub(t.start)
}

// ElapsedMs returns Elapsed in fractional milliseconds, the unit request logs use.
func (t Timer) ElapsedMs() float64 {
	return float64(t.Elapsed()) / float64(time.Millisecond)
}
