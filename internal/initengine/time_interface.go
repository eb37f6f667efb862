package initengine

import "time"

// RealTimeProvider implements TimeProvider using real time functions.
type RealTimeProvider struct{}

// Now returns the current time.
func (r *RealTimeProvider) Now() time.Time {
	return time.Now()
}

// FixedTimeProvider returns the same instant on every call, advanced by Step
// after each call.
type FixedTimeProvider struct {
	Current time.Time
	Step    time.Duration
}

// Now returns the current fixed time and advances it.
func (f *FixedTimeProvider) Now() time.Time {
	now := f.Current
	f.Current = f.Current.Add(f.Step)
	return now
}

// TimeProvider provides time-related functionality for dependency injection.
type TimeProvider interface {
	Now() time.Time
}
