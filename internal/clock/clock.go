package clock

import "time"

// Clock abstracts the time source used by the timing engine so measurements
// can be driven deterministically in tests.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

// Real implements Clock using the standard library monotonic clock.
type Real struct{}

// Now returns the current local time carrying a monotonic reading. It is not
// converted to UTC because that strips the monotonic component.
func (Real) Now() time.Time {
	return time.Now()
}

// Since returns the monotonic duration elapsed since t.
func (Real) Since(t time.Time) time.Duration {
	return time.Since(t)
}
