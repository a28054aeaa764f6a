// Package timing measures average per-operation latency for the lookup
// scenarios.
package timing

import (
	"time"

	"pkt.systems/objlookup/internal/clock"
)

// Timer marks a start point on a clock. The zero value is not usable; call
// Start.
type Timer struct {
	clock clock.Clock
	start time.Time
}

// Start captures the current monotonic timestamp of c. A nil clock selects
// clock.Real.
func Start(c clock.Clock) Timer {
	if c == nil {
		c = clock.Real{}
	}
	return Timer{clock: c, start: c.Now()}
}

// Elapsed returns the time since Start. It never reports a negative value.
func (t Timer) Elapsed() time.Duration {
	if t.clock == nil {
		return 0
	}
	d := t.clock.Since(t.start)
	if d < 0 {
		return 0
	}
	return d
}

// Sample captures the elapsed time for the given number of iterations.
func (t Timer) Sample(iterations int) Sample {
	return Sample{Iterations: iterations, Elapsed: t.Elapsed()}
}

// PerIteration returns the average microseconds per iteration since Start.
// Iteration counts below 1 are treated as 1.
func (t Timer) PerIteration(iterations int) float64 {
	return t.Sample(iterations).Microseconds()
}

// Sample is one immutable measurement: a number of iterations and the total
// time they took.
type Sample struct {
	Iterations int
	Elapsed    time.Duration
}

// Microseconds returns Elapsed divided by Iterations in microseconds.
func (s Sample) Microseconds() float64 {
	n := s.Iterations
	if n < 1 {
		n = 1
	}
	return float64(s.Elapsed) / float64(time.Microsecond) / float64(n)
}
