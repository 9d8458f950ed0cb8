// Package clock lets time-driven code run against a fake clock in tests.
package clock

import "time"

type Clock interface {
	Now() time.Time

	// AfterFunc calls f once d has elapsed. The real clock calls f in its
	// own goroutine; the fake clock calls it from Advance.
	AfterFunc(d time.Duration, f func()) *Timer
}

type Timer struct {
	stop func() bool
}

// Stop cancels the timer. It returns false if it already fired or was
// stopped.
func (t *Timer) Stop() bool {
	return t.stop()
}

func Real() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, f func()) *Timer {
	t := time.AfterFunc(d, f)
	return &Timer{stop: t.Stop}
}
