package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake is a Clock that only moves when Advance is called.
type Fake struct {
	mutex   sync.Mutex
	current time.Time
	timers  []*fakeTimer
}

type fakeTimer struct {
	deadline time.Time
	f        func()
	done     bool
}

func NewFake(initial time.Time) *Fake {
	return &Fake{current: initial}
}

func (c *Fake) Now() time.Time {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.current
}

func (c *Fake) AfterFunc(d time.Duration, f func()) *Timer {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	t := &fakeTimer{deadline: c.current.Add(d), f: f}
	c.timers = append(c.timers, t)

	return &Timer{stop: func() bool {
		c.mutex.Lock()
		defer c.mutex.Unlock()
		if t.done {
			return false
		}
		t.done = true
		return true
	}}
}

// Advance moves the clock forward and runs, in deadline order, every timer
// that became due. Callbacks run on the caller's goroutine without the
// clock lock held, so they may schedule new timers.
func (c *Fake) Advance(d time.Duration) {
	c.mutex.Lock()
	c.current = c.current.Add(d)
	now := c.current

	var due []*fakeTimer
	pending := c.timers[:0]
	for _, t := range c.timers {
		switch {
		case t.done:
		case !t.deadline.After(now):
			t.done = true
			due = append(due, t)
		default:
			pending = append(pending, t)
		}
	}
	c.timers = pending
	c.mutex.Unlock()

	sort.SliceStable(due, func(i, j int) bool {
		return due[i].deadline.Before(due[j].deadline)
	})
	for _, t := range due {
		t.f()
	}
}

// Pending returns how many timers have not fired nor been stopped.
func (c *Fake) Pending() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.done {
			n++
		}
	}
	return n
}
