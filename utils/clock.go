package utils

import (
	"sort"
	"sync"
	"time"
)

// Timer is a cancellable scheduled callback.
type Timer interface {
	// Stop cancels the timer. It reports whether the call stopped a pending timer.
	Stop() bool
}

// Clock abstracts wall time and callback scheduling.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

// RealClock returns a Clock backed by the time package.
func RealClock() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// ManualClock is a Clock whose time only moves when Advance is called.
// Timers fire synchronously inside Advance, on the caller's goroutine.
type ManualClock struct {
	mu        sync.Mutex
	now       time.Time
	timers    []*manualTimer
	scheduled []time.Duration
}

// NewManualClock creates a ManualClock starting at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

type manualTimer struct {
	clock    *ManualClock
	when     time.Time
	duration time.Duration
	fn       func()
	active   bool
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	wasActive := t.active
	t.active = false
	return wasActive
}

// Now returns the clock's current time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc schedules f to run once the clock has advanced by d.
func (c *ManualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &manualTimer{clock: c, when: c.now.Add(d), duration: d, fn: f, active: true}
	c.timers = append(c.timers, t)
	c.scheduled = append(c.scheduled, d)
	return t
}

// Advance moves time forward by d and runs every timer that became due, in due order.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		next := c.nextDueLocked(target)
		if next == nil {
			c.now = target
			c.compactLocked()
			c.mu.Unlock()
			return
		}
		next.active = false
		if next.when.After(c.now) {
			c.now = next.when
		}
		fn := next.fn
		c.mu.Unlock()

		fn()
	}
}

func (c *ManualClock) nextDueLocked(target time.Time) *manualTimer {
	var due []*manualTimer
	for _, t := range c.timers {
		if t.active && !t.when.After(target) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].when.Before(due[j].when) })
	return due[0]
}

func (c *ManualClock) compactLocked() {
	active := c.timers[:0]
	for _, t := range c.timers {
		if t.active {
			active = append(active, t)
		}
	}
	c.timers = active
}

// Pending returns the durations of timers that are still waiting to fire.
func (c *ManualClock) Pending() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []time.Duration
	for _, t := range c.timers {
		if t.active {
			out = append(out, t.duration)
		}
	}
	return out
}

// PendingWith counts waiting timers scheduled with exactly duration d.
func (c *ManualClock) PendingWith(d time.Duration) int {
	n := 0
	for _, p := range c.Pending() {
		if p == d {
			n++
		}
	}
	return n
}

// Scheduled returns the duration of every timer ever scheduled, in order.
func (c *ManualClock) Scheduled() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.scheduled...)
}
