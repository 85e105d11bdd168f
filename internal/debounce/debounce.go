// Package debounce provides a leading-edge call coalescer: the first call in
// an idle period runs immediately, and calls arriving inside the delay window
// collapse into a single trailing run. The clock is injectable so tests can
// drive it deterministically.
package debounce

import (
	"sync"
	"time"
)

// Timer is a cancellable pending call.
type Timer interface {
	Stop() bool
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Debouncer coalesces bursts of Call invocations into at most one run of fn
// per delay window, firing on the leading edge.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func()
	clock   Clock
	timer   Timer
	lastRun time.Time
}

// New creates a Debouncer around fn with the given delay.
func New(delay time.Duration, fn func()) *Debouncer {
	return NewWithClock(delay, fn, realClock{})
}

// NewWithClock creates a Debouncer using the supplied clock.
func NewWithClock(delay time.Duration, fn func(), clock Clock) *Debouncer {
	return &Debouncer{delay: delay, fn: fn, clock: clock}
}

// Call requests a run of fn. If the debouncer is idle the run happens
// synchronously; otherwise one trailing run is scheduled for the end of the
// current window and further calls until then are absorbed.
func (d *Debouncer) Call() {
	d.mu.Lock()
	now := d.clock.Now()
	if d.timer == nil && now.Sub(d.lastRun) >= d.delay {
		d.lastRun = now
		d.mu.Unlock()
		d.fn()
		return
	}
	if d.timer == nil {
		wait := d.delay - now.Sub(d.lastRun)
		if wait < 0 {
			wait = 0
		}
		d.timer = d.clock.AfterFunc(wait, d.fire)
	}
	d.mu.Unlock()
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	d.timer = nil
	d.lastRun = d.clock.Now()
	d.mu.Unlock()
	d.fn()
}

// Stop cancels any pending trailing run. Calls after Stop behave normally.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
