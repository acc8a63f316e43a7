package timer

import (
	"sync"
	"time"
)

// Debouncer delays a callback until a quiet period has elapsed. Arming while
// a callback is pending cancels the pending one and restarts the delay; a
// callback that has already fired is never recalled.
type Debouncer struct {
	mu      sync.Mutex
	pending *time.Timer
}

// NewDebouncer returns an idle debouncer.
func NewDebouncer() *Debouncer {
	return &Debouncer{}
}

// Arm schedules fn to run after delay, cancelling any pending callback.
// fn runs on its own goroutine. A callback whose timer fired but that lost
// the race with a newer Arm or a Cancel does not run and does not touch the
// newer timer's handle.
func (d *Debouncer) Arm(delay time.Duration, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil {
		d.pending.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		d.mu.Lock()
		live := d.pending == t
		if live {
			d.pending = nil
		}
		d.mu.Unlock()
		if live {
			fn()
		}
	})
	d.pending = t
}

// Cancel drops any pending callback. In-flight callbacks are unaffected.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
}

// Pending reports whether a callback is armed but has not fired yet.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}
