package gpio

import "time"

// debouncer reports a new state once a reading has held steady for delay.
type debouncer struct {
	delay    time.Duration
	reported bool
	current  bool
	since    time.Time
	settled  bool
}

func newDebouncer(delay time.Duration, initial bool) debouncer {
	return debouncer{delay: delay, reported: initial, current: initial, settled: true}
}

// update feeds one reading and returns the new state when it changes.
func (d *debouncer) update(state bool, now time.Time) (bool, bool) {
	if state != d.current {
		d.current = state
		d.since = now
		d.settled = false
		return d.reported, false
	}

	if d.settled || now.Sub(d.since) < d.delay {
		return d.reported, false
	}

	d.settled = true
	if state == d.reported {
		return d.reported, false
	}
	d.reported = state
	return state, true
}
