package futex

import "time"

// infiniteMillis is the millisecond encoding of "no timeout" (INFINITE).
const infiniteMillis = 0xFFFFFFFF

// Timeout is an optional relative timeout. The zero value is Forever.
type Timeout struct {
	d   time.Duration
	set bool
}

// Forever blocks until woken.
var Forever Timeout

// After returns a timeout of d measured from the start of the wait. Negative
// durations are treated as zero: the wait still compares the cell but times
// out without sleeping.
func After(d time.Duration) Timeout {
	if d < 0 {
		d = 0
	}
	return Timeout{d: d, set: true}
}

// Duration returns the timeout and whether one is set.
func (t Timeout) Duration() (time.Duration, bool) {
	return t.d, t.set
}

func (t Timeout) String() string {
	if !t.set {
		return "forever"
	}
	return t.d.String()
}

// relative splits the timeout into whole seconds and the nanosecond
// remainder. ok is false for Forever.
func (t Timeout) relative() (sec, nsec int64, ok bool) {
	if !t.set {
		return 0, 0, false
	}
	return int64(t.d / time.Second), int64(t.d % time.Second), true
}

// nanos encodes the timeout as a signed nanosecond count with -1 for
// Forever.
func (t Timeout) nanos() int64 {
	if !t.set {
		return -1
	}
	return int64(t.d)
}

// millis encodes the timeout in milliseconds, rounding up so that a short
// timeout never becomes an immediate one. Values that reach INFINITE are
// INFINITE.
func (t Timeout) millis() uint32 {
	if !t.set {
		return infiniteMillis
	}
	ms := uint64(t.d / time.Millisecond)
	if t.d%time.Millisecond != 0 {
		ms++
	}
	if ms >= infiniteMillis {
		return infiniteMillis
	}
	return uint32(ms)
}
