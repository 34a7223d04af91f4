//go:build !linux && !freebsd && !windows

package futex

// Wait blocks while f holds expected, for at most timeout.
func (f *Futex) Wait(expected uint32, timeout Timeout) bool {
	key := f.region().Key()
	return table.wait(key, func() bool { return f.v.Load() == expected }, timeout.nanos()) != waitTimedOut
}

// Wake wakes one waiter and reports whether one was woken.
func (f *Futex) Wake() bool {
	return table.notify(f.region().Key(), 1) > 0
}

// WakeAll wakes every waiter.
func (f *Futex) WakeAll() {
	table.notify(f.region().Key(), wakeAllCount)
}
