//go:build !windows

package futex

// Wait blocks while f holds expected, for at most timeout.
func (f *Futex64) Wait(expected uint64, timeout Timeout) bool {
	key := f.region().Key()
	return table.wait(key, func() bool { return f.v.Load() == expected }, timeout.nanos()) != waitTimedOut
}

// Wake wakes one waiter and reports whether one was woken.
func (f *Futex64) Wake() bool {
	return table.notify(f.region().Key(), 1) > 0
}

// WakeAll wakes every waiter.
func (f *Futex64) WakeAll() {
	table.notify(f.region().Key(), wakeAllCount)
}
