//go:build linux || freebsd

package futex

import "golang.org/x/sys/unix"

// timespec converts the timeout to a relative timespec. A nil result blocks
// indefinitely; that is also what a duration gets when its seconds do not
// fit the platform's time_t.
func (t Timeout) timespec() *unix.Timespec {
	sec, nsec, ok := t.relative()
	if !ok {
		return nil
	}
	ts := unix.NsecToTimespec(sec*1e9 + nsec)
	if int64(ts.Sec) != sec || int64(ts.Nsec) != nsec {
		return nil
	}
	return &ts
}
