//go:build linux

package futex

import (
	"os"

	"github.com/AarC10/GSW-Sync/lib/futex/internal/sys"
	"golang.org/x/sys/unix"
)

// Wait blocks while f holds expected, for at most timeout.
func (f *Futex) Wait(expected uint32, timeout Timeout) bool {
	return futexWait(f.region(), expected, timeout, false)
}

// Wake wakes one waiter and reports whether the kernel woke anyone.
func (f *Futex) Wake() bool {
	return futexWake(f.region(), 1, false) > 0
}

// WakeAll wakes every waiter.
func (f *Futex) WakeAll() {
	futexWake(f.region(), wakeAllCount, false)
}

func futexWait(r sys.Region, expected uint32, timeout Timeout, shared bool) bool {
	switch errno := sys.FutexWait(r, expected, timeout.timespec(), shared); errno {
	case 0, unix.EAGAIN, unix.EINTR:
		return true
	case unix.ETIMEDOUT:
		return false
	default:
		platformFailure("futex wait", os.NewSyscallError("futex", errno))
		return true
	}
}

func futexWake(r sys.Region, count int32, shared bool) int {
	n, errno := sys.FutexWake(r, count, shared)
	if errno != 0 {
		platformFailure("futex wake", os.NewSyscallError("futex", errno))
	}
	return n
}
