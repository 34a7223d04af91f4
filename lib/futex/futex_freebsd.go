//go:build freebsd

package futex

import (
	"os"

	"github.com/AarC10/GSW-Sync/lib/futex/internal/sys"
	"golang.org/x/sys/unix"
)

// Wait blocks while f holds expected, for at most timeout.
func (f *Futex) Wait(expected uint32, timeout Timeout) bool {
	return umtxWait(f.region(), expected, timeout, false)
}

// Wake wakes one waiter. _umtx_op does not say whether anyone was woken, so
// it always returns false.
func (f *Futex) Wake() bool {
	umtxWake(f.region(), 1, false)
	return false
}

// WakeAll wakes every waiter.
func (f *Futex) WakeAll() {
	umtxWake(f.region(), wakeAllCount, false)
}

func umtxWait(r sys.Region, expected uint32, timeout Timeout, shared bool) bool {
	switch errno := sys.UmtxWait(r, expected, timeout.timespec(), shared); errno {
	case 0, unix.EINTR:
		return true
	case unix.ETIMEDOUT:
		return false
	default:
		platformFailure("umtx wait", os.NewSyscallError("_umtx_op", errno))
		return true
	}
}

func umtxWake(r sys.Region, count int32, shared bool) {
	if errno := sys.UmtxWake(r, count, shared); errno != 0 {
		platformFailure("umtx wake", os.NewSyscallError("_umtx_op", errno))
	}
}
