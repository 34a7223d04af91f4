//go:build linux

package sys

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	_FUTEX_WAIT         = 0
	_FUTEX_WAKE         = 1
	_FUTEX_PRIVATE_FLAG = 128
)

func futexOp(op int, shared bool) uintptr {
	if !shared {
		op |= _FUTEX_PRIVATE_FLAG
	}
	return uintptr(op)
}

func checkWord(r Region) {
	if r.Size != 4 {
		panic(fmt.Sprintf("futex: region of %d bytes, kernel futexes are 32-bit", r.Size))
	}
}

// FutexWait blocks on r while it holds expected. ts is a relative timeout;
// nil blocks indefinitely. The returned errno is 0 after a wake, EAGAIN when
// the word did not hold expected, ETIMEDOUT on timeout and EINTR on signal.
// Shared selects the non-private operation needed for memory mapped by more
// than one process.
func FutexWait(r Region, expected uint32, ts *unix.Timespec, shared bool) unix.Errno {
	checkWord(r)
	_, _, errno := unix.Syscall6(unix.SYS_FUTEX,
		uintptr(r.Addr),
		futexOp(_FUTEX_WAIT, shared),
		uintptr(expected),
		uintptr(unsafe.Pointer(ts)),
		0, 0)
	return errno
}

// FutexWake wakes up to count waiters blocked on r and returns how many the
// kernel woke.
func FutexWake(r Region, count int32, shared bool) (int, unix.Errno) {
	checkWord(r)
	n, _, errno := unix.Syscall6(unix.SYS_FUTEX,
		uintptr(r.Addr),
		futexOp(_FUTEX_WAKE, shared),
		uintptr(count),
		0, 0, 0)
	return int(n), errno
}
