//go:build freebsd

package sys

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	_UMTX_OP_WAKE               = 3
	_UMTX_OP_WAIT_UINT          = 11
	_UMTX_OP_WAIT_UINT_PRIVATE  = 15
	_UMTX_OP_WAKE_PRIVATE       = 16
	_UMTX_ABSTIME        uint32 = 1
)

// umtxTime mirrors struct _umtx_time. Leaving _UMTX_ABSTIME out of flags
// makes the timeout relative.
type umtxTime struct {
	timeout unix.Timespec
	flags   uint32
	clockid uint32
}

// UmtxWait blocks on r while it holds expected, in one _umtx_op call. ts is
// relative; nil blocks indefinitely. The returned errno is 0 after a wake or
// a value mismatch, ETIMEDOUT on timeout and EINTR on signal.
func UmtxWait(r Region, expected uint32, ts *unix.Timespec, shared bool) unix.Errno {
	if r.Size != 4 {
		panic(fmt.Sprintf("futex: region of %d bytes, umtx waits compare 32-bit words", r.Size))
	}
	op := uintptr(_UMTX_OP_WAIT_UINT_PRIVATE)
	if shared {
		op = _UMTX_OP_WAIT_UINT
	}

	var ut umtxTime
	var utp unsafe.Pointer
	if ts != nil {
		ut.timeout = *ts
		ut.flags = 0
		ut.clockid = unix.CLOCK_MONOTONIC
		utp = unsafe.Pointer(&ut)
	}

	_, _, errno := unix.Syscall6(unix.SYS__UMTX_OP,
		uintptr(r.Addr),
		op,
		uintptr(expected),
		unsafe.Sizeof(ut),
		uintptr(utp),
		0)
	return errno
}

// UmtxWake wakes up to count waiters on r. The kernel does not report how
// many were woken.
func UmtxWake(r Region, count int32, shared bool) unix.Errno {
	op := uintptr(_UMTX_OP_WAKE_PRIVATE)
	if shared {
		op = _UMTX_OP_WAKE
	}
	_, _, errno := unix.Syscall6(unix.SYS__UMTX_OP, uintptr(r.Addr), op, uintptr(count), 0, 0, 0)
	return errno
}
