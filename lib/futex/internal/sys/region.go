// Package sys is the boundary between lib/futex and the operating system.
//
// Every platform call made on behalf of a futex lives in this package. The
// functions here assume the kernel or runtime honors its documented contract
// (compare-and-block is indivisible with respect to wake, timeouts are
// relative) and report raw results; interpreting them is the caller's job.
package sys

import (
	"sync/atomic"
	"unsafe"
)

// Region is a borrowed view of memory handed to a platform call: the address
// of the first byte and the number of bytes the call may read. The memory
// must stay valid and must not move for as long as the Region is in use.
type Region struct {
	Addr unsafe.Pointer
	Size uintptr
}

// Borrow32 borrows the word backing v.
func Borrow32(v *atomic.Uint32) Region {
	return Region{Addr: unsafe.Pointer(v), Size: unsafe.Sizeof(*v)}
}

// Borrow64 borrows the double word backing v.
func Borrow64(v *atomic.Uint64) Region {
	return Region{Addr: unsafe.Pointer(v), Size: unsafe.Sizeof(*v)}
}

// Value32 borrows a plain value, used as the comparand of an address wait.
func Value32(v *uint32) Region {
	return Region{Addr: unsafe.Pointer(v), Size: unsafe.Sizeof(*v)}
}

// Value64 is Value32 for 64-bit comparands.
func Value64(v *uint64) Region {
	return Region{Addr: unsafe.Pointer(v), Size: unsafe.Sizeof(*v)}
}

// Key identifies the region by address. Two regions with the same Key refer
// to the same futex.
func (r Region) Key() uintptr {
	return uintptr(r.Addr)
}
