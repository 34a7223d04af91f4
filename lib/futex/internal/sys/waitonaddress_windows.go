//go:build windows

package sys

import (
	"fmt"

	"golang.org/x/sys/windows"
)

var (
	modsynch = windows.NewLazySystemDLL("api-ms-win-core-synch-l1-2-0.dll")

	procWaitOnAddress       = modsynch.NewProc("WaitOnAddress")
	procWakeByAddressSingle = modsynch.NewProc("WakeByAddressSingle")
	procWakeByAddressAll    = modsynch.NewProc("WakeByAddressAll")
)

// INFINITE as a WaitOnAddress timeout blocks without a deadline.
const INFINITE = windows.INFINITE

// WaitOnAddress blocks while the r.Size bytes at r equal the bytes at
// compare. It returns the BOOL result and the thread's last error as captured
// immediately after the call, before anything else could overwrite it.
func WaitOnAddress(r, compare Region, millis uint32) (bool, error) {
	if r.Size != compare.Size {
		panic(fmt.Sprintf("futex: comparing %d bytes against %d", r.Size, compare.Size))
	}
	ret, _, lastErr := procWaitOnAddress.Call(
		uintptr(r.Addr),
		uintptr(compare.Addr),
		r.Size,
		uintptr(millis))
	return ret != 0, lastErr
}

// WakeByAddressSingle wakes one thread waiting on r.
func WakeByAddressSingle(r Region) {
	procWakeByAddressSingle.Call(uintptr(r.Addr))
}

// WakeByAddressAll wakes every thread waiting on r.
func WakeByAddressAll(r Region) {
	procWakeByAddressAll.Call(uintptr(r.Addr))
}
