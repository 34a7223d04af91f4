//go:build windows

package futex

import (
	"errors"

	"github.com/AarC10/GSW-Sync/lib/futex/internal/sys"
	"golang.org/x/sys/windows"
)

// Wait blocks while f holds expected, for at most timeout.
func (f *Futex) Wait(expected uint32, timeout Timeout) bool {
	return waitOnAddress(f.region(), sys.Value32(&expected), timeout)
}

// Wake wakes one waiter. WakeByAddressSingle does not say whether anyone was
// woken, so it always returns false.
func (f *Futex) Wake() bool {
	sys.WakeByAddressSingle(f.region())
	return false
}

// WakeAll wakes every waiter.
func (f *Futex) WakeAll() {
	sys.WakeByAddressAll(f.region())
}

// Wait blocks while f holds expected, for at most timeout. All eight bytes
// take part in the comparison.
func (f *Futex64) Wait(expected uint64, timeout Timeout) bool {
	return waitOnAddress(f.region(), sys.Value64(&expected), timeout)
}

// Wake wakes one waiter and always returns false.
func (f *Futex64) Wake() bool {
	sys.WakeByAddressSingle(f.region())
	return false
}

// WakeAll wakes every waiter.
func (f *Futex64) WakeAll() {
	sys.WakeByAddressAll(f.region())
}

func waitOnAddress(addr, compare sys.Region, timeout Timeout) bool {
	woken, lastErr := sys.WaitOnAddress(addr, compare, timeout.millis())
	if woken {
		return true
	}
	if errors.Is(lastErr, windows.ERROR_TIMEOUT) {
		return false
	}
	platformFailure("WaitOnAddress", lastErr)
	return true
}
