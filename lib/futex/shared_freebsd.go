//go:build freebsd

package futex

import (
	"sync/atomic"

	"github.com/AarC10/GSW-Sync/lib/futex/internal/sys"
)

// Shared is a 32-bit futex cell that may live in memory mapped by several
// processes. It uses the non-private umtx operations. Its layout is exactly
// one uint32.
type Shared struct {
	v atomic.Uint32
}

var _ Waiter[uint32] = (*Shared)(nil)

// Load atomically loads the cell.
func (s *Shared) Load() uint32 { return s.v.Load() }

// Store atomically stores val in the cell.
func (s *Shared) Store(val uint32) { s.v.Store(val) }

// Add atomically adds delta and returns the new value.
func (s *Shared) Add(delta uint32) uint32 { return s.v.Add(delta) }

// Wait blocks while s holds expected, for at most timeout.
func (s *Shared) Wait(expected uint32, timeout Timeout) bool {
	return umtxWait(sys.Borrow32(&s.v), expected, timeout, true)
}

// Wake wakes one waiter and always returns false.
func (s *Shared) Wake() bool {
	umtxWake(sys.Borrow32(&s.v), 1, true)
	return false
}

// WakeAll wakes every waiter in every process.
func (s *Shared) WakeAll() {
	umtxWake(sys.Borrow32(&s.v), wakeAllCount, true)
}
