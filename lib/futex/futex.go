// Package futex provides a wait/wake primitive keyed by the address of an
// atomic integer.
//
// A waiter passes the value it last observed; if the cell still holds that
// value the waiter sleeps until another goroutine calls Wake or WakeAll on the
// same cell. The comparison and the registration as a waiter happen in one
// platform operation, so a wake issued after the caller's observation is
// never lost.
//
// Exactly one backend is compiled into a build:
//
//   - linux: the futex(2) system call
//   - freebsd: _umtx_op(2) with a relative _umtx_time
//   - windows: WaitOnAddress / WakeByAddress*
//   - everything else (wasm, darwin, ...): an in-process wait table shaped
//     like memory.atomic.wait32 / memory.atomic.notify
//
// Wait may return true without a matching wake. Callers re-check their own
// condition.
package futex

import (
	"math"
	"sync/atomic"

	"github.com/AarC10/GSW-Sync/lib/futex/internal/sys"
	"github.com/AarC10/GSW-Sync/lib/logger"
	"go.uber.org/zap"
)

// wakeAllCount is the wake count used to mean "every waiter".
const wakeAllCount = math.MaxInt32

// Waiter is the futex capability, implemented once per cell width.
type Waiter[T uint32 | uint64] interface {
	// Wait blocks while the cell holds expected. It returns false only when
	// timeout elapsed.
	Wait(expected T, timeout Timeout) bool
	// Wake wakes at most one waiter. It returns true only if the backend
	// knows a waiter was woken.
	Wake() bool
	// WakeAll wakes every waiter.
	WakeAll()
}

// Futex is a 32-bit futex cell. The zero value holds 0. A Futex must not be
// copied after first use.
type Futex struct {
	v atomic.Uint32
}

// SmallFutex is a futex for state that fits in a byte. Go has no sub-word
// atomics, so it is a full Futex.
type SmallFutex = Futex

var (
	_ Waiter[uint32] = (*Futex)(nil)
	_ Waiter[uint64] = (*Futex64)(nil)
)

// Load atomically loads the cell.
func (f *Futex) Load() uint32 { return f.v.Load() }

// Store atomically stores val in the cell.
func (f *Futex) Store(val uint32) { f.v.Store(val) }

// Add atomically adds delta and returns the new value.
func (f *Futex) Add(delta uint32) uint32 { return f.v.Add(delta) }

// CompareAndSwap executes the compare-and-swap operation on the cell.
func (f *Futex) CompareAndSwap(old, new uint32) bool { return f.v.CompareAndSwap(old, new) }

func (f *Futex) region() sys.Region { return sys.Borrow32(&f.v) }

// Futex64 is a 64-bit futex cell. Windows compares all eight bytes natively;
// kernels whose futexes only compare 32-bit words use the wait table.
type Futex64 struct {
	v atomic.Uint64
}

// Load atomically loads the cell.
func (f *Futex64) Load() uint64 { return f.v.Load() }

// Store atomically stores val in the cell.
func (f *Futex64) Store(val uint64) { f.v.Store(val) }

// Add atomically adds delta and returns the new value.
func (f *Futex64) Add(delta uint64) uint64 { return f.v.Add(delta) }

// CompareAndSwap executes the compare-and-swap operation on the cell.
func (f *Futex64) CompareAndSwap(old, new uint64) bool { return f.v.CompareAndSwap(old, new) }

func (f *Futex64) region() sys.Region { return sys.Borrow64(&f.v) }

// platformFailure reports a platform error that is neither a wake nor a
// timeout. Nothing can recover from it.
func platformFailure(op string, err error) {
	logger.Panic("futex: unexpected platform error", zap.String("op", op), zap.Error(err))
}
