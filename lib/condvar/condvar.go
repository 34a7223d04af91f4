// Package condvar implements a condition variable on top of lib/futex.
//
// The only state is a notification counter. Waiters snapshot it while still
// holding their lock, so a notification that lands after the snapshot makes
// the futex wait return immediately even if it happens before the waiter
// has gone to sleep.
package condvar

import (
	"sync"
	"time"

	"github.com/AarC10/GSW-Sync/lib/futex"
)

// Cond is a condition variable. The zero value is ready to use. A Cond must
// not be copied after first use.
//
// The lock is supplied on every wait and is never owned by the Cond. As with
// any condition variable, Wait may return without a matching notification,
// so callers check their condition in a loop.
type Cond struct {
	// Incremented on every notification.
	futex futex.Futex
}

// NewCond returns a new Cond.
func NewCond() *Cond {
	return &Cond{}
}

// All counter accesses are only ordered by l: the caller's condition data is
// published by unlocking and observed by locking.

// NotifyOne wakes one goroutine waiting on c, if there is one.
func (c *Cond) NotifyOne() {
	c.futex.Add(1)
	c.futex.Wake()
}

// NotifyAll wakes every goroutine waiting on c.
func (c *Cond) NotifyAll() {
	c.futex.Add(1)
	c.futex.WakeAll()
}

// Wait unlocks l, sleeps until notified, and locks l again before returning.
// l must be held by the caller.
func (c *Cond) Wait(l sync.Locker) {
	c.wait(l, futex.Forever)
}

// WaitTimeout is Wait with a relative timeout. It returns false if the
// timeout elapsed without a notification. l is held again on return either
// way.
func (c *Cond) WaitTimeout(l sync.Locker, timeout time.Duration) bool {
	return c.wait(l, futex.After(timeout))
}

func (c *Cond) wait(l sync.Locker, timeout futex.Timeout) bool {
	// Take the snapshot before unlocking.
	value := c.futex.Load()

	l.Unlock()

	// Sleep only if nothing was notified since the snapshot.
	woken := c.futex.Wait(value, timeout)

	l.Lock()

	return woken
}
