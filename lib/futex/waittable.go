package futex

import (
	"sync"
	"time"
)

// waitResult mirrors the result of memory.atomic.wait32.
type waitResult int

const (
	waitOK       waitResult = iota // woken by notify
	waitNotEqual                   // the cell did not hold the expected value
	waitTimedOut                   // the timeout elapsed first
)

func (r waitResult) String() string {
	switch r {
	case waitOK:
		return "ok"
	case waitNotEqual:
		return "not-equal"
	case waitTimedOut:
		return "timed-out"
	default:
		return "invalid"
	}
}

const tableBuckets = 251

type tableWaiter struct {
	key   uintptr
	ready chan struct{}
}

type tableBucket struct {
	mu      sync.Mutex
	waiters []*tableWaiter
}

// waitTable parks goroutines by address. A waiter compares its cell and
// enqueues under the bucket lock, and notify dequeues under the same lock,
// so a notify that follows a change to the cell either sees the waiter in
// the queue or the waiter sees the changed cell.
type waitTable struct {
	buckets [tableBuckets]tableBucket
}

var table waitTable

func (t *waitTable) bucket(key uintptr) *tableBucket {
	// Cells are at least 4-byte aligned.
	return &t.buckets[(key>>2)%tableBuckets]
}

// wait parks until notified while same reports true. timeoutNs < 0 waits
// forever.
func (t *waitTable) wait(key uintptr, same func() bool, timeoutNs int64) waitResult {
	b := t.bucket(key)

	b.mu.Lock()
	if !same() {
		b.mu.Unlock()
		return waitNotEqual
	}
	w := &tableWaiter{key: key, ready: make(chan struct{}, 1)}
	b.waiters = append(b.waiters, w)
	b.mu.Unlock()

	if timeoutNs < 0 {
		<-w.ready
		return waitOK
	}

	timer := time.NewTimer(time.Duration(timeoutNs))
	defer timer.Stop()

	select {
	case <-w.ready:
		return waitOK
	case <-timer.C:
	}

	b.mu.Lock()
	removed := b.remove(w)
	b.mu.Unlock()
	if !removed {
		// A notify dequeued us between the timer firing and the lock.
		<-w.ready
		return waitOK
	}
	return waitTimedOut
}

// notify wakes up to count waiters parked on key, oldest first, and returns
// how many it woke.
func (t *waitTable) notify(key uintptr, count uint32) uint32 {
	b := t.bucket(key)

	b.mu.Lock()
	defer b.mu.Unlock()

	var woken uint32
	kept := b.waiters[:0]
	for _, w := range b.waiters {
		if woken < count && w.key == key {
			w.ready <- struct{}{}
			woken++
			continue
		}
		kept = append(kept, w)
	}
	for i := len(kept); i < len(b.waiters); i++ {
		b.waiters[i] = nil
	}
	b.waiters = kept
	return woken
}

// remove drops w from the bucket. It must be called with b.mu held.
func (b *tableBucket) remove(w *tableWaiter) bool {
	for i, other := range b.waiters {
		if other == w {
			copy(b.waiters[i:], b.waiters[i+1:])
			b.waiters[len(b.waiters)-1] = nil
			b.waiters = b.waiters[:len(b.waiters)-1]
			return true
		}
	}
	return false
}
