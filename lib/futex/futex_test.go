package futex

import (
	"sync"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	// shortTimeout bounds waits that are expected to time out.
	shortTimeout = 20 * time.Millisecond
	// longTimeout bounds waits that are expected to be woken; reaching it is
	// a failure.
	longTimeout = 10 * time.Second
)

func TestWaitReturnsWhenValueDiffers(t *testing.T) {
	f := new(Futex)
	f.Store(1)

	start := time.Now()
	if !f.Wait(0, After(longTimeout)) {
		t.Fatal("Wait on a changed value reported a timeout")
	}
	if elapsed := time.Since(start); elapsed >= longTimeout/2 {
		t.Errorf("Wait on a changed value blocked for %v", elapsed)
	}
}

func TestWaitTimesOut(t *testing.T) {
	f := new(Futex)

	start := time.Now()
	if f.Wait(0, After(shortTimeout)) {
		t.Fatal("expected Wait to time out")
	}
	if elapsed := time.Since(start); elapsed < shortTimeout {
		t.Errorf("Wait returned after %v, before its %v timeout", elapsed, shortTimeout)
	}
}

func TestWaitZeroTimeout(t *testing.T) {
	f := new(Futex)
	if f.Wait(0, After(0)) {
		t.Error("a zero timeout on an unchanged value should time out")
	}
	if f.Wait(0, After(-time.Hour)) {
		t.Error("a negative timeout should saturate to zero and time out")
	}
}

func TestWakeWithoutWaiters(t *testing.T) {
	f := new(Futex)
	if f.Wake() {
		t.Error("Wake with no waiters should not report a wake")
	}
	f.WakeAll()
	if got := f.Load(); got != 0 {
		t.Errorf("wakes should not change the cell, got %d", got)
	}
}

func TestWakeUnblocksWaiter(t *testing.T) {
	f := new(Futex)

	done := make(chan bool)
	go func() {
		done <- f.Wait(0, After(longTimeout))
	}()

	// Changing the value first means the waiter either sees the new value or
	// is already queued for the wake.
	f.Add(1)
	f.Wake()

	select {
	case woken := <-done:
		if !woken {
			t.Error("waiter reported a timeout")
		}
	case <-time.After(longTimeout):
		t.Fatal("waiter was not woken")
	}
}

func TestWakeAllUnblocksEveryWaiter(t *testing.T) {
	const waiters = 8
	f := new(Futex)

	var started sync.WaitGroup
	var g errgroup.Group
	results := make([]bool, waiters)
	for i := 0; i < waiters; i++ {
		started.Add(1)
		g.Go(func() error {
			started.Done()
			for f.Load() == 0 {
				if !f.Wait(0, After(longTimeout)) {
					return nil
				}
			}
			results[i] = true
			return nil
		})
	}

	started.Wait()
	f.Store(1)
	f.WakeAll()

	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	for i, woken := range results {
		if !woken {
			t.Errorf("waiter %d timed out", i)
		}
	}
}

func TestFutex64ComparesFullWidth(t *testing.T) {
	f := new(Futex64)
	f.Store(1 << 40)

	// The low word matches; the high word does not.
	if !f.Wait(0, After(longTimeout)) {
		t.Fatal("Wait compared only the low 32 bits")
	}
	if f.Wait(1<<40, After(shortTimeout)) {
		t.Error("expected a timeout on a matching 64-bit value")
	}
}

func TestFutex64WakeUnblocksWaiter(t *testing.T) {
	f := new(Futex64)
	f.Store(1 << 33)

	done := make(chan bool)
	go func() {
		done <- f.Wait(1<<33, After(longTimeout))
	}()

	f.Add(1)
	f.WakeAll()

	select {
	case woken := <-done:
		if !woken {
			t.Error("waiter reported a timeout")
		}
	case <-time.After(longTimeout):
		t.Fatal("waiter was not woken")
	}
}

func TestAccessors(t *testing.T) {
	f := new(Futex)
	if got := f.Add(3); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
	if !f.CompareAndSwap(3, 5) {
		t.Error("CompareAndSwap(3, 5) failed")
	}
	if f.CompareAndSwap(3, 7) {
		t.Error("CompareAndSwap(3, 7) succeeded on 5")
	}
	if got := f.Load(); got != 5 {
		t.Errorf("expected 5, got %d", got)
	}

	// The counter wraps.
	f.Store(^uint32(0))
	if got := f.Add(1); got != 0 {
		t.Errorf("expected wraparound to 0, got %d", got)
	}
}
