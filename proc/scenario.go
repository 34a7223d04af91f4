package proc

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AarC10/GSW-Sync/lib/condvar"
	"github.com/AarC10/GSW-Sync/lib/futex"
	"github.com/AarC10/GSW-Sync/lib/logger"
	"github.com/AarC10/GSW-Sync/lib/stats"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const maxPreallocatedLatencies = 1 << 16

// Result is the outcome of running one Scenario
type Result struct {
	Scenario   string
	Kind       string
	Waiters    int
	Iterations int
	Woken      uint64          // waits that returned true
	TimedOut   uint64          // waits that returned false
	Latencies  []time.Duration // one entry per observed wake or timeout overshoot
	Started    time.Time
	Elapsed    time.Duration
}

// recorder collects latencies from concurrent goroutines
type recorder struct {
	mu        sync.Mutex
	latencies []time.Duration
	woken     atomic.Uint64
	timedOut  atomic.Uint64
}

func (r *recorder) record(latency time.Duration) {
	r.mu.Lock()
	r.latencies = append(r.latencies, latency)
	r.mu.Unlock()
}

// observe counts the outcome of a single wait.
func (r *recorder) observe(woken bool) {
	if woken {
		r.woken.Add(1)
	} else {
		r.timedOut.Add(1)
	}
}

// Run executes a scenario and blocks until it completes or ctx is done.
func Run(ctx context.Context, scenario Scenario) (Result, error) {
	log := logger.Log().Named("scenario").With(zap.String("scenario", scenario.Name), zap.String("kind", scenario.Kind))
	if scenario.timeout == 0 {
		if err := scenario.applyDefaults(); err != nil {
			return Result{}, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
	}

	rec := &recorder{latencies: make([]time.Duration, 0, min(scenario.Iterations*scenario.Waiters, maxPreallocatedLatencies))}
	started := time.Now()
	log.Debug("starting scenario", zap.Int("waiters", scenario.Waiters), zap.Int("iterations", scenario.Iterations))

	var err error
	switch scenario.Kind {
	case KindPingPong:
		err = runPingPong(ctx, scenario, rec)
	case KindFanout:
		err = runFanout(ctx, scenario, rec, true)
	case KindWake:
		err = runFanout(ctx, scenario, rec, false)
	case KindTimeout:
		err = runTimeout(ctx, scenario, rec)
	default:
		err = fmt.Errorf("unknown kind %q", scenario.Kind)
	}

	result := Result{
		Scenario:   scenario.Name,
		Kind:       scenario.Kind,
		Waiters:    scenario.Waiters,
		Iterations: scenario.Iterations,
		Woken:      rec.woken.Load(),
		TimedOut:   rec.timedOut.Load(),
		Latencies:  rec.latencies,
		Started:    started,
		Elapsed:    time.Since(started),
	}
	if err != nil {
		return result, fmt.Errorf("running scenario %s: %w", scenario.Name, err)
	}

	log.Debug("scenario finished", zap.Duration("elapsed", result.Elapsed), zap.Uint64("woken", result.Woken), zap.Uint64("timedOut", result.TimedOut))
	return result, nil
}

// runPingPong passes a turn between two goroutines under one mutex. Each
// side notifies, then waits on the condvar until the turn comes back.
func runPingPong(ctx context.Context, scenario Scenario, rec *recorder) error {
	var (
		mu     sync.Mutex
		cond   condvar.Cond
		turn   int
		sentAt time.Time
	)

	side := func(ctx context.Context, me, other int) error {
		for i := 0; i < scenario.Iterations; i++ {
			mu.Lock()
			for turn != me {
				woken := cond.WaitTimeout(&mu, scenario.timeout)
				rec.observe(woken)
				if err := ctx.Err(); err != nil {
					mu.Unlock()
					return err
				}
			}
			if !sentAt.IsZero() {
				rec.record(time.Since(sentAt))
			}
			turn = other
			sentAt = time.Now()
			cond.NotifyOne()
			mu.Unlock()
		}
		return nil
	}

	// If one side fails the other must not keep waiting for its turn.
	group, groupCtx := errgroup.WithContext(ctx)
	stop := context.AfterFunc(groupCtx, cond.NotifyAll)
	defer stop()

	group.Go(func() error { return side(groupCtx, 0, 1) })
	group.Go(func() error { return side(groupCtx, 1, 0) })
	return group.Wait()
}

// runFanout parks scenario.Waiters goroutines on a generation futex and
// releases them once per iteration. The releaser waits on an acknowledgement
// futex until every waiter has seen the generation before bumping it again.
func runFanout(ctx context.Context, scenario Scenario, rec *recorder, wakeAll bool) error {
	var (
		generation futex.Futex
		acks       futex.Futex
		releasedAt atomic.Int64
	)
	waitFor := futex.After(scenario.timeout)

	group, groupCtx := errgroup.WithContext(ctx)
	for w := 0; w < scenario.Waiters; w++ {
		group.Go(func() error {
			for i := 0; i < scenario.Iterations; i++ {
				current := uint32(i)
				for generation.Load() == current {
					rec.observe(generation.Wait(current, waitFor))
					if err := groupCtx.Err(); err != nil {
						return err
					}
				}
				rec.record(time.Duration(time.Now().UnixNano() - releasedAt.Load()))
				acks.Add(1)
				acks.Wake()
			}
			return nil
		})
	}

	group.Go(func() error {
		for i := 0; i < scenario.Iterations; i++ {
			releasedAt.Store(time.Now().UnixNano())
			generation.Add(1)
			if wakeAll {
				generation.WakeAll()
			} else {
				generation.Wake()
			}

			target := uint32(scenario.Waiters * (i + 1))
			for {
				seen := acks.Load()
				if seen >= target {
					break
				}
				acks.Wait(seen, waitFor)
				if err := groupCtx.Err(); err != nil {
					return err
				}
			}
		}
		return nil
	})

	return group.Wait()
}

// runTimeout waits on a condvar nobody notifies and records how far past
// the deadline each wait returned.
func runTimeout(ctx context.Context, scenario Scenario, rec *recorder) error {
	var (
		mu   sync.Mutex
		cond condvar.Cond
	)

	group, groupCtx := errgroup.WithContext(ctx)
	for w := 0; w < scenario.Waiters; w++ {
		group.Go(func() error {
			for i := 0; i < scenario.Iterations; i++ {
				if err := groupCtx.Err(); err != nil {
					return err
				}
				mu.Lock()
				start := time.Now()
				woken := cond.WaitTimeout(&mu, scenario.timeout)
				elapsed := time.Since(start)
				mu.Unlock()

				rec.observe(woken)
				if !woken {
					rec.record(max(elapsed-scenario.timeout, 0))
				}
			}
			return nil
		})
	}
	return group.Wait()
}

// Sample summarizes a Result into a fixed-size sample.
func (r Result) Sample() stats.Sample {
	sample := stats.Sample{
		Timestamp:  r.Started,
		ScenarioID: stats.ScenarioID(r.Scenario),
		Iterations: uint64(r.Iterations),
		Woken:      r.Woken,
		TimedOut:   r.TimedOut,
	}
	if len(r.Latencies) == 0 {
		return sample
	}

	sorted := slices.Clone(r.Latencies)
	slices.Sort(sorted)

	var total time.Duration
	for _, latency := range sorted {
		total += latency
	}

	sample.MinLatency = sorted[0]
	sample.MaxLatency = sorted[len(sorted)-1]
	sample.MeanLatency = total / time.Duration(len(sorted))
	sample.P99Latency = sorted[percentileIndex(len(sorted), 99)]
	return sample
}

// percentileIndex returns the nearest-rank index of percentile p in a
// sorted slice of length n.
func percentileIndex(n, p int) int {
	rank := (n*p + 99) / 100
	if rank < 1 {
		rank = 1
	}
	return rank - 1
}
