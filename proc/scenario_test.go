package proc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AarC10/GSW-Sync/lib/stats"
	"github.com/google/go-cmp/cmp"
)

func TestRunScenarios(t *testing.T) {
	tests := []struct {
		name          string
		scenario      Scenario
		wantLatencies int
	}{
		{"pingpong", Scenario{Name: "pp", Kind: KindPingPong, Iterations: 20}, 39},
		{"fanout", Scenario{Name: "fan", Kind: KindFanout, Waiters: 4, Iterations: 10}, 40},
		{"wake", Scenario{Name: "one", Kind: KindWake, Iterations: 10}, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			result, err := Run(ctx, tt.scenario)
			if err != nil {
				t.Fatal(err)
			}
			if len(result.Latencies) != tt.wantLatencies {
				t.Errorf("expected %d latencies, got %d", tt.wantLatencies, len(result.Latencies))
			}
			if result.Scenario != tt.scenario.Name || result.Kind != tt.scenario.Kind {
				t.Errorf("result labelled %s/%s", result.Scenario, result.Kind)
			}
			for _, latency := range result.Latencies {
				if latency < 0 {
					t.Errorf("negative latency %s", latency)
				}
			}
		})
	}
}

func TestRunTimeoutScenario(t *testing.T) {
	const timeout = 5 * time.Millisecond
	scenario := Scenario{Name: "deadline", Kind: KindTimeout, Waiters: 2, Iterations: 3, Timeout: timeout.String()}

	result, err := Run(context.Background(), scenario)
	if err != nil {
		t.Fatal(err)
	}
	if result.TimedOut+result.Woken != 6 {
		t.Errorf("expected 6 waits, got %d timed out and %d woken", result.TimedOut, result.Woken)
	}
	if result.TimedOut == 0 {
		t.Error("expected un-notified waits to time out")
	}
	if len(result.Latencies) != int(result.TimedOut) {
		t.Errorf("expected one overshoot per timeout, got %d for %d", len(result.Latencies), result.TimedOut)
	}
	if result.Elapsed < 3*timeout {
		t.Errorf("three sequential %s waits finished in %s", timeout, result.Elapsed)
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scenario := Scenario{Name: "cancelled", Kind: KindTimeout, Iterations: 1000, Timeout: "1s"}
	start := time.Now()
	_, err := Run(ctx, scenario)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Errorf("cancelled run took %s", time.Since(start))
	}
}

func TestRunUnknownKind(t *testing.T) {
	if _, err := Run(context.Background(), Scenario{Name: "x", Kind: "spin"}); err == nil {
		t.Error("expected an error for an unknown kind")
	}
}

func TestResultSample(t *testing.T) {
	started := time.Unix(100, 0)
	latencies := make([]time.Duration, 0, 100)
	for i := 100; i >= 1; i-- {
		latencies = append(latencies, time.Duration(i)*time.Microsecond)
	}
	result := Result{
		Scenario:   "fan",
		Iterations: 25,
		Woken:      100,
		TimedOut:   1,
		Latencies:  latencies,
		Started:    started,
	}

	expected := stats.Sample{
		Timestamp:   started,
		ScenarioID:  stats.ScenarioID("fan"),
		Iterations:  25,
		Woken:       100,
		TimedOut:    1,
		MinLatency:  time.Microsecond,
		MeanLatency: 50500 * time.Nanosecond,
		P99Latency:  99 * time.Microsecond,
		MaxLatency:  100 * time.Microsecond,
	}
	if diff := cmp.Diff(expected, result.Sample()); diff != "" {
		t.Errorf("sample mismatch (-want +got):\n%s", diff)
	}
	if latencies[0] != 100*time.Microsecond {
		t.Error("Sample reordered the result's latencies")
	}
}

func TestResultSampleWithoutLatencies(t *testing.T) {
	sample := Result{Scenario: "empty", Iterations: 3}.Sample()
	if sample.MinLatency != 0 || sample.MaxLatency != 0 || sample.Iterations != 3 {
		t.Errorf("unexpected sample %+v", sample)
	}
}

func TestPercentileIndex(t *testing.T) {
	tests := []struct {
		n, p, expected int
	}{
		{1, 99, 0},
		{2, 99, 1},
		{100, 99, 98},
		{100, 50, 49},
		{1000, 99, 989},
	}
	for _, tt := range tests {
		if got := percentileIndex(tt.n, tt.p); got != tt.expected {
			t.Errorf("percentileIndex(%d, %d) = %d, expected %d", tt.n, tt.p, got, tt.expected)
		}
	}
}
