package futex

import (
	"math"
	"testing"
	"time"
)

func TestAfter(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected time.Duration
	}{
		{"zero", 0, 0},
		{"positive", 50 * time.Millisecond, 50 * time.Millisecond},
		{"negative saturates to zero", -time.Second, 0},
		{"most negative saturates to zero", math.MinInt64, 0},
		{"maximum", math.MaxInt64, math.MaxInt64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := After(tt.duration).Duration()
			if !ok {
				t.Fatalf("After(%v) reported no timeout", tt.duration)
			}
			if d != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, d)
			}
		})
	}
}

func TestForeverIsZeroValue(t *testing.T) {
	var timeout Timeout
	if _, ok := timeout.Duration(); ok {
		t.Error("zero Timeout should block forever")
	}
	if timeout != Forever {
		t.Error("zero Timeout should equal Forever")
	}
	if got := Forever.String(); got != "forever" {
		t.Errorf("expected forever, got %q", got)
	}
}

func TestTimeoutRelative(t *testing.T) {
	tests := []struct {
		name    string
		timeout Timeout
		sec     int64
		nsec    int64
		ok      bool
	}{
		{"forever", Forever, 0, 0, false},
		{"zero", After(0), 0, 0, true},
		{"sub-second", After(250 * time.Millisecond), 0, 250_000_000, true},
		{"seconds and nanos", After(3*time.Second + 7), 3, 7, true},
		{"maximum", After(math.MaxInt64), math.MaxInt64 / int64(time.Second), math.MaxInt64 % int64(time.Second), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sec, nsec, ok := tt.timeout.relative()
			if sec != tt.sec || nsec != tt.nsec || ok != tt.ok {
				t.Errorf("expected (%d, %d, %v), got (%d, %d, %v)", tt.sec, tt.nsec, tt.ok, sec, nsec, ok)
			}
		})
	}
}

func TestTimeoutNanos(t *testing.T) {
	tests := []struct {
		name     string
		timeout  Timeout
		expected int64
	}{
		{"forever is -1", Forever, -1},
		{"zero", After(0), 0},
		{"negative saturates", After(-5), 0},
		{"positive", After(time.Microsecond), 1000},
		{"maximum", After(math.MaxInt64), math.MaxInt64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.timeout.nanos(); got != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestTimeoutMillis(t *testing.T) {
	tests := []struct {
		name     string
		timeout  Timeout
		expected uint32
	}{
		{"forever is INFINITE", Forever, infiniteMillis},
		{"zero", After(0), 0},
		{"exact milliseconds", After(50 * time.Millisecond), 50},
		{"one nanosecond rounds up", After(1), 1},
		{"partial millisecond rounds up", After(50*time.Millisecond + 1), 51},
		{"largest finite", After((infiniteMillis - 1) * time.Millisecond), infiniteMillis - 1},
		{"reaching INFINITE is INFINITE", After(infiniteMillis * time.Millisecond), infiniteMillis},
		{"overflow is INFINITE", After(math.MaxInt64), infiniteMillis},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.timeout.millis(); got != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}
