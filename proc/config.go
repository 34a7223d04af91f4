package proc

import (
	"fmt"
	"os"
	"time"

	"github.com/AarC10/GSW-Sync/lib/stats"
	"gopkg.in/yaml.v2"
)

// Scenario kinds understood by Run.
const (
	KindPingPong = "pingpong" // two goroutines hand a token back and forth through a condvar
	KindFanout   = "fanout"   // many goroutines parked on one futex, released with WakeAll
	KindWake     = "wake"     // one goroutine parked on a futex, released with Wake
	KindTimeout  = "timeout"  // condvar waits that nobody notifies
)

const (
	defaultIterations     = 100
	defaultFanoutWaits    = 4
	defaultWaitSlice      = time.Second
	defaultTimeoutWait    = 10 * time.Millisecond
	defaultMeasurement    = "futex_bench"
	defaultRunInterval    = 5 * time.Second
	maxScenarioWaiters    = 1024
	maxScenarioIterations = 1 << 20
)

// Configuration holds the benchmark scenarios to run
type Configuration struct {
	Name        string     `yaml:"name"`        // Name of the configuration
	Measurement string     `yaml:"measurement"` // Measurement name used by result sinks
	Interval    string     `yaml:"interval"`    // Pause between passes when running continuously
	Scenarios   []Scenario `yaml:"scenarios"`   // Scenarios to run, in order

	interval time.Duration
}

// Scenario describes one benchmark run
type Scenario struct {
	Name       string `yaml:"name"`
	Kind       string `yaml:"kind"`
	Waiters    int    `yaml:"waiters,omitempty"`
	Iterations int    `yaml:"iterations,omitempty"`
	// Timeout is how long a single wait may block. For timeout scenarios
	// it is the deadline being measured; for the others it only bounds how
	// long a wait goes before the context is re-checked.
	Timeout string `yaml:"timeout,omitempty"`

	timeout time.Duration
}

// RunInterval returns the parsed pass interval.
func (c *Configuration) RunInterval() time.Duration {
	return c.interval
}

// WaitTimeout returns the parsed per-wait timeout.
func (s Scenario) WaitTimeout() time.Duration {
	return s.timeout
}

// ScenarioNames maps scenario IDs back to names.
func (c *Configuration) ScenarioNames() map[uint32]string {
	names := make(map[uint32]string, len(c.Scenarios))
	for _, s := range c.Scenarios {
		names[stats.ScenarioID(s.Name)] = s.Name
	}
	return names
}

// ParseConfig parses a YAML configuration file and returns a Configuration struct
func ParseConfig(filename string) (*Configuration, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading YAML file: %w", err)
	}
	return ParseConfigBytes(data)
}

// ParseConfigBytes parses a YAML formatted byte slice and returns a Configuration struct
func ParseConfigBytes(data []byte) (*Configuration, error) {
	var config Configuration
	if err := yaml.UnmarshalStrict(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing YAML: %w", err)
	}

	if config.Name == "" {
		return nil, fmt.Errorf("no configuration name provided")
	}
	if len(config.Scenarios) == 0 {
		return nil, fmt.Errorf("no scenarios found in configuration")
	}
	if config.Measurement == "" {
		config.Measurement = defaultMeasurement
	}

	config.interval = defaultRunInterval
	if config.Interval != "" {
		interval, err := time.ParseDuration(config.Interval)
		if err != nil {
			return nil, fmt.Errorf("parsing interval: %w", err)
		}
		if interval < 0 {
			return nil, fmt.Errorf("interval %s is negative", config.Interval)
		}
		config.interval = interval
	}

	seen := make(map[string]bool, len(config.Scenarios))
	for i := range config.Scenarios {
		scenario := &config.Scenarios[i]
		if scenario.Name == "" {
			return nil, fmt.Errorf("scenario %d has no name", i)
		}
		if seen[scenario.Name] {
			return nil, fmt.Errorf("scenario %s defined more than once", scenario.Name)
		}
		seen[scenario.Name] = true

		if err := scenario.applyDefaults(); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
	}

	return &config, nil
}

func (s *Scenario) applyDefaults() error {
	switch s.Kind {
	case KindPingPong, KindWake, KindTimeout:
		if s.Waiters == 0 {
			s.Waiters = 1
		}
	case KindFanout:
		if s.Waiters == 0 {
			s.Waiters = defaultFanoutWaits
		}
	case "":
		return fmt.Errorf("no kind provided")
	default:
		return fmt.Errorf("unknown kind %q", s.Kind)
	}

	if s.Kind == KindPingPong && s.Waiters != 1 {
		return fmt.Errorf("pingpong runs exactly one waiter, got %d", s.Waiters)
	}
	if s.Kind == KindWake && s.Waiters != 1 {
		return fmt.Errorf("wake runs exactly one waiter, got %d", s.Waiters)
	}
	if s.Waiters < 0 || s.Waiters > maxScenarioWaiters {
		return fmt.Errorf("waiters must be between 1 and %d, got %d", maxScenarioWaiters, s.Waiters)
	}

	if s.Iterations == 0 {
		s.Iterations = defaultIterations
	}
	if s.Iterations < 0 || s.Iterations > maxScenarioIterations {
		return fmt.Errorf("iterations must be between 1 and %d, got %d", maxScenarioIterations, s.Iterations)
	}

	if s.Timeout == "" {
		s.timeout = defaultWaitSlice
		if s.Kind == KindTimeout {
			s.timeout = defaultTimeoutWait
		}
		return nil
	}
	timeout, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return fmt.Errorf("parsing timeout: %w", err)
	}
	if timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", s.Timeout)
	}
	s.timeout = timeout
	return nil
}
