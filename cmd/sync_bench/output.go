package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/AarC10/GSW-Sync/proc"
)

// BenchOutput is the report printed after a one-shot run
type BenchOutput struct {
	Config    string
	Runtime   time.Duration
	Scenarios []OutputScenario
}

// OutputScenario summarizes one scenario in a BenchOutput
type OutputScenario struct {
	Name        string
	Kind        string
	Waiters     int
	Iterations  int
	Woken       uint64
	TimedOut    uint64
	Elapsed     time.Duration
	MinLatency  time.Duration
	MeanLatency time.Duration
	P99Latency  time.Duration
	MaxLatency  time.Duration
}

// newBenchOutput builds a report from scenario results.
func newBenchOutput(config string, runtime time.Duration, results []proc.Result) BenchOutput {
	output := BenchOutput{Config: config, Runtime: runtime, Scenarios: make([]OutputScenario, 0, len(results))}
	for _, result := range results {
		sample := result.Sample()
		output.Scenarios = append(output.Scenarios, OutputScenario{
			Name:        result.Scenario,
			Kind:        result.Kind,
			Waiters:     result.Waiters,
			Iterations:  result.Iterations,
			Woken:       result.Woken,
			TimedOut:    result.TimedOut,
			Elapsed:     result.Elapsed,
			MinLatency:  sample.MinLatency,
			MeanLatency: sample.MeanLatency,
			P99Latency:  sample.P99Latency,
			MaxLatency:  sample.MaxLatency,
		})
	}
	return output
}

type outputFormatType int

const (
	outputFormatTypePrettyPrint outputFormatType = iota
	outputFormatTypeJSON
	outputFormatTypeTemplate
)

type outputFormatFlagValue struct {
	formatType     outputFormatType
	templateString *string
	template       *template.Template
}

func (f *outputFormatFlagValue) String() string {
	switch f.formatType {
	case outputFormatTypeJSON:
		return "json"
	case outputFormatTypeTemplate:
		return fmt.Sprintf("template: %s", *f.templateString)
	case outputFormatTypePrettyPrint:
		return "pretty print"
	default:
		return "invalid output format"
	}
}

func (f *outputFormatFlagValue) Set(s string) error {
	switch s {
	case "json":
		f.formatType = outputFormatTypeJSON
		return nil
	case "pretty", "":
		f.formatType = outputFormatTypePrettyPrint
		return nil
	}

	tmpl, err := template.New("output_format").Parse(s)
	if err != nil {
		return fmt.Errorf("couldn't parse output format as template: %w", err)
	}
	f.template = tmpl
	f.templateString = &s
	f.formatType = outputFormatTypeTemplate
	return nil
}

func (o *BenchOutput) PrettyPrint() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Configuration: %s\n", o.Config))
	sb.WriteString(fmt.Sprintf("Total runtime: %s\n", o.Runtime))
	for _, s := range o.Scenarios {
		waits := s.Woken + s.TimedOut
		timedOutPercent := 0.0
		if waits > 0 {
			timedOutPercent = float64(s.TimedOut) / float64(waits) * 100
		}
		sb.WriteString(fmt.Sprintf("[%s] (%s, %d waiters x %d iterations) in %s:\n", s.Name, s.Kind, s.Waiters, s.Iterations, s.Elapsed))
		sb.WriteString(fmt.Sprintf("\t[%s] Waits: %d woken, %d timed out (%.3f%%)\n", s.Name, s.Woken, s.TimedOut, timedOutPercent))
		sb.WriteString(fmt.Sprintf("\t[%s] Latency: min %s, mean %s, p99 %s, max %s\n", s.Name, s.MinLatency, s.MeanLatency, s.P99Latency, s.MaxLatency))
	}
	return sb.String()
}

func (o *BenchOutput) JSON() (string, error) {
	prettyJson, err := json.MarshalIndent(o, "", "\t")
	if err != nil {
		return "", fmt.Errorf("generating json output: %w", err)
	}

	return string(prettyJson), nil
}

func (o *BenchOutput) Template(tmpl *template.Template) (string, error) {
	var buf bytes.Buffer
	err := tmpl.Execute(&buf, o)
	if err != nil {
		return "", fmt.Errorf("generating template output: %w", err)
	}
	return buf.String(), nil
}

func (f *outputFormatFlagValue) GenerateBenchOutput(output BenchOutput) (string, error) {
	switch f.formatType {
	case outputFormatTypeJSON:
		return output.JSON()
	case outputFormatTypePrettyPrint:
		return output.PrettyPrint(), nil
	case outputFormatTypeTemplate:
		return output.Template(f.template)
	default:
		return "", fmt.Errorf("unexpected outputFormatType: %#v", f.formatType)
	}
}
