package db

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/AarC10/GSW-Sync/lib/stats"
)

// Handler is an interface for result sink implementations
type Handler interface {
	Initialize(cfg Config) error
	Insert(measurements MeasurementGroup) error
	CreateQuery(measurements MeasurementGroup) string
	Close() error
}

// BatchHandler extends Handler with batch write support
type BatchHandler interface {
	Handler
	Flush() error
}

// Config holds all configuration needed to initialize any Handler
// V1 only uses Host/Port. V2 requires URL, Token, Org, Bucket.
type Config struct {
	// V1
	Host string
	Port int

	// V2
	URL    string
	Token  string
	Org    string
	Bucket string

	// Batching (V2 only)
	BatchSize     uint   // Points to buffer before flushing
	FlushInterval uint   // Max ms before flushing partial batch
	Precision     string // "ns", "us", "ms", "s"
}

// MeasurementGroup is a group of measurements written as one point
type MeasurementGroup struct {
	DatabaseName string
	Tags         map[string]string
	Timestamp    int64
	Measurements []Measurement
}

// Measurement is a single field of a point
type Measurement struct {
	Name  string // Name of the measurement
	Value string // Value of the measurement
}

// FromSample converts a benchmark sample into a point tagged with the
// scenario name.
func FromSample(databaseName, scenario string, sample stats.Sample) MeasurementGroup {
	fields := stats.DecodeFields(stats.SampleLayout, sample.Encode())
	group := MeasurementGroup{
		DatabaseName: databaseName,
		Tags:         map[string]string{"scenario": scenario},
		Timestamp:    sample.Timestamp.UnixNano(),
	}
	for _, field := range fields {
		if field.Name == "timestamp" || field.Value == nil {
			continue
		}
		var value string
		switch v := field.Value.(type) {
		case float64:
			value = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			value = fmt.Sprintf("%d", v)
		}
		group.Measurements = append(group.Measurements, Measurement{Name: field.Name, Value: value})
	}
	return group
}

// CreateQuery generates InfluxDB line protocol for a MeasurementGroup.
// Tags are written in key order.
func CreateQuery(measurements MeasurementGroup) string {
	var sb strings.Builder
	sb.WriteString(escape(measurements.DatabaseName))

	for _, key := range slices.Sorted(maps.Keys(measurements.Tags)) {
		sb.WriteString(fmt.Sprintf(",%s=%s", escape(key), escape(measurements.Tags[key])))
	}
	sb.WriteByte(' ')

	for i, measurement := range measurements.Measurements {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(fmt.Sprintf("%s=%s", escape(measurement.Name), measurement.Value))
	}

	if measurements.Timestamp != 0 {
		sb.WriteString(fmt.Sprintf(" %d", measurements.Timestamp))
	}
	return sb.String()
}

var lineEscaper = strings.NewReplacer(",", `\,`, " ", `\ `, "=", `\=`)

func escape(s string) string {
	return lineEscaper.Replace(s)
}
