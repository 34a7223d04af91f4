// Package stats encodes benchmark samples as fixed-size binary packets so
// they can travel through the shared memory ring, and decodes packet fields
// generically for display.
package stats

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"time"
)

// Sample summarizes one scenario run.
type Sample struct {
	Timestamp   time.Time
	ScenarioID  uint32
	Iterations  uint64
	Woken       uint64
	TimedOut    uint64
	MinLatency  time.Duration
	MeanLatency time.Duration
	P99Latency  time.Duration
	MaxLatency  time.Duration
}

// SampleLayout lists the fields of an encoded Sample in order. All fields
// are big endian.
var SampleLayout = []Measurement{
	{Name: "timestamp", Size: 8, Type: "int", Endianness: "big"},
	{Name: "scenario_id", Size: 4, Type: "int", Unsigned: true, Endianness: "big"},
	{Name: "iterations", Size: 8, Type: "int", Unsigned: true, Endianness: "big"},
	{Name: "woken", Size: 8, Type: "int", Unsigned: true, Endianness: "big"},
	{Name: "timed_out", Size: 8, Type: "int", Unsigned: true, Endianness: "big"},
	{Name: "min_latency_ns", Size: 8, Type: "int", Endianness: "big"},
	{Name: "mean_latency_ns", Size: 8, Type: "float", Endianness: "big"},
	{Name: "p99_latency_ns", Size: 8, Type: "int", Endianness: "big"},
	{Name: "max_latency_ns", Size: 8, Type: "int", Endianness: "big"},
}

// SampleSize is the encoded size of a Sample.
var SampleSize = PacketSize(SampleLayout)

// PacketSize returns the encoded size of a packet with the given layout.
func PacketSize(layout []Measurement) int {
	size := 0
	for _, m := range layout {
		size += m.Size
	}
	return size
}

// ScenarioID derives a stable identifier from a scenario name.
func ScenarioID(name string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(name))
	return h.Sum32()
}

// Encode packs s according to SampleLayout.
func (s Sample) Encode() []byte {
	buf := make([]byte, 0, SampleSize)
	buf = binary.BigEndian.AppendUint64(buf, uint64(s.Timestamp.UnixNano()))
	buf = binary.BigEndian.AppendUint32(buf, s.ScenarioID)
	buf = binary.BigEndian.AppendUint64(buf, s.Iterations)
	buf = binary.BigEndian.AppendUint64(buf, s.Woken)
	buf = binary.BigEndian.AppendUint64(buf, s.TimedOut)
	buf = binary.BigEndian.AppendUint64(buf, uint64(s.MinLatency))
	buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(float64(s.MeanLatency)))
	buf = binary.BigEndian.AppendUint64(buf, uint64(s.P99Latency))
	buf = binary.BigEndian.AppendUint64(buf, uint64(s.MaxLatency))
	return buf
}

// DecodeSample unpacks a packet produced by Encode.
func DecodeSample(data []byte) (Sample, error) {
	if len(data) < SampleSize {
		return Sample{}, fmt.Errorf("sample packet is %d bytes, need %d", len(data), SampleSize)
	}
	next := func(n int) []byte {
		field := data[:n]
		data = data[n:]
		return field
	}
	return Sample{
		Timestamp:   time.Unix(0, int64(binary.BigEndian.Uint64(next(8)))),
		ScenarioID:  binary.BigEndian.Uint32(next(4)),
		Iterations:  binary.BigEndian.Uint64(next(8)),
		Woken:       binary.BigEndian.Uint64(next(8)),
		TimedOut:    binary.BigEndian.Uint64(next(8)),
		MinLatency:  time.Duration(binary.BigEndian.Uint64(next(8))),
		MeanLatency: time.Duration(math.Float64frombits(binary.BigEndian.Uint64(next(8)))),
		P99Latency:  time.Duration(binary.BigEndian.Uint64(next(8))),
		MaxLatency:  time.Duration(binary.BigEndian.Uint64(next(8))),
	}, nil
}

// Field is a decoded packet field.
type Field struct {
	Name  string
	Value interface{}
	Hex   string
}

// DecodeFields walks data with layout, decoding every field it can. A field
// that cannot be decoded has a nil Value.
func DecodeFields(layout []Measurement, data []byte) []Field {
	fields := make([]Field, 0, len(layout))
	offset := 0
	for _, m := range layout {
		if offset+m.Size > len(data) {
			break
		}
		raw := data[offset : offset+m.Size]
		value, err := InterpretMeasurementValue(m, raw)
		if err != nil {
			value = nil
		}
		fields = append(fields, Field{Name: m.Name, Value: value, Hex: Base16String(raw, 1)})
		offset += m.Size
	}
	return fields
}
