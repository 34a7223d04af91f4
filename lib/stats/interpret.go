package stats

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Measurement describes one field of an encoded packet.
type Measurement struct {
	Name       string `yaml:"name"`
	Size       int    `yaml:"size"`
	Type       string `yaml:"type,omitempty"`
	Unsigned   bool   `yaml:"unsigned,omitempty"`
	Endianness string `yaml:"endianness,omitempty"`
}

func byteOrder(endianness string) binary.ByteOrder {
	if endianness == "little" {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// InterpretUnsignedInteger decodes a 1, 2, 4 or 8 byte unsigned integer.
func InterpretUnsignedInteger(data []byte, endianness string) (interface{}, error) {
	order := byteOrder(endianness)
	switch len(data) {
	case 1:
		return data[0], nil
	case 2:
		return order.Uint16(data), nil
	case 4:
		return order.Uint32(data), nil
	case 8:
		return order.Uint64(data), nil
	default:
		return nil, fmt.Errorf("unsupported data length: %d", len(data))
	}
}

// InterpretSignedInteger decodes a 1, 2, 4 or 8 byte two's complement integer.
func InterpretSignedInteger(data []byte, endianness string) (interface{}, error) {
	unsigned, err := InterpretUnsignedInteger(data, endianness)
	if err != nil {
		return nil, err
	}

	switch v := unsigned.(type) {
	case uint8:
		return int8(v), nil
	case uint16:
		return int16(v), nil
	case uint32:
		return int32(v), nil
	case uint64:
		return int64(v), nil
	default:
		return nil, fmt.Errorf("unsupported unsigned integer type: %T", v)
	}
}

// InterpretFloat decodes an IEEE 754 float32 or float64.
func InterpretFloat(data []byte, endianness string) (interface{}, error) {
	unsigned, err := InterpretUnsignedInteger(data, endianness)
	if err != nil {
		return nil, err
	}

	switch v := unsigned.(type) {
	case uint32:
		return math.Float32frombits(v), nil
	case uint64:
		return math.Float64frombits(v), nil
	default:
		return nil, fmt.Errorf("unsupported length for float conversion: %d", len(data))
	}
}

// InterpretMeasurementValue decodes data according to measurement.
func InterpretMeasurementValue(measurement Measurement, data []byte) (interface{}, error) {
	switch measurement.Type {
	case "int":
		if measurement.Unsigned {
			return InterpretUnsignedInteger(data, measurement.Endianness)
		}
		return InterpretSignedInteger(data, measurement.Endianness)
	case "float":
		return InterpretFloat(data, measurement.Endianness)
	default:
		return nil, fmt.Errorf("unsupported type for measurement %s: %q", measurement.Name, measurement.Type)
	}
}

// InterpretMeasurementValueString decodes data and formats it for line
// protocol.
func InterpretMeasurementValueString(measurement Measurement, data []byte) (string, error) {
	value, err := InterpretMeasurementValue(measurement, data)
	if err != nil {
		return "", err
	}
	switch v := value.(type) {
	case float32, float64:
		return fmt.Sprintf("%f", v), nil
	default:
		return fmt.Sprintf("%d", v), nil
	}
}

// Base16String renders data as hex, grouping bytes by groupSize.
func Base16String(data []byte, groupSize int) string {
	if groupSize <= 0 {
		groupSize = 1
	}
	var sb strings.Builder
	for i, b := range data {
		if i > 0 && i%groupSize == 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", b)
	}
	return sb.String()
}

func (m Measurement) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Name: %s, Size: %d", m.Name, m.Size))
	if m.Type != "" {
		sb.WriteString(fmt.Sprintf(", Type: %s", m.Type))
	}

	if m.Unsigned {
		sb.WriteString(", Unsigned")
	} else {
		sb.WriteString(", Signed")
	}
	sb.WriteString(fmt.Sprintf(", Endianness: %s", m.Endianness))
	return sb.String()
}
