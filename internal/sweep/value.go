package sweep

import (
	"fmt"
	"math"
	"strconv"
)

// Value is a scalar parameter value.
// Only StringValue, IntValue and BoolValue implement it. Floats are not
// representable: their textual form is not stable enough to key a run on.
type Value interface {
	// Text is the form used in tags and name=value assignments.
	Text() string
	// Native returns the plain Go value (string, int64 or bool).
	Native() any
	sweepValue()
}

// StringValue is a string parameter value.
type StringValue string

func (StringValue) sweepValue()           {}
func (v StringValue) Text() string        { return string(v) }
func (v StringValue) Native() any         { return string(v) }
func (v StringValue) CanonicalValue() any { return string(v) }

// IntValue is an integer parameter value.
type IntValue int64

func (IntValue) sweepValue()           {}
func (v IntValue) Text() string        { return strconv.FormatInt(int64(v), 10) }
func (v IntValue) Native() any         { return int64(v) }
func (v IntValue) CanonicalValue() any { return int64(v) }

// BoolValue is a boolean parameter value.
type BoolValue bool

func (BoolValue) sweepValue()           {}
func (v BoolValue) Text() string        { return strconv.FormatBool(bool(v)) }
func (v BoolValue) Native() any         { return bool(v) }
func (v BoolValue) CanonicalValue() any { return bool(v) }

// ValueOf converts a decoded scalar into a Value.
// Integral floats (as produced by some decoders for whole numbers) are
// accepted as integers; any other float is rejected.
func ValueOf(v any) (Value, error) {
	switch val := v.(type) {
	case Value:
		return val, nil
	case string:
		return StringValue(val), nil
	case bool:
		return BoolValue(val), nil
	case int:
		return IntValue(val), nil
	case int8:
		return IntValue(val), nil
	case int16:
		return IntValue(val), nil
	case int32:
		return IntValue(val), nil
	case int64:
		return IntValue(val), nil
	case uint:
		return uintValue(uint64(val))
	case uint8:
		return IntValue(val), nil
	case uint16:
		return IntValue(val), nil
	case uint32:
		return IntValue(val), nil
	case uint64:
		return uintValue(val)
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1<<53 {
			return IntValue(int64(val)), nil
		}
		return nil, fmt.Errorf("float value %v is not supported; quote it as a string", val)
	case float32:
		return ValueOf(float64(val))
	case nil:
		return nil, fmt.Errorf("null value is not supported")
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

func uintValue(u uint64) (Value, error) {
	if u > math.MaxInt64 {
		return nil, fmt.Errorf("integer %d overflows int64", u)
	}
	return IntValue(int64(u)), nil
}

// MustValues converts a list of plain Go scalars, panicking on error.
// Use only in tests or with literal inputs.
func MustValues(vals ...any) []Value {
	out := make([]Value, len(vals))
	for i, v := range vals {
		val, err := ValueOf(v)
		if err != nil {
			panic(err)
		}
		out[i] = val
	}
	return out
}
