package source

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the ISO-8601 extended profile used for source timestamps
// and for DateTime/Time values on the wire. Local wall clock, no zone suffix.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// parseLayout accepts any fractional precision (or none) after the seconds.
const parseLayout = "2006-01-02T15:04:05"

// Value is a tagged union over the scalar kinds. Only the field that matches
// kind is meaningful. The zero Value has no kind and is not valid.
type Value struct {
	kind Kind
	s    string
	i    int64
	u    uint64
	f    float64
	t    time.Time
}

func StringValue(v string) Value      { return Value{kind: KindString, s: v} }
func IntValue(v int32) Value          { return Value{kind: KindInt, i: int64(v)} }
func UIntValue(v uint32) Value        { return Value{kind: KindUInt, u: uint64(v)} }
func Int64Value(v int64) Value        { return Value{kind: KindInt64, i: v} }
func UInt64Value(v uint64) Value      { return Value{kind: KindUInt64, u: v} }
func DoubleValue(v float64) Value     { return Value{kind: KindDouble, f: v} }
func DateTimeValue(v time.Time) Value { return Value{kind: KindDateTime, t: v} }
func TimeValue(v time.Time) Value     { return Value{kind: KindTime, t: v} }

// ZeroValue returns the zero value of kind k.
func ZeroValue(k Kind) Value {
	return Value{kind: k}
}

func (v Value) Kind() Kind { return v.kind }

// Str returns the payload of a String value.
func (v Value) Str() string { return v.s }

// Int returns the payload of an Int or Int64 value.
func (v Value) Int() int64 { return v.i }

// Uint returns the payload of a UInt or UInt64 value.
func (v Value) Uint() uint64 { return v.u }

// Float returns the payload of a Double value.
func (v Value) Float() float64 { return v.f }

// Time returns the payload of a DateTime or Time value.
func (v Value) Time() time.Time { return v.t }

// String renders the value as wire text.
func (v Value) String() string {
	return FormatValue(v)
}

// Equal compares kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.s == o.s
	case KindInt, KindInt64:
		return v.i == o.i
	case KindUInt, KindUInt64:
		return v.u == o.u
	case KindDouble:
		return v.f == o.f
	case KindDateTime, KindTime:
		return v.t.Equal(o.t)
	default:
		return true
	}
}

// FormatValue renders v as locale-independent text. Values with an unknown
// kind render as the empty string.
func FormatValue(v Value) string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt, KindInt64:
		return strconv.FormatInt(v.i, 10)
	case KindUInt, KindUInt64:
		return strconv.FormatUint(v.u, 10)
	case KindDouble:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindDateTime, KindTime:
		return FormatTimestamp(v.t)
	default:
		return ""
	}
}

// ParseValue is the inverse of FormatValue for the given kind.
func ParseValue(k Kind, text string) (Value, error) {
	switch k {
	case KindString:
		return StringValue(text), nil
	case KindInt:
		n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 32)
		if err != nil {
			return Value{}, invalid(k, text, err)
		}
		return IntValue(int32(n)), nil
	case KindUInt:
		n, err := strconv.ParseUint(strings.TrimSpace(text), 10, 32)
		if err != nil {
			return Value{}, invalid(k, text, err)
		}
		return UIntValue(uint32(n)), nil
	case KindInt64:
		n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			return Value{}, invalid(k, text, err)
		}
		return Int64Value(n), nil
	case KindUInt64:
		n, err := strconv.ParseUint(strings.TrimSpace(text), 10, 64)
		if err != nil {
			return Value{}, invalid(k, text, err)
		}
		return UInt64Value(n), nil
	case KindDouble:
		f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return Value{}, invalid(k, text, err)
		}
		return DoubleValue(f), nil
	case KindDateTime, KindTime:
		t, err := ParseTimestamp(text)
		if err != nil {
			return Value{}, invalid(k, text, err)
		}
		return Value{kind: k, t: t}, nil
	default:
		return Value{}, fmt.Errorf("%w: %d", ErrUnknownKind, k)
	}
}

// FormatTimestamp renders t in TimestampLayout in the local zone, the zone
// ParseTimestamp reads it back in.
func FormatTimestamp(t time.Time) string {
	return t.Local().Format(TimestampLayout)
}

// ParseTimestamp parses TimestampLayout text in the local zone. Any fractional
// precision is accepted, with either '.' or ',' as separator.
func ParseTimestamp(text string) (time.Time, error) {
	return time.ParseInLocation(parseLayout, strings.TrimSpace(text), time.Local)
}

func invalid(k Kind, text string, err error) error {
	return fmt.Errorf("%w: %s %q: %v", ErrInvalidValue, k, text, err)
}
