package source

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatParseValue(t *testing.T) {
	ts := time.Date(2014, 5, 6, 12, 34, 56, 123456000, time.Local)

	tests := []struct {
		name  string
		value Value
		text  string
	}{
		{"string", StringValue("hello world"), "hello world"},
		{"empty string", StringValue(""), ""},
		{"int", IntValue(-42), "-42"},
		{"int max", IntValue(math.MaxInt32), "2147483647"},
		{"uint", UIntValue(7), "7"},
		{"int64", Int64Value(math.MinInt64), "-9223372036854775808"},
		{"uint64", UInt64Value(math.MaxUint64), "18446744073709551615"},
		{"double", DoubleValue(1.1), "1.1"},
		{"double integral", DoubleValue(3), "3"},
		{"datetime", DateTimeValue(ts), "2014-05-06T12:34:56.123456"},
		{"time", TimeValue(ts), "2014-05-06T12:34:56.123456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.text, FormatValue(tt.value))

			parsed, err := ParseValue(tt.value.Kind(), tt.text)
			require.NoError(t, err)
			assert.True(t, tt.value.Equal(parsed), "got %v want %v", parsed, tt.value)
		})
	}
}

func TestParseValueErrors(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		text string
	}{
		{"int overflow", KindInt, "2147483648"},
		{"uint negative", KindUInt, "-1"},
		{"int64 garbage", KindInt64, "12abc"},
		{"uint64 empty", KindUInt64, ""},
		{"double garbage", KindDouble, "one"},
		{"datetime garbage", KindDateTime, "yesterday"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseValue(tt.kind, tt.text)
			assert.True(t, errors.Is(err, ErrInvalidValue), "got %v", err)
		})
	}

	_, err := ParseValue(Kind(99), "1")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestParseTimestampPrecision(t *testing.T) {
	want := time.Date(2014, 5, 6, 12, 34, 56, 123456789, time.Local)

	for _, text := range []string{
		"2014-05-06T12:34:56.123456789",
		"2014-05-06T12:34:56,123456789",
	} {
		got, err := ParseTimestamp(text)
		require.NoError(t, err, text)
		assert.True(t, want.Equal(got), "%s parsed to %v", text, got)
	}

	got, err := ParseTimestamp("2014-05-06T12:34:56")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Nanosecond())
}

func TestTimestampRoundTripAcrossZones(t *testing.T) {
	zones := []*time.Location{
		time.UTC,
		time.FixedZone("IST", 5*3600+1800),
		time.FixedZone("PST", -8*3600),
	}
	for _, loc := range zones {
		t.Run(loc.String(), func(t *testing.T) {
			v := DateTimeValue(time.Date(2014, 5, 6, 12, 34, 56, 123456000, loc))

			parsed, err := ParseValue(KindDateTime, FormatValue(v))
			require.NoError(t, err)
			assert.True(t, v.Time().Equal(parsed.Time()), "got %v want %v", parsed.Time(), v.Time())
		})
	}
}

func TestKindNames(t *testing.T) {
	for k := KindString; k <= KindTime; k++ {
		assert.True(t, k.Valid())
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}

	assert.False(t, Kind(0).Valid())
	assert.Equal(t, "unknown", Kind(9).String())

	_, err := ParseKind("complex")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestValueEqual(t *testing.T) {
	assert.True(t, IntValue(1).Equal(IntValue(1)))
	assert.False(t, IntValue(1).Equal(Int64Value(1)), "different kinds")
	assert.False(t, DoubleValue(1).Equal(DoubleValue(2)))
	assert.True(t, ZeroValue(KindString).Equal(StringValue("")))
}
