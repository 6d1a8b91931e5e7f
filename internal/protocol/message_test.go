package protocol

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/como-monitor/como/internal/source"
)

func TestSnapshotRoundTrip(t *testing.T) {
	ts := time.Date(2014, 3, 1, 10, 0, 0, 250000000, time.Local)

	tests := []struct {
		name string
		snap source.Snapshot
	}{
		{
			name: "int",
			snap: source.Snapshot{Name: "test::int.source", TypeName: "int", Description: "integer", Value: source.IntValue(42), Timestamp: ts},
		},
		{
			name: "double",
			snap: source.Snapshot{Name: "d", TypeName: "double", Value: source.DoubleValue(-0.5), Timestamp: ts},
		},
		{
			name: "datetime",
			snap: source.Snapshot{Name: "dt", TypeName: "datetime", Value: source.DateTimeValue(ts), Timestamp: ts},
		},
		{
			name: "unicode string",
			snap: source.Snapshot{Name: "имя", TypeName: "строка", Description: "описание", Value: source.StringValue("значение"), Timestamp: ts},
		},
		{
			name: "uint64",
			snap: source.Snapshot{Name: "u", TypeName: "u64", Value: source.UInt64Value(1 << 63), Timestamp: ts},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UnmarshalSnapshot(MarshalSnapshot(tt.snap))
			require.NoError(t, err)

			assert.Equal(t, tt.snap.Name, got.Name)
			assert.Equal(t, tt.snap.TypeName, got.TypeName)
			assert.Equal(t, tt.snap.Description, got.Description)
			assert.Equal(t, tt.snap.Kind(), got.Kind())
			assert.True(t, tt.snap.Value.Equal(got.Value), "value %v != %v", got.Value, tt.snap.Value)
			assert.True(t, tt.snap.Timestamp.Equal(got.Timestamp))
		})
	}
}

func TestUnmarshalSnapshotSkipsUnknownFields(t *testing.T) {
	b := MarshalSnapshot(source.Snapshot{Name: "n", TypeName: "t", Value: source.IntValue(1), Timestamp: time.Now()})
	b = protowire.AppendTag(b, 42, protowire.VarintType)
	b = protowire.AppendVarint(b, 7)
	b = protowire.AppendTag(b, 43, protowire.BytesType)
	b = protowire.AppendString(b, "extension")

	got, err := UnmarshalSnapshot(b)
	require.NoError(t, err)
	assert.Equal(t, "n", got.Name)
	assert.Equal(t, int64(1), got.Value.Int())
}

func TestUnmarshalSnapshotErrors(t *testing.T) {
	t.Run("truncated", func(t *testing.T) {
		b := MarshalSnapshot(source.Snapshot{Name: "name", Value: source.StringValue("v")})
		_, err := UnmarshalSnapshot(b[:len(b)-1])
		assert.ErrorIs(t, err, ErrMalformedPayload)
	})

	t.Run("unknown kind", func(t *testing.T) {
		b := protowire.AppendTag(nil, fieldType, protowire.VarintType)
		b = protowire.AppendVarint(b, 99)
		_, err := UnmarshalSnapshot(b)
		assert.ErrorIs(t, err, ErrMalformedPayload)
		assert.ErrorIs(t, err, source.ErrUnknownKind)
	})

	t.Run("value does not parse", func(t *testing.T) {
		b := protowire.AppendTag(nil, fieldType, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(source.KindInt))
		b = appendString(b, fieldValue, "forty-two")
		_, err := UnmarshalSnapshot(b)
		assert.ErrorIs(t, err, source.ErrInvalidValue)
	})

	t.Run("empty payload", func(t *testing.T) {
		_, err := UnmarshalSnapshot(nil)
		assert.ErrorIs(t, err, ErrMalformedPayload)
	})
}

func TestEncodeSnapshotFrame(t *testing.T) {
	snap := source.Snapshot{Name: "n", TypeName: "t", Value: source.IntValue(3), Timestamp: time.Now()}

	frame, err := EncodeSnapshotFrame(MsgDeinitSource, snap)
	require.NoError(t, err)

	h, err := DecodeHeader(frame)
	require.NoError(t, err)
	assert.Equal(t, MsgDeinitSource, h.Type)
	assert.Equal(t, int(h.Length), len(frame)-HeaderSize)

	got, err := UnmarshalSnapshot(frame[HeaderSize:])
	require.NoError(t, err)
	assert.True(t, snap.Equal(got))
}
