package protocol

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/como-monitor/como/internal/source"
)

// Snapshot payload field numbers. The payload is a protobuf message:
//
//	message ComoMessage {
//	  uint32 type        = 1;
//	  string name        = 2;
//	  string typeName    = 3;
//	  string datetime    = 4;
//	  string description = 5;
//	  string value       = 6;
//	}
const (
	fieldType        protowire.Number = 1
	fieldName        protowire.Number = 2
	fieldTypeName    protowire.Number = 3
	fieldDateTime    protowire.Number = 4
	fieldDescription protowire.Number = 5
	fieldValue       protowire.Number = 6
)

// MarshalSnapshot encodes s as a snapshot payload.
func MarshalSnapshot(s source.Snapshot) []byte {
	b := make([]byte, 0, 64+len(s.Name)+len(s.TypeName)+len(s.Description))
	b = protowire.AppendTag(b, fieldType, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(s.Kind()))
	b = appendString(b, fieldName, s.Name)
	b = appendString(b, fieldTypeName, s.TypeName)
	b = appendString(b, fieldDateTime, source.FormatTimestamp(s.Timestamp))
	b = appendString(b, fieldDescription, s.Description)
	b = appendString(b, fieldValue, source.FormatValue(s.Value))
	return b
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

// UnmarshalSnapshot decodes a snapshot payload. Unknown fields are skipped.
func UnmarshalSnapshot(b []byte) (source.Snapshot, error) {
	var (
		s         source.Snapshot
		kind      source.Kind
		valueText string
		dateText  string
		haveDate  bool
	)

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return source.Snapshot{}, malformed(protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldType && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return source.Snapshot{}, malformed(protowire.ParseError(n))
			}
			kind = source.Kind(v)
			b = b[n:]
		case typ == protowire.BytesType && num >= fieldName && num <= fieldValue:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return source.Snapshot{}, malformed(protowire.ParseError(n))
			}
			b = b[n:]
			switch num {
			case fieldName:
				s.Name = v
			case fieldTypeName:
				s.TypeName = v
			case fieldDateTime:
				dateText, haveDate = v, true
			case fieldDescription:
				s.Description = v
			case fieldValue:
				valueText = v
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return source.Snapshot{}, malformed(protowire.ParseError(n))
			}
			b = b[n:]
		}
	}

	if !kind.Valid() {
		return source.Snapshot{}, malformed(fmt.Errorf("%w: %d", source.ErrUnknownKind, kind))
	}

	v, err := source.ParseValue(kind, valueText)
	if err != nil {
		return source.Snapshot{}, malformed(err)
	}
	s.Value = v

	if haveDate {
		ts, err := source.ParseTimestamp(dateText)
		if err != nil {
			return source.Snapshot{}, malformed(err)
		}
		s.Timestamp = ts
	}

	return s, nil
}

func malformed(err error) error {
	return fmt.Errorf("%w: %w", ErrMalformedPayload, err)
}

// EncodeSnapshotFrame builds a Source or DeinitSource frame for s.
func EncodeSnapshotFrame(t MessageType, s source.Snapshot) ([]byte, error) {
	return EncodeFrame(t, MarshalSnapshot(s))
}
