package source

import (
	"fmt"
	"strings"
)

// Kind is the closed set of scalar types a source can carry. The numeric
// codes are part of the wire format and must not change.
type Kind uint16

const (
	KindString   Kind = 0x01
	KindInt      Kind = 0x02
	KindUInt     Kind = 0x03
	KindInt64    Kind = 0x04
	KindUInt64   Kind = 0x05
	KindDouble   Kind = 0x06
	KindDateTime Kind = 0x07
	KindTime     Kind = 0x08
)

var kindNames = map[Kind]string{
	KindString:   "string",
	KindInt:      "int",
	KindUInt:     "uint",
	KindInt64:    "int64",
	KindUInt64:   "uint64",
	KindDouble:   "double",
	KindDateTime: "datetime",
	KindTime:     "time",
}

var kindFromName = map[string]Kind{
	"string":   KindString,
	"int":      KindInt,
	"uint":     KindUInt,
	"int64":    KindInt64,
	"uint64":   KindUInt64,
	"double":   KindDouble,
	"datetime": KindDateTime,
	"time":     KindTime,
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseKind maps a kind name ("int", "double", ...) back to its Kind.
func ParseKind(name string) (Kind, error) {
	if k, ok := kindFromName[strings.ToLower(name)]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, k)
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(data []byte) error {
	v, err := ParseKind(string(data))
	if err != nil {
		return err
	}
	*k = v
	return nil
}
