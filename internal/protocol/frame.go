// Package protocol implements the como wire format.
//
// Every frame starts with a fixed 12-byte header:
//
//	┌───────────────────────────┬──────────────┬────────────────┐
//	│ Magic "COMOPRO2"          │ Message type │ Payload length │
//	│ (8 bytes)                 │ (u16 BE)     │ (u16 BE)       │
//	└───────────────────────────┴──────────────┴────────────────┘
//
// followed by payloadLength bytes of payload. GetListOfSources has no payload;
// Source and DeinitSource carry an encoded snapshot (see MarshalSnapshot).
package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// HeaderSize is the size of the frame header in bytes.
	HeaderSize = 12

	// MaxPayloadSize is the largest payload a 16-bit length can describe.
	MaxPayloadSize = 65535
)

// Magic identifies protocol revision 2 (binary header, protobuf payload).
var Magic = [8]byte{'C', 'O', 'M', 'O', 'P', 'R', 'O', '2'}

// MessageType identifies the frame body.
type MessageType uint16

const (
	MsgGetListOfSources MessageType = 0x0001 // client → server, no payload
	MsgSource           MessageType = 0x0002 // server → client, snapshot
	MsgDeinitSource     MessageType = 0x0003 // server → client, snapshot
)

func (t MessageType) String() string {
	switch t {
	case MsgGetListOfSources:
		return "GetListOfSources"
	case MsgSource:
		return "Source"
	case MsgDeinitSource:
		return "DeinitSource"
	default:
		return fmt.Sprintf("Unknown(%d)", uint16(t))
	}
}

// Known reports whether t is a message type this revision understands.
func (t MessageType) Known() bool {
	return t >= MsgGetListOfSources && t <= MsgDeinitSource
}

// Header is a decoded frame header.
type Header struct {
	Type   MessageType
	Length uint16
}

// EncodeHeader writes the 12-byte header for h into a new slice.
func EncodeHeader(h Header) []byte {
	buf := make([]byte, HeaderSize)
	putHeader(buf, h)
	return buf
}

func putHeader(buf []byte, h Header) {
	copy(buf[:8], Magic[:])
	binary.BigEndian.PutUint16(buf[8:10], uint16(h.Type))
	binary.BigEndian.PutUint16(buf[10:12], h.Length)
}

// EncodeFrame builds a complete frame. The returned slice is freshly
// allocated and owned by the caller.
func EncodeFrame(t MessageType, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}
	buf := make([]byte, HeaderSize+len(payload))
	putHeader(buf, Header{Type: t, Length: uint16(len(payload))})
	copy(buf[HeaderSize:], payload)
	return buf, nil
}

// DecodeHeader decodes the first HeaderSize bytes of data. Only the header is
// inspected. A wrong magic returns ErrBadMagic; an unknown message type is
// not an error.
func DecodeHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, io.ErrUnexpectedEOF
	}
	if !bytes.Equal(data[:8], Magic[:]) {
		return Header{}, ErrBadMagic
	}
	return Header{
		Type:   MessageType(binary.BigEndian.Uint16(data[8:10])),
		Length: binary.BigEndian.Uint16(data[10:12]),
	}, nil
}

// ReadHeader reads and decodes exactly one header from r into buf, which
// must be at least HeaderSize long.
func ReadHeader(r io.Reader, buf []byte) (Header, error) {
	if _, err := io.ReadFull(r, buf[:HeaderSize]); err != nil {
		return Header{}, err
	}
	return DecodeHeader(buf)
}

// WriteFrame encodes and writes one frame.
func WriteFrame(w io.Writer, t MessageType, payload []byte) error {
	frame, err := EncodeFrame(t, payload)
	if err != nil {
		return err
	}
	_, err = w.Write(frame)
	return err
}
