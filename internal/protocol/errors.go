package protocol

import "errors"

var (
	// ErrBadMagic means the peer is not speaking this protocol. The
	// connection must be closed.
	ErrBadMagic = errors.New("protocol: bad magic number")

	ErrPayloadTooLarge  = errors.New("protocol: payload too large")
	ErrMalformedPayload = errors.New("protocol: malformed snapshot payload")
)
