package source

import "errors"

var (
	ErrUnknownKind  = errors.New("source: unknown kind")
	ErrInvalidValue = errors.New("source: invalid value text")
	ErrKindMismatch = errors.New("source: value kind does not match source kind")
)
