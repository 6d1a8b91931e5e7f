package server

import "errors"

var (
	ErrServerClosed         = errors.New("server: closed")
	ErrServerAlreadyRunning = errors.New("server: already serving")
)
