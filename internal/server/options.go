package server

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// DefaultPort is the conventional como port.
	DefaultPort = 4545

	// DefaultWriteTimeout bounds a single frame write to a session.
	DefaultWriteTimeout = 30 * time.Second

	// DefaultKeepAlive is the TCP keep-alive period for accepted sessions.
	DefaultKeepAlive = 30 * time.Second

	// DefaultMaxQueuedFrames is the per-session outbound queue limit.
	DefaultMaxQueuedFrames = 4096
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for server and session events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.log = logger
	}
}

// WithWriteTimeout bounds each frame write. Zero disables the deadline.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.writeTimeout = d
	}
}

// WithKeepAlive sets the TCP keep-alive period. A negative value disables
// keep-alives.
func WithKeepAlive(d time.Duration) Option {
	return func(s *Server) {
		s.keepAlive = d
	}
}

// WithMaxQueuedFrames limits how many frames may wait for one session before
// it is dropped. Zero means unbounded.
func WithMaxQueuedFrames(n int) Option {
	return func(s *Server) {
		s.maxQueued = n
	}
}

// WithRegistry registers server metrics on reg instead of a private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.promReg = reg
	}
}
