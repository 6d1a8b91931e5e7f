// Package server implements the como broadcast server: it accepts observer
// connections, keeps the registry of live sources and fans every source
// event out to each connected observer.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/como-monitor/como/internal/logger"
	"github.com/como-monitor/como/internal/source"
)

const (
	acceptBackoffMin = 5 * time.Millisecond
	acceptBackoffMax = time.Second
)

// Server owns the source registry and the set of live observers. It
// implements source.Publisher, so source handles can be bound to it
// directly.
type Server struct {
	reg     *registry
	log     *slog.Logger
	metrics *metrics
	promReg *prometheus.Registry

	writeTimeout time.Duration
	keepAlive    time.Duration
	maxQueued    int

	mu       sync.Mutex
	listener net.Listener
	closed   bool
}

var _ source.Publisher = (*Server)(nil)

// New creates a server that is not yet listening.
func New(opts ...Option) *Server {
	s := &Server{
		reg:          newRegistry(),
		writeTimeout: DefaultWriteTimeout,
		keepAlive:    DefaultKeepAlive,
		maxQueued:    DefaultMaxQueuedFrames,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Discard()
	}
	s.log = s.log.With(logger.Component("server"))
	if s.promReg == nil {
		s.promReg = prometheus.NewRegistry()
	}
	s.metrics = newMetrics(s.promReg)
	return s
}

// Listen opens a TCP listener on addr with the server's keep-alive setting.
func (s *Server) Listen(ctx context.Context, addr string) (net.Listener, error) {
	lc := net.ListenConfig{KeepAlive: s.keepAlive}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return ln, nil
}

// ListenAndServe listens on addr and serves until ctx is done or Close is
// called.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := s.Listen(ctx, addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done or the server is
// closed. It returns nil on an orderly shutdown. There is always exactly one
// Accept outstanding while serving.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = ln.Close()
		return ErrServerClosed
	}
	if s.listener != nil {
		s.mu.Unlock()
		return ErrServerAlreadyRunning
	}
	s.listener = ln
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() {
		_ = s.Close()
	})
	defer stop()

	s.log.Info("accepting observers", logger.Addr(ln.Addr().String()))

	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isClosed() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			if backoff == 0 {
				backoff = acceptBackoffMin
			} else {
				backoff = min(backoff*2, acceptBackoffMax)
			}
			s.log.Warn("accept failed", logger.Error(err), logger.Duration(backoff))
			select {
			case <-time.After(backoff):
				continue
			case <-ctx.Done():
				return nil
			}
		}
		backoff = 0

		sess := newSession(conn, s)
		if !s.Attach(sess) {
			sess.Stop()
			return nil
		}
		s.metrics.sessionsTotal.Inc()
		sess.log.Debug("observer connected")
		sess.start()
	}
}

// Addr returns the listener address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close stops accepting and stops every live peer. It is safe to call more
// than once.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	ln := s.listener
	s.mu.Unlock()

	var err error
	if ln != nil {
		if cerr := ln.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			err = cerr
		}
	}

	peers := s.reg.close()
	for _, p := range peers {
		p.Stop()
	}
	s.metrics.sessionsActive.Sub(float64(len(peers)))
	s.log.Info("server closed", logger.Count("peers", len(peers)))
	return err
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Attach adds p to the live set. It reports false once the server is
// closed.
func (s *Server) Attach(p Peer) bool {
	if !s.reg.addPeer(p) {
		return false
	}
	s.metrics.sessionsActive.Inc()
	return true
}

// Disconnection removes p from the live set and stops it. Concurrent and
// repeated calls for the same peer are safe; p is removed exactly once.
func (s *Server) Disconnection(p Peer) {
	if s.reg.removePeer(p) {
		s.metrics.sessionsActive.Dec()
		s.metrics.disconnections.Inc()
		s.log.Debug("observer disconnected", logger.SessionID(p.ID()))
	}
	p.Stop()
}

// SendListOfSources queues a Source frame for every registered source to p.
// It returns the number of sources sent.
func (s *Server) SendListOfSources(p Peer) int {
	return s.reg.sendList(p)
}

// InitSource registers snap and notifies every live peer.
func (s *Server) InitSource(snap source.Snapshot) {
	n := s.reg.init(snap)
	s.metrics.sourcesRegistered.Set(float64(n))
	s.log.Debug("source registered", logger.SourceName(snap.Name, snap.TypeName))
}

// UpdateSource replaces the registered entry equal to snap and notifies
// every live peer. Unknown sources are ignored.
func (s *Server) UpdateSource(snap source.Snapshot) {
	if !s.reg.update(snap) {
		s.log.Debug("update for unregistered source", logger.SourceName(snap.Name, snap.TypeName))
	}
}

// DeinitSource removes the registered entry equal to snap and notifies
// every live peer. Unknown sources are ignored.
func (s *Server) DeinitSource(snap source.Snapshot) {
	if !s.reg.deinit(snap) {
		s.log.Debug("deinit for unregistered source", logger.SourceName(snap.Name, snap.TypeName))
		return
	}
	s.metrics.sourcesRegistered.Set(float64(s.reg.sourceCount()))
	s.log.Debug("source removed", logger.SourceName(snap.Name, snap.TypeName))
}

// Sources returns a copy of the registry in insertion order.
func (s *Server) Sources() []source.Snapshot {
	return s.reg.snapshot()
}

// PeerCount returns the number of live observers.
func (s *Server) PeerCount() int {
	return s.reg.peerCount()
}

// Gatherer exposes the server's metrics registry.
func (s *Server) Gatherer() prometheus.Gatherer {
	return s.promReg
}
