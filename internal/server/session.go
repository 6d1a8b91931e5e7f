package server

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/como-monitor/como/internal/logger"
	"github.com/como-monitor/como/internal/protocol"
	"github.com/como-monitor/como/internal/source"
)

// session is one accepted TCP connection. A reader goroutine runs the
// header/payload state machine; a writer goroutine drains the outbound
// queue. Both report failures, and a Stop from anywhere, through
// Server.Disconnection.
type session struct {
	id     string
	conn   net.Conn
	server *Server
	log    *slog.Logger

	header []byte // owned by the reader goroutine

	mu    sync.Mutex
	queue [][]byte // each frame is retired only after its write returns
	wake  chan struct{}

	done     chan struct{}
	stopOnce sync.Once
	closed   atomic.Bool
}

func newSession(conn net.Conn, srv *Server) *session {
	id := uuid.NewString()
	return &session{
		id:     id,
		conn:   conn,
		server: srv,
		log: srv.log.With(
			logger.SessionID(id),
			logger.Remote(conn.RemoteAddr().String()),
		),
		header: make([]byte, protocol.HeaderSize),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

func (s *session) ID() string {
	return s.id
}

// start launches the reader and writer. Frames queued before start are
// written first.
func (s *session) start() {
	go s.readLoop()
	go s.writeLoop()
}

func (s *session) readLoop() {
	for {
		h, err := protocol.ReadHeader(s.conn, s.header)
		if err != nil {
			s.readFailed(err)
			return
		}

		s.server.metrics.messagesReceived.WithLabelValues(h.Type.String()).Inc()

		switch h.Type {
		case protocol.MsgGetListOfSources:
			n := s.server.SendListOfSources(s)
			s.log.Debug("list of sources requested", logger.Count("sources", n))
		case protocol.MsgSource, protocol.MsgDeinitSource:
		default:
			s.log.Debug("ignoring unknown message type", slog.Any("type", h.Type))
		}

		if h.Length > 0 {
			// Payloads are discarded; reading them keeps the stream aligned.
			payload := make([]byte, h.Length)
			if _, err := io.ReadFull(s.conn, payload); err != nil {
				s.readFailed(err)
				return
			}
		}

		if s.closed.Load() {
			s.server.Disconnection(s)
			return
		}
	}
}

func (s *session) readFailed(err error) {
	switch {
	case errors.Is(err, protocol.ErrBadMagic):
		s.server.metrics.protocolViolations.Inc()
		s.log.Info("dropping session: protocol violation", logger.Error(err))
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
		s.log.Debug("session closed by peer")
	default:
		s.log.Debug("session read failed", logger.Error(err))
	}
	s.server.Disconnection(s)
}

func (s *session) writeLoop() {
	for {
		select {
		case <-s.done:
			s.server.Disconnection(s)
			return
		case <-s.wake:
		}

		for {
			frame, ok := s.head()
			if !ok {
				break
			}
			if s.server.writeTimeout > 0 {
				_ = s.conn.SetWriteDeadline(time.Now().Add(s.server.writeTimeout))
			}
			if _, err := s.conn.Write(frame); err != nil {
				if !s.closed.Load() {
					s.log.Debug("session write failed", logger.Error(err))
				}
				s.server.Disconnection(s)
				return
			}
			s.pop()
			s.server.metrics.bytesSent.Add(float64(len(frame)))
		}
	}
}

// Send encodes the snapshot and queues the frame. It never blocks on the
// network and is a no-op once the session is stopped.
func (s *session) Send(t protocol.MessageType, snap source.Snapshot) {
	if s.closed.Load() {
		return
	}

	frame, err := protocol.EncodeSnapshotFrame(t, snap)
	if err != nil {
		s.log.Warn("dropping frame", logger.SourceName(snap.Name, snap.TypeName), logger.Error(err))
		return
	}

	s.mu.Lock()
	if s.server.maxQueued > 0 && len(s.queue) >= s.server.maxQueued {
		s.mu.Unlock()
		s.server.metrics.queueOverflows.Inc()
		s.log.Warn("dropping session: outbound queue full", logger.Count("queued", s.server.maxQueued))
		// Send runs under the registry lock, so only stop here. The writer
		// sees done and reports the disconnection.
		s.Stop()
		return
	}
	s.queue = append(s.queue, frame)
	s.mu.Unlock()

	s.server.metrics.framesSent.WithLabelValues(t.String()).Inc()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *session) head() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 || s.closed.Load() {
		return nil, false
	}
	return s.queue[0], true
}

func (s *session) pop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) > 0 {
		s.queue[0] = nil
		s.queue = s.queue[1:]
	}
}

func (s *session) queued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Stop closes the connection. Safe to call any number of times from any
// goroutine; only the first call has an effect.
func (s *session) Stop() {
	s.stopOnce.Do(func() {
		s.closed.Store(true)
		close(s.done)
		if err := s.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.log.Debug("session close failed", logger.Error(err))
		}
		s.mu.Lock()
		s.queue = nil
		s.mu.Unlock()
		s.log.Debug("session stopped")
	})
}
