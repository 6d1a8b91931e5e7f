package client

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/como-monitor/como/internal/logger"
	"github.com/como-monitor/como/internal/protocol"
	"github.com/como-monitor/como/internal/source"
)

const (
	reconnectBaseDelay = 1 * time.Second
	reconnectMaxDelay  = 30 * time.Second
)

var ErrNotConnected = errors.New("client: not connected")

// Watcher keeps one observer connection open for a Bubble Tea program.
type Watcher struct {
	addr string
	log  *slog.Logger

	baseDelay time.Duration
	maxDelay  time.Duration

	mu   sync.Mutex
	conn *Conn
}

// NewWatcher creates a watcher for the server at addr.
func NewWatcher(addr string, log *slog.Logger) *Watcher {
	if log == nil {
		log = logger.Discard()
	}
	return &Watcher{
		addr:      addr,
		log:       log.With(logger.Component("watcher")),
		baseDelay: reconnectBaseDelay,
		maxDelay:  reconnectMaxDelay,
	}
}

// Addr returns the server address.
func (w *Watcher) Addr() string {
	return w.addr
}

// --- Bubble Tea messages ---

// ConnectedMsg is sent once the connection is up and the source list has
// been requested.
type ConnectedMsg struct{ Addr string }

// DisconnectedMsg is sent when the connection drops.
type DisconnectedMsg struct{ Err error }

// SourceMsg carries a created or updated source.
type SourceMsg struct{ Snapshot source.Snapshot }

// DeinitMsg carries a removed source.
type DeinitMsg struct{ Snapshot source.Snapshot }

// Listen returns a Bubble Tea command that connects, requests the source
// list and reports ConnectedMsg. It retries with exponential backoff until
// ctx is done.
func (w *Watcher) Listen(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		delay := w.baseDelay
		for {
			if ctx.Err() != nil {
				return nil
			}

			conn, err := Dial(ctx, w.addr)
			if err == nil {
				err = conn.RequestList()
				if err != nil {
					conn.Close()
				}
			}
			if err != nil {
				w.log.Debug("connect failed", logger.Error(err), logger.Duration(delay))
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(delay):
				}
				delay = min(delay*2, w.maxDelay)
				continue
			}

			w.mu.Lock()
			if w.conn != nil {
				w.conn.Close()
			}
			w.conn = conn
			w.mu.Unlock()

			context.AfterFunc(ctx, func() { conn.Close() })
			return ConnectedMsg{Addr: w.addr}
		}
	}
}

// ReadLoop returns a Bubble Tea command that waits for the next event. It
// should be started after ConnectedMsg and again after every SourceMsg or
// DeinitMsg.
func (w *Watcher) ReadLoop(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		w.mu.Lock()
		conn := w.conn
		w.mu.Unlock()
		if conn == nil {
			return DisconnectedMsg{Err: ErrNotConnected}
		}

		ev, err := conn.Next()
		if err != nil {
			w.mu.Lock()
			if w.conn == conn {
				w.conn = nil
			}
			w.mu.Unlock()
			conn.Close()
			if ctx.Err() != nil {
				return nil
			}
			return DisconnectedMsg{Err: err}
		}

		if ev.Type == protocol.MsgDeinitSource {
			return DeinitMsg{Snapshot: ev.Snapshot}
		}
		return SourceMsg{Snapshot: ev.Snapshot}
	}
}

// Resync asks the server for the full source list again.
func (w *Watcher) Resync() error {
	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	return conn.RequestList()
}

// Connected reports whether a connection is currently open.
func (w *Watcher) Connected() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn != nil
}

// Close drops the current connection, if any.
func (w *Watcher) Close() error {
	w.mu.Lock()
	conn := w.conn
	w.conn = nil
	w.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}
