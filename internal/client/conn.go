// Package client connects to a como server as an observer: a TCP Conn that
// speaks the binary protocol, a Bubble Tea Watcher that keeps one
// connected, and an HTTP client for the admin API.
package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/como-monitor/como/internal/protocol"
	"github.com/como-monitor/como/internal/source"
)

// Event is one source notification received from the server.
type Event struct {
	Type     protocol.MessageType
	Snapshot source.Snapshot
}

// Conn is an observer connection. Next must be called from a single
// goroutine; RequestList and Close may be called from any goroutine.
type Conn struct {
	conn   net.Conn
	r      *bufio.Reader
	header []byte

	writeMu sync.Mutex
}

// Dial connects to the server at addr.
func Dial(ctx context.Context, addr string) (*Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return NewConn(conn), nil
}

// NewConn wraps an established connection.
func NewConn(conn net.Conn) *Conn {
	return &Conn{
		conn:   conn,
		r:      bufio.NewReader(conn),
		header: make([]byte, protocol.HeaderSize),
	}
}

// RequestList asks the server to send every registered source.
func (c *Conn) RequestList() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return protocol.WriteFrame(c.conn, protocol.MsgGetListOfSources, nil)
}

// Next blocks until the next Source or DeinitSource frame. Frames of any
// other type are read and skipped. A bad header returns an error wrapping
// protocol.ErrBadMagic.
func (c *Conn) Next() (Event, error) {
	for {
		h, err := protocol.ReadHeader(c.r, c.header)
		if err != nil {
			return Event{}, err
		}

		payload := make([]byte, h.Length)
		if _, err := io.ReadFull(c.r, payload); err != nil {
			return Event{}, err
		}

		switch h.Type {
		case protocol.MsgSource, protocol.MsgDeinitSource:
			snap, err := protocol.UnmarshalSnapshot(payload)
			if err != nil {
				return Event{}, err
			}
			return Event{Type: h.Type, Snapshot: snap}, nil
		}
	}
}

func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

func (c *Conn) Close() error {
	return c.conn.Close()
}
