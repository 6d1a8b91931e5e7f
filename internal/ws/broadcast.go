package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/como-monitor/como/internal/logger"
	"github.com/como-monitor/como/internal/protocol"
	"github.com/como-monitor/como/internal/server"
	"github.com/como-monitor/como/internal/source"
)

var ErrTooManyConnections = errors.New("ws: too many connections")

const (
	sendBuffer   = 256
	writeTimeout = 10 * time.Second
)

// LiveSet is the part of the broadcast server a WebSocket client joins.
type LiveSet interface {
	Attach(server.Peer) bool
	Disconnection(server.Peer)
	SendListOfSources(server.Peer) int
}

// client mirrors source events to one browser. It is a server.Peer, so it
// receives exactly the events TCP observers receive.
type client struct {
	id   string
	conn *websocket.Conn
	b    *Broadcaster
	send chan []byte

	done     chan struct{}
	stopOnce sync.Once
}

func newClient(conn *websocket.Conn, b *Broadcaster) *client {
	return &client{
		id:   uuid.NewString(),
		conn: conn,
		b:    b,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

func (c *client) ID() string {
	return c.id
}

func (c *client) encode(t protocol.MessageType, s source.Snapshot) ([]byte, bool) {
	typ, ok := messageTypeFor(t)
	if !ok {
		return nil, false
	}
	data, err := json.Marshal(WSMessage{Type: typ, Payload: NewSourcePayload(s)})
	if err != nil {
		c.b.log.Warn("ws marshal failed", logger.SourceName(s.Name, s.TypeName), logger.Error(err))
		return nil, false
	}
	return data, true
}

// Send encodes the event and queues it without blocking. A client that
// cannot keep up is stopped; its read loop then removes it.
func (c *client) Send(t protocol.MessageType, s source.Snapshot) {
	data, ok := c.encode(t, s)
	if !ok {
		return
	}

	select {
	case <-c.done:
	case c.send <- data:
	default:
		c.b.log.Warn("ws client too slow, disconnecting", logger.SessionID(c.id))
		c.Stop()
	}
}

func (c *client) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// writePump writes initial, then live events until the client stops.
func (c *client) writePump(initial [][]byte) {
	defer c.b.RemoveClient(c)
	for _, msg := range initial {
		select {
		case <-c.done:
			return
		default:
		}
		if err := c.write(msg); err != nil {
			return
		}
	}
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			if err := c.write(msg); err != nil {
				return
			}
		}
	}
}

func (c *client) write(msg []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

// sourceList collects the source list for a joining client. It has no
// length limit, unlike the client's live queue.
type sourceList struct {
	c      *client
	frames [][]byte
}

func (l *sourceList) ID() string { return l.c.id }

func (l *sourceList) Send(t protocol.MessageType, s source.Snapshot) {
	if data, ok := l.c.encode(t, s); ok {
		l.frames = append(l.frames, data)
	}
}

func (l *sourceList) Stop() { l.c.Stop() }

// Broadcaster tracks WebSocket clients and joins each one to the live set.
type Broadcaster struct {
	mu       sync.RWMutex
	clients  map[*client]bool
	live     LiveSet
	maxConns int
	log      *slog.Logger
}

// NewBroadcaster creates a broadcaster. maxConns <= 0 means no limit.
func NewBroadcaster(live LiveSet, maxConns int, log *slog.Logger) *Broadcaster {
	if log == nil {
		log = logger.Discard()
	}
	return &Broadcaster{
		clients:  make(map[*client]bool),
		live:     live,
		maxConns: maxConns,
		log:      log.With(logger.Component("ws")),
	}
}

// AddClient registers conn, joins it to the live set and writes the current
// source list ahead of any live event.
func (b *Broadcaster) AddClient(conn *websocket.Conn) (*client, error) {
	c := newClient(conn, b)

	b.mu.Lock()
	if b.maxConns > 0 && len(b.clients) >= b.maxConns {
		b.mu.Unlock()
		return nil, ErrTooManyConnections
	}
	b.clients[c] = true
	b.mu.Unlock()

	if !b.live.Attach(c) {
		b.mu.Lock()
		delete(b.clients, c)
		b.mu.Unlock()
		return nil, server.ErrServerClosed
	}

	list := &sourceList{c: c}
	n := b.live.SendListOfSources(list)
	go c.writePump(list.frames)
	b.log.Debug("ws client joined", logger.SessionID(c.id), logger.Count("sources", n))
	return c, nil
}

// RemoveClient drops c from the broadcaster and the live set. Safe to call
// more than once.
func (b *Broadcaster) RemoveClient(c *client) {
	b.mu.Lock()
	_, ok := b.clients[c]
	delete(b.clients, c)
	b.mu.Unlock()

	b.live.Disconnection(c)
	if ok {
		b.log.Debug("ws client left", logger.SessionID(c.id))
	}
}

func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}
