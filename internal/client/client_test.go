package client

import (
	"context"
	"net"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/como-monitor/como/internal/protocol"
	"github.com/como-monitor/como/internal/server"
	"github.com/como-monitor/como/internal/source"
	"github.com/como-monitor/como/internal/ws"
)

func startServer(t *testing.T) (*server.Server, string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	srv := server.New()
	ln, err := srv.Listen(ctx, "127.0.0.1:0")
	require.NoError(t, err)
	go srv.Serve(ctx, ln)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return srv, ln.Addr().String()
}

func waitPeers(t *testing.T, srv *server.Server, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return srv.PeerCount() == n }, 2*time.Second, 5*time.Millisecond)
}

func TestConnRequestListAndEvents(t *testing.T) {
	srv, addr := startServer(t)
	srv.InitSource(source.Snapshot{Name: "a", TypeName: "counter", Value: source.IntValue(3)})

	conn, err := Dial(context.Background(), addr)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.RequestList())
	ev, err := conn.Next()
	require.NoError(t, err)
	assert.Equal(t, protocol.MsgSource, ev.Type)
	assert.Equal(t, "a", ev.Snapshot.Name)
	assert.True(t, ev.Snapshot.Value.Equal(source.IntValue(3)))

	srv.DeinitSource(source.Snapshot{Name: "a", TypeName: "counter"})
	ev, err = conn.Next()
	require.NoError(t, err)
	assert.Equal(t, protocol.MsgDeinitSource, ev.Type)
	assert.Equal(t, "a", ev.Snapshot.Name)
}

func TestConnSkipsUnknownTypes(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	defer serverSide.Close()
	conn := NewConn(clientSide)
	defer conn.Close()

	snap := source.Snapshot{Name: "x", TypeName: "t", Value: source.StringValue("v"), Timestamp: time.Now()}
	go func() {
		_ = protocol.WriteFrame(serverSide, protocol.MessageType(42), []byte("ignored"))
		_ = protocol.WriteFrame(serverSide, protocol.MsgGetListOfSources, nil)
		frame, _ := protocol.EncodeSnapshotFrame(protocol.MsgSource, snap)
		_, _ = serverSide.Write(frame)
	}()

	ev, err := conn.Next()
	require.NoError(t, err)
	assert.Equal(t, protocol.MsgSource, ev.Type)
	assert.Equal(t, "x", ev.Snapshot.Name)
}

func TestConnBadMagic(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	defer serverSide.Close()
	conn := NewConn(clientSide)
	defer conn.Close()

	go func() {
		_, _ = serverSide.Write([]byte("XXXXXXXX\x00\x02\x00\x00"))
	}()

	_, err := conn.Next()
	assert.ErrorIs(t, err, protocol.ErrBadMagic)
}

func TestDialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	_, err = Dial(context.Background(), addr)
	assert.Error(t, err)
}

func TestWatcherLifecycle(t *testing.T) {
	srv, addr := startServer(t)
	srv.InitSource(source.Snapshot{Name: "a", TypeName: "t", Value: source.IntValue(1)})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewWatcher(addr, nil)
	assert.False(t, w.Connected())

	msg := w.Listen(ctx)()
	require.IsType(t, ConnectedMsg{}, msg)
	assert.True(t, w.Connected())

	msg = w.ReadLoop(ctx)()
	src, ok := msg.(SourceMsg)
	require.True(t, ok, "got %T", msg)
	assert.Equal(t, "a", src.Snapshot.Name)

	require.NoError(t, w.Resync())
	msg = w.ReadLoop(ctx)()
	require.IsType(t, SourceMsg{}, msg)

	waitPeers(t, srv, 1)
	srv.DeinitSource(source.Snapshot{Name: "a", TypeName: "t"})
	msg = w.ReadLoop(ctx)()
	require.IsType(t, DeinitMsg{}, msg)

	require.NoError(t, srv.Close())
	msg = w.ReadLoop(ctx)()
	require.IsType(t, DisconnectedMsg{}, msg)
	assert.False(t, w.Connected())
	assert.ErrorIs(t, w.Resync(), ErrNotConnected)
}

func TestWatcherListenRetriesUntilCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	w := NewWatcher(addr, nil)
	w.baseDelay = 5 * time.Millisecond
	w.maxDelay = 10 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.Nil(t, w.Listen(ctx)())
	assert.False(t, w.Connected())
}

func TestReadLoopWithoutConnection(t *testing.T) {
	w := NewWatcher("127.0.0.1:1", nil)
	msg := w.ReadLoop(context.Background())()
	d, ok := msg.(DisconnectedMsg)
	require.True(t, ok)
	assert.ErrorIs(t, d.Err, ErrNotConnected)
}

func TestHTTPClient(t *testing.T) {
	srv := server.New()
	defer srv.Close()
	srv.InitSource(source.Snapshot{Name: "a", TypeName: "t", Value: source.DoubleValue(1.5)})

	b := ws.NewBroadcaster(srv, 0, nil)
	ts := httptest.NewServer(ws.NewServer(srv, b, nil, nil).Routes())
	defer ts.Close()

	c := NewHTTPClient(ts.URL)

	h, err := c.GetHealth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, 1, h.Sources)

	sources, err := c.GetSources(context.Background())
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "a", sources[0].Name)
	assert.Equal(t, "1.5", sources[0].Value)
	assert.Equal(t, source.KindDouble, sources[0].Kind)
}

func TestHTTPClientErrorStatus(t *testing.T) {
	srv := server.New()
	defer srv.Close()
	ts := httptest.NewServer(ws.NewServer(srv, ws.NewBroadcaster(srv, 0, nil), nil, nil).Routes())
	defer ts.Close()

	c := NewHTTPClient(ts.URL)
	err := c.get(context.Background(), "/nope", &struct{}{})
	assert.ErrorContains(t, err, "404")
}
