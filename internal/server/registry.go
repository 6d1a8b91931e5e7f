package server

import (
	"sync"

	"github.com/como-monitor/como/internal/protocol"
	"github.com/como-monitor/como/internal/source"
)

// Peer is an observer the registry fans events out to. Send must only
// enqueue: it is called with the registry lock held.
type Peer interface {
	ID() string
	Send(t protocol.MessageType, s source.Snapshot)
	Stop()
}

// registry is the single lock-guarded state shared by producers and
// sessions: the ordered source list and the set of peers that may still be
// written to. Each mutation and the fan-out it triggers happen under one
// acquisition of mu, so a peer sees exactly the events that occurred while
// it was live.
type registry struct {
	mu      sync.Mutex
	sources []source.Snapshot
	peers   map[Peer]struct{}
	closed  bool
}

func newRegistry() *registry {
	return &registry{
		peers: make(map[Peer]struct{}),
	}
}

// addPeer registers p. It reports false once the registry is closed.
func (r *registry) addPeer(p Peer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	r.peers[p] = struct{}{}
	return true
}

// removePeer reports whether p was live.
func (r *registry) removePeer(p Peer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.peers[p]; !ok {
		return false
	}
	delete(r.peers, p)
	return true
}

func (r *registry) sendList(p Peer) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sources {
		p.Send(protocol.MsgSource, s)
	}
	return len(r.sources)
}

func (r *registry) init(s source.Snapshot) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, s)
	r.fanOutLocked(protocol.MsgSource, s)
	return len(r.sources)
}

// update reports false when no entry matches s.
func (r *registry) update(s source.Snapshot) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexLocked(s)
	if i < 0 {
		return false
	}
	r.sources[i] = s
	r.fanOutLocked(protocol.MsgSource, s)
	return true
}

// deinit reports false when no entry matches s.
func (r *registry) deinit(s source.Snapshot) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexLocked(s)
	if i < 0 {
		return false
	}
	r.sources = append(r.sources[:i], r.sources[i+1:]...)
	r.fanOutLocked(protocol.MsgDeinitSource, s)
	return true
}

func (r *registry) snapshot() []source.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]source.Snapshot, len(r.sources))
	copy(out, r.sources)
	return out
}

func (r *registry) sourceCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sources)
}

func (r *registry) peerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.peers)
}

// close empties the peer set and returns the peers that were live. Peers
// added afterwards are refused.
func (r *registry) close() []Peer {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	out := make([]Peer, 0, len(r.peers))
	for p := range r.peers {
		out = append(out, p)
	}
	clear(r.peers)
	return out
}

func (r *registry) indexLocked(s source.Snapshot) int {
	for i := range r.sources {
		if r.sources[i].Equal(s) {
			return i
		}
	}
	return -1
}

// fanOutLocked sends to every live peer. Caller must hold r.mu.
func (r *registry) fanOutLocked(t protocol.MessageType, s source.Snapshot) {
	for p := range r.peers {
		p.Send(t, s)
	}
}
