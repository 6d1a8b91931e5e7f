package client

import (
	"time"

	"github.com/como-monitor/como/internal/source"
)

// SourceState is an observer's view of one source.
type SourceState struct {
	Snapshot   source.Snapshot
	Updates    int // Source frames seen after the first
	ReceivedAt time.Time
}

// Catalog holds SourceStates in the order they were first announced, which
// matches the server's registry order after a fresh list.
type Catalog struct {
	order []source.Identity
	byID  map[source.Identity]*SourceState
}

func NewCatalog() *Catalog {
	return &Catalog{byID: make(map[source.Identity]*SourceState)}
}

// Apply records a Source frame and returns the updated state.
func (c *Catalog) Apply(snap source.Snapshot, now time.Time) *SourceState {
	id := snap.Identity()
	st, ok := c.byID[id]
	if !ok {
		st = &SourceState{}
		c.byID[id] = st
		c.order = append(c.order, id)
	} else {
		st.Updates++
	}
	st.Snapshot = snap
	st.ReceivedAt = now
	return st
}

// Remove records a DeinitSource frame. It reports whether the source was
// known.
func (c *Catalog) Remove(snap source.Snapshot) bool {
	id := snap.Identity()
	if _, ok := c.byID[id]; !ok {
		return false
	}
	delete(c.byID, id)
	for i, o := range c.order {
		if o == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

// Reset forgets every source. Call it before a fresh list arrives.
func (c *Catalog) Reset() {
	c.order = nil
	clear(c.byID)
}

func (c *Catalog) Get(id source.Identity) (*SourceState, bool) {
	st, ok := c.byID[id]
	return st, ok
}

// List returns the states in announcement order.
func (c *Catalog) List() []*SourceState {
	out := make([]*SourceState, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

func (c *Catalog) Len() int {
	return len(c.order)
}
