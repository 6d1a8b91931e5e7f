// Package source holds the typed values producers publish and the handle
// through which a producer mutates one of them.
//
// A Source is bound to at most one Publisher (normally a *server.Server).
// Binding announces the source, every value change is pushed as an update,
// and Close or Unbind withdraws it:
//
//	ticks := source.New("app::ticks", "counter", "loop iterations",
//		source.IntValue(0), srv)
//	defer ticks.Close()
//
//	ticks.SetValue(source.IntValue(1))
package source

import (
	"sync"
	"time"
)

// Publisher receives lifecycle events for bound sources.
type Publisher interface {
	InitSource(Snapshot)
	UpdateSource(Snapshot)
	DeinitSource(Snapshot)
}

// Source is a producer-side handle. It is safe for concurrent use; the
// publisher is called with the handle's lock held so successive changes to
// one source reach the publisher in order.
type Source struct {
	mu   sync.Mutex
	snap Snapshot
	pub  Publisher
	now  func() time.Time
}

// New creates a source and, when pub is non-nil, binds it.
func New(name, typeName, description string, value Value, pub Publisher) *Source {
	s := &Source{
		snap: Snapshot{
			Name:        name,
			TypeName:    typeName,
			Description: description,
			Value:       value,
		},
		now: time.Now,
	}
	s.snap.Timestamp = s.now()
	s.Bind(pub)
	return s
}

// Bind withdraws the source from its current publisher, if any, and announces
// it to pub. Passing nil leaves the source unbound.
func (s *Source) Bind(pub Publisher) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pub != nil {
		s.pub.DeinitSource(s.snap)
	}
	s.pub = pub
	if s.pub != nil {
		s.pub.InitSource(s.snap)
	}
}

// Unbind withdraws the source from its publisher.
func (s *Source) Unbind() {
	s.Bind(nil)
}

// Close withdraws the source. The handle can be bound again afterwards.
func (s *Source) Close() {
	s.Unbind()
}

// Publisher returns the current binding, or nil.
func (s *Source) Publisher() Publisher {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pub
}

// SetValue replaces the value, refreshes the timestamp and pushes an update
// when bound. v must have the source's kind.
func (s *Source) SetValue(v Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v.Kind() != s.snap.Value.Kind() {
		return ErrKindMismatch
	}
	s.snap.Value = v
	s.snap.Timestamp = s.now()
	s.publishLocked()
	return nil
}

// SetTimestamp overrides the change time and pushes an update when bound.
func (s *Source) SetTimestamp(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap.Timestamp = t
	s.publishLocked()
}

// SetDescription changes the description locally. Observers see it with the
// next update.
func (s *Source) SetDescription(desc string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Description = desc
}

// Snapshot returns a copy of the current state.
func (s *Source) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Value returns the current value.
func (s *Source) Value() Value {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Value
}

// Copy duplicates the data fields. The copy starts unbound so two handles
// never own one registry entry.
func (s *Source) Copy() *Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &Source{snap: s.snap, now: s.now}
}

func (s *Source) publishLocked() {
	if s.pub != nil {
		s.pub.UpdateSource(s.snap)
	}
}
