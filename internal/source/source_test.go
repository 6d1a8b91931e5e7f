package source

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type event struct {
	op   string
	snap Snapshot
}

type recorder struct {
	mu     sync.Mutex
	events []event
}

func (r *recorder) InitSource(s Snapshot)   { r.add("init", s) }
func (r *recorder) UpdateSource(s Snapshot) { r.add("update", s) }
func (r *recorder) DeinitSource(s Snapshot) { r.add("deinit", s) }

func (r *recorder) add(op string, s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{op: op, snap: s})
}

func (r *recorder) ops() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.op
	}
	return out
}

func (r *recorder) last() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1].snap
}

func TestSourceLifecycle(t *testing.T) {
	t.Run("new with publisher announces itself", func(t *testing.T) {
		rec := &recorder{}
		s := New("a.int", "int", "desc", IntValue(0), rec)

		assert.Equal(t, []string{"init"}, rec.ops())
		assert.Equal(t, "a.int", rec.last().Name)
		assert.Same(t, rec, s.Publisher())
	})

	t.Run("set value pushes update with fresh timestamp", func(t *testing.T) {
		rec := &recorder{}
		s := New("a.int", "int", "", IntValue(0), rec)
		fixed := time.Date(2020, 1, 1, 0, 0, 0, 0, time.Local)
		s.now = func() time.Time { return fixed }

		require.NoError(t, s.SetValue(IntValue(1)))

		assert.Equal(t, []string{"init", "update"}, rec.ops())
		got := rec.last()
		assert.Equal(t, int64(1), got.Value.Int())
		assert.True(t, fixed.Equal(got.Timestamp))
	})

	t.Run("set value with wrong kind is rejected", func(t *testing.T) {
		rec := &recorder{}
		s := New("a.int", "int", "", IntValue(0), rec)

		err := s.SetValue(DoubleValue(1))
		assert.ErrorIs(t, err, ErrKindMismatch)
		assert.Equal(t, []string{"init"}, rec.ops())
	})

	t.Run("set timestamp pushes update", func(t *testing.T) {
		rec := &recorder{}
		s := New("a.dt", "datetime", "", DateTimeValue(time.Now()), rec)
		ts := time.Date(2001, 2, 3, 4, 5, 6, 0, time.Local)

		s.SetTimestamp(ts)

		assert.Equal(t, []string{"init", "update"}, rec.ops())
		assert.True(t, ts.Equal(rec.last().Timestamp))
	})

	t.Run("unbound mutations are silent", func(t *testing.T) {
		s := New("a.int", "int", "", IntValue(0), nil)
		require.NoError(t, s.SetValue(IntValue(5)))
		s.SetTimestamp(time.Now())
		s.Close()
		assert.Equal(t, int64(5), s.Value().Int())
	})

	t.Run("rebinding deinits on the old publisher first", func(t *testing.T) {
		first, second := &recorder{}, &recorder{}
		s := New("a.int", "int", "", IntValue(0), first)

		s.Bind(second)

		assert.Equal(t, []string{"init", "deinit"}, first.ops())
		assert.Equal(t, []string{"init"}, second.ops())

		s.Unbind()
		assert.Equal(t, []string{"init", "deinit"}, second.ops())
		assert.Nil(t, s.Publisher())
	})

	t.Run("close withdraws once", func(t *testing.T) {
		rec := &recorder{}
		s := New("a.int", "int", "", IntValue(0), rec)

		s.Close()
		s.Close()

		assert.Equal(t, []string{"init", "deinit"}, rec.ops())
	})

	t.Run("copy does not carry the binding", func(t *testing.T) {
		rec := &recorder{}
		s := New("a.str", "string", "d", StringValue("x"), rec)

		c := s.Copy()
		require.NoError(t, c.SetValue(StringValue("y")))
		c.Close()

		assert.Nil(t, c.Publisher())
		assert.Equal(t, []string{"init"}, rec.ops())
		assert.Equal(t, "x", s.Value().Str())
		assert.Equal(t, "y", c.Value().Str())
		assert.True(t, s.Snapshot().Equal(c.Snapshot()))
	})
}

func TestSnapshotEqualityIgnoresValue(t *testing.T) {
	a := Snapshot{Name: "n", TypeName: "t", Value: IntValue(1)}
	b := Snapshot{Name: "n", TypeName: "t", Value: IntValue(2), Description: "other"}
	c := Snapshot{Name: "n", TypeName: "u", Value: IntValue(1)}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.Equal(t, Identity{Name: "n", TypeName: "t"}, a.Identity())
}

func TestSourceConcurrentSetValue(t *testing.T) {
	rec := &recorder{}
	s := New("c", "int64", "", Int64Value(0), rec)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int64) {
			defer wg.Done()
			for j := int64(0); j < 50; j++ {
				_ = s.SetValue(Int64Value(n*100 + j))
			}
		}(int64(i))
	}
	wg.Wait()

	assert.Len(t, rec.ops(), 1+8*50)
	assert.True(t, s.Value().Equal(rec.last().Value), "last published value is the handle's value")
}
