package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/como-monitor/como/internal/source"
)

func TestCatalog(t *testing.T) {
	c := NewCatalog()
	now := time.Now()

	a := source.Snapshot{Name: "a", TypeName: "t", Value: source.IntValue(1)}
	b := source.Snapshot{Name: "b", TypeName: "t", Value: source.IntValue(2)}

	c.Apply(a, now)
	c.Apply(b, now)
	a.Value = source.IntValue(5)
	st := c.Apply(a, now.Add(time.Second))

	assert.Equal(t, 1, st.Updates)
	assert.Equal(t, 2, c.Len())

	list := c.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Snapshot.Name, "updates keep first-seen order")
	assert.Equal(t, int64(5), list[0].Snapshot.Value.Int())

	t.Run("same name different type is a different source", func(t *testing.T) {
		c.Apply(source.Snapshot{Name: "a", TypeName: "other", Value: source.StringValue("x")}, now)
		assert.Equal(t, 3, c.Len())
		c.Remove(source.Snapshot{Name: "a", TypeName: "other"})
	})

	assert.True(t, c.Remove(a))
	assert.False(t, c.Remove(a))
	_, ok := c.Get(a.Identity())
	assert.False(t, ok)
	require.Len(t, c.List(), 1)
	assert.Equal(t, "b", c.List()[0].Snapshot.Name)

	c.Reset()
	assert.Zero(t, c.Len())
}
