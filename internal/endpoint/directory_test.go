package endpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirectory(t *testing.T) {
	d := NewDirectory()
	a := NewMailboxWithID("a", 1)

	assert.True(t, d.Add(a, "t1"), "first topic registers the endpoint")
	assert.False(t, d.Add(a, "t2"))
	assert.False(t, d.Add(a, "t2"))
	assert.Equal(t, 1, d.Len())

	ep, ok := d.Lookup("a")
	assert.True(t, ok)
	assert.Same(t, a, ep)

	d.Remove("a", "t1")
	_, ok = d.Lookup("a")
	assert.True(t, ok, "still joined to t2")

	d.Remove("a", "t2")
	_, ok = d.Lookup("a")
	assert.False(t, ok, "forgotten after the last topic")

	d.Remove("unknown", "t1")
	assert.Equal(t, 0, d.Len())
}

func TestDirectory_Drop(t *testing.T) {
	d := NewDirectory()
	b := NewMailboxWithID("b", 1)
	d.Add(b, "x")
	d.Add(b, "y")

	assert.ElementsMatch(t, []string{"x", "y"}, d.Drop("b"))
	assert.Nil(t, d.Drop("b"))
	assert.Equal(t, 0, d.Len())
}
