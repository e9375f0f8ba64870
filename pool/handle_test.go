package pool_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pyrite-engine/pyrite/pool"
	"github.com/pyrite-engine/pyrite/visit"
)

func TestHandleNone(t *testing.T) {
	none := pool.None[int]()
	assert.True(t, none.IsNone())

	p := pool.New[int]()
	p.Spawn(1)
	assert.False(t, p.IsValid(none))
	assert.Nil(t, p.Get(none))

	var zero pool.Handle[int]
	assert.False(t, zero.IsNone())
}

func TestHandleCompare(t *testing.T) {
	a := pool.FromRaw[int](visit.Ref{Index: 1, Generation: 0})
	b := pool.FromRaw[int](visit.Ref{Index: 1, Generation: 2})
	c := pool.FromRaw[int](visit.Ref{Index: 3, Generation: 0})

	assert.Equal(t, 0, a.Compare(a))
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, -1, b.Compare(c))
	assert.Equal(t, 1, c.Compare(b))
}

func TestHandleRawRoundTrip(t *testing.T) {
	p := pool.New[string]()
	p.Spawn("x")
	p.Free(p.HandleAt(0))
	h := p.Spawn("y")

	got := pool.FromRaw[string](h.Raw())
	assert.Equal(t, h, got)
	assert.True(t, p.IsValid(got))

	none := pool.None[string]()
	assert.True(t, pool.FromRaw[string](none.Raw()).IsNone())
}

func TestHandleAsMapKey(t *testing.T) {
	p := pool.New[int]()
	h1 := p.Spawn(1)
	h2 := p.Spawn(2)

	seen := map[pool.Handle[int]]string{h1: "one", h2: "two"}
	assert.Equal(t, "one", seen[h1])
	assert.Equal(t, "two", seen[h2])
}

func TestHandleString(t *testing.T) {
	p := pool.New[int]()
	h := p.Spawn(1)
	assert.Equal(t, "Handle(0:0)", h.String())
	assert.Equal(t, "Handle(none)", pool.None[int]().String())
}
