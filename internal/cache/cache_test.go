package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetSet(t *testing.T) {
	c := New(time.Minute)
	key := Key("user-1", "/api/tasks/project/p1?status=todo&page=1")

	_, ok := c.Get(key)
	assert.False(t, ok)

	c.Set(key, []byte(`{"tasks":[]}`))
	body, ok := c.Get(key)
	assert.True(t, ok)
	assert.Equal(t, []byte(`{"tasks":[]}`), body)
}

func TestInvalidateProjectRemovesAllCallers(t *testing.T) {
	c := New(time.Minute)
	k1 := Key("user-1", "/api/tasks/project/p1?page=1")
	k2 := Key("user-2", "/api/tasks/project/p1?status=done")
	other := Key("user-1", "/api/tasks/project/p2?page=1")
	c.Set(k1, []byte("a"))
	c.Set(k2, []byte("b"))
	c.Set(other, []byte("c"))

	c.InvalidateProject("p1")

	_, ok := c.Get(k1)
	assert.False(t, ok, "caller 1's listing for p1 must be invalidated")
	_, ok = c.Get(k2)
	assert.False(t, ok, "caller 2's listing for p1 must be invalidated")
	_, ok = c.Get(other)
	assert.True(t, ok, "other projects stay cached")
}

func TestEntriesExpire(t *testing.T) {
	c := New(10 * time.Millisecond)
	key := Key("user-1", "/api/tasks/project/p1")
	c.Set(key, []byte("a"))

	time.Sleep(30 * time.Millisecond)
	_, ok := c.Get(key)
	assert.False(t, ok)
}
