package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func TestTTL_GetSet(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	c := NewTTL[string](time.Minute, clock)

	_, ok := c.Get("k")
	require.False(t, ok)

	c.Set("k", "v")
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)

	clock.Advance(59 * time.Second)
	_, ok = c.Get("k")
	assert.True(t, ok, "entry should still be live before the ttl elapses")

	clock.Advance(time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok, "entry should expire exactly at the ttl")
}

func TestTTL_SetWithTTL(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	c := NewTTL[int](time.Hour, clock)

	c.SetWithTTL("short", 1, time.Second)
	clock.Advance(2 * time.Second)
	_, ok := c.Get("short")
	assert.False(t, ok)
}

func TestTTL_InvalidateCallsOnEvict(t *testing.T) {
	c := NewTTL[int](time.Hour, nil)
	var evicted []string
	c.OnEvict = func(key string, _ int) { evicted = append(evicted, key) }

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 3)
	c.Invalidate("b")
	c.Invalidate("missing")

	assert.Equal(t, []string{"a", "b"}, evicted)

	c.InvalidateAll()
	assert.Len(t, evicted, 3)
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestTTL_ExpiredEntryIsEvicted(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	c := NewTTL[string](time.Minute, clock)
	var evicted int
	c.OnEvict = func(string, string) { evicted++ }

	c.Set("k", "v")
	clock.Advance(2 * time.Minute)
	_, ok := c.Get("k")
	require.False(t, ok)
	assert.Equal(t, 1, evicted)
}
