package lru

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache(capacity int, ttl time.Duration) (*Cache[string, int], *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := New[string, int](capacity, ttl)
	c.now = clock.now
	return c, clock
}

func TestGetPut(t *testing.T) {
	c, _ := newTestCache(2, 0)
	c.Put("a", 1)
	c.Put("b", 2)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, 0)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a")

	key, val, evicted := c.Put("c", 3)
	require.True(t, evicted)
	assert.Equal(t, "b", key)
	assert.Equal(t, 2, val)
	assert.Equal(t, []string{"c", "a"}, c.Keys())
}

func TestPutUpdatesWithoutEviction(t *testing.T) {
	c, _ := newTestCache(1, 0)
	c.Put("a", 1)
	_, _, evicted := c.Put("a", 5)
	assert.False(t, evicted)

	v, _ := c.Get("a")
	assert.Equal(t, 5, v)
	assert.Equal(t, 1, c.Len())
}

func TestIdleEntriesExpire(t *testing.T) {
	c, clock := newTestCache(4, time.Minute)
	c.Put("a", 1)

	clock.advance(30 * time.Second)
	_, ok := c.Get("a")
	require.True(t, ok, "touched within the TTL")

	clock.advance(61 * time.Second)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestGetOrAdd(t *testing.T) {
	c, clock := newTestCache(4, time.Minute)
	calls := 0
	create := func() int { calls++; return calls * 10 }

	assert.Equal(t, 10, c.GetOrAdd("a", create))
	assert.Equal(t, 10, c.GetOrAdd("a", create))
	assert.Equal(t, 1, calls)

	clock.advance(2 * time.Minute)
	assert.Equal(t, 20, c.GetOrAdd("a", create))
}

func TestSweep(t *testing.T) {
	c, clock := newTestCache(4, time.Minute)
	c.Put("old1", 1)
	c.Put("old2", 2)
	clock.advance(2 * time.Minute)
	c.Put("fresh", 3)

	assert.Equal(t, 2, c.Sweep())
	assert.Equal(t, []string{"fresh"}, c.Keys())
}

func TestSweepWithoutTTL(t *testing.T) {
	c, clock := newTestCache(2, 0)
	c.Put("a", 1)
	clock.advance(time.Hour)
	assert.Equal(t, 0, c.Sweep())
	assert.Equal(t, 1, c.Len())
}

func TestDelete(t *testing.T) {
	c, _ := newTestCache(2, 0)
	c.Put("a", 1)
	assert.True(t, c.Delete("a"))
	assert.False(t, c.Delete("a"))
}

func TestNewPanicsOnZeroCapacity(t *testing.T) {
	assert.Panics(t, func() { New[string, int](0, 0) })
}

func TestConcurrentAccess(t *testing.T) {
	c := New[string, int](64, time.Minute)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", (g*200+i)%100)
				c.GetOrAdd(key, func() int { return i })
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 64)
}
