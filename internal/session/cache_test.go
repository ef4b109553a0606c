package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_SlidingExpiration(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	c := NewCache[string, int](time.Minute, clock.Now)

	c.Set("a", 1)
	c.Set("b", 2)
	clock.Advance(40 * time.Second)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	clock.Advance(40 * time.Second)
	_, ok = c.Get("b")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Size(), "expired entries stay until removed")
	assert.Equal(t, []int{1}, c.Values())

	assert.Equal(t, []int{2}, c.RemoveExpired())
	assert.Equal(t, 1, c.Size())
}

func TestCache_DeleteAndDrain(t *testing.T) {
	c := NewCache[string, string](time.Hour, nil)
	c.Set("x", "one")
	c.Set("y", "two")

	v, ok := c.Delete("x")
	assert.True(t, ok)
	assert.Equal(t, "one", v)
	_, ok = c.Delete("x")
	assert.False(t, ok)

	assert.Equal(t, []string{"two"}, c.Drain())
	assert.Equal(t, 0, c.Size())
}

func TestCache_Stats(t *testing.T) {
	c := NewCache[int, bool](time.Hour, nil)
	c.Set(1, true)
	c.Get(1)
	c.Get(1)
	c.Get(2)

	stats := c.GetStats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 2.0/3.0, stats.HitRate, 1e-9)
	assert.Equal(t, 1, stats.Size)
}
