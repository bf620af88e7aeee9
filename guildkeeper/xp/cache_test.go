package xp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestTTLCacheExpiry(t *testing.T) {
	clock := newFakeClock()
	c := newTTLCache[string, int](10, time.Minute, clock.Now)

	c.Set("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	clock.Advance(59 * time.Second)
	_, ok = c.Get("a")
	assert.True(t, ok, "entry should live until its ttl")

	clock.Advance(time.Second)
	_, ok = c.Get("a")
	assert.False(t, ok, "entry should expire at its ttl")
	assert.Equal(t, 0, c.Len(), "expired entry should be dropped on read")
}

func TestTTLCacheDeleteFunc(t *testing.T) {
	c := newTTLCache[memberKey, int](10, time.Minute, nil)
	c.Set(memberKey{UserID: "u1", GuildID: "g1"}, 1)
	c.Set(memberKey{UserID: "u2", GuildID: "g1"}, 2)
	c.Set(memberKey{UserID: "u1", GuildID: "g2"}, 3)

	removed := c.DeleteFunc(func(k memberKey) bool { return k.GuildID == "g1" })
	assert.Equal(t, 2, removed)

	_, ok := c.Get(memberKey{UserID: "u1", GuildID: "g2"})
	assert.True(t, ok, "other guild should be untouched")
}

func TestTTLCacheSweepAndUpdate(t *testing.T) {
	clock := newFakeClock()
	c := newTTLCache[string, int](10, time.Minute, clock.Now)
	c.Set("short", 1)
	c.SetWithTTL("long", 2, time.Hour)

	assert.True(t, c.Update("long", func(v int) int { return v + 10 }))
	assert.False(t, c.Update("missing", func(v int) int { return v }))

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 1, c.Sweep())

	v, ok := c.Get("long")
	require.True(t, ok)
	assert.Equal(t, 12, v)
}

func TestTTLCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := newTTLCache[int, int](2, time.Minute, nil)
	c.Set(1, 1)
	c.Set(2, 2)
	c.Get(1)
	c.Set(3, 3)

	_, ok := c.Get(2)
	assert.False(t, ok)
	_, ok = c.Get(1)
	assert.True(t, ok)
}
