package xp

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCooldownGateTryConsume(t *testing.T) {
	clock := newFakeClock()
	gate := NewCooldownGate(time.Minute, clock.Now)

	assert.True(t, gate.TryConsume("u1", "g1", time.Minute), "first grant passes")
	assert.False(t, gate.TryConsume("u1", "g1", time.Minute), "second grant inside cooldown fails")
	assert.True(t, gate.TryConsume("u1", "g2", time.Minute), "other guild has its own window")
	assert.True(t, gate.TryConsume("u2", "g1", time.Minute), "other user has its own window")

	clock.Advance(59 * time.Second)
	assert.False(t, gate.TryConsume("u1", "g1", time.Minute))
	assert.Equal(t, time.Second, gate.Remaining("u1", "g1", time.Minute))

	clock.Advance(time.Second)
	assert.True(t, gate.TryConsume("u1", "g1", time.Minute), "passes once the window elapsed")
}

func TestCooldownGateZeroCooldown(t *testing.T) {
	gate := NewCooldownGate(time.Minute, newFakeClock().Now)
	assert.True(t, gate.TryConsume("u1", "g1", 0))
	assert.True(t, gate.TryConsume("u1", "g1", 0))
}

func TestCooldownGatePurge(t *testing.T) {
	clock := newFakeClock()
	gate := NewCooldownGate(5*time.Minute, clock.Now)

	gate.TryConsume("u1", "g1", time.Minute)
	clock.Advance(4 * time.Minute)
	gate.TryConsume("u2", "g1", time.Minute)

	clock.Advance(time.Minute)
	assert.Equal(t, 1, gate.Purge())
	assert.Equal(t, 1, gate.Len())
}

func TestCooldownGatePurgeRespectsLongCooldown(t *testing.T) {
	clock := newFakeClock()
	gate := NewCooldownGate(5*time.Minute, clock.Now)

	gate.TryConsume("u1", "g1", 10*time.Minute)
	clock.Advance(6 * time.Minute)
	assert.Equal(t, 0, gate.Purge(), "entry inside its own cooldown must survive the purge")
	assert.False(t, gate.TryConsume("u1", "g1", 10*time.Minute))
}

func TestCooldownGateConcurrentConsume(t *testing.T) {
	gate := NewCooldownGate(time.Minute, newFakeClock().Now)

	var passed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if gate.TryConsume("u1", "g1", time.Minute) {
				passed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), passed.Load())
}
