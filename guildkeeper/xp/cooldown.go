package xp

import (
	"sync"
	"time"
)

const DefaultCooldownHorizon = 5 * time.Minute

// CooldownGate rate limits message grants per (user, guild). State is
// process local and lost on restart.
type CooldownGate struct {
	mu          sync.Mutex
	lastGrant   map[memberKey]time.Time
	horizon     time.Duration
	maxCooldown time.Duration
	now         func() time.Time
}

func NewCooldownGate(horizon time.Duration, now func() time.Time) *CooldownGate {
	if horizon <= 0 {
		horizon = DefaultCooldownHorizon
	}
	if now == nil {
		now = time.Now
	}
	return &CooldownGate{
		lastGrant: make(map[memberKey]time.Time),
		horizon:   horizon,
		now:       now,
	}
}

// TryConsume records a grant and returns true when the member's last grant in
// this guild is at least cooldown old. It is an atomic check and set.
func (g *CooldownGate) TryConsume(userID, guildID string, cooldown time.Duration) bool {
	key := memberKey{UserID: userID, GuildID: guildID}
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	if cooldown > g.maxCooldown {
		g.maxCooldown = cooldown
	}
	if last, ok := g.lastGrant[key]; ok && now.Sub(last) < cooldown {
		return false
	}
	g.lastGrant[key] = now
	return true
}

// Remaining returns how long until the member may earn again.
func (g *CooldownGate) Remaining(userID, guildID string, cooldown time.Duration) time.Duration {
	g.mu.Lock()
	last, ok := g.lastGrant[memberKey{UserID: userID, GuildID: guildID}]
	g.mu.Unlock()
	if !ok {
		return 0
	}
	if left := cooldown - g.now().Sub(last); left > 0 {
		return left
	}
	return 0
}

// Purge drops entries older than the horizon. The horizon never drops below
// the largest cooldown seen, so purging cannot let a member in early.
func (g *CooldownGate) Purge() int {
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	horizon := g.horizon
	if g.maxCooldown > horizon {
		horizon = g.maxCooldown
	}
	removed := 0
	for key, last := range g.lastGrant {
		if now.Sub(last) >= horizon {
			delete(g.lastGrant, key)
			removed++
		}
	}
	return removed
}

func (g *CooldownGate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.lastGrant)
}
