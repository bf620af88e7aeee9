package xp

import (
	"sync"
	"time"

	"github.com/guildkeeper/guildkeeper/guildkeeper/leveling"
)

// LevelUpNotifier turns committed level changes into one event per level
// crossed. Events queue until the host drains them; Notify never blocks.
type LevelUpNotifier struct {
	rewards *RewardRegistry
	now     func() time.Time

	mu      sync.Mutex
	pending []LevelUpEvent
	ready   chan struct{}
}

func NewLevelUpNotifier(rewards *RewardRegistry, now func() time.Time) *LevelUpNotifier {
	if now == nil {
		now = time.Now
	}
	return &LevelUpNotifier{
		rewards: rewards,
		now:     now,
		ready:   make(chan struct{}, 1),
	}
}

// Notify queues events for every level in (oldLevel, newLevel] and returns
// them.
func (n *LevelUpNotifier) Notify(userID, guildID string, oldLevel, newLevel int) []LevelUpEvent {
	levels := leveling.LevelsCrossed(oldLevel, newLevel)
	if len(levels) == 0 {
		return nil
	}

	at := n.now()
	events := make([]LevelUpEvent, 0, len(levels))
	for _, level := range levels {
		var rewards []LevelReward
		if n.rewards != nil {
			rewards = n.rewards.For(guildID, level)
		}
		events = append(events, LevelUpEvent{
			UserID:   userID,
			GuildID:  guildID,
			OldLevel: oldLevel,
			NewLevel: level,
			Rewards:  rewards,
			At:       at,
		})
	}

	n.mu.Lock()
	n.pending = append(n.pending, events...)
	n.mu.Unlock()

	select {
	case n.ready <- struct{}{}:
	default:
	}
	return events
}

// Ready fires whenever events were queued since the last Drain.
func (n *LevelUpNotifier) Ready() <-chan struct{} {
	return n.ready
}

// Drain hands over every queued event in the order they were produced.
func (n *LevelUpNotifier) Drain() []LevelUpEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	events := n.pending
	n.pending = nil
	return events
}

func (n *LevelUpNotifier) Pending() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.pending)
}
