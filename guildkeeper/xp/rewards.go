package xp

import (
	"context"
	"fmt"
	"sync"
)

type RewardStore interface {
	LoadLevelRewards(ctx context.Context) ([]LevelReward, error)
	UpsertLevelReward(ctx context.Context, reward LevelReward) error
}

// RewardRegistry keeps level rewards in memory keyed by guild and level.
// There is at most one reward per (guild, level).
type RewardRegistry struct {
	store   RewardStore
	mu      sync.RWMutex
	byGuild map[string]map[int]LevelReward
}

func NewRewardRegistry(store RewardStore) *RewardRegistry {
	return &RewardRegistry{
		store:   store,
		byGuild: make(map[string]map[int]LevelReward),
	}
}

func (r *RewardRegistry) Load(ctx context.Context) error {
	rewards, err := r.store.LoadLevelRewards(ctx)
	if err != nil {
		return fmt.Errorf("failed to load level rewards: %w", err)
	}

	byGuild := make(map[string]map[int]LevelReward)
	for _, reward := range rewards {
		if byGuild[reward.GuildID] == nil {
			byGuild[reward.GuildID] = make(map[int]LevelReward)
		}
		byGuild[reward.GuildID][reward.Level] = reward
	}

	r.mu.Lock()
	r.byGuild = byGuild
	r.mu.Unlock()
	return nil
}

func (reward LevelReward) Validate() error {
	if reward.GuildID == "" {
		return fmt.Errorf("%w: guild required", ErrInvalidReward)
	}
	if reward.Level < 1 {
		return fmt.Errorf("%w: level must be at least 1", ErrInvalidReward)
	}
	if reward.XPBonus < 0 {
		return fmt.Errorf("%w: xp bonus must not be negative", ErrInvalidReward)
	}
	if reward.RoleID == "" && reward.XPBonus == 0 && reward.Announcement == "" {
		return fmt.Errorf("%w: reward grants nothing", ErrInvalidReward)
	}
	return nil
}

func (r *RewardRegistry) Set(ctx context.Context, reward LevelReward) error {
	if err := reward.Validate(); err != nil {
		return err
	}
	if err := r.store.UpsertLevelReward(ctx, reward); err != nil {
		return fmt.Errorf("failed to save level reward: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byGuild[reward.GuildID] == nil {
		r.byGuild[reward.GuildID] = make(map[int]LevelReward)
	}
	r.byGuild[reward.GuildID][reward.Level] = reward
	return nil
}

// For returns the rewards configured for exactly this level.
func (r *RewardRegistry) For(guildID string, level int) []LevelReward {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if reward, ok := r.byGuild[guildID][level]; ok {
		return []LevelReward{reward}
	}
	return nil
}

func (r *RewardRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, levels := range r.byGuild {
		count += len(levels)
	}
	return count
}
