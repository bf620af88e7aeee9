package xp

// SystemMetrics is a point-in-time view of the engine's in-memory state.
type SystemMetrics struct {
	BatchSize             int              `json:"batch_size"`
	FlushFailures         int64            `json:"flush_failures"`
	CooldownCount         int              `json:"cooldown_count"`
	CacheSizes            CacheSizes       `json:"cache_sizes"`
	ActiveMultiplierCount int              `json:"active_multiplier_count"`
	RewardCount           int              `json:"reward_count"`
	PendingLevelUps       int              `json:"pending_level_ups"`
	Granted               int64            `json:"granted"`
	Rejections            map[string]int64 `json:"rejections"`
}

func (e *Engine) GetSystemMetrics() SystemMetrics {
	sizes := e.stats.Sizes()
	sizes.Settings = e.settings.Len()

	return SystemMetrics{
		BatchSize:             e.batch.Size(),
		FlushFailures:         e.batch.Failures(),
		CooldownCount:         e.cooldowns.Len(),
		CacheSizes:            sizes,
		ActiveMultiplierCount: e.multipliers.ActiveCount(),
		RewardCount:           e.rewards.Count(),
		PendingLevelUps:       e.notifier.Pending(),
		Granted:               e.granted.Load(),
		Rejections: map[string]int64{
			string(RejectDisabled): e.rejectedDisabled.Load(),
			string(RejectFrozen):   e.rejectedFrozen.Load(),
			string(RejectCooldown): e.rejectedCooldown.Load(),
		},
	}
}
