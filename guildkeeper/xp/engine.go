package xp

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/guildkeeper/guildkeeper/guildkeeper/leveling"
)

const (
	DefaultVoiceDampening = 0.5
	DefaultSettingsTTL    = 10 * time.Minute
	DefaultSweepInterval  = 5 * time.Minute
)

type Config struct {
	Defaults        GuildSettings
	BatchSize       int
	FlushInterval   time.Duration
	CacheSize       int
	SettingsTTL     time.Duration
	MemberTTL       time.Duration
	StatsTTL        time.Duration
	RankTTL         time.Duration
	LeaderboardTTL  time.Duration
	CooldownHorizon time.Duration
	SweepInterval   time.Duration
	VoiceDampening  float64
	Location        *time.Location
}

func DefaultConfig() Config {
	return Config{
		Defaults:        DefaultSettings(),
		BatchSize:       DefaultBatchSize,
		FlushInterval:   DefaultFlushInterval,
		CacheSize:       defaultCacheSize,
		SettingsTTL:     DefaultSettingsTTL,
		MemberTTL:       DefaultMemberTTL,
		StatsTTL:        DefaultStatsTTL,
		RankTTL:         DefaultRankTTL,
		LeaderboardTTL:  DefaultLeaderboardTTL,
		CooldownHorizon: DefaultCooldownHorizon,
		SweepInterval:   DefaultSweepInterval,
		VoiceDampening:  DefaultVoiceDampening,
		Location:        time.UTC,
	}
}

type Option func(*Engine)

// WithClock replaces time.Now for every component of the engine.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRoller replaces the uniform [min, max] base roll.
func WithRoller(roll func(min, max int64) int64) Option {
	return func(e *Engine) { e.roll = roll }
}

// Engine decides whether activity earns XP, how much, and queues the result
// for a batched write.
type Engine struct {
	store Store
	cfg   Config
	now   func() time.Time
	roll  func(min, max int64) int64

	settings    *GuildConfigStore
	cooldowns   *CooldownGate
	multipliers *MultiplierRegistry
	rewards     *RewardRegistry
	notifier    *LevelUpNotifier
	batch       *BatchWriter
	stats       *StatsService

	rejectedDisabled atomic.Int64
	rejectedFrozen   atomic.Int64
	rejectedCooldown atomic.Int64
	granted          atomic.Int64
}

func NewEngine(store Store, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		cfg:   cfg,
		now:   time.Now,
		roll:  uniformRoll,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.settings = NewGuildConfigStore(store, cfg.Defaults, orDefault(cfg.SettingsTTL, DefaultSettingsTTL), e.now)
	e.cooldowns = NewCooldownGate(cfg.CooldownHorizon, e.now)
	e.multipliers = NewMultiplierRegistry(store, cfg.Location, e.now)
	e.rewards = NewRewardRegistry(store)
	e.notifier = NewLevelUpNotifier(e.rewards, e.now)
	e.stats = NewStatsService(store, cfg.CacheSize, StatsTTLs{
		Member:      cfg.MemberTTL,
		Stats:       cfg.StatsTTL,
		Rank:        cfg.RankTTL,
		Leaderboard: cfg.LeaderboardTTL,
	}, e.now)
	e.batch = NewBatchWriter(store, cfg.BatchSize, cfg.FlushInterval, e.afterFlush)
	return e
}

func uniformRoll(min, max int64) int64 {
	if max <= min {
		return min
	}
	return min + rand.Int64N(max-min+1)
}

// Start loads multipliers and level rewards from storage.
func (e *Engine) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return e.multipliers.Load(gctx) })
	g.Go(func() error { return e.rewards.Load(gctx) })
	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("XP engine started",
		slog.String("type", "xp"),
		slog.Int("multipliers", e.multipliers.ActiveCount()),
		slog.Int("rewards", e.rewards.Count()))
	return nil
}

// GainXP evaluates one activity event. A nil result with a nil error means
// the event earned nothing.
func (e *Engine) GainXP(ctx context.Context, req GainRequest) (*GainResult, error) {
	if req.UserID == "" || req.GuildID == "" {
		return nil, fmt.Errorf("%w: user and guild are required", ErrInvalidGrant)
	}
	if req.Reason == "" {
		req.Reason = ReasonMessage
	}
	if !req.Reason.Valid() {
		return nil, fmt.Errorf("%w: unknown reason %q", ErrInvalidGrant, req.Reason)
	}

	settings, err := e.settings.Get(ctx, req.GuildID)
	if err != nil {
		return nil, err
	}
	if !settings.Enabled {
		e.reject(req, RejectDisabled)
		return nil, nil
	}

	member, err := e.stats.Member(ctx, req.UserID, req.GuildID)
	if err != nil {
		return nil, err
	}
	now := e.now()
	if member != nil && member.Frozen {
		if member.FrozenAt(now) {
			e.reject(req, RejectFrozen)
			return nil, nil
		}
		member, err = e.thaw(ctx, member)
		if err != nil {
			return nil, err
		}
	}

	if req.Reason == ReasonMessage && !e.cooldowns.TryConsume(req.UserID, req.GuildID, settings.Cooldown) {
		e.reject(req, RejectCooldown)
		return nil, nil
	}

	base := e.roll(settings.XPMin, settings.XPMax)
	if req.Amount != nil {
		base = *req.Amount
	}
	dampening := 1.0
	if req.Reason == ReasonVoice {
		dampening = e.cfg.VoiceDampening
	}
	multiplier := e.multipliers.Effective(req.GuildID, settings.XPRate, req.Context, dampening)
	gained := int64(math.Floor(float64(base) * multiplier))
	if gained < 0 {
		gained = 0
	}

	var committed int64
	if member != nil {
		committed = member.XP
	}
	var pending int64
	if gained > 0 {
		pending = e.batch.Enqueue(Grant{
			UserID:    req.UserID,
			GuildID:   req.GuildID,
			Username:  req.Username,
			Amount:    gained,
			Reason:    req.Reason,
			Timestamp: now,
		})
	} else {
		pending = e.batch.Pending(req.UserID, req.GuildID)
	}
	e.granted.Add(1)

	before := committed + pending
	oldLevel := leveling.LevelFor(before)
	newLevel := leveling.LevelFor(before + gained)

	return &GainResult{
		Gained:     gained,
		LevelUp:    newLevel > oldLevel,
		NewLevel:   newLevel,
		Multiplier: multiplier,
	}, nil
}

// thaw clears a freeze whose end time has passed.
func (e *Engine) thaw(ctx context.Context, member *Member) (*Member, error) {
	if err := e.store.UnfreezeMember(ctx, member.UserID, member.GuildID); err != nil {
		return nil, fmt.Errorf("failed to lift expired freeze: %w", err)
	}
	e.stats.InvalidateMember(member.UserID, member.GuildID)
	slog.Info("Expired XP freeze lifted",
		slog.String("type", "xp"),
		slog.String("user_id", member.UserID),
		slog.String("guild_id", member.GuildID))

	thawed := *member
	thawed.Frozen = false
	thawed.FrozenUntil = nil
	thawed.FrozenBy = ""
	return &thawed, nil
}

func (e *Engine) reject(req GainRequest, reason RejectReason) {
	switch reason {
	case RejectDisabled:
		e.rejectedDisabled.Add(1)
	case RejectFrozen:
		e.rejectedFrozen.Add(1)
	case RejectCooldown:
		e.rejectedCooldown.Add(1)
	}
	slog.Debug("XP grant rejected",
		slog.String("type", "xp"),
		slog.String("user_id", req.UserID),
		slog.String("guild_id", req.GuildID),
		slog.String("reason", string(reason)))
}

// afterFlush runs once a batch is committed: cached reads of the touched
// members go stale and crossed levels become events.
func (e *Engine) afterFlush(ctx context.Context, groups []GrantGroup, totals []MemberTotal) {
	sums := make(map[memberKey]int64, len(groups))
	guilds := make(map[string]struct{})
	for _, g := range groups {
		sums[memberKey{UserID: g.UserID, GuildID: g.GuildID}] = g.Amount
		e.stats.InvalidateMember(g.UserID, g.GuildID)
		guilds[g.GuildID] = struct{}{}
	}
	for guildID := range guilds {
		e.stats.InvalidateLeaderboards(guildID)
	}

	for _, total := range totals {
		sum := sums[memberKey{UserID: total.UserID, GuildID: total.GuildID}]
		oldLevel := leveling.LevelFor(total.XP - sum)
		newLevel := leveling.LevelFor(total.XP)
		if newLevel <= oldLevel {
			continue
		}

		events := e.notifier.Notify(total.UserID, total.GuildID, oldLevel, newLevel)
		slog.Info("Member leveled up",
			slog.String("type", "xp"),
			slog.String("user_id", total.UserID),
			slog.String("guild_id", total.GuildID),
			slog.Int("old_level", oldLevel),
			slog.Int("new_level", newLevel))
		e.grantBonuses(ctx, events)
	}
}

func (e *Engine) grantBonuses(ctx context.Context, events []LevelUpEvent) {
	for _, event := range events {
		for _, reward := range event.Rewards {
			if reward.XPBonus <= 0 {
				continue
			}
			bonus := reward.XPBonus
			_, err := e.GainXP(ctx, GainRequest{
				UserID:  event.UserID,
				GuildID: event.GuildID,
				Reason:  ReasonBonus,
				Amount:  &bonus,
			})
			if err != nil {
				slog.Warn("Failed to grant level reward bonus",
					slog.String("type", "xp"),
					slog.String("user_id", event.UserID),
					slog.Int("level", event.NewLevel),
					slog.Any("error", err))
			}
		}
	}
}

// Flush writes whatever is buffered right now.
func (e *Engine) Flush(ctx context.Context) error {
	return e.batch.Flush(ctx)
}

// RunFlusher drives the batch writer until ctx is done.
func (e *Engine) RunFlusher(ctx context.Context) error {
	return e.batch.Run(ctx)
}

// RunMaintenance periodically purges cooldowns, expired multipliers and stale
// cache entries.
func (e *Engine) RunMaintenance(ctx context.Context) error {
	ticker := time.NewTicker(orDefault(e.cfg.SweepInterval, DefaultSweepInterval))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.sweep()
		}
	}
}

func (e *Engine) sweep() {
	cooldowns := e.cooldowns.Purge()
	multipliers := e.multipliers.Sweep()
	cached := e.stats.Sweep() + e.settings.cache.Sweep()
	slog.Debug("XP maintenance sweep",
		slog.String("type", "xp"),
		slog.Int("cooldowns", cooldowns),
		slog.Int("multipliers", multipliers),
		slog.Int("cache_entries", cached))
}

func (e *Engine) Notifier() *LevelUpNotifier {
	return e.notifier
}

func (e *Engine) GetUserStats(ctx context.Context, userID, guildID string) (*UserStats, error) {
	return e.stats.UserStats(ctx, userID, guildID)
}

func (e *Engine) GetLeaderboard(ctx context.Context, guildID string, limit int, monthly bool) ([]LeaderboardEntry, error) {
	return e.stats.Leaderboard(ctx, guildID, limit, monthly)
}

// CooldownRemaining reports how long until the member can earn message XP.
func (e *Engine) CooldownRemaining(ctx context.Context, userID, guildID string) (time.Duration, error) {
	settings, err := e.settings.Get(ctx, guildID)
	if err != nil {
		return 0, err
	}
	return e.cooldowns.Remaining(userID, guildID, settings.Cooldown), nil
}

// InvalidateGuild drops every cached read of the guild.
func (e *Engine) InvalidateGuild(guildID string) {
	e.stats.InvalidateGuild(guildID)
}
