package xp

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// flushBeforeReset lands buffered grants first so a reset is not undone by
// XP that was earned before it. A failed flush aborts the reset.
func (e *Engine) flushBeforeReset(ctx context.Context) error {
	if err := e.batch.Flush(ctx); err != nil {
		return fmt.Errorf("failed to flush before reset: %w", err)
	}
	return nil
}

// SetMultiplier registers a multiplier that starts now. A positive duration
// gives it an end time.
func (e *Engine) SetMultiplier(ctx context.Context, guildID string, typ MultiplierType, identifier string, factor float64, duration time.Duration) error {
	now := e.now()
	m := Multiplier{
		GuildID:    guildID,
		Type:       typ,
		Identifier: identifier,
		Factor:     factor,
		StartTime:  &now,
	}
	if duration > 0 {
		end := now.Add(duration)
		m.EndTime = &end
	}
	if err := e.multipliers.Set(ctx, m); err != nil {
		return err
	}
	slog.Info("XP multiplier set",
		slog.String("type", "xp"),
		slog.String("guild_id", guildID),
		slog.String("multiplier_type", string(typ)),
		slog.String("identifier", identifier),
		slog.Float64("factor", factor),
		slog.Duration("duration", duration))
	return nil
}

func (e *Engine) RemoveMultiplier(ctx context.Context, guildID string, typ MultiplierType, identifier string) (int, error) {
	return e.multipliers.Remove(ctx, guildID, typ, identifier)
}

func (e *Engine) ListMultipliers(guildID string) []Multiplier {
	return e.multipliers.List(guildID)
}

// ResetGuildXP zeroes the monthly board, or every XP field when monthly is
// false, for all members of the guild.
func (e *Engine) ResetGuildXP(ctx context.Context, guildID string, monthly bool) (int, error) {
	if err := e.flushBeforeReset(ctx); err != nil {
		return 0, err
	}

	affected, err := e.store.ResetGuild(ctx, guildID, monthly, e.now())
	if err != nil {
		return 0, fmt.Errorf("failed to reset guild %s: %w", guildID, err)
	}
	e.stats.InvalidateGuild(guildID)

	slog.Info("Guild XP reset",
		slog.String("type", "xp"),
		slog.String("guild_id", guildID),
		slog.Bool("monthly", monthly),
		slog.Int("members", affected))
	return affected, nil
}

// ResetUserXP zeroes xp, level and monthly xp. With total it also zeroes the
// lifetime total.
func (e *Engine) ResetUserXP(ctx context.Context, userID, guildID string, total bool) error {
	if err := e.flushBeforeReset(ctx); err != nil {
		return err
	}

	if err := e.store.ResetMember(ctx, userID, guildID, total, e.now()); err != nil {
		return fmt.Errorf("failed to reset member %s: %w", userID, err)
	}
	e.stats.InvalidateMember(userID, guildID)
	e.stats.InvalidateLeaderboards(guildID)
	return nil
}

// FreezeUser stops the member from earning. A zero duration freezes until
// UnfreezeUser is called.
func (e *Engine) FreezeUser(ctx context.Context, userID, guildID, frozenBy string, duration time.Duration) error {
	var until *time.Time
	if duration > 0 {
		t := e.now().Add(duration)
		until = &t
	}
	if err := e.store.FreezeMember(ctx, userID, guildID, frozenBy, until); err != nil {
		return fmt.Errorf("failed to freeze member %s: %w", userID, err)
	}
	e.stats.InvalidateMember(userID, guildID)

	slog.Info("Member XP frozen",
		slog.String("type", "xp"),
		slog.String("user_id", userID),
		slog.String("guild_id", guildID),
		slog.String("frozen_by", frozenBy),
		slog.Duration("duration", duration))
	return nil
}

func (e *Engine) UnfreezeUser(ctx context.Context, userID, guildID string) error {
	if err := e.store.UnfreezeMember(ctx, userID, guildID); err != nil {
		return fmt.Errorf("failed to unfreeze member %s: %w", userID, err)
	}
	e.stats.InvalidateMember(userID, guildID)
	return nil
}

// SetLevelReward upserts the reward for (guild, level).
func (e *Engine) SetLevelReward(ctx context.Context, reward LevelReward) error {
	return e.rewards.Set(ctx, reward)
}

func (e *Engine) LevelRewards(guildID string, level int) []LevelReward {
	return e.rewards.For(guildID, level)
}

// EnsureUser creates the member row if needed and refreshes the username.
func (e *Engine) EnsureUser(ctx context.Context, userID, guildID, username string) (*Member, error) {
	m, err := e.store.EnsureMember(ctx, userID, guildID, username)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure member %s: %w", userID, err)
	}
	e.stats.InvalidateMember(userID, guildID)
	return m, nil
}

func (e *Engine) GuildSettings(ctx context.Context, guildID string) (GuildSettings, error) {
	return e.settings.Get(ctx, guildID)
}

func (e *Engine) UpdateGuildSettings(ctx context.Context, settings GuildSettings) error {
	if err := e.settings.Update(ctx, settings); err != nil {
		return err
	}
	slog.Info("Guild XP settings updated",
		slog.String("type", "xp"),
		slog.String("guild_id", settings.GuildID),
		slog.Bool("enabled", settings.Enabled),
		slog.Int64("xp_min", settings.XPMin),
		slog.Int64("xp_max", settings.XPMax),
		slog.Duration("cooldown", settings.Cooldown),
		slog.Float64("xp_rate", settings.XPRate))
	return nil
}
