package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/guildkeeper/guildkeeper/guildkeeper/database/models"
	"github.com/guildkeeper/guildkeeper/guildkeeper/xp"
)

// ConfigRepository persists per-guild XP configuration: settings,
// multipliers and level rewards.
type ConfigRepository interface {
	UpsertGuildSettings(ctx context.Context, settings xp.GuildSettings) error
	LoadMultipliers(ctx context.Context, now time.Time) ([]xp.Multiplier, error)
	SaveMultiplier(ctx context.Context, multiplier xp.Multiplier) error
	DeleteMultipliers(ctx context.Context, guildID string, typ xp.MultiplierType, identifier string) (int, error)
	LoadLevelRewards(ctx context.Context) ([]xp.LevelReward, error)
	UpsertLevelReward(ctx context.Context, reward xp.LevelReward) error
}

type configRepository struct {
	*BaseRepository
}

func NewConfigRepository(db *bun.DB) ConfigRepository {
	return &configRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *configRepository) UpsertGuildSettings(ctx context.Context, settings xp.GuildSettings) error {
	now := time.Now()
	row := &models.GuildSettings{
		GuildID:    settings.GuildID,
		XPEnabled:  settings.Enabled,
		XPMin:      settings.XPMin,
		XPMax:      settings.XPMax,
		XPCooldown: settings.Cooldown.Milliseconds(),
		XPRate:     settings.XPRate,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	_, err := r.ExecWithTimeout(ctx, "upsert", entitySettings, func(ctx context.Context) (sql.Result, error) {
		return r.db.NewInsert().
			Model(row).
			On("CONFLICT (guild_id) DO UPDATE").
			Set("xp_enabled = EXCLUDED.xp_enabled").
			Set("xp_min = EXCLUDED.xp_min").
			Set("xp_max = EXCLUDED.xp_max").
			Set("xp_cooldown = EXCLUDED.xp_cooldown").
			Set("xp_rate = EXCLUDED.xp_rate").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
	})
	return err
}

// LoadMultipliers returns every multiplier that has not ended by now.
func (r *configRepository) LoadMultipliers(ctx context.Context, now time.Time) ([]xp.Multiplier, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var rows []models.XPMultiplier
	err := r.db.NewSelect().
		Model(&rows).
		Where("end_time IS NULL OR end_time > ?", now).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("load", entityMultiplier, err)
	}

	multipliers := make([]xp.Multiplier, 0, len(rows))
	for _, row := range rows {
		start := row.StartTime
		multipliers = append(multipliers, xp.Multiplier{
			GuildID:    row.GuildID,
			Type:       xp.MultiplierType(row.Type),
			Identifier: row.Identifier,
			Factor:     row.Multiplier,
			StartTime:  &start,
			EndTime:    row.EndTime,
		})
	}
	return multipliers, nil
}

// SaveMultiplier replaces any multiplier of the same type and identifier.
func (r *configRepository) SaveMultiplier(ctx context.Context, multiplier xp.Multiplier) error {
	now := time.Now()
	row := &models.XPMultiplier{
		GuildID:    multiplier.GuildID,
		Type:       string(multiplier.Type),
		Identifier: multiplier.Identifier,
		Multiplier: multiplier.Factor,
		StartTime:  now,
		EndTime:    multiplier.EndTime,
		CreatedAt:  now,
	}
	if multiplier.StartTime != nil {
		row.StartTime = *multiplier.StartTime
	}

	err := r.Transaction(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*models.XPMultiplier)(nil)).
			Where("guild_id = ? AND type = ? AND identifier = ?", row.GuildID, row.Type, row.Identifier).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to replace multiplier: %w", err)
		}
		_, err = tx.NewInsert().Model(row).Exec(ctx)
		return err
	})
	return r.HandleError("save", entityMultiplier, err)
}

func (r *configRepository) DeleteMultipliers(ctx context.Context, guildID string, typ xp.MultiplierType, identifier string) (int, error) {
	result, err := r.ExecWithTimeout(ctx, "delete", entityMultiplier, func(ctx context.Context) (sql.Result, error) {
		return r.db.NewDelete().
			Model((*models.XPMultiplier)(nil)).
			Where("guild_id = ? AND type = ? AND identifier = ?", guildID, string(typ), identifier).
			Exec(ctx)
	})
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, r.HandleError("delete", entityMultiplier, err)
	}
	return int(n), nil
}

func (r *configRepository) LoadLevelRewards(ctx context.Context) ([]xp.LevelReward, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var rows []models.LevelReward
	if err := r.db.NewSelect().Model(&rows).Order("guild_id ASC", "level ASC").Scan(ctx); err != nil {
		return nil, r.HandleError("load", entityReward, err)
	}

	rewards := make([]xp.LevelReward, 0, len(rows))
	for _, row := range rows {
		rewards = append(rewards, xp.LevelReward{
			GuildID:      row.GuildID,
			Level:        row.Level,
			RoleID:       row.RoleID,
			XPBonus:      row.XPBonus,
			Announcement: row.Announcement,
		})
	}
	return rewards, nil
}

func (r *configRepository) UpsertLevelReward(ctx context.Context, reward xp.LevelReward) error {
	row := &models.LevelReward{
		GuildID:      reward.GuildID,
		Level:        reward.Level,
		RoleID:       reward.RoleID,
		XPBonus:      reward.XPBonus,
		Announcement: reward.Announcement,
		CreatedAt:    time.Now(),
	}
	_, err := r.ExecWithTimeout(ctx, "upsert", entityReward, func(ctx context.Context) (sql.Result, error) {
		return r.db.NewInsert().
			Model(row).
			On("CONFLICT (guild_id, level) DO UPDATE").
			Set("role_id = EXCLUDED.role_id").
			Set("xp_bonus = EXCLUDED.xp_bonus").
			Set("announcement = EXCLUDED.announcement").
			Exec(ctx)
	})
	return err
}
