package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/bun"

	"github.com/guildkeeper/guildkeeper/guildkeeper/database/models"
	"github.com/guildkeeper/guildkeeper/guildkeeper/leveling"
	"github.com/guildkeeper/guildkeeper/guildkeeper/xp"
)

// MemberRepository owns every write to member_xp, xp_history and monthly_resets.
type MemberRepository interface {
	ApplyGrants(ctx context.Context, batch xp.FlushBatch) ([]xp.MemberTotal, error)
	EnsureMember(ctx context.Context, userID, guildID, username string) (*xp.Member, error)
	FreezeMember(ctx context.Context, userID, guildID, frozenBy string, until *time.Time) error
	UnfreezeMember(ctx context.Context, userID, guildID string) error
	ResetMember(ctx context.Context, userID, guildID string, total bool, at time.Time) error
	ResetGuild(ctx context.Context, guildID string, monthly bool, at time.Time) (int, error)
}

type memberRepository struct {
	*BaseRepository
}

func NewMemberRepository(db *bun.DB) MemberRepository {
	return &memberRepository{BaseRepository: NewBaseRepository(db)}
}

type memberTotalRow struct {
	UserID  string `bun:"user_id"`
	GuildID string `bun:"guild_id"`
	XP      int64  `bun:"xp"`
}

func (r *memberRepository) ApplyGrants(ctx context.Context, batch xp.FlushBatch) ([]xp.MemberTotal, error) {
	if len(batch.Groups) == 0 {
		return nil, nil
	}

	rows := grantRows(batch.Groups, time.Now())

	history := make([]models.XPHistory, 0, len(batch.History))
	for _, h := range batch.History {
		history = append(history, models.XPHistory{
			UserID:    h.UserID,
			GuildID:   h.GuildID,
			XPGained:  h.Amount,
			Reason:    string(h.Reason),
			CreatedAt: h.Timestamp,
		})
	}

	var returned []memberTotalRow
	err := r.Transaction(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := upsertGrantsQuery(tx, &rows).Scan(ctx, &returned); err != nil {
			return fmt.Errorf("failed to upsert member xp: %w", err)
		}

		if len(history) > 0 {
			if _, err := tx.NewInsert().Model(&history).Exec(ctx); err != nil {
				return fmt.Errorf("failed to insert xp history: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, r.HandleError("apply_grants", entityMember, err)
	}

	totals := make([]xp.MemberTotal, 0, len(returned))
	for _, row := range returned {
		totals = append(totals, xp.MemberTotal{UserID: row.UserID, GuildID: row.GuildID, XP: row.XP})
	}

	slog.Debug("Applied XP batch",
		slog.String("type", "db"),
		slog.Int("members", len(rows)),
		slog.Int("history_rows", len(history)))
	return totals, nil
}

func (r *memberRepository) EnsureMember(ctx context.Context, userID, guildID, username string) (*xp.Member, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	now := time.Now()
	row := &models.MemberXP{
		UserID:    userID,
		GuildID:   guildID,
		Username:  username,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := r.db.NewInsert().
		Model(row).
		On("CONFLICT (user_id, guild_id) DO UPDATE").
		Set("username = EXCLUDED.username").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("ensure", entityMember, userID, err)
	}
	return toMember(row), nil
}

// FreezeMember creates the row when the member has never earned, so a
// freeze applies from the first message on.
func (r *memberRepository) FreezeMember(ctx context.Context, userID, guildID, frozenBy string, until *time.Time) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	now := time.Now()
	row := &models.MemberXP{
		UserID:      userID,
		GuildID:     guildID,
		Frozen:      true,
		FrozenUntil: until,
		FrozenBy:    frozenBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := freezeMemberQuery(r.db, row).Exec(ctx)
	return r.HandleErrorWithID("freeze", entityMember, userID, err)
}

func (r *memberRepository) UnfreezeMember(ctx context.Context, userID, guildID string) error {
	result, err := r.ExecWithTimeout(ctx, "unfreeze", entityMember, func(ctx context.Context) (sql.Result, error) {
		return r.db.NewUpdate().
			Model((*models.MemberXP)(nil)).
			Set("frozen = false").
			Set("frozen_until = NULL").
			Set("frozen_by = NULL").
			Set("updated_at = ?", time.Now()).
			Where("user_id = ? AND guild_id = ?", userID, guildID).
			Exec(ctx)
	})
	if err != nil {
		return err
	}
	return requireAffected(result, entityMember, userID)
}

// ResetMember zeroes the current XP, level and monthly XP. With total the
// lifetime total is zeroed too and last_reset is stamped.
func (r *memberRepository) ResetMember(ctx context.Context, userID, guildID string, total bool, at time.Time) error {
	result, err := r.ExecWithTimeout(ctx, "reset_member", entityMember, func(ctx context.Context) (sql.Result, error) {
		return resetMemberQuery(r.db, userID, guildID, total, at).Exec(ctx)
	})
	if err != nil {
		return err
	}
	return requireAffected(result, entityMember, userID)
}

// ResetGuild zeroes the monthly board or the current XP of every member in
// the guild. A monthly reset is logged in monthly_resets in the same
// transaction.
func (r *memberRepository) ResetGuild(ctx context.Context, guildID string, monthly bool, at time.Time) (int, error) {
	var affected int64
	err := r.Transaction(ctx, func(ctx context.Context, tx bun.Tx) error {
		result, err := resetGuildQuery(tx, guildID, monthly, at).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to reset members: %w", err)
		}
		if affected, err = result.RowsAffected(); err != nil {
			return err
		}

		if !monthly {
			return nil
		}
		entry := &models.MonthlyReset{GuildID: guildID, UserCount: int(affected), ResetDate: at}
		if _, err := monthlyResetLogQuery(tx, entry).Exec(ctx); err != nil {
			return fmt.Errorf("failed to log monthly reset: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, r.HandleErrorWithID("reset_guild", entityMember, guildID, err)
	}
	return int(affected), nil
}

// grantRows turns grouped grants into insert rows. A member's first row
// carries the level of its opening grant; existing rows are recomputed by
// the upsert.
func grantRows(groups []xp.GrantGroup, now time.Time) []models.MemberXP {
	rows := make([]models.MemberXP, 0, len(groups))
	for _, g := range groups {
		last := g.LastMessage
		rows = append(rows, models.MemberXP{
			UserID:      g.UserID,
			GuildID:     g.GuildID,
			Username:    g.Username,
			XP:          g.Amount,
			Level:       leveling.LevelFor(g.Amount),
			TotalXP:     g.Amount,
			MonthlyXP:   g.Amount,
			LastMessage: &last,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	return rows
}

// upsertGrantsQuery increments the three XP counters and recomputes the
// level from the new xp inside the same statement.
func upsertGrantsQuery(db bun.IDB, rows *[]models.MemberXP) *bun.InsertQuery {
	return db.NewInsert().
		Model(rows).
		On("CONFLICT (user_id, guild_id) DO UPDATE").
		Set("xp = mx.xp + EXCLUDED.xp").
		Set("total_xp = mx.total_xp + EXCLUDED.total_xp").
		Set("monthly_xp = mx.monthly_xp + EXCLUDED.monthly_xp").
		Set("level = FLOOR(SQRT((mx.xp + EXCLUDED.xp) / ?))::int", float64(leveling.XPPerLevelUnit)).
		Set("last_message = EXCLUDED.last_message").
		Set("username = CASE WHEN EXCLUDED.username = '' THEN mx.username ELSE EXCLUDED.username END").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("user_id, guild_id, xp")
}

func freezeMemberQuery(db bun.IDB, row *models.MemberXP) *bun.InsertQuery {
	return db.NewInsert().
		Model(row).
		On("CONFLICT (user_id, guild_id) DO UPDATE").
		Set("frozen = EXCLUDED.frozen").
		Set("frozen_until = EXCLUDED.frozen_until").
		Set("frozen_by = EXCLUDED.frozen_by").
		Set("updated_at = EXCLUDED.updated_at")
}

// resetMemberQuery leaves total_xp alone unless total is set.
func resetMemberQuery(db bun.IDB, userID, guildID string, total bool, at time.Time) *bun.UpdateQuery {
	q := db.NewUpdate().
		Model((*models.MemberXP)(nil)).
		Set("xp = 0").
		Set("level = 0").
		Set("monthly_xp = 0").
		Set("updated_at = ?", at)
	if total {
		q = q.Set("total_xp = 0").Set("last_reset = ?", at)
	}
	return q.Where("user_id = ? AND guild_id = ?", userID, guildID)
}

func resetGuildQuery(db bun.IDB, guildID string, monthly bool, at time.Time) *bun.UpdateQuery {
	q := db.NewUpdate().
		Model((*models.MemberXP)(nil)).
		Set("monthly_xp = 0").
		Set("updated_at = ?", at).
		Where("guild_id = ?", guildID)
	if monthly {
		return q.Set("last_reset = ?", at)
	}
	return q.Set("xp = 0").Set("level = 0")
}

func monthlyResetLogQuery(db bun.IDB, entry *models.MonthlyReset) *bun.InsertQuery {
	return db.NewInsert().Model(entry)
}

func toMember(row *models.MemberXP) *xp.Member {
	return &xp.Member{
		UserID:      row.UserID,
		GuildID:     row.GuildID,
		Username:    row.Username,
		XP:          row.XP,
		Level:       row.Level,
		TotalXP:     row.TotalXP,
		MonthlyXP:   row.MonthlyXP,
		Frozen:      row.Frozen,
		FrozenUntil: row.FrozenUntil,
		FrozenBy:    row.FrozenBy,
		LastMessage: row.LastMessage,
		LastReset:   row.LastReset,
		CreatedAt:   row.CreatedAt,
	}
}
