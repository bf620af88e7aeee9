package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/guildkeeper/guildkeeper/guildkeeper/config"
	"github.com/guildkeeper/guildkeeper/guildkeeper/xp"
)

// Querier is satisfied by *pgxpool.Pool and pgxmock pools.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var memberColumns = []string{
	"user_id", "guild_id", "username", "xp", "level", "total_xp", "monthly_xp",
	"frozen", "frozen_until", "COALESCE(frozen_by, '')", "last_message", "last_reset", "created_at",
}

// ReadRepository serves the hot read path straight from the pgx pool.
type ReadRepository struct {
	q       Querier
	timeout time.Duration
}

func NewReadRepository(q Querier) *ReadRepository {
	return &ReadRepository{q: q, timeout: config.DefaultQueryTimeout}
}

func boardColumn(monthly bool) string {
	if monthly {
		return "monthly_xp"
	}
	return "xp"
}

func scanMember(row pgx.Row) (*xp.Member, error) {
	var m xp.Member
	err := row.Scan(
		&m.UserID, &m.GuildID, &m.Username, &m.XP, &m.Level, &m.TotalXP, &m.MonthlyXP,
		&m.Frozen, &m.FrozenUntil, &m.FrozenBy, &m.LastMessage, &m.LastReset, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *ReadRepository) GetMember(ctx context.Context, userID, guildID string) (*xp.Member, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query, args, err := psql.Select(memberColumns...).
		From("member_xp").
		Where(sq.Eq{"user_id": userID}).
		Where(sq.Eq{"guild_id": guildID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build member query: %w", err)
	}

	m, err := scanMember(r.q.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, handleError("get", entityMember, userID, err)
	}
	return m, nil
}

// CountMembersAbove counts members of the guild strictly ahead of score on
// the chosen board.
func (r *ReadRepository) CountMembersAbove(ctx context.Context, guildID string, score int64, monthly bool) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query, args, err := psql.Select("COUNT(*)").
		From("member_xp").
		Where(sq.Eq{"guild_id": guildID}).
		Where(sq.Gt{boardColumn(monthly): score}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build rank query: %w", err)
	}

	var count int
	if err := r.q.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, handleError("count_above", entityMember, guildID, err)
	}
	return count, nil
}

// TopMembers returns at most limit members with positive XP on the board,
// ties broken by join order then user ID.
func (r *ReadRepository) TopMembers(ctx context.Context, guildID string, limit int, monthly bool) ([]xp.Member, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	col := boardColumn(monthly)
	query, args, err := psql.Select(memberColumns...).
		From("member_xp").
		Where(sq.Eq{"guild_id": guildID}).
		Where(sq.Gt{col: 0}).
		OrderBy(col+" DESC", "created_at ASC", "user_id ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build leaderboard query: %w", err)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, handleError("top", entityMember, guildID, err)
	}
	defer rows.Close()

	members := make([]xp.Member, 0, limit)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, handleError("top", entityMember, guildID, err)
		}
		members = append(members, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, handleError("top", entityMember, guildID, err)
	}
	return members, nil
}

func (r *ReadRepository) GetGuildSettings(ctx context.Context, guildID string) (*xp.GuildSettings, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query, args, err := psql.Select("guild_id", "xp_enabled", "xp_min", "xp_max", "xp_cooldown", "xp_rate", "updated_at").
		From("guild_settings").
		Where(sq.Eq{"guild_id": guildID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build settings query: %w", err)
	}

	var (
		s          xp.GuildSettings
		cooldownMS int64
	)
	err = r.q.QueryRow(ctx, query, args...).Scan(&s.GuildID, &s.Enabled, &s.XPMin, &s.XPMax, &cooldownMS, &s.XPRate, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, handleError("get", entitySettings, guildID, err)
	}
	s.Cooldown = time.Duration(cooldownMS) * time.Millisecond
	return &s, nil
}

// ListGuildIDs returns every guild that has at least one member row.
func (r *ReadRepository) ListGuildIDs(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query, args, err := psql.Select("DISTINCT guild_id").From("member_xp").OrderBy("guild_id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build guild list query: %w", err)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, handleError("list_guilds", entityMember, nil, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, handleError("list_guilds", entityMember, nil, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// LastMonthlyReset returns nil when the guild was never reset.
func (r *ReadRepository) LastMonthlyReset(ctx context.Context, guildID string) (*time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query, args, err := psql.Select("MAX(reset_date)").
		From("monthly_resets").
		Where(sq.Eq{"guild_id": guildID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build last reset query: %w", err)
	}

	var last *time.Time
	if err := r.q.QueryRow(ctx, query, args...).Scan(&last); err != nil {
		return nil, handleError("last_reset", entityReset, guildID, err)
	}
	return last, nil
}

// CountStaleMonthly counts members still carrying monthly XP from a period
// that started before the cutoff.
func (r *ReadRepository) CountStaleMonthly(ctx context.Context, guildID string, before time.Time) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query, args, err := psql.Select("COUNT(*)").
		From("member_xp").
		Where(sq.Eq{"guild_id": guildID}).
		Where(sq.Gt{"monthly_xp": 0}).
		Where(sq.Or{sq.Eq{"last_reset": nil}, sq.Lt{"last_reset": before}}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build stale monthly query: %w", err)
	}

	var count int
	if err := r.q.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, handleError("count_stale", entityMember, guildID, err)
	}
	return count, nil
}

func (r *ReadRepository) ResetHistory(ctx context.Context, guildID string, limit int) ([]xp.MonthlyReset, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query, args, err := psql.Select("guild_id", "user_count", "reset_date").
		From("monthly_resets").
		Where(sq.Eq{"guild_id": guildID}).
		OrderBy("reset_date DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build reset history query: %w", err)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, handleError("history", entityReset, guildID, err)
	}
	defer rows.Close()

	var history []xp.MonthlyReset
	for rows.Next() {
		var h xp.MonthlyReset
		if err := rows.Scan(&h.GuildID, &h.UserCount, &h.ResetDate); err != nil {
			return nil, handleError("history", entityReset, guildID, err)
		}
		history = append(history, h)
	}
	return history, rows.Err()
}
