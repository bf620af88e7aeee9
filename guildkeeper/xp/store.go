package xp

import (
	"context"
	"time"
)

//go:generate mockgen -source=store.go -destination=mock/store.go -package=mock

// Store is the durable side of the engine. Every method may be called from
// several goroutines at once.
type Store interface {
	// GetGuildSettings returns nil, nil when the guild has no settings row.
	GetGuildSettings(ctx context.Context, guildID string) (*GuildSettings, error)
	UpsertGuildSettings(ctx context.Context, settings GuildSettings) error

	// GetMember returns nil, nil when the member has never been stored.
	GetMember(ctx context.Context, userID, guildID string) (*Member, error)
	EnsureMember(ctx context.Context, userID, guildID, username string) (*Member, error)
	CountMembersAbove(ctx context.Context, guildID string, score int64, monthly bool) (int, error)
	TopMembers(ctx context.Context, guildID string, limit int, monthly bool) ([]Member, error)

	// ApplyGrants writes a whole batch atomically and returns the new XP of
	// every group.
	ApplyGrants(ctx context.Context, batch FlushBatch) ([]MemberTotal, error)

	FreezeMember(ctx context.Context, userID, guildID, frozenBy string, until *time.Time) error
	UnfreezeMember(ctx context.Context, userID, guildID string) error
	ResetMember(ctx context.Context, userID, guildID string, total bool, at time.Time) error
	ResetGuild(ctx context.Context, guildID string, monthly bool, at time.Time) (int, error)

	LoadMultipliers(ctx context.Context, now time.Time) ([]Multiplier, error)
	SaveMultiplier(ctx context.Context, multiplier Multiplier) error
	DeleteMultipliers(ctx context.Context, guildID string, typ MultiplierType, identifier string) (int, error)

	LoadLevelRewards(ctx context.Context) ([]LevelReward, error)
	UpsertLevelReward(ctx context.Context, reward LevelReward) error
}

// ResetStore backs the monthly reset cycle.
type ResetStore interface {
	ListGuildIDs(ctx context.Context) ([]string, error)
	LastMonthlyReset(ctx context.Context, guildID string) (*time.Time, error)
	CountStaleMonthly(ctx context.Context, guildID string, before time.Time) (int, error)
	ResetGuild(ctx context.Context, guildID string, monthly bool, at time.Time) (int, error)
	ResetHistory(ctx context.Context, guildID string, limit int) ([]MonthlyReset, error)
}
