package models

import (
	"time"

	"github.com/uptrace/bun"
)

// MemberXP is the XP projection of one user inside one guild.
type MemberXP struct {
	bun.BaseModel `bun:"table:member_xp,alias:mx"`

	UserID   string `bun:"user_id,pk,type:varchar(20)"`
	GuildID  string `bun:"guild_id,pk,type:varchar(20)"`
	Username string `bun:"username,notnull,default:''"`

	XP        int64 `bun:"xp,notnull,default:0"`
	Level     int   `bun:"level,notnull,default:0"`
	TotalXP   int64 `bun:"total_xp,notnull,default:0"`
	MonthlyXP int64 `bun:"monthly_xp,notnull,default:0"`

	Frozen      bool       `bun:"frozen,notnull"`
	FrozenUntil *time.Time `bun:"frozen_until,nullzero"`
	FrozenBy    string     `bun:"frozen_by,nullzero,type:varchar(20)"`

	LastMessage *time.Time `bun:"last_message,nullzero"`
	LastReset   *time.Time `bun:"last_reset,nullzero"`
	CreatedAt   time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
}
