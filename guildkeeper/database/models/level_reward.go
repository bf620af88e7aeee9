package models

import (
	"time"

	"github.com/uptrace/bun"
)

type LevelReward struct {
	bun.BaseModel `bun:"table:level_rewards,alias:lr"`

	ID           int64     `bun:"id,pk,autoincrement"`
	GuildID      string    `bun:"guild_id,notnull,type:varchar(20),unique:level_rewards_guild_level"`
	Level        int       `bun:"level,notnull,unique:level_rewards_guild_level"`
	RoleID       string    `bun:"role_id,nullzero,type:varchar(20)"`
	XPBonus      int64     `bun:"xp_bonus,notnull,default:0"`
	Announcement string    `bun:"announcement,nullzero"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
