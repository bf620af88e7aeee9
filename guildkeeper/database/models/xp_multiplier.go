package models

import (
	"time"

	"github.com/uptrace/bun"
)

type XPMultiplier struct {
	bun.BaseModel `bun:"table:xp_multipliers,alias:xm"`

	ID         int64      `bun:"id,pk,autoincrement"`
	GuildID    string     `bun:"guild_id,notnull,type:varchar(20)"`
	Type       string     `bun:"type,notnull,type:varchar(16)"`
	Identifier string     `bun:"identifier,notnull"`
	Multiplier float64    `bun:"multiplier,notnull"`
	StartTime  time.Time  `bun:"start_time,notnull,default:current_timestamp"`
	EndTime    *time.Time `bun:"end_time,nullzero"`
	CreatedAt  time.Time  `bun:"created_at,notnull,default:current_timestamp"`
}
