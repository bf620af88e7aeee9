package models

import (
	"time"

	"github.com/uptrace/bun"
)

type XPHistory struct {
	bun.BaseModel `bun:"table:xp_history,alias:xh"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    string    `bun:"user_id,notnull,type:varchar(20)"`
	GuildID   string    `bun:"guild_id,notnull,type:varchar(20)"`
	XPGained  int64     `bun:"xp_gained,notnull"`
	Reason    string    `bun:"reason,notnull,type:varchar(16)"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
