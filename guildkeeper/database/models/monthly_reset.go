package models

import (
	"time"

	"github.com/uptrace/bun"
)

type MonthlyReset struct {
	bun.BaseModel `bun:"table:monthly_resets,alias:mr"`

	ID        int64     `bun:"id,pk,autoincrement"`
	GuildID   string    `bun:"guild_id,notnull,type:varchar(20)"`
	UserCount int       `bun:"user_count,notnull"`
	ResetDate time.Time `bun:"reset_date,notnull"`
}
