package models

import (
	"time"

	"github.com/uptrace/bun"
)

// GuildSettings stores the XP configuration of a guild. XPCooldown is in milliseconds.
type GuildSettings struct {
	bun.BaseModel `bun:"table:guild_settings,alias:gs"`

	GuildID    string    `bun:"guild_id,pk,type:varchar(20)"`
	XPEnabled  bool      `bun:"xp_enabled,notnull"`
	XPMin      int64     `bun:"xp_min,notnull"`
	XPMax      int64     `bun:"xp_max,notnull"`
	XPCooldown int64     `bun:"xp_cooldown,notnull"`
	XPRate     float64   `bun:"xp_rate,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt  time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}
