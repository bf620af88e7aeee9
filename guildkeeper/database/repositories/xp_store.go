package repositories

import (
	"github.com/uptrace/bun"

	"github.com/guildkeeper/guildkeeper/guildkeeper/xp"
)

var (
	_ xp.Store      = (*XPStore)(nil)
	_ xp.ResetStore = (*XPStore)(nil)
)

// XPStore is the Postgres backing of the XP engine: reads go through pgx,
// writes through bun.
type XPStore struct {
	*ReadRepository
	MemberRepository
	ConfigRepository
}

func NewXPStore(pool Querier, db *bun.DB) *XPStore {
	return &XPStore{
		ReadRepository:   NewReadRepository(pool),
		MemberRepository: NewMemberRepository(db),
		ConfigRepository: NewConfigRepository(db),
	}
}
