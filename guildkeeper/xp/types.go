package xp

import (
	"errors"
	"time"
)

// Reason tags where a grant came from.
type Reason string

const (
	ReasonMessage Reason = "message"
	ReasonVoice   Reason = "voice"
	ReasonBonus   Reason = "bonus"
	ReasonAdmin   Reason = "admin"
)

func (r Reason) Valid() bool {
	switch r {
	case ReasonMessage, ReasonVoice, ReasonBonus, ReasonAdmin:
		return true
	}
	return false
}

// RejectReason explains why GainXP returned no result.
type RejectReason string

const (
	RejectDisabled RejectReason = "disabled"
	RejectFrozen   RejectReason = "frozen"
	RejectCooldown RejectReason = "cooldown"
)

var (
	ErrMemberNotFound    = errors.New("member not found")
	ErrInvalidSettings   = errors.New("invalid guild settings")
	ErrInvalidMultiplier = errors.New("invalid multiplier")
	ErrInvalidReward     = errors.New("invalid level reward")
	ErrInvalidGrant      = errors.New("invalid grant")
)

// ActivityContext carries the hints multipliers match against.
type ActivityContext struct {
	RoleIDs   []string
	ChannelID string
	Booster   bool
}

type GainRequest struct {
	UserID   string
	GuildID  string
	Username string
	Reason   Reason
	// Amount overrides the random base roll when set.
	Amount  *int64
	Context ActivityContext
}

type GainResult struct {
	Gained     int64
	LevelUp    bool
	NewLevel   int
	Multiplier float64
}

// Grant is one accepted XP award waiting to be written.
type Grant struct {
	UserID    string
	GuildID   string
	Username  string
	Amount    int64
	Reason    Reason
	Timestamp time.Time
}

type memberKey struct {
	UserID  string
	GuildID string
}

// GrantGroup is the per-member sum of a flushed batch.
type GrantGroup struct {
	UserID      string
	GuildID     string
	Username    string
	Amount      int64
	LastMessage time.Time
}

// FlushBatch is what a single flush writes: one upsert per group and one
// history row per grant in arrival order.
type FlushBatch struct {
	Groups  []GrantGroup
	History []Grant
}

// MemberTotal is the post-write XP total of one flushed group.
type MemberTotal struct {
	UserID  string
	GuildID string
	XP      int64
}

// Member is the per (user, guild) XP projection.
type Member struct {
	UserID      string
	GuildID     string
	Username    string
	XP          int64
	Level       int
	TotalXP     int64
	MonthlyXP   int64
	Frozen      bool
	FrozenUntil *time.Time
	FrozenBy    string
	LastMessage *time.Time
	LastReset   *time.Time
	CreatedAt   time.Time
}

// FrozenAt reports whether the freeze still holds at now.
func (m *Member) FrozenAt(now time.Time) bool {
	if m == nil || !m.Frozen {
		return false
	}
	return m.FrozenUntil == nil || m.FrozenUntil.After(now)
}

type GuildSettings struct {
	GuildID   string
	Enabled   bool
	XPMin     int64
	XPMax     int64
	Cooldown  time.Duration
	XPRate    float64
	UpdatedAt time.Time
}

type UserStats struct {
	UserID      string
	GuildID     string
	Username    string
	XP          int64
	Level       int
	TotalXP     int64
	MonthlyXP   int64
	Rank        int
	MonthlyRank int
	Frozen      bool
	FrozenUntil *time.Time
}

type LeaderboardEntry struct {
	Rank     int
	UserID   string
	Username string
	XP       int64
	Level    int
}

type LevelReward struct {
	GuildID      string
	Level        int
	RoleID       string
	XPBonus      int64
	Announcement string
}

type LevelUpEvent struct {
	UserID   string
	GuildID  string
	OldLevel int
	NewLevel int
	Rewards  []LevelReward
	At       time.Time
}

type MonthlyReset struct {
	GuildID   string
	UserCount int
	ResetDate time.Time
}
