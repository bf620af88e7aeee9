package xp

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/guildkeeper/guildkeeper/guildkeeper/leveling"
)

const (
	DefaultMemberTTL      = 5 * time.Minute
	DefaultStatsTTL       = 5 * time.Minute
	DefaultRankTTL        = 5 * time.Minute
	DefaultLeaderboardTTL = 3 * time.Minute
	MaxLeaderboardLimit   = 100
)

// MemberReader is the read side StatsService needs.
type MemberReader interface {
	GetMember(ctx context.Context, userID, guildID string) (*Member, error)
	CountMembersAbove(ctx context.Context, guildID string, xp int64, monthly bool) (int, error)
	TopMembers(ctx context.Context, guildID string, limit int, monthly bool) ([]Member, error)
}

type rankKey struct {
	UserID  string
	GuildID string
	Monthly bool
}

type boardKey struct {
	GuildID string
	Monthly bool
	Limit   int
}

type CacheSizes struct {
	Members      int `json:"members"`
	UserStats    int `json:"user_stats"`
	Ranks        int `json:"ranks"`
	Leaderboards int `json:"leaderboards"`
	Settings     int `json:"settings"`
}

// StatsService answers stats and leaderboard reads through TTL caches.
type StatsService struct {
	reader  MemberReader
	members *ttlCache[memberKey, *Member]
	stats   *ttlCache[memberKey, UserStats]
	ranks   *ttlCache[rankKey, int]
	boards  *ttlCache[boardKey, []LeaderboardEntry]
}

type StatsTTLs struct {
	Member      time.Duration
	Stats       time.Duration
	Rank        time.Duration
	Leaderboard time.Duration
}

func NewStatsService(reader MemberReader, size int, ttls StatsTTLs, now func() time.Time) *StatsService {
	return &StatsService{
		reader:  reader,
		members: newTTLCache[memberKey, *Member](size, orDefault(ttls.Member, DefaultMemberTTL), now),
		stats:   newTTLCache[memberKey, UserStats](size, orDefault(ttls.Stats, DefaultStatsTTL), now),
		ranks:   newTTLCache[rankKey, int](size, orDefault(ttls.Rank, DefaultRankTTL), now),
		boards:  newTTLCache[boardKey, []LeaderboardEntry](size, orDefault(ttls.Leaderboard, DefaultLeaderboardTTL), now),
	}
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

// Member returns the committed projection, nil when the member was never
// stored. Misses are cached too.
func (s *StatsService) Member(ctx context.Context, userID, guildID string) (*Member, error) {
	key := memberKey{UserID: userID, GuildID: guildID}
	if m, ok := s.members.Get(key); ok {
		return m, nil
	}
	m, err := s.reader.GetMember(ctx, userID, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to read member %s in guild %s: %w", userID, guildID, err)
	}
	s.members.Set(key, m)
	return m, nil
}

// UserStats returns nil, nil for members with no stored record.
func (s *StatsService) UserStats(ctx context.Context, userID, guildID string) (*UserStats, error) {
	key := memberKey{UserID: userID, GuildID: guildID}
	if cached, ok := s.stats.Get(key); ok {
		return &cached, nil
	}

	m, err := s.Member(ctx, userID, guildID)
	if err != nil || m == nil {
		return nil, err
	}

	var rank, monthlyRank int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rank, err = s.rank(gctx, m, false)
		return err
	})
	g.Go(func() error {
		var err error
		monthlyRank, err = s.rank(gctx, m, true)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := UserStats{
		UserID:      m.UserID,
		GuildID:     m.GuildID,
		Username:    DisplayName(m.UserID, m.Username),
		XP:          m.XP,
		Level:       leveling.LevelFor(m.XP),
		TotalXP:     m.TotalXP,
		MonthlyXP:   m.MonthlyXP,
		Rank:        rank,
		MonthlyRank: monthlyRank,
		Frozen:      m.Frozen,
		FrozenUntil: m.FrozenUntil,
	}
	s.stats.Set(key, stats)
	return &stats, nil
}

func (s *StatsService) rank(ctx context.Context, m *Member, monthly bool) (int, error) {
	key := rankKey{UserID: m.UserID, GuildID: m.GuildID, Monthly: monthly}
	if r, ok := s.ranks.Get(key); ok {
		return r, nil
	}
	score := m.XP
	if monthly {
		score = m.MonthlyXP
	}
	above, err := s.reader.CountMembersAbove(ctx, m.GuildID, score, monthly)
	if err != nil {
		return 0, fmt.Errorf("failed to rank member %s: %w", m.UserID, err)
	}
	s.ranks.Set(key, above+1)
	return above + 1, nil
}

// Leaderboard returns up to limit members ordered by XP descending. Members
// with no XP on the chosen board are left out.
func (s *StatsService) Leaderboard(ctx context.Context, guildID string, limit int, monthly bool) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}
	key := boardKey{GuildID: guildID, Monthly: monthly, Limit: limit}
	if cached, ok := s.boards.Get(key); ok {
		return cached, nil
	}

	members, err := s.reader.TopMembers(ctx, guildID, limit, monthly)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard for guild %s: %w", guildID, err)
	}

	entries := make([]LeaderboardEntry, 0, len(members))
	for _, m := range members {
		score := m.XP
		if monthly {
			score = m.MonthlyXP
		}
		if score <= 0 {
			continue
		}
		entries = append(entries, LeaderboardEntry{
			Rank:     len(entries) + 1,
			UserID:   m.UserID,
			Username: DisplayName(m.UserID, m.Username),
			XP:       score,
			Level:    leveling.LevelFor(m.XP),
		})
	}
	s.boards.Set(key, entries)
	return entries, nil
}

// InvalidateMember drops everything cached about one member.
func (s *StatsService) InvalidateMember(userID, guildID string) {
	key := memberKey{UserID: userID, GuildID: guildID}
	s.members.Delete(key)
	s.stats.Delete(key)
	s.ranks.Delete(rankKey{UserID: userID, GuildID: guildID, Monthly: false})
	s.ranks.Delete(rankKey{UserID: userID, GuildID: guildID, Monthly: true})
}

// InvalidateLeaderboards drops every cached board of the guild.
func (s *StatsService) InvalidateLeaderboards(guildID string) {
	s.boards.DeleteFunc(func(k boardKey) bool { return k.GuildID == guildID })
}

// InvalidateGuild drops every member and leaderboard entry of the guild.
func (s *StatsService) InvalidateGuild(guildID string) {
	inGuild := func(k memberKey) bool { return k.GuildID == guildID }
	s.members.DeleteFunc(inGuild)
	s.stats.DeleteFunc(inGuild)
	s.ranks.DeleteFunc(func(k rankKey) bool { return k.GuildID == guildID })
	s.InvalidateLeaderboards(guildID)
}

func (s *StatsService) Sweep() int {
	return s.members.Sweep() + s.stats.Sweep() + s.ranks.Sweep() + s.boards.Sweep()
}

func (s *StatsService) Sizes() CacheSizes {
	return CacheSizes{
		Members:      s.members.Len(),
		UserStats:    s.stats.Len(),
		Ranks:        s.ranks.Len(),
		Leaderboards: s.boards.Len(),
	}
}

// DisplayName falls back to "User#<last four of id>" when no username was
// ever recorded.
func DisplayName(userID, username string) string {
	if username != "" {
		return username
	}
	suffix := userID
	if len(suffix) > 4 {
		suffix = suffix[len(suffix)-4:]
	}
	return "User#" + suffix
}
