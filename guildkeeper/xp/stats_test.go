package xp_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/guildkeeper/guildkeeper/guildkeeper/xp"
	"github.com/guildkeeper/guildkeeper/guildkeeper/xp/mock"
)

func TestGetUserStats(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock.NewMockStore(ctrl)
	ctx := context.Background()

	store.EXPECT().GetMember(gomock.Any(), "u1", "g1").
		Return(&xp.Member{UserID: "u1", GuildID: "g1", Username: "alice", XP: 500, TotalXP: 900, MonthlyXP: 100}, nil).
		Times(1)
	store.EXPECT().CountMembersAbove(gomock.Any(), "g1", int64(500), false).Return(2, nil).Times(1)
	store.EXPECT().CountMembersAbove(gomock.Any(), "g1", int64(100), true).Return(0, nil).Times(1)

	engine := newEngine(t, store, newTestClock())

	for i := 0; i < 2; i++ {
		stats, err := engine.GetUserStats(ctx, "u1", "g1")
		require.NoError(t, err)
		require.NotNil(t, stats)
		assert.Equal(t, 2, stats.Level)
		assert.Equal(t, 3, stats.Rank)
		assert.Equal(t, 1, stats.MonthlyRank)
		assert.Equal(t, int64(900), stats.TotalXP)
		assert.Equal(t, "alice", stats.Username)
	}
}

func TestGetUserStatsUnknownMember(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock.NewMockStore(ctrl)
	store.EXPECT().GetMember(gomock.Any(), "u1", "g1").Return(nil, nil)

	engine := newEngine(t, store, newTestClock())
	stats, err := engine.GetUserStats(context.Background(), "u1", "g1")
	require.NoError(t, err)
	assert.Nil(t, stats)
}

func TestGetLeaderboard(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock.NewMockStore(ctrl)
	clock := newTestClock()
	ctx := context.Background()

	store.EXPECT().TopMembers(gomock.Any(), "g1", 10, true).Return([]xp.Member{
		{UserID: "100000001234", Username: "", XP: 900, MonthlyXP: 300},
		{UserID: "u2", Username: "bob", XP: 2000, MonthlyXP: 120},
		{UserID: "u3", Username: "carol", XP: 50, MonthlyXP: 0},
	}, nil).Times(1)

	engine := newEngine(t, store, clock)

	entries, err := engine.GetLeaderboard(ctx, "g1", 10, true)
	require.NoError(t, err)
	require.Len(t, entries, 2, "members with no monthly xp are left out")
	assert.Equal(t, xp.LeaderboardEntry{Rank: 1, UserID: "100000001234", Username: "User#1234", XP: 300, Level: 3}, entries[0])
	assert.Equal(t, xp.LeaderboardEntry{Rank: 2, UserID: "u2", Username: "bob", XP: 120, Level: 4}, entries[1])

	cached, err := engine.GetLeaderboard(ctx, "g1", 10, true)
	require.NoError(t, err)
	assert.Equal(t, entries, cached)
	assert.Equal(t, 1, engine.GetSystemMetrics().CacheSizes.Leaderboards)
}

func TestLeaderboardInvalidatedByFlush(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock.NewMockStore(ctrl)
	ctx := context.Background()

	store.EXPECT().GetGuildSettings(gomock.Any(), "g1").Return(enabledSettings(), nil).AnyTimes()
	store.EXPECT().GetMember(gomock.Any(), "u1", "g1").Return(nil, nil).AnyTimes()
	store.EXPECT().TopMembers(gomock.Any(), "g1", 10, false).Return([]xp.Member{{UserID: "u1", XP: 10}}, nil).Times(2)
	store.EXPECT().ApplyGrants(gomock.Any(), gomock.Any()).Return([]xp.MemberTotal{{UserID: "u1", GuildID: "g1", XP: 20}}, nil)

	engine := newEngine(t, store, newTestClock())

	_, err := engine.GetLeaderboard(ctx, "g1", 10, false)
	require.NoError(t, err)

	_, err = engine.GainXP(ctx, xp.GainRequest{UserID: "u1", GuildID: "g1", Reason: xp.ReasonAdmin, Amount: amount(10)})
	require.NoError(t, err)
	require.NoError(t, engine.Flush(ctx))

	_, err = engine.GetLeaderboard(ctx, "g1", 10, false)
	require.NoError(t, err)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "alice", xp.DisplayName("123456", "alice"))
	assert.Equal(t, "User#3456", xp.DisplayName("123456", ""))
	assert.Equal(t, "User#12", xp.DisplayName("12", ""))
}
