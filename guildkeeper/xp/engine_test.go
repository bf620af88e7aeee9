package xp_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/guildkeeper/guildkeeper/guildkeeper/xp"
	"github.com/guildkeeper/guildkeeper/guildkeeper/xp/mock"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func fixedRoll(v int64) xp.Option {
	return xp.WithRoller(func(int64, int64) int64 { return v })
}

func amount(v int64) *int64 { return &v }

func enabledSettings() *xp.GuildSettings {
	return &xp.GuildSettings{GuildID: "g1", Enabled: true, XPMin: 15, XPMax: 25, Cooldown: time.Minute, XPRate: 1.0}
}

func newEngine(t *testing.T, store *mock.MockStore, clock *testClock, opts ...xp.Option) *xp.Engine {
	t.Helper()
	cfg := xp.DefaultConfig()
	opts = append([]xp.Option{xp.WithClock(clock.Now)}, opts...)
	return xp.NewEngine(store, cfg, opts...)
}

func TestEngineGainXP(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		settings   *xp.GuildSettings
		member     func(now time.Time) *xp.Member
		setup      func(store *mock.MockStore)
		req        xp.GainRequest
		roll       int64
		want       *xp.GainResult
		wantReject string
	}{
		{
			name:     "absent settings use defaults",
			settings: nil,
			req:      xp.GainRequest{UserID: "u1", GuildID: "g1", Reason: xp.ReasonMessage},
			roll:     20,
			want:     &xp.GainResult{Gained: 20, NewLevel: 0, Multiplier: 1.0},
		},
		{
			name:       "disabled guild",
			settings:   &xp.GuildSettings{GuildID: "g1", Enabled: false, XPMin: 15, XPMax: 25, XPRate: 1},
			req:        xp.GainRequest{UserID: "u1", GuildID: "g1", Reason: xp.ReasonMessage},
			roll:       20,
			wantReject: "disabled",
		},
		{
			name:     "frozen without end",
			settings: enabledSettings(),
			member: func(time.Time) *xp.Member {
				return &xp.Member{UserID: "u1", GuildID: "g1", Frozen: true}
			},
			req:        xp.GainRequest{UserID: "u1", GuildID: "g1", Reason: xp.ReasonAdmin, Amount: amount(50)},
			wantReject: "frozen",
		},
		{
			name:     "frozen until later",
			settings: enabledSettings(),
			member: func(now time.Time) *xp.Member {
				until := now.Add(time.Hour)
				return &xp.Member{UserID: "u1", GuildID: "g1", Frozen: true, FrozenUntil: &until}
			},
			req:        xp.GainRequest{UserID: "u1", GuildID: "g1", Reason: xp.ReasonMessage},
			wantReject: "frozen",
		},
		{
			name:     "expired freeze is lifted",
			settings: enabledSettings(),
			member: func(now time.Time) *xp.Member {
				until := now.Add(-time.Minute)
				return &xp.Member{UserID: "u1", GuildID: "g1", XP: 40, Frozen: true, FrozenUntil: &until}
			},
			setup: func(store *mock.MockStore) {
				store.EXPECT().UnfreezeMember(gomock.Any(), "u1", "g1").Return(nil)
			},
			req:  xp.GainRequest{UserID: "u1", GuildID: "g1", Reason: xp.ReasonMessage},
			roll: 20,
			want: &xp.GainResult{Gained: 20, NewLevel: 0, Multiplier: 1.0},
		},
		{
			name:     "custom amount with rate",
			settings: &xp.GuildSettings{GuildID: "g1", Enabled: true, XPMin: 15, XPMax: 25, Cooldown: time.Minute, XPRate: 1.5},
			req:      xp.GainRequest{UserID: "u1", GuildID: "g1", Reason: xp.ReasonAdmin, Amount: amount(20)},
			want:     &xp.GainResult{Gained: 30, NewLevel: 0, Multiplier: 1.5},
		},
		{
			name:     "voice is dampened",
			settings: enabledSettings(),
			req:      xp.GainRequest{UserID: "u1", GuildID: "g1", Reason: xp.ReasonVoice},
			roll:     21,
			want:     &xp.GainResult{Gained: 10, NewLevel: 0, Multiplier: 0.5},
		},
		{
			name:     "crossing a threshold signals a level up",
			settings: enabledSettings(),
			member: func(time.Time) *xp.Member {
				return &xp.Member{UserID: "u1", GuildID: "g1", XP: 95}
			},
			req:  xp.GainRequest{UserID: "u1", GuildID: "g1", Reason: xp.ReasonMessage},
			roll: 10,
			want: &xp.GainResult{Gained: 10, LevelUp: true, NewLevel: 1, Multiplier: 1.0},
		},
		{
			name:     "negative custom amount grants nothing",
			settings: enabledSettings(),
			req:      xp.GainRequest{UserID: "u1", GuildID: "g1", Reason: xp.ReasonAdmin, Amount: amount(-40)},
			want:     &xp.GainResult{Gained: 0, NewLevel: 0, Multiplier: 1.0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := mock.NewMockStore(ctrl)
			clock := newTestClock()

			store.EXPECT().GetGuildSettings(gomock.Any(), "g1").Return(tt.settings, nil).AnyTimes()
			var member *xp.Member
			if tt.member != nil {
				member = tt.member(clock.Now())
			}
			store.EXPECT().GetMember(gomock.Any(), "u1", "g1").Return(member, nil).AnyTimes()
			if tt.setup != nil {
				tt.setup(store)
			}

			engine := newEngine(t, store, clock, fixedRoll(tt.roll))
			got, err := engine.GainXP(ctx, tt.req)
			require.NoError(t, err)

			if tt.wantReject != "" {
				assert.Nil(t, got)
				assert.Equal(t, int64(1), engine.GetSystemMetrics().Rejections[tt.wantReject])
				assert.Equal(t, 0, engine.GetSystemMetrics().BatchSize)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want.Gained, got.Gained)
			assert.Equal(t, tt.want.LevelUp, got.LevelUp)
			assert.Equal(t, tt.want.NewLevel, got.NewLevel)
			assert.InDelta(t, tt.want.Multiplier, got.Multiplier, 1e-9)

			wantBuffered := 0
			if tt.want.Gained > 0 {
				wantBuffered = 1
			}
			assert.Equal(t, wantBuffered, engine.GetSystemMetrics().BatchSize)
		})
	}
}

func TestEngineMessageCooldown(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock.NewMockStore(ctrl)
	clock := newTestClock()
	ctx := context.Background()

	store.EXPECT().GetGuildSettings(gomock.Any(), "g1").Return(enabledSettings(), nil).AnyTimes()
	store.EXPECT().GetMember(gomock.Any(), "u1", "g1").Return(nil, nil).AnyTimes()

	engine := newEngine(t, store, clock, fixedRoll(20))
	msg := xp.GainRequest{UserID: "u1", GuildID: "g1", Reason: xp.ReasonMessage}

	first, err := engine.GainXP(ctx, msg)
	require.NoError(t, err)
	require.NotNil(t, first)

	clock.Advance(30 * time.Second)
	second, err := engine.GainXP(ctx, msg)
	require.NoError(t, err)
	assert.Nil(t, second, "message inside cooldown earns nothing")

	voice, err := engine.GainXP(ctx, xp.GainRequest{UserID: "u1", GuildID: "g1", Reason: xp.ReasonVoice})
	require.NoError(t, err)
	assert.NotNil(t, voice, "voice grants bypass the message cooldown")

	clock.Advance(30 * time.Second)
	third, err := engine.GainXP(ctx, msg)
	require.NoError(t, err)
	assert.NotNil(t, third)

	metrics := engine.GetSystemMetrics()
	assert.Equal(t, int64(1), metrics.Rejections["cooldown"])
	assert.Equal(t, 3, metrics.BatchSize)
	assert.Equal(t, 1, metrics.CooldownCount)
}

func TestEnginePendingXPCountsTowardLevelUp(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock.NewMockStore(ctrl)
	ctx := context.Background()

	store.EXPECT().GetGuildSettings(gomock.Any(), "g1").Return(enabledSettings(), nil).AnyTimes()
	store.EXPECT().GetMember(gomock.Any(), "u1", "g1").Return(nil, nil).AnyTimes()

	engine := newEngine(t, store, newTestClock())
	req := xp.GainRequest{UserID: "u1", GuildID: "g1", Reason: xp.ReasonAdmin, Amount: amount(60)}

	first, err := engine.GainXP(ctx, req)
	require.NoError(t, err)
	assert.False(t, first.LevelUp)

	second, err := engine.GainXP(ctx, req)
	require.NoError(t, err)
	assert.True(t, second.LevelUp, "60 pending + 60 new crosses 100")
	assert.Equal(t, 1, second.NewLevel)

	third, err := engine.GainXP(ctx, req)
	require.NoError(t, err)
	assert.False(t, third.LevelUp, "same threshold is not signalled twice")
}

func TestEngineFlushEmitsLevelUpsAndBonus(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock.NewMockStore(ctrl)
	ctx := context.Background()

	store.EXPECT().LoadMultipliers(gomock.Any(), gomock.Any()).Return(nil, nil)
	store.EXPECT().LoadLevelRewards(gomock.Any()).Return([]xp.LevelReward{
		{GuildID: "g1", Level: 2, RoleID: "role-2", XPBonus: 50},
	}, nil)
	store.EXPECT().GetGuildSettings(gomock.Any(), "g1").Return(enabledSettings(), nil).AnyTimes()
	store.EXPECT().GetMember(gomock.Any(), "u1", "g1").Return(nil, nil).AnyTimes()
	store.EXPECT().ApplyGrants(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, batch xp.FlushBatch) ([]xp.MemberTotal, error) {
		require.Len(t, batch.Groups, 1)
		require.Len(t, batch.History, 2)
		assert.Equal(t, int64(400), batch.Groups[0].Amount)
		assert.Equal(t, "alice", batch.Groups[0].Username)
		return []xp.MemberTotal{{UserID: "u1", GuildID: "g1", XP: 400}}, nil
	})

	engine := newEngine(t, store, newTestClock())
	require.NoError(t, engine.Start(ctx))

	for _, v := range []int64{250, 150} {
		_, err := engine.GainXP(ctx, xp.GainRequest{UserID: "u1", GuildID: "g1", Username: "alice", Reason: xp.ReasonAdmin, Amount: amount(v)})
		require.NoError(t, err)
	}
	require.NoError(t, engine.Flush(ctx))

	events := engine.Notifier().Drain()
	require.Len(t, events, 2)
	assert.Equal(t, 1, events[0].NewLevel)
	assert.Equal(t, 2, events[1].NewLevel)
	assert.Equal(t, 0, events[1].OldLevel)
	require.Len(t, events[1].Rewards, 1)
	assert.Equal(t, "role-2", events[1].Rewards[0].RoleID)

	assert.Equal(t, 1, engine.GetSystemMetrics().BatchSize, "reward bonus is queued for the next flush")
}

func TestEngineFlushFailureRequeues(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock.NewMockStore(ctrl)
	ctx := context.Background()

	store.EXPECT().GetGuildSettings(gomock.Any(), "g1").Return(enabledSettings(), nil).AnyTimes()
	store.EXPECT().GetMember(gomock.Any(), "u1", "g1").Return(nil, nil).Times(1)
	store.EXPECT().ApplyGrants(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))

	engine := newEngine(t, store, newTestClock())
	_, err := engine.GainXP(ctx, xp.GainRequest{UserID: "u1", GuildID: "g1", Reason: xp.ReasonAdmin, Amount: amount(500)})
	require.NoError(t, err)

	require.Error(t, engine.Flush(ctx))

	metrics := engine.GetSystemMetrics()
	assert.Equal(t, 1, metrics.BatchSize)
	assert.Equal(t, int64(1), metrics.FlushFailures)
	assert.Empty(t, engine.Notifier().Drain())

	// member cache must survive a failed flush, so no second GetMember
	_, err = engine.GainXP(ctx, xp.GainRequest{UserID: "u1", GuildID: "g1", Reason: xp.ReasonAdmin, Amount: amount(1)})
	require.NoError(t, err)
}

func TestEngineRejectsMalformedRequests(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := newEngine(t, mock.NewMockStore(ctrl), newTestClock())

	_, err := engine.GainXP(context.Background(), xp.GainRequest{GuildID: "g1"})
	assert.ErrorIs(t, err, xp.ErrInvalidGrant)

	_, err = engine.GainXP(context.Background(), xp.GainRequest{UserID: "u1", GuildID: "g1", Reason: "reaction"})
	assert.ErrorIs(t, err, xp.ErrInvalidGrant)
}

func TestEngineSettingsReadFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock.NewMockStore(ctrl)
	store.EXPECT().GetGuildSettings(gomock.Any(), "g1").Return(nil, fmt.Errorf("timeout"))

	engine := newEngine(t, store, newTestClock())
	got, err := engine.GainXP(context.Background(), xp.GainRequest{UserID: "u1", GuildID: "g1"})
	assert.Nil(t, got)
	assert.Error(t, err)
}
