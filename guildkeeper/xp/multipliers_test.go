package xp

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryMultiplierStore struct {
	saved   []Multiplier
	deleted int
	err     error
}

func (s *memoryMultiplierStore) LoadMultipliers(_ context.Context, now time.Time) ([]Multiplier, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []Multiplier
	for _, m := range s.saved {
		if !m.Expired(now) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memoryMultiplierStore) SaveMultiplier(_ context.Context, m Multiplier) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, m)
	return nil
}

func (s *memoryMultiplierStore) DeleteMultipliers(_ context.Context, _ string, _ MultiplierType, _ string) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.deleted++
	return 1, nil
}

func timePtr(t time.Time) *time.Time { return &t }

func TestMultiplierRegistryEffective(t *testing.T) {
	clock := newFakeClock() // 12:00 UTC
	past := clock.Now().Add(-time.Hour)
	future := clock.Now().Add(time.Hour)

	tests := []struct {
		name        string
		multipliers []Multiplier
		base        float64
		actx        ActivityContext
		dampening   float64
		want        float64
	}{
		{
			name: "no multipliers returns base",
			base: 1.0,
			want: 1.0,
		},
		{
			name: "matching role",
			multipliers: []Multiplier{
				{GuildID: "g1", Type: MultiplierRole, Identifier: "r1", Factor: 2},
			},
			base: 1.0,
			actx: ActivityContext{RoleIDs: []string{"r0", "r1"}},
			want: 2.0,
		},
		{
			name: "role not held",
			multipliers: []Multiplier{
				{GuildID: "g1", Type: MultiplierRole, Identifier: "r1", Factor: 2},
			},
			base: 1.0,
			actx: ActivityContext{RoleIDs: []string{"r2"}},
			want: 1.0,
		},
		{
			name: "channel and event stack",
			multipliers: []Multiplier{
				{GuildID: "g1", Type: MultiplierChannel, Identifier: "c1", Factor: 1.5},
				{GuildID: "g1", Type: MultiplierEvent, Identifier: "weekend", Factor: 2},
			},
			base: 1.0,
			actx: ActivityContext{ChannelID: "c1"},
			want: 3.0,
		},
		{
			name: "time range inclusive",
			multipliers: []Multiplier{
				{GuildID: "g1", Type: MultiplierTime, Identifier: "12-14", Factor: 2},
			},
			base: 1.0,
			want: 2.0,
		},
		{
			name: "time range outside",
			multipliers: []Multiplier{
				{GuildID: "g1", Type: MultiplierTime, Identifier: "13-14", Factor: 2},
			},
			base: 1.0,
			want: 1.0,
		},
		{
			name: "time range wrapping midnight",
			multipliers: []Multiplier{
				{GuildID: "g1", Type: MultiplierTime, Identifier: "22-12", Factor: 2},
			},
			base: 1.0,
			want: 2.0,
		},
		{
			name: "boost needs booster hint",
			multipliers: []Multiplier{
				{GuildID: "g1", Type: MultiplierBoost, Identifier: "boost", Factor: 1.5},
			},
			base: 2.0,
			actx: ActivityContext{Booster: true},
			want: 3.0,
		},
		{
			name: "not yet started and already ended are skipped",
			multipliers: []Multiplier{
				{GuildID: "g1", Type: MultiplierEvent, Identifier: "a", Factor: 2, StartTime: timePtr(future)},
				{GuildID: "g1", Type: MultiplierEvent, Identifier: "b", Factor: 2, EndTime: timePtr(past)},
				{GuildID: "g1", Type: MultiplierEvent, Identifier: "c", Factor: 3, StartTime: timePtr(past), EndTime: timePtr(future)},
			},
			base: 1.0,
			want: 3.0,
		},
		{
			name: "other guild ignored",
			multipliers: []Multiplier{
				{GuildID: "g2", Type: MultiplierEvent, Identifier: "a", Factor: 4},
			},
			base: 1.0,
			want: 1.0,
		},
		{
			name: "clamped high",
			multipliers: []Multiplier{
				{GuildID: "g1", Type: MultiplierEvent, Identifier: "a", Factor: 5},
				{GuildID: "g1", Type: MultiplierEvent, Identifier: "b", Factor: 5},
				{GuildID: "g1", Type: MultiplierEvent, Identifier: "c", Factor: 5},
			},
			base: 1.0,
			want: 10.0,
		},
		{
			name: "clamped low",
			multipliers: []Multiplier{
				{GuildID: "g1", Type: MultiplierEvent, Identifier: "a", Factor: 0.01},
			},
			base: 1.0,
			want: 0.1,
		},
		{
			name:      "voice dampening",
			base:      1.0,
			dampening: 0.5,
			want:      0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memoryMultiplierStore{saved: tt.multipliers}
			registry := NewMultiplierRegistry(store, time.UTC, clock.Now)
			require.NoError(t, registry.Load(context.Background()))

			got := registry.Effective("g1", tt.base, tt.actx, tt.dampening)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Effective() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMultiplierRegistrySetRemoveSweep(t *testing.T) {
	clock := newFakeClock()
	store := &memoryMultiplierStore{}
	registry := NewMultiplierRegistry(store, time.UTC, clock.Now)
	ctx := context.Background()

	require.NoError(t, registry.Set(ctx, Multiplier{GuildID: "g1", Type: MultiplierRole, Identifier: "r1", Factor: 2}))
	require.NoError(t, registry.Set(ctx, Multiplier{GuildID: "g1", Type: MultiplierRole, Identifier: "r1", Factor: 3}))
	require.NoError(t, registry.Set(ctx, Multiplier{GuildID: "g1", Type: MultiplierEvent, Identifier: "e", Factor: 2, EndTime: timePtr(clock.Now().Add(time.Minute))}))

	list := registry.List("g1")
	require.Len(t, list, 2, "same type and identifier replaces")
	assert.Equal(t, 2, registry.ActiveCount())
	assert.InDelta(t, 6.0, registry.Effective("g1", 1, ActivityContext{RoleIDs: []string{"r1"}}, 0), 1e-9)

	removed, err := registry.Remove(ctx, "g1", MultiplierRole, "r1")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, store.deleted)

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 1, registry.Sweep())
	assert.Empty(t, registry.List("g1"))
}

func TestMultiplierRegistryRejectsInvalid(t *testing.T) {
	registry := NewMultiplierRegistry(&memoryMultiplierStore{}, nil, nil)
	ctx := context.Background()

	tests := []Multiplier{
		{GuildID: "g1", Type: "weather", Identifier: "x", Factor: 2},
		{GuildID: "g1", Type: MultiplierRole, Identifier: "r1", Factor: 0},
		{GuildID: "g1", Type: MultiplierTime, Identifier: "25-3", Factor: 2},
		{GuildID: "g1", Type: MultiplierTime, Identifier: "morning", Factor: 2},
	}
	for _, m := range tests {
		err := registry.Set(ctx, m)
		assert.True(t, errors.Is(err, ErrInvalidMultiplier), "expected invalid multiplier for %+v, got %v", m, err)
	}
}

func TestMultiplierRegistryStoreFailureLeavesMemoryUntouched(t *testing.T) {
	store := &memoryMultiplierStore{err: errors.New("db down")}
	registry := NewMultiplierRegistry(store, nil, nil)

	err := registry.Set(context.Background(), Multiplier{GuildID: "g1", Type: MultiplierEvent, Identifier: "e", Factor: 2})
	require.Error(t, err)
	assert.Empty(t, registry.List("g1"))
}
