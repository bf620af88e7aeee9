package handlers

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/snowflake/v2"

	"github.com/guildkeeper/guildkeeper/guildkeeper/config"
	"github.com/guildkeeper/guildkeeper/guildkeeper/xp"
)

// XPGainer is the part of the engine the voice tracker grants through.
type XPGainer interface {
	GainXP(ctx context.Context, req xp.GainRequest) (*xp.GainResult, error)
}

type voiceKey struct {
	guildID snowflake.ID
	userID  snowflake.ID
}

type voiceSession struct {
	channelID snowflake.ID
	username  string
	roleIDs   []string
	booster   bool
}

// VoiceTracker keeps the set of members currently earning voice XP.
// Deafened members and members alone in a channel earn nothing.
type VoiceTracker struct {
	gainer XPGainer

	mu       sync.Mutex
	sessions map[voiceKey]voiceSession
}

func NewVoiceTracker(gainer XPGainer) *VoiceTracker {
	return &VoiceTracker{
		gainer:   gainer,
		sessions: make(map[voiceKey]voiceSession),
	}
}

// voiceStateSource is the part of the gateway cache a guild's sessions are
// seeded from.
type voiceStateSource interface {
	VoiceStatesForEach(guildID snowflake.ID, fn func(discord.VoiceState))
	Member(guildID snowflake.ID, userID snowflake.ID) (discord.Member, bool)
}

// Listener tracks voice state updates and seeds each guild's sessions once
// the guild has loaded.
func (t *VoiceTracker) Listener() bot.EventListener {
	return &events.ListenerAdapter{
		OnGuildReady: func(e *events.GuildReady) {
			if n := t.Seed(e.Client().Caches(), e.GuildID); n > 0 {
				slog.Debug("Seeded voice sessions",
					slog.String("type", "xp"),
					slog.String("guild_id", e.GuildID.String()),
					slog.Int("members", n))
			}
		},
		OnGuildVoiceStateUpdate: t.OnVoiceStateUpdate,
	}
}

func (t *VoiceTracker) OnVoiceStateUpdate(e *events.GuildVoiceStateUpdate) {
	if e.Member.User.Bot {
		return
	}
	t.track(e.VoiceState, e.Member)
}

// Seed records every member already connected to voice in the guild and
// returns how many sessions were added.
func (t *VoiceTracker) Seed(source voiceStateSource, guildID snowflake.ID) int {
	seeded := 0
	source.VoiceStatesForEach(guildID, func(state discord.VoiceState) {
		member, ok := source.Member(guildID, state.UserID)
		if !ok || member.User.Bot {
			return
		}
		if t.track(state, member) {
			seeded++
		}
	})
	return seeded
}

func (t *VoiceTracker) track(state discord.VoiceState, member discord.Member) bool {
	roles := make([]string, 0, len(member.RoleIDs))
	for _, id := range member.RoleIDs {
		roles = append(roles, id.String())
	}
	var channelID snowflake.ID
	if state.ChannelID != nil {
		channelID = *state.ChannelID
	}
	return t.update(state.GuildID, state.UserID, channelID, state.SelfDeaf || state.GuildDeaf, voiceSession{
		username: member.User.Username,
		roleIDs:  roles,
		booster:  member.PremiumSince != nil,
	})
}

// update records where a member sits and reports whether a session is now
// active. A zero channel or a deafened member ends the session.
func (t *VoiceTracker) update(guildID, userID, channelID snowflake.ID, deafened bool, session voiceSession) bool {
	key := voiceKey{guildID: guildID, userID: userID}

	t.mu.Lock()
	defer t.mu.Unlock()

	if channelID == 0 || deafened {
		delete(t.sessions, key)
		return false
	}
	session.channelID = channelID
	t.sessions[key] = session
	return true
}

func (t *VoiceTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

// Tick grants voice XP to every tracked member sharing a channel with at
// least one other tracked member. It returns the number of grants accepted.
func (t *VoiceTracker) Tick(ctx context.Context) int {
	type channelKey struct {
		guildID   snowflake.ID
		channelID snowflake.ID
	}

	t.mu.Lock()
	occupancy := make(map[channelKey]int)
	snapshot := make(map[voiceKey]voiceSession, len(t.sessions))
	for key, session := range t.sessions {
		occupancy[channelKey{key.guildID, session.channelID}]++
		snapshot[key] = session
	}
	t.mu.Unlock()

	granted := 0
	for key, session := range snapshot {
		if occupancy[channelKey{key.guildID, session.channelID}] < 2 {
			continue
		}
		result, err := t.gainer.GainXP(ctx, xp.GainRequest{
			UserID:   key.userID.String(),
			GuildID:  key.guildID.String(),
			Username: session.username,
			Reason:   xp.ReasonVoice,
			Context: xp.ActivityContext{
				RoleIDs:   session.roleIDs,
				ChannelID: session.channelID.String(),
				Booster:   session.booster,
			},
		})
		if err != nil {
			slog.Error("Failed to grant voice XP",
				slog.String("type", "xp"),
				slog.String("user_id", key.userID.String()),
				slog.String("guild_id", key.guildID.String()),
				slog.Any("error", err))
			continue
		}
		if result != nil {
			granted++
		}
	}
	return granted
}

func (t *VoiceTracker) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = config.VoiceTickInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := t.Tick(ctx); n > 0 {
				slog.Debug("Voice XP granted",
					slog.String("type", "xp"),
					slog.Int("members", n))
			}
		}
	}
}
