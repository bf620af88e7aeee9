package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/snowflake/v2"

	"github.com/guildkeeper/guildkeeper/guildkeeper"
	"github.com/guildkeeper/guildkeeper/guildkeeper/config"
	"github.com/guildkeeper/guildkeeper/guildkeeper/logger"
	"github.com/guildkeeper/guildkeeper/guildkeeper/xp"
)

// MessageHandler grants message XP and announces optimistic level-ups in
// the channel the message was sent to.
func MessageHandler(b *guildkeeper.Bot) bot.EventListener {
	return bot.NewListenerFunc(func(e *events.GuildMessageCreate) {
		if !earnsXP(e.Message) {
			return
		}
		author := e.Message.Author
		b.RememberChannel(e.GuildID, author.ID, e.ChannelID)

		ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
		defer cancel()

		result, err := b.Engine.GainXP(ctx, xp.GainRequest{
			UserID:   author.ID.String(),
			GuildID:  e.GuildID.String(),
			Username: author.Username,
			Reason:   xp.ReasonMessage,
			Context:  activityContext(e.Message.Member, voiceChannelOf(e.Client().Caches(), e.GuildID, author.ID)),
		})
		if err != nil {
			slog.Error("Failed to grant message XP",
				slog.String("type", "xp"),
				slog.String("user_id", author.ID.String()),
				slog.String("guild_id", e.GuildID.String()),
				slog.Any("error", err))
			return
		}
		if result == nil || !result.LevelUp {
			return
		}
		logger.LogXP("Member reached a new level", author.ID.String(), e.GuildID.String(),
			slog.Int("level", result.NewLevel),
			slog.Int64("gained", result.Gained))

		if _, err := e.Client().Rest().CreateMessage(e.ChannelID, discord.MessageCreate{
			Content:         levelUpMessage(author.ID, result.NewLevel),
			AllowedMentions: &discord.AllowedMentions{Users: []snowflake.ID{author.ID}},
		}); err != nil {
			slog.Warn("Failed to announce level up",
				slog.String("type", "xp"),
				slog.String("channel_id", e.ChannelID.String()),
				slog.Any("error", err))
		}
	})
}

// earnsXP filters out bots, webhooks, commands and very short messages.
func earnsXP(msg discord.Message) bool {
	if msg.Author.Bot || msg.Author.System || msg.WebhookID != nil {
		return false
	}
	content := strings.TrimSpace(msg.Content)
	if strings.HasPrefix(content, config.CommandPrefix) {
		return false
	}
	return utf8.RuneCountInString(content) >= config.MinMessageLength
}

// voiceStateLookup is the slice of the gateway cache used to find where a
// member sits in voice.
type voiceStateLookup interface {
	VoiceState(guildID snowflake.ID, userID snowflake.ID) (discord.VoiceState, bool)
}

// voiceChannelOf returns the voice channel the member is connected to, or 0.
func voiceChannelOf(states voiceStateLookup, guildID, userID snowflake.ID) snowflake.ID {
	state, ok := states.VoiceState(guildID, userID)
	if !ok || state.ChannelID == nil {
		return 0
	}
	return *state.ChannelID
}

// activityContext describes a chatting member for multiplier matching.
// Channel multipliers key on the voice channel, so a member outside voice
// carries no channel.
func activityContext(member *discord.Member, voiceChannelID snowflake.ID) xp.ActivityContext {
	var actx xp.ActivityContext
	if voiceChannelID != 0 {
		actx.ChannelID = voiceChannelID.String()
	}
	if member == nil {
		return actx
	}
	actx.RoleIDs = make([]string, 0, len(member.RoleIDs))
	for _, id := range member.RoleIDs {
		actx.RoleIDs = append(actx.RoleIDs, id.String())
	}
	actx.Booster = member.PremiumSince != nil
	return actx
}

func levelUpMessage(userID snowflake.ID, level int) string {
	return fmt.Sprintf("🎉 %s reached **level %d**!", discord.UserMention(userID), level)
}
