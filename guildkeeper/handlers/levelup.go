package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"

	"github.com/guildkeeper/guildkeeper/guildkeeper/xp"
)

// ChannelLookup returns the channel a member was last active in.
type ChannelLookup func(guildID, userID snowflake.ID) (snowflake.ID, bool)

// LevelUpDispatcher delivers flushed level-up events: it grants reward roles
// and posts reward announcements. Delivery failures are logged and dropped.
type LevelUpDispatcher struct {
	notifier *xp.LevelUpNotifier
	rest     rest.Rest
	channels ChannelLookup
}

func NewLevelUpDispatcher(notifier *xp.LevelUpNotifier, client rest.Rest, channels ChannelLookup) *LevelUpDispatcher {
	return &LevelUpDispatcher{notifier: notifier, rest: client, channels: channels}
}

func (d *LevelUpDispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			for _, event := range d.notifier.Drain() {
				d.deliver(event)
			}
			return ctx.Err()
		case <-d.notifier.Ready():
			for _, event := range d.notifier.Drain() {
				d.deliver(event)
			}
		}
	}
}

func (d *LevelUpDispatcher) deliver(event xp.LevelUpEvent) {
	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		return
	}
	userID, err := snowflake.Parse(event.UserID)
	if err != nil {
		return
	}

	for _, reward := range event.Rewards {
		if reward.RoleID == "" {
			continue
		}
		roleID, err := snowflake.Parse(reward.RoleID)
		if err != nil {
			slog.Warn("Invalid reward role", slog.String("type", "xp"), slog.String("role_id", reward.RoleID))
			continue
		}
		if err := d.rest.AddMemberRole(guildID, userID, roleID); err != nil {
			slog.Error("Failed to grant reward role",
				slog.String("type", "xp"),
				slog.String("user_id", event.UserID),
				slog.String("guild_id", event.GuildID),
				slog.String("role_id", reward.RoleID),
				slog.Any("error", err))
		}
	}

	content := rewardAnnouncement(userID, event)
	if content == "" {
		return
	}
	channelID, ok := d.channels(guildID, userID)
	if !ok {
		return
	}
	if _, err := d.rest.CreateMessage(channelID, discord.MessageCreate{
		Content:         content,
		AllowedMentions: &discord.AllowedMentions{Users: []snowflake.ID{userID}},
	}); err != nil {
		slog.Warn("Failed to post reward announcement",
			slog.String("type", "xp"),
			slog.String("channel_id", channelID.String()),
			slog.Any("error", err))
	}
}

// rewardAnnouncement joins the announcements configured for the event's
// level. {user} and {level} are substituted. Empty when nothing is configured.
func rewardAnnouncement(userID snowflake.ID, event xp.LevelUpEvent) string {
	var lines []string
	for _, reward := range event.Rewards {
		if reward.Announcement == "" {
			continue
		}
		line := strings.NewReplacer(
			"{user}", discord.UserMention(userID),
			"{level}", fmt.Sprint(event.NewLevel),
		).Replace(reward.Announcement)
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
