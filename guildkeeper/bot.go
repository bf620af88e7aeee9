package guildkeeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/paginator"
	"github.com/disgoorg/snowflake/v2"
	lru "github.com/hashicorp/golang-lru"

	"github.com/guildkeeper/guildkeeper/guildkeeper/config"
	"github.com/guildkeeper/guildkeeper/guildkeeper/database"
	"github.com/guildkeeper/guildkeeper/guildkeeper/xp"
)

func New(cfg Config, version string, commit string) *Bot {
	channels, _ := lru.New(config.ActiveChannelCacheSize)
	return &Bot{
		Cfg:            cfg,
		Paginator:      paginator.New(),
		Version:        version,
		Commit:         commit,
		StartTime:      time.Now(),
		activeChannels: channels,
	}
}

type Bot struct {
	Cfg       Config
	Client    bot.Client
	Paginator *paginator.Manager
	Version   string
	Commit    string
	StartTime time.Time
	DB        *database.DB
	Engine    *xp.Engine
	Resetter  *xp.MonthlyResetter

	activeChannels *lru.Cache
}

type memberChannelKey struct {
	guildID snowflake.ID
	userID  snowflake.ID
}

// RememberChannel records the channel a member was last active in, used for
// reward announcements that happen after the triggering message.
func (b *Bot) RememberChannel(guildID, userID, channelID snowflake.ID) {
	b.activeChannels.Add(memberChannelKey{guildID: guildID, userID: userID}, channelID)
}

func (b *Bot) LastChannel(guildID, userID snowflake.ID) (snowflake.ID, bool) {
	v, ok := b.activeChannels.Get(memberChannelKey{guildID: guildID, userID: userID})
	if !ok {
		return 0, false
	}
	return v.(snowflake.ID), true
}

func (b *Bot) SetupBot(listeners ...bot.EventListener) error {
	client, err := disgo.New(b.Cfg.Bot.Token,
		bot.WithGatewayConfigOpts(gateway.WithIntents(
			gateway.IntentGuilds,
			gateway.IntentGuildMembers,
			gateway.IntentGuildMessages,
			gateway.IntentMessageContent,
			gateway.IntentGuildVoiceStates,
		)),
		bot.WithCacheConfigOpts(cache.WithCaches(cache.FlagGuilds, cache.FlagMembers, cache.FlagVoiceStates)),
		bot.WithEventListeners(b.Paginator),
		bot.WithEventListeners(listeners...),
	)
	if err != nil {
		return err
	}

	b.Client = client
	return nil
}

func (b *Bot) OnReady(_ *events.Ready) {
	slog.Info("GuildKeeper is now ready",
		slog.String("type", "sys"),
		slog.String("version", b.Version),
		slog.String("commit", b.Commit))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := b.Client.SetPresence(ctx,
		gateway.WithWatchingActivity("your XP grow"),
		gateway.WithOnlineStatus(discord.OnlineStatusOnline)); err != nil {
		slog.Error("Failed to set presence", slog.String("type", "sys"), slog.Any("error", err))
	}
}
