package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/guildkeeper/guildkeeper/guildkeeper"
	"github.com/guildkeeper/guildkeeper/guildkeeper/config"
	"github.com/guildkeeper/guildkeeper/guildkeeper/leveling"
	"github.com/guildkeeper/guildkeeper/guildkeeper/utils"
	"github.com/guildkeeper/guildkeeper/guildkeeper/xp"
)

var level = discord.SlashCommandCreate{
	Name:        "level",
	Description: "Show your level, XP and rank in this server",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionUser{
			Name:        "user",
			Description: "Whose level to show",
			Required:    false,
		},
	},
}

func LevelHandler(b *guildkeeper.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		guildID := e.GuildID()
		if guildID == nil {
			return replyEphemeral(e, "This command only works in a server.")
		}

		target := e.User()
		if user, ok := e.SlashCommandInteractionData().OptUser("user"); ok {
			target = user
		}
		if target.Bot {
			return replyEphemeral(e, "Bots don't earn XP.")
		}

		ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
		defer cancel()

		stats, err := b.Engine.GetUserStats(ctx, target.ID.String(), guildID.String())
		if err != nil {
			slog.Error("Failed to load user stats",
				slog.String("type", "cmd"),
				slog.String("user_id", target.ID.String()),
				slog.String("guild_id", guildID.String()),
				slog.Any("error", err))
			return utils.EH.CreateErrorFor(e, err)
		}
		if stats == nil {
			return replyEphemeral(e, fmt.Sprintf("%s has not earned any XP yet.", target.Username))
		}

		embed := levelEmbed(target.EffectiveName(), stats, time.Now())
		if target.ID == e.User().ID {
			if remaining, err := b.Engine.CooldownRemaining(ctx, target.ID.String(), guildID.String()); err == nil && remaining > 0 {
				embed.Footer = &discord.EmbedFooter{Text: "Next message XP in " + utils.FormatDuration(remaining)}
			}
		}

		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{embed},
		})
	}
}

func levelEmbed(name string, stats *xp.UserStats, now time.Time) discord.Embed {
	progress := leveling.ProgressFor(stats.XP)

	var description strings.Builder
	fmt.Fprintf(&description, "**Level %d** • Rank #%d • Monthly #%d\n", stats.Level, stats.Rank, stats.MonthlyRank)
	fmt.Fprintf(&description, "%s %s / %s XP\n",
		utils.ProgressBar(progress.InLevelXP, progress.LevelSpan),
		utils.FormatNumber(progress.InLevelXP),
		utils.FormatNumber(progress.LevelSpan))
	fmt.Fprintf(&description, "%s XP to level %d", utils.FormatNumber(progress.XPToNext), stats.Level+1)

	frozen := &xp.Member{Frozen: stats.Frozen, FrozenUntil: stats.FrozenUntil}
	if frozen.FrozenAt(now) {
		if stats.FrozenUntil != nil {
			fmt.Fprintf(&description, "\n❄️ XP frozen for %s", utils.FormatDuration(stats.FrozenUntil.Sub(now)))
		} else {
			description.WriteString("\n❄️ XP frozen")
		}
	}

	return discord.NewEmbedBuilder().
		SetTitle(name).
		SetDescription(description.String()).
		AddField("XP", utils.FormatNumber(stats.XP), true).
		AddField("Monthly", utils.FormatNumber(stats.MonthlyXP), true).
		AddField("Lifetime", utils.FormatNumber(stats.TotalXP), true).
		SetColor(config.InfoColor).
		Build()
}

func replyEphemeral(e *handler.CommandEvent, content string) error {
	return e.CreateMessage(discord.MessageCreate{
		Content: content,
		Flags:   discord.MessageFlagEphemeral,
	})
}
