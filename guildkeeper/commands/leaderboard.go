package commands

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/paginator"

	"github.com/guildkeeper/guildkeeper/guildkeeper"
	"github.com/guildkeeper/guildkeeper/guildkeeper/config"
	"github.com/guildkeeper/guildkeeper/guildkeeper/utils"
	"github.com/guildkeeper/guildkeeper/guildkeeper/xp"
)

var leaderboard = discord.SlashCommandCreate{
	Name:        "leaderboard",
	Description: "Show the top members of this server",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionBool{
			Name:        "monthly",
			Description: "Rank by this month's XP instead of current XP",
			Required:    false,
		},
		discord.ApplicationCommandOptionInt{
			Name:        "limit",
			Description: "How many members to list",
			Required:    false,
			MinValue:    &[]int{1}[0],
			MaxValue:    &[]int{config.MaxLeaderboard}[0],
		},
	},
}

func LeaderboardHandler(b *guildkeeper.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		guildID := e.GuildID()
		if guildID == nil {
			return replyEphemeral(e, "This command only works in a server.")
		}

		data := e.SlashCommandInteractionData()
		monthly, _ := data.OptBool("monthly")
		limit := config.DefaultLeaderboard
		if v, ok := data.OptInt("limit"); ok {
			limit = v
		}

		ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
		defer cancel()

		entries, err := b.Engine.GetLeaderboard(ctx, guildID.String(), limit, monthly)
		if err != nil {
			slog.Error("Failed to load leaderboard",
				slog.String("type", "cmd"),
				slog.String("guild_id", guildID.String()),
				slog.Bool("monthly", monthly),
				slog.Any("error", err))
			return utils.EH.CreateErrorFor(e, err)
		}
		if len(entries) == 0 {
			return replyEphemeral(e, "Nobody has earned XP here yet.")
		}

		title := "🏆 XP Leaderboard"
		if monthly {
			title = "🏆 Monthly Leaderboard"
		}
		totalPages := int(math.Ceil(float64(len(entries)) / float64(config.LeaderboardPageSize)))

		return b.Paginator.Create(e.Respond, paginator.Pages{
			ID:      e.ID().String(),
			Creator: e.User().ID,
			PageFunc: func(page int, embed *discord.EmbedBuilder) {
				embed.
					SetTitle(title).
					SetDescription(leaderboardPage(entries, page, config.LeaderboardPageSize)).
					SetColor(config.LevelUpColor).
					SetFooter(fmt.Sprintf("Page %d/%d • %d members", page+1, totalPages, len(entries)), "")
			},
			Pages:      totalPages,
			ExpireMode: paginator.ExpireModeAfterLastUsage,
		}, false)
	}
}

func leaderboardPage(entries []xp.LeaderboardEntry, page, perPage int) string {
	start := page * perPage
	if start >= len(entries) {
		return ""
	}
	end := min(start+perPage, len(entries))

	var description strings.Builder
	for _, entry := range entries[start:end] {
		fmt.Fprintf(&description, "%s **%s** • Level %d • %s XP\n",
			rankBadge(entry.Rank),
			entry.Username,
			entry.Level,
			utils.FormatNumber(entry.XP))
	}
	return strings.TrimSuffix(description.String(), "\n")
}

func rankBadge(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	}
	return fmt.Sprintf("`#%d`", rank)
}
