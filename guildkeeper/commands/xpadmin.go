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
	"github.com/guildkeeper/guildkeeper/guildkeeper/utils"
	"github.com/guildkeeper/guildkeeper/guildkeeper/xp"
)

var multiplierTypeChoices = []discord.ApplicationCommandOptionChoiceString{
	{Name: "Role", Value: string(xp.MultiplierRole)},
	{Name: "Channel", Value: string(xp.MultiplierChannel)},
	{Name: "Time of day", Value: string(xp.MultiplierTime)},
	{Name: "Server booster", Value: string(xp.MultiplierBoost)},
	{Name: "Event", Value: string(xp.MultiplierEvent)},
}

var xpAdmin = discord.SlashCommandCreate{
	Name:        "xpadmin",
	Description: "Manage XP for this server",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "freeze",
			Description: "Stop a member from earning XP",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "Member to freeze",
					Required:    true,
				},
				discord.ApplicationCommandOptionString{
					Name:        "duration",
					Description: "How long, e.g. 30m, 12h or 7d. Omit to freeze until unfrozen",
					Required:    false,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "unfreeze",
			Description: "Let a frozen member earn XP again",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "Member to unfreeze",
					Required:    true,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "reset-user",
			Description: "Reset a member's XP and level",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "Member to reset",
					Required:    true,
				},
				discord.ApplicationCommandOptionBool{
					Name:        "total",
					Description: "Also clear lifetime XP",
					Required:    false,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "reset-server",
			Description: "Reset XP for every member of this server",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionBool{
					Name:        "monthly",
					Description: "Only clear the monthly board",
					Required:    true,
				},
				discord.ApplicationCommandOptionBool{
					Name:        "confirm",
					Description: "Set to true to confirm the reset",
					Required:    true,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "multiplier-set",
			Description: "Add or replace an XP multiplier",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "type",
					Description: "What the multiplier matches on",
					Required:    true,
					Choices:     multiplierTypeChoices,
				},
				discord.ApplicationCommandOptionFloat{
					Name:        "factor",
					Description: "Multiplier factor, e.g. 1.5",
					Required:    true,
					MinValue:    &[]float64{xp.MinMultiplier}[0],
					MaxValue:    &[]float64{xp.MaxMultiplier}[0],
				},
				discord.ApplicationCommandOptionString{
					Name:        "target",
					Description: "Role or channel mention, hour range like 18-23, or event name",
					Required:    false,
				},
				discord.ApplicationCommandOptionString{
					Name:        "duration",
					Description: "How long it lasts, e.g. 2h or 3d. Omit for no end",
					Required:    false,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "multiplier-remove",
			Description: "Remove an XP multiplier",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "type",
					Description: "Multiplier type",
					Required:    true,
					Choices:     multiplierTypeChoices,
				},
				discord.ApplicationCommandOptionString{
					Name:        "target",
					Description: "The target it was set for",
					Required:    false,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "reward-set",
			Description: "Configure what reaching a level grants",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionInt{
					Name:        "level",
					Description: "Level the reward is granted at",
					Required:    true,
					MinValue:    &[]int{1}[0],
				},
				discord.ApplicationCommandOptionRole{
					Name:        "role",
					Description: "Role to grant",
					Required:    false,
				},
				discord.ApplicationCommandOptionInt{
					Name:        "xp_bonus",
					Description: "Bonus XP to grant",
					Required:    false,
					MinValue:    &[]int{0}[0],
				},
				discord.ApplicationCommandOptionString{
					Name:        "announcement",
					Description: "Message to post, {user} and {level} are replaced",
					Required:    false,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "settings",
			Description: "Show or change XP settings",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionBool{
					Name:        "enabled",
					Description: "Whether members earn XP",
					Required:    false,
				},
				discord.ApplicationCommandOptionInt{
					Name:        "xp_min",
					Description: "Smallest XP roll per message",
					Required:    false,
					MinValue:    &[]int{0}[0],
				},
				discord.ApplicationCommandOptionInt{
					Name:        "xp_max",
					Description: "Largest XP roll per message",
					Required:    false,
					MinValue:    &[]int{0}[0],
				},
				discord.ApplicationCommandOptionString{
					Name:        "cooldown",
					Description: "Time between XP grants, e.g. 60s or 2m",
					Required:    false,
				},
				discord.ApplicationCommandOptionFloat{
					Name:        "rate",
					Description: "Server-wide XP rate",
					Required:    false,
					MinValue:    &[]float64{xp.MinMultiplier}[0],
					MaxValue:    &[]float64{xp.MaxMultiplier}[0],
				},
			},
		},
	},
}

func XPAdminHandler(b *guildkeeper.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		guildID := e.GuildID()
		if guildID == nil {
			return replyEphemeral(e, "This command only works in a server.")
		}
		if member := e.Member(); member == nil || !member.Permissions.Has(discord.PermissionManageGuild) {
			return utils.EH.CreatePermissionError(e, "manage XP.")
		}

		ctx, cancel := context.WithTimeout(context.Background(), config.BatchQueryTimeout)
		defer cancel()

		data := e.SlashCommandInteractionData()
		subCmd := data.SubCommandName
		if subCmd == nil {
			return utils.EH.CreateUserError(e, "Pick a subcommand.")
		}

		admin := &xpAdminCommand{b: b, e: e, guildID: guildID.String(), data: data}

		var err error
		switch *subCmd {
		case "freeze":
			err = admin.freeze(ctx)
		case "unfreeze":
			err = admin.unfreeze(ctx)
		case "reset-user":
			err = admin.resetUser(ctx)
		case "reset-server":
			err = admin.resetServer(ctx)
		case "multiplier-set":
			err = admin.setMultiplier(ctx)
		case "multiplier-remove":
			err = admin.removeMultiplier(ctx)
		case "reward-set":
			err = admin.setReward(ctx)
		case "settings":
			err = admin.settings(ctx)
		default:
			return utils.EH.CreateUserError(e, "Invalid subcommand")
		}

		if err != nil {
			if utils.ClassifyError(err) == utils.SystemError {
				slog.Error("XP admin action failed",
					slog.String("type", "cmd"),
					slog.String("subcommand", *subCmd),
					slog.String("guild_id", admin.guildID),
					slog.Any("error", err))
			}
			return utils.EH.CreateErrorFor(e, err)
		}
		return nil
	}
}

type xpAdminCommand struct {
	b       *guildkeeper.Bot
	e       *handler.CommandEvent
	guildID string
	data    discord.SlashCommandInteractionData
}

// optDuration parses an optional duration option. Absent means zero.
func (c *xpAdminCommand) optDuration(name string) (time.Duration, error) {
	raw, ok := c.data.OptString(name)
	if !ok || strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	return utils.ParseDuration(strings.TrimSpace(raw))
}

func (c *xpAdminCommand) freeze(ctx context.Context) error {
	user := c.data.User("user")
	duration, err := c.optDuration("duration")
	if err != nil {
		return err
	}
	if err := c.b.Engine.FreezeUser(ctx, user.ID.String(), c.guildID, c.e.User().ID.String(), duration); err != nil {
		return err
	}

	message := fmt.Sprintf("Froze XP for %s.", discord.UserMention(user.ID))
	if duration > 0 {
		message = fmt.Sprintf("Froze XP for %s for %s.", discord.UserMention(user.ID), utils.FormatDuration(duration))
	}
	return utils.EH.CreateSuccessEmbed(c.e, message)
}

func (c *xpAdminCommand) unfreeze(ctx context.Context) error {
	user := c.data.User("user")
	if err := c.b.Engine.UnfreezeUser(ctx, user.ID.String(), c.guildID); err != nil {
		return err
	}
	return utils.EH.CreateSuccessEmbed(c.e, fmt.Sprintf("%s can earn XP again.", discord.UserMention(user.ID)))
}

func (c *xpAdminCommand) resetUser(ctx context.Context) error {
	user := c.data.User("user")
	total := c.data.Bool("total")
	if err := c.b.Engine.ResetUserXP(ctx, user.ID.String(), c.guildID, total); err != nil {
		return err
	}

	scope := "XP and level"
	if total {
		scope = "XP, level and lifetime XP"
	}
	return utils.EH.CreateSuccessEmbed(c.e, fmt.Sprintf("Reset %s for %s.", scope, discord.UserMention(user.ID)))
}

func (c *xpAdminCommand) resetServer(ctx context.Context) error {
	if !c.data.Bool("confirm") {
		return utils.EH.CreateUserError(c.e, "Nothing was reset. Set confirm to true to proceed.")
	}
	monthly := c.data.Bool("monthly")

	affected, err := c.b.Engine.ResetGuildXP(ctx, c.guildID, monthly)
	if err != nil {
		return err
	}

	board := "all XP"
	if monthly {
		board = "the monthly board"
	}
	return utils.EH.CreateSuccessEmbed(c.e, fmt.Sprintf("Reset %s for %s members.", board, utils.FormatNumber(int64(affected))))
}

func (c *xpAdminCommand) setMultiplier(ctx context.Context) error {
	typ := xp.MultiplierType(c.data.String("type"))
	factor := c.data.Float("factor")
	target, _ := c.data.OptString("target")
	identifier := normalizeIdentifier(target)

	if requiresIdentifier(typ) && identifier == "" {
		return utils.EH.CreateUserError(c.e, fmt.Sprintf("A target is required for %s multipliers.", typ))
	}
	duration, err := c.optDuration("duration")
	if err != nil {
		return err
	}

	if err := c.b.Engine.SetMultiplier(ctx, c.guildID, typ, identifier, factor, duration); err != nil {
		return err
	}

	message := fmt.Sprintf("Set %s multiplier ×%.2f", typ, factor)
	if identifier != "" {
		message += " on " + describeIdentifier(typ, identifier)
	}
	if duration > 0 {
		message += " for " + utils.FormatDuration(duration)
	}
	return utils.EH.CreateSuccessEmbed(c.e, message+".")
}

func (c *xpAdminCommand) removeMultiplier(ctx context.Context) error {
	typ := xp.MultiplierType(c.data.String("type"))
	target, _ := c.data.OptString("target")
	identifier := normalizeIdentifier(target)

	removed, err := c.b.Engine.RemoveMultiplier(ctx, c.guildID, typ, identifier)
	if err != nil {
		return err
	}
	if removed == 0 {
		return utils.EH.CreateUserError(c.e, "No matching multiplier was found.")
	}
	return utils.EH.CreateSuccessEmbed(c.e, fmt.Sprintf("Removed %d %s multiplier(s).", removed, typ))
}

func (c *xpAdminCommand) setReward(ctx context.Context) error {
	reward := xp.LevelReward{
		GuildID: c.guildID,
		Level:   c.data.Int("level"),
	}
	if role, ok := c.data.OptRole("role"); ok {
		reward.RoleID = role.ID.String()
	}
	if bonus, ok := c.data.OptInt("xp_bonus"); ok {
		reward.XPBonus = int64(bonus)
	}
	if announcement, ok := c.data.OptString("announcement"); ok {
		reward.Announcement = strings.TrimSpace(announcement)
	}

	if err := c.b.Engine.SetLevelReward(ctx, reward); err != nil {
		return err
	}
	return utils.EH.CreateSuccessEmbed(c.e, fmt.Sprintf("Level %d reward saved: %s.", reward.Level, describeReward(reward)))
}

func (c *xpAdminCommand) settings(ctx context.Context) error {
	current, err := c.b.Engine.GuildSettings(ctx, c.guildID)
	if err != nil {
		return err
	}

	updated, changed, err := applySettingsOptions(current, c.data)
	if err != nil {
		return err
	}
	if changed {
		updated.GuildID = c.guildID
		if err := c.b.Engine.UpdateGuildSettings(ctx, updated); err != nil {
			return err
		}
	}

	embed := discord.NewEmbedBuilder().
		SetTitle("⚙️ XP Settings").
		SetDescription(describeSettings(updated)).
		SetColor(config.InfoColor).
		SetTimestamp(time.Now())
	if changed {
		embed.SetColor(config.SuccessColor)
	}

	if multipliers := c.b.Engine.ListMultipliers(c.guildID); len(multipliers) > 0 {
		embed.AddField("Multipliers", describeMultipliers(multipliers, time.Now()), false)
	}
	if c.b.Resetter != nil {
		embed.AddField("Monthly reset", c.describeMonthly(ctx), false)
	}

	return c.e.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{embed.Build()},
	})
}

func (c *xpAdminCommand) describeMonthly(ctx context.Context) string {
	var out strings.Builder

	until, err := c.b.Resetter.TimeUntilNextReset(ctx, c.guildID)
	if err != nil {
		slog.Warn("Failed to compute next monthly reset",
			slog.String("type", "cmd"),
			slog.String("guild_id", c.guildID),
			slog.Any("error", err))
		out.WriteString("Next reset: unknown")
	} else if until <= 0 {
		out.WriteString("Next reset: due now")
	} else {
		fmt.Fprintf(&out, "Next reset in %s", utils.FormatDuration(until))
	}

	history, err := c.b.Resetter.History(ctx, c.guildID, 3)
	if err != nil {
		return out.String()
	}
	for _, reset := range history {
		fmt.Fprintf(&out, "\n%s • %s members", reset.ResetDate.Format("2006-01-02"), utils.FormatNumber(int64(reset.UserCount)))
	}
	return out.String()
}

// applySettingsOptions overlays the provided options onto current. changed
// is false when no option was given.
func applySettingsOptions(current xp.GuildSettings, data discord.SlashCommandInteractionData) (xp.GuildSettings, bool, error) {
	updated := current
	changed := false

	if v, ok := data.OptBool("enabled"); ok {
		updated.Enabled = v
		changed = true
	}
	if v, ok := data.OptInt("xp_min"); ok {
		updated.XPMin = int64(v)
		changed = true
	}
	if v, ok := data.OptInt("xp_max"); ok {
		updated.XPMax = int64(v)
		changed = true
	}
	if v, ok := data.OptString("cooldown"); ok {
		d, err := utils.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return current, false, err
		}
		updated.Cooldown = d
		changed = true
	}
	if v, ok := data.OptFloat("rate"); ok {
		updated.XPRate = v
		changed = true
	}
	return updated, changed, nil
}

func describeSettings(s xp.GuildSettings) string {
	status := "✅ Enabled"
	if !s.Enabled {
		status = "⛔ Disabled"
	}
	return fmt.Sprintf("%s\nXP per message: %d to %d\nCooldown: %s\nRate: ×%.2f",
		status, s.XPMin, s.XPMax, utils.FormatDuration(s.Cooldown), s.XPRate)
}

func describeMultipliers(multipliers []xp.Multiplier, now time.Time) string {
	lines := make([]string, 0, len(multipliers))
	for _, m := range multipliers {
		line := fmt.Sprintf("%s ×%.2f", m.Type, m.Factor)
		if m.Identifier != "" {
			line += " on " + describeIdentifier(m.Type, m.Identifier)
		}
		switch {
		case m.StartTime != nil && now.Before(*m.StartTime):
			line += " (scheduled)"
		case m.EndTime != nil:
			line += " (ends in " + utils.FormatDuration(m.EndTime.Sub(now)) + ")"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func describeReward(reward xp.LevelReward) string {
	var parts []string
	if reward.RoleID != "" {
		parts = append(parts, "role <@&"+reward.RoleID+">")
	}
	if reward.XPBonus > 0 {
		parts = append(parts, utils.FormatNumber(reward.XPBonus)+" bonus XP")
	}
	if reward.Announcement != "" {
		parts = append(parts, "announcement")
	}
	if len(parts) == 0 {
		return "nothing"
	}
	return strings.Join(parts, ", ")
}

func requiresIdentifier(typ xp.MultiplierType) bool {
	switch typ {
	case xp.MultiplierRole, xp.MultiplierChannel, xp.MultiplierTime:
		return true
	}
	return false
}

// normalizeIdentifier strips role and channel mention syntax down to the ID.
func normalizeIdentifier(raw string) string {
	s := strings.TrimSpace(raw)
	for _, prefix := range []string{"<@&", "<#"} {
		if strings.HasPrefix(s, prefix) && strings.HasSuffix(s, ">") {
			return strings.TrimSuffix(strings.TrimPrefix(s, prefix), ">")
		}
	}
	return s
}

func describeIdentifier(typ xp.MultiplierType, identifier string) string {
	switch typ {
	case xp.MultiplierRole:
		return "<@&" + identifier + ">"
	case xp.MultiplierChannel:
		return "<#" + identifier + ">"
	case xp.MultiplierTime:
		return "hours " + identifier
	}
	return identifier
}
