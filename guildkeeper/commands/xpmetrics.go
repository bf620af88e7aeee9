package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/guildkeeper/guildkeeper/guildkeeper"
	"github.com/guildkeeper/guildkeeper/guildkeeper/config"
	"github.com/guildkeeper/guildkeeper/guildkeeper/utils"
	"github.com/guildkeeper/guildkeeper/guildkeeper/xp"
)

var xpMetrics = discord.SlashCommandCreate{
	Name:        "xpmetrics",
	Description: "📊 View XP engine and process metrics",
}

func XPMetricsHandler(b *guildkeeper.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		if member := e.Member(); member == nil || !member.Permissions.Has(discord.PermissionManageGuild) {
			return utils.EH.CreatePermissionError(e, "view metrics.")
		}

		metrics := b.Engine.GetSystemMetrics()
		uptime := time.Since(b.StartTime)

		embed := discord.NewEmbedBuilder().
			SetTitle("🔧 XP Engine Metrics").
			SetDescription(fmt.Sprintf("Version %s (%s) • up %s", b.Version, b.Commit, utils.FormatDuration(uptime))).
			AddField("⚙️ Engine", engineField(metrics), false).
			AddField("🗃️ Caches", cacheField(metrics.CacheSizes), true).
			AddField("🚫 Rejections", rejectionField(metrics.Rejections), true).
			AddField("💾 Process", processField(), false).
			AddField("⚡ Latency", latencyField(b), false).
			SetColor(config.SuccessColor).
			SetTimestamp(time.Now()).
			SetFooter("Requested by "+e.User().Username, e.User().EffectiveAvatarURL())

		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{embed.Build()},
		})
	}
}

func engineField(m xp.SystemMetrics) string {
	return fmt.Sprintf("```\n"+
		"Granted: %s\n"+
		"Pending batch: %d\n"+
		"Flush failures: %d\n"+
		"Cooldowns: %d\n"+
		"Active multipliers: %d\n"+
		"Rewards: %d\n"+
		"Pending level-ups: %d\n"+
		"```",
		utils.FormatNumber(m.Granted),
		m.BatchSize,
		m.FlushFailures,
		m.CooldownCount,
		m.ActiveMultiplierCount,
		m.RewardCount,
		m.PendingLevelUps,
	)
}

func cacheField(sizes xp.CacheSizes) string {
	return fmt.Sprintf("```\n"+
		"Members: %d\n"+
		"Stats: %d\n"+
		"Ranks: %d\n"+
		"Boards: %d\n"+
		"Settings: %d\n"+
		"```",
		sizes.Members, sizes.UserStats, sizes.Ranks, sizes.Leaderboards, sizes.Settings)
}

func rejectionField(rejections map[string]int64) string {
	reasons := make([]string, 0, len(rejections))
	for reason := range rejections {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)

	var out strings.Builder
	out.WriteString("```\n")
	for _, reason := range reasons {
		fmt.Fprintf(&out, "%s: %d\n", reason, rejections[reason])
	}
	out.WriteString("```")
	return out.String()
}

// processField samples this process through gopsutil. Sampling failures
// fall back to the Go runtime's own counters.
func processField() string {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	cpuText, rssText := "n/a", "n/a"
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err == nil {
		if cpu, err := proc.Percent(config.MetricsSampleWindow); err == nil {
			cpuText = fmt.Sprintf("%.1f%%", cpu)
		}
		if mem, err := proc.MemoryInfo(); err == nil {
			rssText = fmt.Sprintf("%.2f MB", float64(mem.RSS)/1024/1024)
		}
	} else {
		slog.Debug("Process sampling unavailable",
			slog.String("type", "sys"),
			slog.Any("error", err))
	}

	return fmt.Sprintf("```\n"+
		"CPU: %s\n"+
		"RSS: %s\n"+
		"Heap: %.2f MB\n"+
		"NumGC: %d\n"+
		"Goroutines: %d\n"+
		"```",
		cpuText,
		rssText,
		float64(m.HeapAlloc)/1024/1024,
		m.NumGC,
		runtime.NumGoroutine(),
	)
}

func latencyField(b *guildkeeper.Bot) string {
	dbText := "n/a"
	if b.DB != nil {
		ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
		defer cancel()

		start := time.Now()
		if err := b.DB.Ping(ctx); err != nil {
			dbText = "unreachable"
		} else {
			dbText = time.Since(start).Round(time.Microsecond).String()
		}
	}

	return fmt.Sprintf("```\n"+
		"Gateway: %s\n"+
		"Database: %s\n"+
		"```",
		b.Client.Gateway().Latency().String(),
		dbText,
	)
}
