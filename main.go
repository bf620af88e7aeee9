package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/handler"

	"github.com/guildkeeper/guildkeeper/guildkeeper"
	"github.com/guildkeeper/guildkeeper/guildkeeper/commands"
	"github.com/guildkeeper/guildkeeper/guildkeeper/config"
	"github.com/guildkeeper/guildkeeper/guildkeeper/database"
	"github.com/guildkeeper/guildkeeper/guildkeeper/database/repositories"
	"github.com/guildkeeper/guildkeeper/guildkeeper/handlers"
	"github.com/guildkeeper/guildkeeper/guildkeeper/logger"
	"github.com/guildkeeper/guildkeeper/guildkeeper/utils"
	"github.com/guildkeeper/guildkeeper/guildkeeper/xp"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	slog.SetDefault(slog.New(logger.NewHandler(slog.LevelInfo, os.Stdout)))

	shouldSyncCommands := flag.Bool("sync-commands", false, "Whether to sync commands to discord")
	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := guildkeeper.LoadConfig(*path)
	if err != nil {
		logger.LogError("Failed to load configuration", err)
		os.Exit(-1)
	}
	slog.SetDefault(logger.New(cfg.Log.Format, logger.ParseLevel(cfg.Log.Level), cfg.Log.AddSource))

	logger.LogSystem("Starting GuildKeeper",
		slog.String("version", version),
		slog.String("commit", commit))

	engineCfg, err := cfg.XP.Engine()
	if err != nil {
		logger.LogError("Invalid XP configuration", err)
		os.Exit(-1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.StartupTimeout)
	defer cancel()

	dbStartTime := time.Now()
	db, err := database.New(ctx, cfg.DB)
	if err != nil {
		logger.LogError("Database connection failed", err,
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}
	defer db.Close()

	if err := db.InitializeSchema(ctx); err != nil {
		logger.LogError("Failed to initialize database schema", err)
		os.Exit(-1)
	}
	logger.LogSystem("Database ready",
		slog.String("database", cfg.DB.Database),
		slog.Duration("took", time.Since(dbStartTime)))

	store := repositories.NewXPStore(db.GetPool(), db.BunDB())
	engine := xp.NewEngine(store, engineCfg)
	if err := engine.Start(ctx); err != nil {
		logger.LogError("Failed to start XP engine", err)
		os.Exit(-1)
	}

	b := guildkeeper.New(*cfg, version, commit)
	b.DB = db
	b.Engine = engine
	b.Resetter = xp.NewMonthlyResetter(store, engine, cfg.XP.ResetPeriodDuration(), 0, nil)

	h := handler.New()
	h.Command("/level", handlers.WrapWithLogging("level", commands.LevelHandler(b)))
	h.Command("/leaderboard", handlers.WrapWithLogging("leaderboard", commands.LeaderboardHandler(b)))
	h.Command("/xpadmin", handlers.WrapWithLogging("xpadmin", commands.XPAdminHandler(b)))
	h.Command("/xpmetrics", handlers.WrapWithLogging("xpmetrics", commands.XPMetricsHandler(b)))

	voice := handlers.NewVoiceTracker(engine)

	if err = b.SetupBot(h, bot.NewListenerFunc(b.OnReady), handlers.MessageHandler(b), voice.Listener()); err != nil {
		slog.Error("Failed to setup bot",
			slog.String("type", "sys"),
			slog.Any("error", err),
			slog.String("error_details", fmt.Sprintf("%+v", err)),
			slog.String("component", "bot_setup"),
			slog.String("status", "failed"),
		)
		os.Exit(-1)
	}

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		b.Client.Close(ctx)
	}()

	bpm := utils.NewBackgroundProcessManager(context.Background())
	bpm.StartProcess("xp-flusher", "Writes buffered XP grants", engine.RunFlusher)
	bpm.StartProcess("xp-maintenance", "Purges cooldowns, expired multipliers and stale caches", engine.RunMaintenance)
	bpm.StartProcess("monthly-reset", "Resets monthly XP when a guild's cycle elapses", b.Resetter.Run)
	bpm.StartProcess("voice-xp", "Grants XP to members in voice channels", func(ctx context.Context) error {
		return voice.Run(ctx, cfg.XP.VoiceTickInterval())
	})
	dispatcher := handlers.NewLevelUpDispatcher(engine.Notifier(), b.Client.Rest(), b.LastChannel)
	bpm.StartProcess("level-rewards", "Grants reward roles and posts announcements", dispatcher.Run)

	for _, process := range bpm.ListProcesses() {
		slog.Debug("Background process running",
			slog.String("type", "sys"),
			slog.String("process", process.Name),
			slog.String("description", process.Description))
	}

	if *shouldSyncCommands {
		slog.Info("Syncing commands",
			slog.String("type", "sys"),
			slog.Any("guild_ids", cfg.Bot.DevGuilds),
		)
		if err = handler.SyncCommands(b.Client, commands.Commands, cfg.Bot.DevGuilds); err != nil {
			slog.Error("Failed to sync commands",
				slog.String("type", "sys"),
				slog.Any("error", err),
				slog.String("error_details", fmt.Sprintf("%+v", err)),
				slog.String("component", "command_sync"),
				slog.String("status", "failed"),
			)
		}
	}

	gatewayCtx, gatewayCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer gatewayCancel()
	if err = b.Client.OpenGateway(gatewayCtx); err != nil {
		slog.Error("Failed to open gateway",
			slog.String("type", "sys"),
			slog.Any("error", err),
			slog.String("error_details", fmt.Sprintf("%+v", err)),
			slog.String("component", "gateway"),
			slog.String("status", "failed"),
		)
		os.Exit(-1)
	}

	slog.Info("Bot is running. Press CTRL-C to exit.", slog.String("type", "sys"))
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s
	slog.Info("Shutting down bot...", slog.String("type", "sys"))

	if err := bpm.Shutdown(config.ShutdownTimeout); err != nil {
		logger.LogError("Background processes did not stop in time", err)
	}

	flushCtx, flushCancel := context.WithTimeout(context.Background(), config.BatchQueryTimeout)
	defer flushCancel()
	if err := engine.Flush(flushCtx); err != nil {
		logger.LogError("Final XP flush failed", err)
	}
}
