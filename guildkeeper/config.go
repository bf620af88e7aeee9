package guildkeeper

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/guildkeeper/guildkeeper/guildkeeper/database"
	"github.com/guildkeeper/guildkeeper/guildkeeper/xp"
)

// LoadConfig reads .env (when present), decodes the toml file at path and
// finally applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Failed to load .env file", slog.String("type", "sys"), slog.Any("error", err))
	}

	cfg := DefaultConfig()
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	if err = toml.NewDecoder(file).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err = cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	if cfg.Bot.Token == "" {
		return nil, errors.New("bot token is not configured")
	}
	return cfg, nil
}

type Config struct {
	Log LogConfig         `toml:"log"`
	Bot BotConfig         `toml:"bot"`
	DB  database.DBConfig `toml:"db"`
	XP  XPConfig          `toml:"xp"`
}

type BotConfig struct {
	DevGuilds []snowflake.ID `toml:"dev_guilds"`
	Token     string         `toml:"token" env:"BOT_TOKEN"`
}

type LogConfig struct {
	Level     string `toml:"level" env:"LOG_LEVEL"`
	Format    string `toml:"format" env:"LOG_FORMAT"`
	AddSource bool   `toml:"add_source"`
}

// XPConfig holds engine tuning. Durations are Go duration strings ("5s",
// "10m"); the cooldown also accepts a plain number of seconds.
type XPConfig struct {
	DefaultEnabled  bool    `toml:"default_enabled" env:"XP_ENABLED"`
	DefaultMin      int64   `toml:"default_min" env:"XP_MIN"`
	DefaultMax      int64   `toml:"default_max" env:"XP_MAX"`
	DefaultCooldown string  `toml:"default_cooldown" env:"XP_COOLDOWN"`
	DefaultRate     float64 `toml:"default_rate" env:"XP_RATE"`

	BatchSize     int    `toml:"batch_size" env:"XP_BATCH_SIZE"`
	FlushInterval string `toml:"flush_interval" env:"XP_FLUSH_INTERVAL"`

	CacheSize       int    `toml:"cache_size"`
	SettingsTTL     string `toml:"settings_ttl"`
	MemberTTL       string `toml:"member_ttl"`
	StatsTTL        string `toml:"stats_ttl"`
	RankTTL         string `toml:"rank_ttl"`
	LeaderboardTTL  string `toml:"leaderboard_ttl"`
	CooldownHorizon string `toml:"cooldown_horizon"`
	SweepInterval   string `toml:"sweep_interval"`

	VoiceTick      string  `toml:"voice_tick"`
	VoiceDampening float64 `toml:"voice_dampening"`

	Timezone    string `toml:"timezone" env:"XP_TIMEZONE"`
	ResetPeriod string `toml:"reset_period"`
}

func DefaultConfig() *Config {
	defaults := xp.DefaultConfig()
	return &Config{
		Log: LogConfig{Level: "info", Format: "text"},
		DB:  database.DBConfig{Host: "localhost", Port: 5432, SSLMode: "disable"},
		XP: XPConfig{
			DefaultEnabled:  defaults.Defaults.Enabled,
			DefaultMin:      defaults.Defaults.XPMin,
			DefaultMax:      defaults.Defaults.XPMax,
			DefaultCooldown: defaults.Defaults.Cooldown.String(),
			DefaultRate:     defaults.Defaults.XPRate,
			BatchSize:       defaults.BatchSize,
			FlushInterval:   defaults.FlushInterval.String(),
			CacheSize:       defaults.CacheSize,
			SettingsTTL:     defaults.SettingsTTL.String(),
			MemberTTL:       defaults.MemberTTL.String(),
			StatsTTL:        defaults.StatsTTL.String(),
			RankTTL:         defaults.RankTTL.String(),
			LeaderboardTTL:  defaults.LeaderboardTTL.String(),
			CooldownHorizon: defaults.CooldownHorizon.String(),
			SweepInterval:   defaults.SweepInterval.String(),
			VoiceTick:       time.Minute.String(),
			VoiceDampening:  defaults.VoiceDampening,
			Timezone:        "UTC",
			ResetPeriod:     xp.DefaultResetPeriod.String(),
		},
	}
}

// Engine converts the section into the engine's configuration, validating
// every duration and the default guild settings.
func (c XPConfig) Engine() (xp.Config, error) {
	cfg := xp.DefaultConfig()

	cooldown, err := parseCooldown(c.DefaultCooldown)
	if err != nil {
		return cfg, fmt.Errorf("xp.default_cooldown: %w", err)
	}
	cfg.Defaults = xp.GuildSettings{
		Enabled:  c.DefaultEnabled,
		XPMin:    c.DefaultMin,
		XPMax:    c.DefaultMax,
		Cooldown: cooldown,
		XPRate:   c.DefaultRate,
	}
	if err := cfg.Defaults.Validate(); err != nil {
		return cfg, err
	}

	durations := []struct {
		name  string
		value string
		dest  *time.Duration
	}{
		{"flush_interval", c.FlushInterval, &cfg.FlushInterval},
		{"settings_ttl", c.SettingsTTL, &cfg.SettingsTTL},
		{"member_ttl", c.MemberTTL, &cfg.MemberTTL},
		{"stats_ttl", c.StatsTTL, &cfg.StatsTTL},
		{"rank_ttl", c.RankTTL, &cfg.RankTTL},
		{"leaderboard_ttl", c.LeaderboardTTL, &cfg.LeaderboardTTL},
		{"cooldown_horizon", c.CooldownHorizon, &cfg.CooldownHorizon},
		{"sweep_interval", c.SweepInterval, &cfg.SweepInterval},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return cfg, fmt.Errorf("xp.%s: %w", d.name, err)
		}
		*d.dest = parsed
	}

	if c.BatchSize > 0 {
		cfg.BatchSize = c.BatchSize
	}
	if c.CacheSize > 0 {
		cfg.CacheSize = c.CacheSize
	}
	if c.VoiceDampening > 0 {
		cfg.VoiceDampening = c.VoiceDampening
	}
	if c.Timezone != "" {
		loc, err := time.LoadLocation(c.Timezone)
		if err != nil {
			return cfg, fmt.Errorf("xp.timezone: %w", err)
		}
		cfg.Location = loc
	}
	return cfg, nil
}

func (c XPConfig) VoiceTickInterval() time.Duration {
	if d, err := time.ParseDuration(c.VoiceTick); err == nil && d > 0 {
		return d
	}
	return time.Minute
}

func (c XPConfig) ResetPeriodDuration() time.Duration {
	if d, err := time.ParseDuration(c.ResetPeriod); err == nil && d > 0 {
		return d
	}
	return xp.DefaultResetPeriod
}

func parseCooldown(s string) (time.Duration, error) {
	if s == "" {
		return xp.DefaultCooldown, nil
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(s)
}
