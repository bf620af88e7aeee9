package xp

import (
	"context"
	"fmt"
	"time"
)

const (
	DefaultXPMin    = 15
	DefaultXPMax    = 25
	DefaultCooldown = 60 * time.Second
	DefaultXPRate   = 1.0
)

// DefaultSettings returns the settings used for guilds with no stored row.
func DefaultSettings() GuildSettings {
	return GuildSettings{
		Enabled:  true,
		XPMin:    DefaultXPMin,
		XPMax:    DefaultXPMax,
		Cooldown: DefaultCooldown,
		XPRate:   DefaultXPRate,
	}
}

func (s GuildSettings) Validate() error {
	if s.XPMin < 0 {
		return fmt.Errorf("%w: xp min must not be negative", ErrInvalidSettings)
	}
	if s.XPMin > s.XPMax {
		return fmt.Errorf("%w: xp min %d above xp max %d", ErrInvalidSettings, s.XPMin, s.XPMax)
	}
	if s.Cooldown < 0 {
		return fmt.Errorf("%w: cooldown must not be negative", ErrInvalidSettings)
	}
	if s.XPRate <= 0 {
		return fmt.Errorf("%w: xp rate must be positive", ErrInvalidSettings)
	}
	return nil
}

// SettingsSource is the storage GuildConfigStore reads and writes.
type SettingsSource interface {
	GetGuildSettings(ctx context.Context, guildID string) (*GuildSettings, error)
	UpsertGuildSettings(ctx context.Context, settings GuildSettings) error
}

// GuildConfigStore serves per-guild settings from a TTL cache, falling back
// to defaults for guilds that never configured anything.
type GuildConfigStore struct {
	source   SettingsSource
	defaults GuildSettings
	cache    *ttlCache[string, GuildSettings]
}

func NewGuildConfigStore(source SettingsSource, defaults GuildSettings, ttl time.Duration, now func() time.Time) *GuildConfigStore {
	return &GuildConfigStore{
		source:   source,
		defaults: defaults,
		cache:    newTTLCache[string, GuildSettings](defaultCacheSize, ttl, now),
	}
}

func (s *GuildConfigStore) Get(ctx context.Context, guildID string) (GuildSettings, error) {
	if cached, ok := s.cache.Get(guildID); ok {
		return cached, nil
	}

	stored, err := s.source.GetGuildSettings(ctx, guildID)
	if err != nil {
		return GuildSettings{}, fmt.Errorf("failed to load settings for guild %s: %w", guildID, err)
	}

	settings := s.defaults
	if stored != nil {
		settings = *stored
	}
	settings.GuildID = guildID
	s.cache.Set(guildID, settings)
	return settings, nil
}

func (s *GuildConfigStore) Update(ctx context.Context, settings GuildSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	if err := s.source.UpsertGuildSettings(ctx, settings); err != nil {
		return fmt.Errorf("failed to save settings for guild %s: %w", settings.GuildID, err)
	}
	s.cache.Delete(settings.GuildID)
	return nil
}

func (s *GuildConfigStore) Invalidate(guildID string) {
	s.cache.Delete(guildID)
}

func (s *GuildConfigStore) Len() int {
	return s.cache.Len()
}
