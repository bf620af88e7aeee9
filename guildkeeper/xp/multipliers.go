package xp

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

type MultiplierType string

const (
	MultiplierRole    MultiplierType = "role"
	MultiplierChannel MultiplierType = "channel"
	MultiplierTime    MultiplierType = "time"
	MultiplierBoost   MultiplierType = "boost"
	MultiplierEvent   MultiplierType = "event"
)

const (
	MinMultiplier = 0.1
	MaxMultiplier = 10.0
)

func (t MultiplierType) Valid() bool {
	switch t {
	case MultiplierRole, MultiplierChannel, MultiplierTime, MultiplierBoost, MultiplierEvent:
		return true
	}
	return false
}

type Multiplier struct {
	GuildID    string
	Type       MultiplierType
	Identifier string
	Factor     float64
	StartTime  *time.Time
	EndTime    *time.Time
}

// ActiveAt reports whether now falls inside the optional [start, end] window.
func (m Multiplier) ActiveAt(now time.Time) bool {
	if m.StartTime != nil && now.Before(*m.StartTime) {
		return false
	}
	if m.EndTime != nil && now.After(*m.EndTime) {
		return false
	}
	return true
}

// Expired reports whether the multiplier can never become active again.
func (m Multiplier) Expired(now time.Time) bool {
	return m.EndTime != nil && now.After(*m.EndTime)
}

func (m Multiplier) Validate() error {
	if !m.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidMultiplier, m.Type)
	}
	if m.Factor <= 0 {
		return fmt.Errorf("%w: factor must be positive, got %v", ErrInvalidMultiplier, m.Factor)
	}
	if m.StartTime != nil && m.EndTime != nil && m.EndTime.Before(*m.StartTime) {
		return fmt.Errorf("%w: end before start", ErrInvalidMultiplier)
	}
	if m.Type == MultiplierTime {
		if _, _, err := parseHourRange(m.Identifier); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidMultiplier, err)
		}
	}
	return nil
}

func parseHourRange(identifier string) (int, int, error) {
	parts := strings.Split(identifier, "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("time identifier %q must look like start-end", identifier)
	}
	start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("bad start hour in %q", identifier)
	}
	end, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("bad end hour in %q", identifier)
	}
	if start < 0 || start > 23 || end < 0 || end > 23 {
		return 0, 0, fmt.Errorf("hours in %q must be within 0-23", identifier)
	}
	return start, end, nil
}

func hourInRange(identifier string, hour int) bool {
	start, end, err := parseHourRange(identifier)
	if err != nil {
		return false
	}
	if start <= end {
		return hour >= start && hour <= end
	}
	return hour >= start || hour <= end
}

func clampMultiplier(v float64) float64 {
	if v < MinMultiplier {
		return MinMultiplier
	}
	if v > MaxMultiplier {
		return MaxMultiplier
	}
	return v
}

// MultiplierStore persists multipliers for MultiplierRegistry.
type MultiplierStore interface {
	LoadMultipliers(ctx context.Context, now time.Time) ([]Multiplier, error)
	SaveMultiplier(ctx context.Context, multiplier Multiplier) error
	DeleteMultipliers(ctx context.Context, guildID string, typ MultiplierType, identifier string) (int, error)
}

// MultiplierRegistry holds every guild's multipliers in memory, mirrored to
// storage on writes.
type MultiplierRegistry struct {
	store    MultiplierStore
	mu       sync.RWMutex
	byGuild  map[string][]Multiplier
	location *time.Location
	now      func() time.Time
}

func NewMultiplierRegistry(store MultiplierStore, location *time.Location, now func() time.Time) *MultiplierRegistry {
	if location == nil {
		location = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &MultiplierRegistry{
		store:    store,
		byGuild:  make(map[string][]Multiplier),
		location: location,
		now:      now,
	}
}

// Load replaces the in-memory set with the non-expired multipliers in storage.
func (r *MultiplierRegistry) Load(ctx context.Context) error {
	loaded, err := r.store.LoadMultipliers(ctx, r.now())
	if err != nil {
		return fmt.Errorf("failed to load multipliers: %w", err)
	}

	byGuild := make(map[string][]Multiplier)
	for _, m := range loaded {
		byGuild[m.GuildID] = append(byGuild[m.GuildID], m)
	}

	r.mu.Lock()
	r.byGuild = byGuild
	r.mu.Unlock()

	slog.Info("Loaded XP multipliers",
		slog.String("type", "xp"),
		slog.Int("count", len(loaded)),
		slog.Int("guilds", len(byGuild)))
	return nil
}

// Effective returns base times every matching active multiplier, times
// dampening, clamped to [MinMultiplier, MaxMultiplier].
func (r *MultiplierRegistry) Effective(guildID string, base float64, actx ActivityContext, dampening float64) float64 {
	now := r.now()
	hour := now.In(r.location).Hour()

	roles := make(map[string]struct{}, len(actx.RoleIDs))
	for _, id := range actx.RoleIDs {
		roles[id] = struct{}{}
	}

	result := base
	r.mu.RLock()
	for _, m := range r.byGuild[guildID] {
		if !m.ActiveAt(now) {
			continue
		}
		if matches(m, roles, actx, hour) {
			result *= m.Factor
		}
	}
	r.mu.RUnlock()

	if dampening > 0 {
		result *= dampening
	}
	return clampMultiplier(result)
}

func matches(m Multiplier, roles map[string]struct{}, actx ActivityContext, hour int) bool {
	switch m.Type {
	case MultiplierRole:
		_, ok := roles[m.Identifier]
		return ok
	case MultiplierChannel:
		return actx.ChannelID != "" && actx.ChannelID == m.Identifier
	case MultiplierTime:
		return hourInRange(m.Identifier, hour)
	case MultiplierBoost:
		return actx.Booster
	case MultiplierEvent:
		return true
	}
	return false
}

// Set persists m and adds it to the guild's set. A multiplier with the same
// type and identifier replaces the old one.
func (r *MultiplierRegistry) Set(ctx context.Context, m Multiplier) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if err := r.store.SaveMultiplier(ctx, m); err != nil {
		return fmt.Errorf("failed to save multiplier: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.byGuild[m.GuildID][:0:0]
	for _, existing := range r.byGuild[m.GuildID] {
		if existing.Type == m.Type && existing.Identifier == m.Identifier {
			continue
		}
		list = append(list, existing)
	}
	r.byGuild[m.GuildID] = append(list, m)
	return nil
}

// Remove deletes every multiplier of the guild with the given type and
// identifier, returning how many were removed from memory.
func (r *MultiplierRegistry) Remove(ctx context.Context, guildID string, typ MultiplierType, identifier string) (int, error) {
	if _, err := r.store.DeleteMultipliers(ctx, guildID, typ, identifier); err != nil {
		return 0, fmt.Errorf("failed to delete multiplier: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	kept := r.byGuild[guildID][:0:0]
	for _, m := range r.byGuild[guildID] {
		if m.Type == typ && m.Identifier == identifier {
			removed++
			continue
		}
		kept = append(kept, m)
	}
	if len(kept) == 0 {
		delete(r.byGuild, guildID)
	} else {
		r.byGuild[guildID] = kept
	}
	return removed, nil
}

// Sweep drops multipliers whose end time has passed.
func (r *MultiplierRegistry) Sweep() int {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for guildID, list := range r.byGuild {
		kept := list[:0:0]
		for _, m := range list {
			if m.Expired(now) {
				removed++
				continue
			}
			kept = append(kept, m)
		}
		if len(kept) == 0 {
			delete(r.byGuild, guildID)
		} else {
			r.byGuild[guildID] = kept
		}
	}
	return removed
}

// List returns a copy of the guild's multipliers.
func (r *MultiplierRegistry) List(guildID string) []Multiplier {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Multiplier(nil), r.byGuild[guildID]...)
}

// ActiveCount counts multipliers active right now across all guilds.
func (r *MultiplierRegistry) ActiveCount() int {
	now := r.now()
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, list := range r.byGuild {
		for _, m := range list {
			if m.ActiveAt(now) {
				count++
			}
		}
	}
	return count
}
