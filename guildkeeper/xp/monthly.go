package xp

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const (
	DefaultResetPeriod      = 28 * 24 * time.Hour
	DefaultResetCheckPeriod = 24 * time.Hour
	resetGrace              = 24 * time.Hour
	resetConcurrency        = 4
)

// ResetCoordinator is the engine side of a monthly reset: buffered grants
// are flushed before the reset and cached reads dropped after it.
type ResetCoordinator interface {
	Flush(ctx context.Context) error
	InvalidateGuild(guildID string)
}

// MonthlyResetter zeroes monthly XP for guilds whose cycle has elapsed.
type MonthlyResetter struct {
	store       ResetStore
	engine      ResetCoordinator
	period      time.Duration
	check       time.Duration
	now         func() time.Time
	sem         *semaphore.Weighted
	running     atomic.Bool
}

func NewMonthlyResetter(store ResetStore, engine ResetCoordinator, period, check time.Duration, now func() time.Time) *MonthlyResetter {
	if period <= 0 {
		period = DefaultResetPeriod
	}
	if check <= 0 {
		check = DefaultResetCheckPeriod
	}
	if now == nil {
		now = time.Now
	}
	return &MonthlyResetter{
		store:       store,
		engine:      engine,
		period:      period,
		check:       check,
		now:         now,
		sem:         semaphore.NewWeighted(resetConcurrency),
	}
}

// Run checks immediately and then on every check period until ctx is done.
func (r *MonthlyResetter) Run(ctx context.Context) error {
	if _, err := r.CheckAll(ctx); err != nil {
		slog.Error("Monthly reset check failed", slog.String("type", "xp"), slog.Any("error", err))
	}

	ticker := time.NewTicker(r.check)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := r.CheckAll(ctx); err != nil {
				slog.Error("Monthly reset check failed", slog.String("type", "xp"), slog.Any("error", err))
			}
		}
	}
}

// CheckAll resets every guild that is due and returns how many were reset.
func (r *MonthlyResetter) CheckAll(ctx context.Context) (int, error) {
	if !r.running.CompareAndSwap(false, true) {
		slog.Debug("Monthly reset check already running", slog.String("type", "xp"))
		return 0, nil
	}
	defer r.running.Store(false)

	guilds, err := r.store.ListGuildIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list guilds: %w", err)
	}

	var reset atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	for _, guildID := range guilds {
		if err := r.sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer r.sem.Release(1)
			done, err := r.checkGuild(gctx, guildID)
			if err != nil {
				slog.Error("Monthly reset failed for guild",
					slog.String("type", "xp"),
					slog.String("guild_id", guildID),
					slog.Any("error", err))
				return nil
			}
			if done {
				reset.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(reset.Load()), err
	}
	return int(reset.Load()), ctx.Err()
}

func (r *MonthlyResetter) checkGuild(ctx context.Context, guildID string) (bool, error) {
	now := r.now()

	last, err := r.store.LastMonthlyReset(ctx, guildID)
	if err != nil {
		return false, err
	}
	if last != nil && now.Sub(*last) < resetGrace {
		return false, nil
	}

	stale, err := r.store.CountStaleMonthly(ctx, guildID, now.Add(-r.period))
	if err != nil {
		return false, err
	}
	if stale == 0 {
		return false, nil
	}

	if _, err := r.Reset(ctx, guildID); err != nil {
		return false, err
	}
	return true, nil
}

// Reset zeroes the guild's monthly board right away.
func (r *MonthlyResetter) Reset(ctx context.Context, guildID string) (int, error) {
	if r.engine != nil {
		if err := r.engine.Flush(ctx); err != nil {
			return 0, fmt.Errorf("failed to flush before monthly reset of guild %s: %w", guildID, err)
		}
	}

	affected, err := r.store.ResetGuild(ctx, guildID, true, r.now())
	if err != nil {
		return 0, fmt.Errorf("failed to reset monthly xp for guild %s: %w", guildID, err)
	}
	if r.engine != nil {
		r.engine.InvalidateGuild(guildID)
	}
	slog.Info("Monthly XP reset",
		slog.String("type", "xp"),
		slog.String("guild_id", guildID),
		slog.Int("members", affected))
	return affected, nil
}

// TimeUntilNextReset estimates when the guild's next cycle ends. A guild
// that was never reset is due now.
func (r *MonthlyResetter) TimeUntilNextReset(ctx context.Context, guildID string) (time.Duration, error) {
	last, err := r.store.LastMonthlyReset(ctx, guildID)
	if err != nil {
		return 0, err
	}
	if last == nil {
		return 0, nil
	}
	if left := last.Add(r.period).Sub(r.now()); left > 0 {
		return left, nil
	}
	return 0, nil
}

func (r *MonthlyResetter) History(ctx context.Context, guildID string, limit int) ([]MonthlyReset, error) {
	if limit <= 0 {
		limit = 10
	}
	return r.store.ResetHistory(ctx, guildID, limit)
}
