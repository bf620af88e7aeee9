package xp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	DefaultBatchSize     = 100
	DefaultFlushInterval = 5 * time.Second
	finalFlushTimeout    = 10 * time.Second
)

// GrantWriter persists a batch of grants in one atomic unit.
type GrantWriter interface {
	ApplyGrants(ctx context.Context, batch FlushBatch) ([]MemberTotal, error)
}

// FlushHook runs after a batch has been committed.
type FlushHook func(ctx context.Context, groups []GrantGroup, totals []MemberTotal)

// BatchWriter buffers accepted grants and writes them in bulk, by size or on
// a timer. A failed write puts the whole batch back in front of the buffer so
// nothing is lost and arrival order is kept.
type BatchWriter struct {
	writer   GrantWriter
	hook     FlushHook
	maxSize  int
	interval time.Duration

	mu       sync.Mutex
	buffer   []Grant
	inFlight int
	pending  map[memberKey]int64

	// only one flush at a time; enqueues never wait on it
	flushMu sync.Mutex
	trigger chan struct{}

	flushes  atomic.Int64
	failures atomic.Int64
	written  atomic.Int64
}

func NewBatchWriter(writer GrantWriter, maxSize int, interval time.Duration, hook FlushHook) *BatchWriter {
	if maxSize <= 0 {
		maxSize = DefaultBatchSize
	}
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	return &BatchWriter{
		writer:   writer,
		hook:     hook,
		maxSize:  maxSize,
		interval: interval,
		pending:  make(map[memberKey]int64),
		trigger:  make(chan struct{}, 1),
	}
}

// Enqueue appends a grant and returns the member's pending XP from before it.
// Reaching the size threshold wakes the flush loop.
func (w *BatchWriter) Enqueue(g Grant) int64 {
	key := memberKey{UserID: g.UserID, GuildID: g.GuildID}

	w.mu.Lock()
	before := w.pending[key]
	w.buffer = append(w.buffer, g)
	w.pending[key] = before + g.Amount
	full := len(w.buffer) >= w.maxSize
	w.mu.Unlock()

	if full {
		select {
		case w.trigger <- struct{}{}:
		default:
		}
	}
	return before
}

// Flush writes everything buffered so far. On failure the batch is requeued
// and the error returned.
func (w *BatchWriter) Flush(ctx context.Context) error {
	w.flushMu.Lock()
	defer w.flushMu.Unlock()

	w.mu.Lock()
	batch := w.buffer
	w.buffer = nil
	w.inFlight = len(batch)
	w.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	start := time.Now()
	groups := groupGrants(batch)
	totals, err := w.writer.ApplyGrants(ctx, FlushBatch{Groups: groups, History: batch})
	if err != nil {
		w.mu.Lock()
		requeued := make([]Grant, 0, len(batch)+len(w.buffer))
		requeued = append(requeued, batch...)
		w.buffer = append(requeued, w.buffer...)
		w.inFlight = 0
		buffered := len(w.buffer)
		w.mu.Unlock()

		w.failures.Add(1)
		slog.Error("XP batch flush failed, requeued",
			slog.String("type", "xp"),
			slog.Int("requeued", len(batch)),
			slog.Int("buffered", buffered),
			slog.Any("error", err))
		return fmt.Errorf("failed to flush %d grants: %w", len(batch), err)
	}

	// committed XP must leave pending before the hook refreshes any reads
	w.mu.Lock()
	for _, g := range batch {
		key := memberKey{UserID: g.UserID, GuildID: g.GuildID}
		w.pending[key] -= g.Amount
		if w.pending[key] == 0 {
			delete(w.pending, key)
		}
	}
	w.inFlight = 0
	w.mu.Unlock()

	if w.hook != nil {
		w.hook(ctx, groups, totals)
	}

	w.flushes.Add(1)
	w.written.Add(int64(len(batch)))
	slog.Debug("Flushed XP batch",
		slog.String("type", "xp"),
		slog.Int("grants", len(batch)),
		slog.Int("members", len(groups)),
		slog.Duration("took", time.Since(start)))
	return nil
}

// groupGrants sums grants per member, keeping first-seen order.
func groupGrants(batch []Grant) []GrantGroup {
	index := make(map[memberKey]int, len(batch))
	groups := make([]GrantGroup, 0, len(batch))
	for _, g := range batch {
		key := memberKey{UserID: g.UserID, GuildID: g.GuildID}
		i, ok := index[key]
		if !ok {
			index[key] = len(groups)
			groups = append(groups, GrantGroup{
				UserID:      g.UserID,
				GuildID:     g.GuildID,
				Username:    g.Username,
				Amount:      g.Amount,
				LastMessage: g.Timestamp,
			})
			continue
		}
		group := &groups[i]
		group.Amount += g.Amount
		if g.Username != "" {
			group.Username = g.Username
		}
		if g.Timestamp.After(group.LastMessage) {
			group.LastMessage = g.Timestamp
		}
	}
	return groups
}

// Pending is the XP accepted for a member but not yet committed.
func (w *BatchWriter) Pending(userID, guildID string) int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending[memberKey{UserID: userID, GuildID: guildID}]
}

// Size counts buffered grants, including any batch being written.
func (w *BatchWriter) Size() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.buffer) + w.inFlight
}

func (w *BatchWriter) Failures() int64 { return w.failures.Load() }

// Run flushes on the interval and whenever the buffer fills, until ctx is
// done. A last flush is attempted on the way out.
func (w *BatchWriter) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), finalFlushTimeout)
			err := w.Flush(flushCtx)
			cancel()
			return err
		case <-ticker.C:
			_ = w.Flush(ctx)
		case <-w.trigger:
			_ = w.Flush(ctx)
		}
	}
}
