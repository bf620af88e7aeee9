package utils

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// BackgroundProcessManager owns the long-running loops of the bot (flusher,
// maintenance, monthly resets, voice ticks) and stops them together.
type BackgroundProcessManager struct {
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	processes map[string]*ProcessInfo
	seq       uint64
	mu        sync.RWMutex
}

type ProcessInfo struct {
	Name        string
	Description string
	StartedAt   time.Time

	cancel context.CancelFunc
	id     uint64
}

func NewBackgroundProcessManager(parent context.Context) *BackgroundProcessManager {
	ctx, cancel := context.WithCancel(parent)
	return &BackgroundProcessManager{
		ctx:       ctx,
		cancel:    cancel,
		processes: make(map[string]*ProcessInfo),
	}
}

// StartProcess runs fn on its own goroutine. A process with the same name is
// stopped first. Errors other than cancellation are logged; panics are
// recovered and logged.
func (bpm *BackgroundProcessManager) StartProcess(name, description string, fn func(ctx context.Context) error) {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	if _, exists := bpm.processes[name]; exists {
		slog.Warn("Process already exists, stopping existing one",
			slog.String("type", "sys"),
			slog.String("process", name))
		bpm.stopProcessLocked(name)
	}

	processCtx, processCancel := context.WithCancel(bpm.ctx)
	bpm.seq++
	info := &ProcessInfo{
		Name:        name,
		Description: description,
		StartedAt:   time.Now(),
		cancel:      processCancel,
		id:          bpm.seq,
	}
	bpm.processes[name] = info

	bpm.wg.Add(1)
	go func() {
		defer bpm.wg.Done()
		defer bpm.forget(info)

		slog.Info("Starting background process",
			slog.String("type", "sys"),
			slog.String("process", name),
			slog.String("description", description))

		err := runProtected(processCtx, fn)
		switch {
		case err == nil, errors.Is(err, context.Canceled):
			slog.Info("Background process ended",
				slog.String("type", "sys"),
				slog.String("process", name))
		default:
			slog.Error("Background process failed",
				slog.String("type", "error"),
				slog.String("process", name),
				slog.Any("error", err))
		}
	}()
}

func runProtected(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}

func (bpm *BackgroundProcessManager) forget(info *ProcessInfo) {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()
	if current, ok := bpm.processes[info.Name]; ok && current.id == info.id {
		current.cancel()
		delete(bpm.processes, info.Name)
	}
}

func (bpm *BackgroundProcessManager) stopProcessLocked(name string) {
	if process, exists := bpm.processes[name]; exists {
		process.cancel()
		delete(bpm.processes, name)
		slog.Info("Stopped background process", slog.String("type", "sys"), slog.String("process", name))
	}
}

// Shutdown cancels every process and waits up to timeout for them to return.
func (bpm *BackgroundProcessManager) Shutdown(timeout time.Duration) error {
	slog.Info("Shutting down background processes",
		slog.String("type", "sys"),
		slog.Int("process_count", bpm.GetProcessCount()))

	bpm.cancel()

	done := make(chan struct{})
	go func() {
		bpm.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("All background processes stopped gracefully", slog.String("type", "sys"))
		return nil
	case <-time.After(timeout):
		slog.Warn("Timeout waiting for background processes to stop",
			slog.String("type", "sys"),
			slog.Duration("timeout", timeout))
		return context.DeadlineExceeded
	}
}

func (bpm *BackgroundProcessManager) GetProcessCount() int {
	bpm.mu.RLock()
	defer bpm.mu.RUnlock()
	return len(bpm.processes)
}

// ListProcesses returns the running processes sorted by name.
func (bpm *BackgroundProcessManager) ListProcesses() []ProcessInfo {
	bpm.mu.RLock()
	defer bpm.mu.RUnlock()

	processes := make([]ProcessInfo, 0, len(bpm.processes))
	for _, process := range bpm.processes {
		processes = append(processes, *process)
	}
	sort.Slice(processes, func(i, j int) bool { return processes[i].Name < processes[j].Name })
	return processes
}
