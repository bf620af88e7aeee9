package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCustomHandler_Format(t *testing.T) {
	tests := []struct {
		name     string
		log      func(l *slog.Logger)
		contains []string
		absent   []string
	}{
		{
			name: "xp type and record attrs",
			log: func(l *slog.Logger) {
				l.Info("XP flushed", slog.String("type", "xp"), slog.Int("groups", 3))
			},
			contains: []string{"[GuildKeeper]", "[INFO]", "[XP]", "XP flushed", "groups=3"},
			absent:   []string{"type="},
		},
		{
			name: "command with user and duration",
			log: func(l *slog.Logger) {
				l.Info("Command executed",
					slog.String("type", "cmd"),
					slog.String("name", "level"),
					slog.String("user_name", "alice"),
					slog.Duration("took", 1500*time.Millisecond))
			},
			contains: []string{"[CMD]", "[level by alice]", "(took 1.5s)"},
		},
		{
			name: "error details",
			log: func(l *slog.Logger) {
				l.Error("Flush failed",
					slog.String("type", "error"),
					slog.String("error_location", "batch.go:10"),
					slog.Any("error", errors.New("boom")))
			},
			contains: []string{"[ERROR]", "[ERR]", "Flush failed (batch.go:10): boom"},
		},
		{
			name:     "default type is system",
			log:      func(l *slog.Logger) { l.Warn("Slow start") },
			contains: []string{"[WARN]", "[SYS]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(slog.New(NewHandler(slog.LevelDebug, &buf)))

			out := buf.String()
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
			for _, unwanted := range tt.absent {
				assert.NotContains(t, out, unwanted)
			}
			assert.NotContains(t, out, colorReset, "non-terminal output must not be colored")
		})
	}
}

func TestCustomHandler_LevelAndSkips(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewHandler(slog.LevelInfo, &buf))

	l.Debug("hidden")
	l.Info("Sending heartbeat to gateway")
	l.Info("visible")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 1)
	assert.Contains(t, lines[0], "visible")
}

func TestCustomHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewHandler(slog.LevelInfo, &buf)).With(slog.String("type", "db")).WithGroup("pool")

	l.Info("Pool ready", slog.Int("conns", 4))

	out := buf.String()
	assert.Contains(t, out, "[DB]")
	assert.Contains(t, out, "pool.conns=4")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}
