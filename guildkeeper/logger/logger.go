package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorPurple = "\033[35m"
	colorWhite  = "\033[37m"
)

type LogType string

const (
	TypeCommand LogType = "CMD"
	TypeDB      LogType = "DB"
	TypeSystem  LogType = "SYS"
	TypeXP      LogType = "XP"
	TypeError   LogType = "ERR"
)

// CustomHandler prints one colored line per record:
// [GuildKeeper] [time] [LEVEL] [TYPE] message key=value...
type CustomHandler struct {
	opts   *slog.HandlerOptions
	out    io.Writer
	mu     *sync.Mutex
	attrs  []slog.Attr
	groups []string
	color  bool
}

func NewHandler(level slog.Leveler, out io.Writer) *CustomHandler {
	if out == nil {
		out = os.Stdout
	}
	_, isFile := out.(*os.File)
	return &CustomHandler{
		opts:  &slog.HandlerOptions{Level: level},
		out:   out,
		mu:    &sync.Mutex{},
		color: isFile,
	}
}

// New builds the process logger: "json" selects slog's JSON handler,
// anything else the colored text handler.
func New(format string, level slog.Level, addSource bool) *slog.Logger {
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level, AddSource: addSource}))
	}
	return slog.New(NewHandler(level, os.Stdout))
}

// ParseLevel maps debug/info/warn/error to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func (h *CustomHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *CustomHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

func (h *CustomHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.groups = append(append([]string{}, h.groups...), name)
	return &clone
}

func (h *CustomHandler) Handle(_ context.Context, r slog.Record) error {
	if shouldSkipLog(&r) {
		return nil
	}

	var levelColor, levelText string
	switch {
	case r.Level >= slog.LevelError:
		levelColor, levelText = colorRed, "ERROR"
	case r.Level >= slog.LevelWarn:
		levelColor, levelText = colorYellow, "WARN"
	case r.Level >= slog.LevelInfo:
		levelColor, levelText = colorGreen, "INFO"
	default:
		levelColor, levelText = colorPurple, "DEBUG"
	}

	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})

	message := r.Message
	if r.Level >= slog.LevelError {
		if location := errorLocation(attrs); location != "" {
			message = fmt.Sprintf("%s (%s)", message, location)
		}
		if details := findAttr(attrs, "error"); details != "" {
			message = fmt.Sprintf("%s: %s", message, details)
		}
	}
	if cmd, user := findAttr(attrs, "name"), findAttr(attrs, "user_name"); cmd != "" && user != "" {
		message = fmt.Sprintf("%s [%s by %s]", message, cmd, user)
	}
	if status := findAttr(attrs, "status"); status != "" {
		message = fmt.Sprintf("%s [Status: %s]", message, status)
	}
	if took := findAttr(attrs, "took"); took != "" {
		message = fmt.Sprintf("%s (took %s)", message, took)
	}

	var b strings.Builder
	prefix := strings.Join(h.groups, ".")
	for _, attr := range attrs {
		if isInternalAttr(attr.Key) {
			continue
		}
		key := attr.Key
		if prefix != "" {
			key = prefix + "." + key
		}
		fmt.Fprintf(&b, " %s=%v", key, attr.Value)
	}

	white, level, reset := colorWhite, levelColor, colorReset
	if !h.color {
		white, level, reset = "", "", ""
	}
	line := fmt.Sprintf("%s[GuildKeeper] [%s] [%s%s%s] [%s] %s%s%s\n",
		white,
		r.Time.Format("15:04:05"),
		level,
		levelText,
		white,
		logType(attrs),
		message,
		b.String(),
		reset,
	)

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, line)
	return err
}

// Gateway and rest chatter from disgo at debug level.
var skippedMessages = []string{
	"locking buckets",
	"unlocking buckets",
	"gateway event",
	"cleaning up bucket",
	"cleaned up rate limit buckets",
	"binary message received",
	"received gateway message",
	"opening gateway connection",
	"locking gateway rate limiter",
	"unlocking gateway rate limiter",
	"sending gateway command",
	"new request",
	"new response",
	"locking rest bucket",
	"unlocking rest bucket",
	"rate limit response headers",
	"sending heartbeat",
}

func shouldSkipLog(r *slog.Record) bool {
	msg := strings.ToLower(r.Message)
	for _, skip := range skippedMessages {
		if strings.Contains(msg, skip) {
			return true
		}
	}
	return false
}

func logType(attrs []slog.Attr) LogType {
	switch findAttr(attrs, "type") {
	case "cmd":
		return TypeCommand
	case "db":
		return TypeDB
	case "xp":
		return TypeXP
	case "error":
		return TypeError
	}
	return TypeSystem
}

func isInternalAttr(key string) bool {
	switch key {
	case "type", "name", "user_name", "status", "error", "error_location", "took":
		return true
	}
	return false
}

// findAttr returns the last value set for key.
func findAttr(attrs []slog.Attr, key string) string {
	var value string
	for _, a := range attrs {
		if a.Key == key {
			value = a.Value.String()
		}
	}
	return value
}

func errorLocation(attrs []slog.Attr) string {
	if location := findAttr(attrs, "error_location"); location != "" {
		return location
	}
	// slog.Error -> Logger.log -> Handler.Handle -> here
	if _, file, line, ok := runtime.Caller(4); ok {
		return fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}
	return ""
}

