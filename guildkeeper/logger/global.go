package logger

import "log/slog"

// LogSystem logs system events
func LogSystem(msg string, attrs ...any) {
	baseAttrs := []any{slog.String("type", "sys")}
	slog.Info(msg, append(baseAttrs, attrs...)...)
}

// LogXP logs accrual events for one member.
func LogXP(msg, userID, guildID string, attrs ...any) {
	baseAttrs := []any{
		slog.String("type", "xp"),
		slog.String("user_id", userID),
		slog.String("guild_id", guildID),
	}
	slog.Info(msg, append(baseAttrs, attrs...)...)
}

// LogError logs error events
func LogError(msg string, err error, attrs ...any) {
	baseAttrs := []any{
		slog.String("type", "error"),
		slog.Any("error", err),
	}
	slog.Error(msg, append(baseAttrs, attrs...)...)
}
