// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger to provide specialized logging methods.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is the default logger instance for the application.
var GlobalLogger *Logger

func init() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	GlobalLogger = &Logger{Logger: slog.New(handler)}
}

// ModerationLogger provides structured logging for moderation actions.
// Every ban, unban and admin delete leaves an audit line.
type ModerationLogger struct {
	logger *Logger
}

// NewModerationLogger creates a new ModerationLogger.
func NewModerationLogger() *ModerationLogger {
	return &ModerationLogger{logger: GlobalLogger}
}

// LogAction logs one moderation action against a site.
func (l *ModerationLogger) LogAction(ctx context.Context, action, siteID, targetUserID, actor string) {
	l.logger.InfoContext(ctx, "moderation action",
		slog.String("action", action),
		slog.String("site_id", siteID),
		slog.String("target_user_id", targetUserID),
		slog.String("actor", actor),
	)
}

// LogDenied logs a rejected moderation attempt.
func (l *ModerationLogger) LogDenied(ctx context.Context, action, siteID, actor string) {
	l.logger.WarnContext(ctx, "moderation denied",
		slog.String("action", action),
		slog.String("site_id", siteID),
		slog.String("actor", actor),
	)
}
