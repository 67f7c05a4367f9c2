package events

import (
	"context"
	"log/slog"
)

// LoggingHandler logs every progress event. It is registered at startup so
// milestones are observable even with no other handler attached.
type LoggingHandler struct {
	logger *slog.Logger
}

var _ EventHandler = (*LoggingHandler)(nil)

// NewLoggingHandler creates a handler that logs events at INFO level.
func NewLoggingHandler(logger *slog.Logger) *LoggingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingHandler{
		logger: logger.With(slog.String("component", "progress_event_log")),
	}
}

// HandleEvent implements EventHandler.
func (h *LoggingHandler) HandleEvent(ctx context.Context, event *ProgressEvent) error {
	h.logger.InfoContext(ctx, "progress event",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type),
		slog.String("user_id", event.UserID.String()),
		slog.Time("occurred_at", event.OccurredAt))
	return nil
}
