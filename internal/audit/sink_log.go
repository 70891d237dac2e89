package audit

import (
	"context"
	"log/slog"
)

// LogSink writes events to the structured log. Used when no broker is set.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Write(ctx context.Context, event Event) error {
	s.logger.InfoContext(ctx, string(event.Action),
		"log_type", "audit",
		"record_id", event.RecordID,
		"group", event.Group,
		"request_id", event.RequestID,
		"timestamp", event.Timestamp,
	)
	return nil
}
