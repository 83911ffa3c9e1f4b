package logging

import "log/slog"

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldUserID is the standardized structured logging key for user identifiers.
	FieldUserID = "user_id"
	// FieldEpisodeID is the standardized structured logging key for episode identifiers.
	FieldEpisodeID = "episode_id"
	// FieldGameID is the standardized structured logging key for game identifiers.
	FieldGameID = "game_id"
	// FieldNodeID is the standardized structured logging key for graph node identifiers.
	FieldNodeID = "node_id"
	// FieldRequestID is the standardized structured logging key for request correlation identifiers.
	FieldRequestID = "request_id"
	// FieldSessionID is the standardized structured logging key for playback session identifiers.
	FieldSessionID = "session_id"
)

// WithComponent tags a logger with the component emitting its records.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	return logger.With(slog.String(FieldComponent, component))
}

// Error is a convenience attr for wrapped error values.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}
