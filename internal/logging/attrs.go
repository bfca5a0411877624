package logging

import (
	"io"
	"log/slog"
	"time"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventID is the standardized structured logging key for event identifiers.
	FieldEventID = "event_id"
	// FieldEventType is the standardized structured logging key for event type names.
	FieldEventType = "event_type"
	// FieldAnimeID is the standardized structured logging key for anime identifiers.
	FieldAnimeID = "anime_id"
	// FieldEpisodeID is the standardized structured logging key for episode identifiers.
	FieldEpisodeID = "episode_id"
	// FieldFileID is the standardized structured logging key for file identifiers.
	FieldFileID = "file_id"
	// FieldFingerprint is the standardized structured logging key for materialization fingerprints.
	FieldFingerprint = "fingerprint"
	// FieldOutcome is the standardized structured logging key for materialization outcomes.
	FieldOutcome = "outcome"
	// FieldConfidence is the standardized structured logging key for resolution confidence scores.
	FieldConfidence = "confidence"
)

type Attr = slog.Attr

func Any(key string, value any) Attr { return slog.Any(key, value) }

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Float64(key string, value float64) Attr { return slog.Float64(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

func attrsToArgs(attrs []Attr) []any {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return args
}

// Args converts attr helpers into the variadic form slog methods accept.
func Args(attrs ...Attr) []any {
	return attrsToArgs(attrs)
}

// NewNop returns a logger that discards all records.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// NewComponentLogger creates a logger with a standardized component attribute.
// Falls back to a no-op logger when logger is nil.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	return logger.With(slog.String(FieldComponent, component))
}

