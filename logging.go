package bakeao

import (
	"context"
	"log/slog"

	"github.com/goliatone/go-bakeao/pkg/asset"
)

// Level is the severity of a LogEvent.
type Level int

const (
	LevelDebug Level = iota - 1
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// LogEvent is a diagnostic emitted by the settings store. Object is set when
// the message concerns a specific asset.
type LogEvent struct {
	Level   Level
	Message string
	Object  *asset.Object
	Err     error
	Fields  map[string]any
}

// Logger records settings diagnostics.
type Logger interface {
	Log(LogEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(LogEvent)

// Log implements Logger.
func (f LoggerFunc) Log(event LogEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) Log(LogEvent) {}

// NewSlogLogger forwards events to a structured slog logger.
func NewSlogLogger(logger *slog.Logger) Logger {
	if logger == nil {
		return noopLogger{}
	}
	return slogLogger{logger: logger}
}

type slogLogger struct {
	logger *slog.Logger
}

func (l slogLogger) Log(event LogEvent) {
	attrs := make([]slog.Attr, 0, len(event.Fields)+3)
	if event.Object != nil {
		attrs = append(attrs,
			slog.String("asset_id", event.Object.ID.String()),
			slog.String("asset_path", event.Object.Path),
		)
	}
	if event.Err != nil {
		attrs = append(attrs, slog.Any("error", event.Err))
	}
	for key, value := range event.Fields {
		attrs = append(attrs, slog.Any(key, value))
	}
	l.logger.LogAttrs(context.Background(), slogLevel(event.Level), event.Message, attrs...)
}

func slogLevel(level Level) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
