package logger

import (
	"log/slog"
	"time"
)

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Field records a schema field name under the key "field".
func Field(name string) slog.Attr {
	return slog.String("field", name)
}

// Source records a source name under the key "source".
func Source(name string) slog.Attr {
	return slog.String("source", name)
}

// RunID records the run identifier under the key "run_id".
func RunID(id string) slog.Attr {
	return slog.String("run_id", id)
}

// Count records a counter under the given key.
func Count(key string, n int) slog.Attr {
	return slog.Int(key, n)
}

// Duration records a duration under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}
