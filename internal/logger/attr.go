package logger

import (
	"log/slog"
	"time"
)

// Helpers return an empty Attr for nil or empty input so call sites can pass
// them unconditionally: log.Info("msg", logger.Error(err)).

// Error creates an attribute for a single error under the key "error".
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component tags the subsystem that emitted the line.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Remote creates an attribute for a peer network address.
func Remote(addr string) slog.Attr {
	if addr == "" {
		return slog.Attr{}
	}
	return slog.String("remote", addr)
}

// SessionID creates an attribute for a connection session id.
func SessionID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("session_id", id)
}

// SourceName groups a source identity under "source".
func SourceName(name, typeName string) slog.Attr {
	if name == "" && typeName == "" {
		return slog.Attr{}
	}
	return slog.Group("source",
		slog.String("name", name),
		slog.String("type_name", typeName),
	)
}

// Addr creates an attribute for a listen address.
func Addr(addr string) slog.Attr {
	return slog.String("addr", addr)
}

// Count creates a generic counter attribute.
func Count(key string, n int) slog.Attr {
	return slog.Int(key, n)
}

// Duration creates an attribute for a duration.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}
