package logger

import (
	"io"
	"log/slog"
	"time"
)

// levelNames maps custom slog levels to the names printed in output
var levelNames = map[slog.Level]string{
	traceLevelValue: "TRACE",
}

func replaceLevel(a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if level, ok := a.Value.Any().(slog.Level); ok {
		if name, found := levelNames[level]; found {
			a.Value = slog.StringValue(name)
		}
	}
	return a
}

// newTextHandler builds the console handler. Timestamps are dropped; the
// timezone is applied to time-valued fields.
func newTextHandler(w io.Writer, level slog.Level, tz *time.Location) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			if tz != nil && a.Value.Kind() == slog.KindTime {
				a.Value = slog.TimeValue(a.Value.Time().In(tz))
			}
			return replaceLevel(a)
		},
	})
}

// newJSONHandler builds the file handler with RFC3339 timestamps
func newJSONHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				a.Value = slog.StringValue(a.Value.Time().Format(time.RFC3339))
				return a
			}
			return replaceLevel(a)
		},
	})
}
