package main

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// setupLogging installs the process-wide slog handler. Logs go to stderr so
// that `dirtar archive -o -` can write the tar stream to stdout.
func setupLogging(env, level string) {
	if level == "" {
		level = "debug"
		if env == "prod" {
			level = "info"
		}
	}

	logger := slog.New(newLogHandler(os.Stderr, env, parseLevel(level)))
	slog.SetDefault(logger)

	log.SetFlags(0)
	log.SetOutput(slog.NewLogLogger(logger.Handler(), slog.LevelInfo).Writer())
}

// newLogHandler returns a JSON handler with a UTC "ts" key in prod and a
// colored tint handler otherwise.
func newLogHandler(w io.Writer, env string, level slog.Level) slog.Handler {
	if env != "prod" {
		return tint.NewHandler(w, &tint.Options{
			Level:      level,
			AddSource:  level == slog.LevelDebug,
			TimeFormat: time.TimeOnly,
		})
	}

	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 || a.Key != slog.TimeKey {
				return a
			}
			return slog.String("ts", a.Value.Time().UTC().Format(time.RFC3339Nano))
		},
	})
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}
