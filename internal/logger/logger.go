package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Init installs the process-wide JSON logger on stderr.
// LOG_LEVEL=debug enables debug output.
func Init() {
	level := slog.LevelInfo
	if strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug") {
		level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}
