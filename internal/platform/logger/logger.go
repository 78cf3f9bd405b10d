package logger

import (
	"log/slog"
	"os"
)

// New returns the structured JSON logger services receive via options.
// Level defaults to info; set ROLLCALL_LOG_LEVEL=debug for local debugging.
func New() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("ROLLCALL_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
