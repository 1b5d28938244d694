// Package logging configures the process-wide slog logger used to
// report skipped nodes, injected rewriter behavior (skip-binlog), and
// the implicit-database-inclusion note, per SPEC_FULL.md section 3.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init configures slog's default logger based on the LOG_LEVEL
// environment variable (debug, info, warn, error; default info),
// writing text-handler output to stderr so stdout stays reserved for
// the filtered dump.
func Init() {
	level := slog.LevelInfo
	if raw, ok := os.LookupEnv("LOG_LEVEL"); ok {
		switch strings.ToLower(raw) {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
