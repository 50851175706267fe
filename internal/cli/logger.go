package cli

import (
	"log/slog"
	"os"
	"strings"

	"trivia-quiz-service/internal/config"
)

// setupLogger picks a text handler for local work and JSON everywhere else.
func setupLogger(env, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	switch env {
	case config.EnvDevelopment, config.EnvTest:
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	default:
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
