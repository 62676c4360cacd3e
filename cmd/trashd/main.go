package main

import (
	"log/slog"
	"os"

	"go-trash-bin/internal/app"
	"go-trash-bin/internal/logger"
)

func main() {
	noColor := os.Getenv("LOG_NO_COLOR") != ""
	logHandler := logger.NewPrettyHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}, noColor)
	slog.SetDefault(slog.New(logHandler))

	application, err := app.New()
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}
