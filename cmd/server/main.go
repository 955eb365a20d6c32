package main

import (
	"log/slog"
	"os"

	"giantylive-web/internal/app"
	"giantylive-web/internal/logger"
)

func main() {
	// Replaced by the configured logger once the environment is parsed.
	slog.SetDefault(logger.New(os.Stdout, "pretty", "info"))

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
