package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"aidigest/internal/app"
	"aidigest/internal/config"
	"aidigest/internal/model"
)

// prefetch builds today's digest ahead of the first listener so the
// request path only ever reads a stored record.
func main() {

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}
	if err := cfg.Validate(false); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("error starting digest service: %v", err)
	}
	defer a.Close()

	start := time.Now()
	result, err := a.Service.Get(ctx, model.TodayKey)
	if err != nil {
		slog.Error("error building digest", "date", a.Service.Today(), "error", err)
		return
	}

	slog.Info("digest ready",
		"date", result.Digest.Date,
		"stories", len(result.Digest.Stories),
		"cached", result.Cached,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
}
