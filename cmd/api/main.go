package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"aidigest/internal/app"
	"aidigest/internal/config"
	"aidigest/internal/handler"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}
	if err := cfg.Validate(true); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	a, err := app.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("error starting digest service: %v", err)
	}
	defer a.Close()

	digestHandler := handler.NewDigestHandler(a.Service)
	askHandler := handler.NewAskHandler(a.Ask)
	healthHandler := handler.NewHealthHandler(a.Store)

	r := gin.New()
	r.Use(gin.Recovery(), handler.RequestLogger())

	allowedOrigins := []string{"http://localhost:3000"}

	if cfg.FrontendURL != "" {
		allowedOrigins = append(allowedOrigins, cfg.FrontendURL)
	}

	slog.Info("AllowOrigins URL:", "urls", allowedOrigins)

	r.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", handler.SecretHeader},
	}))

	r.GET("/health", healthHandler.GetHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authed := r.Group("/", handler.RequireSecret(cfg.Secret))
	authed.POST("/digest", digestHandler.PostDigest)
	authed.GET("/dates", digestHandler.GetDates)
	authed.POST("/ask", handler.NewRateLimiter(cfg.AskRateLimit).Middleware(), askHandler.PostAsk)

	err = r.Run(":" + cfg.Port)
	if err != nil {
		log.Fatalf("error starting server: %v", err)
	}
}
