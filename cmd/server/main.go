// Package main is the entry point for the jacana-api server.  It loads
// configuration, opens the database and Redis connections, wires the auth
// service together, starts the reset-email consumer, and runs the HTTP
// server until interrupted.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/jacana-dev/jacana-api/internal/config"
	"github.com/jacana-dev/jacana-api/internal/database"
	"github.com/jacana-dev/jacana-api/internal/handler"
	"github.com/jacana-dev/jacana-api/internal/mailer"
	"github.com/jacana-dev/jacana-api/internal/middleware"
	"github.com/jacana-dev/jacana-api/internal/queue"
	"github.com/jacana-dev/jacana-api/internal/repository"
	"github.com/jacana-dev/jacana-api/internal/router"
	"github.com/jacana-dev/jacana-api/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win

	cfg := config.Load()
	setupLogging(cfg)

	slog.Info("starting jacana-api", slog.String("env", cfg.Env), slog.String("port", cfg.Port))

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		slog.Error("failed to connect to MySQL", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := database.RunMigrations(db, "migrations"); err != nil {
		slog.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Redis is optional: without it the rate limiter becomes a pass-through.
	rdb := config.NewRedisClient()
	if rdb == nil {
		slog.Warn("redis unavailable, rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(db)
	notifier := queue.NewPublisher(cfg.AMQPURL)
	auth := service.NewAuthService(cfg, users, sessions, notifier)

	// The consumer owns email delivery; request handlers only publish.
	go queue.StartResetEmailConsumer(cfg.AMQPURL, mailer.NewSMTP(cfg.SMTP))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger())

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, auth), auth, config.LoadRateLimitConfig(), rdb)

	// Drain in-flight requests on SIGINT/SIGTERM before closing the stores.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		slog.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(ctx); err != nil {
			slog.Error("server forced shutdown", slog.Any("error", err))
		}
	}()

	if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
		slog.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// setupLogging configures the global slog logger: readable text in dev,
// JSON elsewhere for log aggregation.
func setupLogging(cfg config.Config) {
	var h slog.Handler
	if cfg.Env == "dev" {
		h = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(h))
}
