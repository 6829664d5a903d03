// Package main is the entry point for the Feedback Pulse server.
// It loads configuration, builds the logger, and hands off to
// internal/server; all real logic lives in the internal packages.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/feedbackpulse/feedback-pulse/internal/config"
	"github.com/feedbackpulse/feedback-pulse/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using process environment")
	}

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		// Sessions still work with the fallback, but every restart-safe
		// deployment should set its own: JWT_SECRET=$(openssl rand -hex 32)
		logger.Warn("JWT_SECRET not set, using an insecure development secret")
		cfg.JWTSecret = "insecure-dev-secret-change-me"
	}

	if cfg.Store == "sqlite" || cfg.Store == "" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", filepath.Dir(cfg.DBPath)),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
