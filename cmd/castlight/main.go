// Castlight server — serves the control API, the overlay read path, and the
// WebSocket fan-out for live graphics state.
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

	"github.com/castlight-live/castlight/pkg/api"
	"github.com/castlight-live/castlight/pkg/auth"
	"github.com/castlight-live/castlight/pkg/database"
	"github.com/castlight-live/castlight/pkg/events"
	"github.com/castlight-live/castlight/pkg/livestate"
	"github.com/castlight-live/castlight/pkg/services"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// logLevel maps the LOG_LEVEL env var to a slog level. Unknown values fall
// back to info.
func logLevel() slog.Level {
	switch getEnv("LOG_LEVEL", "info") {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func main() {
	// Load .env from the working directory
	if err := godotenv.Load(); err != nil {
		slog.Warn("Could not load .env file, continuing with existing environment", "error", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(),
	})))

	httpPort := getEnv("PORT", "8080")
	slog.Info("Starting castlight", "http_port", httpPort)

	ctx := context.Background()

	// 1. Database
	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		slog.Error("Failed to load database config", "error", err)
		os.Exit(1)
	}

	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			slog.Error("Error closing database client", "error", err)
		}
	}()
	slog.Info("Connected to PostgreSQL database")

	// 2. Domain services
	users := services.NewUserService(dbClient.DB())
	projects := services.NewProjectService(dbClient.DB())
	scenes := services.NewSceneService(dbClient.DB())

	// 3. Tokens, permission gate, room resolver
	tokens, err := auth.NewTokens(auth.SecretFromEnv(), 0)
	if err != nil {
		slog.Error("Failed to initialize token signing", "error", err)
		os.Exit(1)
	}
	gate := auth.NewGate(projects)
	resolver := auth.NewRoomResolver(tokens, gate, projects)

	// 4. Live state store, fan-out hub, control core
	store := livestate.NewStore()
	hub := events.NewHub(resolver, 10*time.Second)
	live := services.NewLiveService(store, hub, projects, scenes, gate)
	slog.Info("Services initialized")

	// 5. Timer ticker (per-second running timer updates)
	ticker := livestate.NewTicker(store, live, time.Second)
	ticker.Start(ctx)

	// 6. HTTP server (non-blocking)
	httpServer := api.NewServer(dbClient, users, live, tokens, hub)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + httpPort
		slog.Info("HTTP server listening", "addr", addr)
		if err := httpServer.Start(addr); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			errCh <- err
		}
	}()

	slog.Info("Castlight started successfully")

	// 7. Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	// 8. Graceful shutdown: stop timer fan-out first, then drain HTTP.
	// WebSocket connections are hijacked and close with the process.
	ticker.Stop()
	slog.Info("Timer ticker stopped")

	httpShutdownCtx, httpCancel := context.WithTimeout(ctx, 5*time.Second)
	defer httpCancel()
	if err := httpServer.Shutdown(httpShutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
