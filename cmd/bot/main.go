// Face swapper Telegram bot.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashureev/faceswap-bot/internal/api"
	"github.com/ashureev/faceswap-bot/internal/bot"
	"github.com/ashureev/faceswap-bot/internal/config"
	"github.com/ashureev/faceswap-bot/internal/detect"
	"github.com/ashureev/faceswap-bot/internal/dialog"
	"github.com/ashureev/faceswap-bot/internal/facestore"
	"github.com/ashureev/faceswap-bot/internal/search"
	"github.com/ashureev/faceswap-bot/internal/swap"
	"github.com/ashureev/faceswap-bot/internal/telegram"
	"github.com/ashureev/faceswap-bot/internal/track"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting bot", "ops_port", cfg.OpsPort, "allowed_chats", len(cfg.AllowedChatIDs))

	// Initialize dependencies.
	tracker, err := track.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := tracker.Close(); closeErr != nil {
			slog.Error("Failed to close tracker", "error", closeErr)
		}
	}()

	if err := tracker.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	faces, err := facestore.NewDiskStore(cfg.FacesDir)
	if err != nil {
		slog.Error("Failed to initialize face store", "error", err)
		os.Exit(1)
	}

	detector, err := detect.NewPigoDetector(cfg.CascadePath)
	if err != nil {
		slog.Error("Failed to load face detection cascade", "error", err)
		os.Exit(1)
	}
	slog.Info("Face detector ready", "cascade", cfg.CascadePath)

	if cfg.SearchKey == "" || cfg.SearchEngineID == "" {
		slog.Warn("Search credentials missing, /face will return no results")
	}
	searcher := search.NewGoogleClient(cfg.SearchKey, cfg.SearchEngineID, cfg.HTTPTimeout)

	client := telegram.NewClient(cfg.BotToken, cfg.PollTimeout, cfg.HTTPTimeout)

	swapper := swap.NewSwapper(faces, detector, client, searcher, cfg.MaxCandidates)
	manager := dialog.NewManager(client, faces, swapper, client)
	b := bot.New(client, manager, tracker, cfg.ChatAllowed)

	// Ops endpoints.
	opsHandler := api.NewHandler(tracker)
	opsServer := &http.Server{
		Addr:         ":" + cfg.OpsPort,
		Handler:      opsHandler.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Ops server listening", "addr", opsServer.Addr)
		if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Ops server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Block polling until the shutdown signal.
	if err := b.Run(ctx); err != nil {
		slog.Error("Bot failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Ops server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Bot stopped successfully")
}
