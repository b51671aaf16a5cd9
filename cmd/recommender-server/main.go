package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"meal-recommender/internal/app"
	"meal-recommender/internal/config"
	"meal-recommender/internal/database"
	"meal-recommender/internal/logging"
	"meal-recommender/internal/server"
	"meal-recommender/internal/telegram"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := logging.New(logging.Config{})
		l.Fatal().Err(err).Msg("failed to load config")
	}
	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx := context.Background()

	// 2. Database and application
	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	application, err := app.New(ctx, cfg, db, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize application")
	}
	defer application.Close()

	// 3. Telegram bot, when configured
	var webhook http.HandlerFunc
	var bot *telegram.Bot
	if cfg.Telegram.BotToken != "" {
		bot, err = telegram.NewBot(cfg.Telegram.BotToken, cfg.Telegram.WebhookURL, cfg.Telegram.AdminUserID, application, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize telegram bot")
		}
		webhook = bot.HandleWebhook
	} else {
		logger.Info().Msg("no telegram token configured, serving HTTP API only")
	}

	// 4. Server with graceful shutdown
	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.NewRouter(application, webhook, logger),
	}

	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}
	if bot != nil {
		bot.Wait()
	}

	logger.Info().Msg("server exiting")
}
