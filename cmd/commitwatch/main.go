package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	githubadapter "github.com/ekorchagin/commitwatch/internal/adapter/driven/github"
	sqliteadapter "github.com/ekorchagin/commitwatch/internal/adapter/driven/sqlite"
	telegramnotify "github.com/ekorchagin/commitwatch/internal/adapter/driven/telegram"
	httphandler "github.com/ekorchagin/commitwatch/internal/adapter/driving/http"
	telegrambot "github.com/ekorchagin/commitwatch/internal/adapter/driving/telegram"
	"github.com/ekorchagin/commitwatch/internal/application"
	"github.com/ekorchagin/commitwatch/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on missing required env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"poll_interval", cfg.PollInterval,
		"poll_concurrency", cfg.PollConcurrency,
		"notify_on_first_seen", cfg.NotifyOnFirstSeen,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire driven adapters.
	watchStore := sqliteadapter.NewWatchRepo(db)
	ghClient := githubadapter.NewClient(cfg.GitHubToken)
	if cfg.GitHubToken == "" {
		slog.Warn("no github token configured, queries run unauthenticated at a reduced rate limit")
	}

	botAPI, err := tgbotapi.NewBotAPIWithClient(
		cfg.TelegramToken,
		tgbotapi.APIEndpoint,
		&http.Client{Timeout: 45 * time.Second},
	)
	if err != nil {
		return err
	}
	slog.Info("telegram bot authorized", "username", botAPI.Self.UserName)
	notifier := telegramnotify.NewNotifier(botAPI)

	// 6. Create application services.
	metrics := application.NewMetrics(prometheus.DefaultRegisterer)
	watchSvc := application.NewWatchService(watchStore, ghClient)
	notifySvc := application.NewNotifyService(notifier, 10*time.Second, metrics)
	pollSvc := application.NewPollService(watchStore, ghClient, notifySvc, application.PollOptions{
		Interval:          cfg.PollInterval,
		Concurrency:       cfg.PollConcurrency,
		CheckTimeout:      30 * time.Second,
		NotifyOnFirstSeen: cfg.NotifyOnFirstSeen,
		Metrics:           metrics,
	})

	// 7. Start the detection loop and the bot command loop.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		pollSvc.Start(ctx)
	}()

	bot := telegrambot.NewBot(botAPI, watchSvc, slog.Default())
	go func() {
		defer wg.Done()
		bot.Run(ctx)
	}()

	// 8. Start the operational HTTP server.
	apiHandler := httphandler.NewHandler(watchStore, db, slog.Default())
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.NewServeMux(apiHandler, slog.Default()),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("commitwatch started",
		"listen_addr", cfg.ListenAddr,
		"poll_interval", cfg.PollInterval,
	)

	// 9. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 10. Graceful shutdown: drain HTTP, wait for loops to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	wg.Wait()

	slog.Info("shutdown complete")
	return nil
}
