package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/KoushikN01/legal-ai-forms-sub001/internal/cache"
	"github.com/KoushikN01/legal-ai-forms-sub001/internal/config"
	"github.com/KoushikN01/legal-ai-forms-sub001/internal/extractor"
	"github.com/KoushikN01/legal-ai-forms-sub001/internal/forms"
	httpserver "github.com/KoushikN01/legal-ai-forms-sub001/internal/interfaces/http"
	"github.com/KoushikN01/legal-ai-forms-sub001/internal/notification"
	"github.com/KoushikN01/legal-ai-forms-sub001/internal/reconciler"
	"github.com/KoushikN01/legal-ai-forms-sub001/internal/remote"
	"github.com/KoushikN01/legal-ai-forms-sub001/internal/service"
	"github.com/KoushikN01/legal-ai-forms-sub001/internal/store"
	"github.com/KoushikN01/legal-ai-forms-sub001/internal/worker"
	"github.com/KoushikN01/legal-ai-forms-sub001/pkg/database"
	"github.com/KoushikN01/legal-ai-forms-sub001/pkg/utils"
)

func main() {
	// Credentials may come from a local .env in development.
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting voice form engine",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	kv, err := cache.New(db, logger)
	if err != nil {
		logger.Fatal("Failed to initialize local cache", zap.Error(err))
	}

	submissions := store.New(logger)
	registry := forms.NewRegistry()

	notifier := notification.NewService(notification.DefaultPreferences(), logger)
	notifier.Register(notification.ChannelInApp, notification.NewLogNotifier(logger))
	notifier.Register(notification.ChannelEmail, notification.NewLogNotifier(logger))
	notifier.Register(notification.ChannelSMS, notification.NewLogNotifier(logger))

	fetcher := remote.NewClient(remote.Config{
		BaseURL:   cfg.Remote.BaseURL,
		AuthToken: cfg.Remote.AuthToken,
		Timeout:   cfg.Remote.FetchTimeout,
	}, logger)

	rec := reconciler.New(submissions, kv, fetcher, notifier, reconciler.Config{
		UserID:       cfg.Session.UserID,
		PollInterval: cfg.Reconciler.PollInterval,
		FetchTimeout: cfg.Remote.FetchTimeout,
	}, logger)

	engine := service.NewEngine(
		extractor.New(logger),
		submissions,
		kv,
		rec,
		notifier,
		cfg.Session.UserID,
		logger,
	)

	if err := engine.Hydrate(); err != nil {
		logger.Warn("Session hydration failed, starting empty", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workers := worker.NewManager(logger)
	workers.Register(rec)
	if err := workers.StartAll(ctx); err != nil {
		logger.Fatal("Failed to start background workers", zap.Error(err))
	}

	server := httpserver.NewServer(cfg.Server, engine, registry, notifier, logger)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("Shutting down server...")
	case err := <-serverErr:
		if err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
		}
	}

	cancel()
	workers.StopAll()

	if err := server.Stop(); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}
