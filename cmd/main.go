package main

import (
	"chatbot_erp/internal/config"
	"chatbot_erp/internal/infrastructure"
	"chatbot_erp/internal/interfaces"
	httpapi "chatbot_erp/internal/interfaces/http"
	"chatbot_erp/internal/logger"
	"chatbot_erp/internal/metrics"
	"chatbot_erp/internal/nlp"
	"chatbot_erp/internal/repository"
	"chatbot_erp/internal/usecases"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info").WithError(err).Error("Failed to load config")
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	log.Info("Starting chatbot", "db_driver", cfg.DBDriver, "addr", cfg.HTTPAddr)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.WithError(err).Error("Failed to open database")
		os.Exit(1)
	}
	defer closeStore()

	model, err := loadModel(cfg.NLPDataDir)
	if err != nil {
		log.WithError(err).Error("Failed to load NLP model")
		os.Exit(1)
	}
	normalizer := nlp.NewNormalizer(model)

	// Intent resolution
	catalog := usecases.NewIntentCatalog(store, normalizer, cfg.OrderStatusIntentTitle, cfg.CatalogTTL, log, m)
	if _, err := catalog.Snapshot(ctx); err != nil {
		log.WithError(err).Warn("Initial intent catalog load failed")
	}
	resolver := usecases.NewIntentResolver(
		usecases.NewExactMatcher(store, catalog),
		usecases.NewFuzzyMatcher(catalog, normalizer),
	)

	erp := infrastructure.NewERPClient(cfg.ERPTimeout, cfg.ERPRoutingHeader, cfg.ERPStatusField, log)
	renderer := usecases.NewResponseRenderer(erp, log, m)
	chat := usecases.NewChatService(store, resolver, renderer, usecases.NewSessionManager(), cfg.ImageBaseURL, log, m)

	// Admin
	auth := usecases.NewAuthUsecase(store, cfg.JWTSecret)
	if cfg.AdminConfigured() {
		if err := auth.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			log.WithError(err).Warn("Failed to ensure admin user")
		}
	}
	dashboard := usecases.NewDashboardUsecase(store, catalog)

	// HTTP server
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	httpapi.SetupRoutes(r, httpapi.RouterConfig{
		Chat:          chat,
		Auth:          auth,
		Dashboard:     dashboard,
		Store:         store,
		Registry:      registry,
		Metrics:       m,
		Log:           log,
		ImagesDir:     cfg.ImagesDir,
		CORSOrigins:   cfg.CORSOrigins,
		ChatRateLimit: rate.Limit(cfg.ChatRateLimitRPS),
		ChatRateBurst: cfg.ChatRateLimitBurst,
		JWTSecret:     cfg.JWTSecret,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var wg sync.WaitGroup
	if cfg.TelegramEnabled() {
		startTelegram(ctx, &wg, cfg, chat, log)
	}

	go func() {
		log.Info("Server starting", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Failed to start server")
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	// Stop Telegram polling and wait for in-flight turns
	cancel()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		log.Warn("Timeout waiting for background workers to stop")
	}

	log.Info("Server stopped")
}

// openStore connects to the configured database and returns the store with its closer.
func openStore(ctx context.Context, cfg *config.Config) (interfaces.Store, func(), error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		client, err := infrastructure.NewSQLiteClient(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewSQLiteStore(client.DB), func() { client.Close() }, nil
	default:
		client, err := infrastructure.NewPostgresClient(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewPostgresStore(client.Pool), client.Close, nil
	}
}

func loadModel(dir string) (*nlp.Model, error) {
	if dir == "" {
		return nlp.Load()
	}
	return nlp.LoadDir(dir)
}

func startTelegram(ctx context.Context, wg *sync.WaitGroup, cfg *config.Config, chat interfaces.ChatHandler, log *logger.Logger) {
	channel, err := infrastructure.NewTelegramChannel(cfg.TelegramBotToken, cfg.TelegramTenantToken, chat, log)
	if err != nil {
		log.WithError(err).Warn("Telegram disabled")
		return
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.WithField("panic", r).Error("Panic in Telegram channel")
			}
		}()
		channel.Run(ctx)
	}()
}
