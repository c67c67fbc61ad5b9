package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"floor-service-backend/config"
	"floor-service-backend/internal/activity"
	"floor-service-backend/internal/api"
	"floor-service-backend/internal/db"
	"floor-service-backend/internal/floor"
	"floor-service-backend/internal/kitchen"
	"floor-service-backend/internal/ledger"
	"floor-service-backend/internal/menu"
	"floor-service-backend/internal/notification"
	"floor-service-backend/internal/store"
)

func main() {
	logger := log.New(os.Stdout, "floord ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	if err := db.Seed(gormDB, &cfg.Seed); err != nil {
		logger.Fatalf("failed to seed floor data: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessionStore := store.NewGormStore(gormDB)
	catalog := menu.NewGormCatalog(gormDB)
	notifier := activity.NewNotifier(gormDB)

	floorSvc := floor.NewService(sessionStore, notifier, cfg.Seed.OutletID)
	ledgerSvc := ledger.NewService(sessionStore, catalog)
	kitchenSvc := kitchen.NewService(sessionStore, ledgerSvc, catalog, cfg.Seed.OutletID)

	var webpushOptions *webpush.Options
	if cfg.Push.Enabled {
		if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
			logger.Fatalf("VAPID keys must be configured when push is enabled.")
		}
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, webpushOptions)
		pool.Start(ctx)
		kitchenSvc.SetReadyNotifier(pool)
		logger.Printf("food-ready push notifications enabled (%d workers)", cfg.WorkerPool.Size)
	}

	handler := api.NewHandler(api.Deps{
		Store:               sessionStore,
		Floor:               floorSvc,
		Ledger:              ledgerSvc,
		Kitchen:             kitchenSvc,
		Catalog:             catalog,
		Notifier:            notifier,
		Webpush:             webpushOptions,
		NeedsAttentionAfter: cfg.Floor.NeedsAttentionAfter,
	})

	router := api.NewRouter(handler, api.RouterConfig{
		RateLimitPerSec: cfg.Server.RateLimitPerSec,
		RateLimitBurst:  cfg.Server.RateLimitBurst,
		CacheTTL:        cfg.Server.CacheTTL,
	})
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
