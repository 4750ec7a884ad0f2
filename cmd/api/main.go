package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gamestore-api/internal/cache"
	"gamestore-api/internal/catalog"
	"gamestore-api/internal/config"
	"gamestore-api/internal/handler"
	"gamestore-api/internal/middleware"
	"gamestore-api/internal/repository"
	"gamestore-api/internal/router"
	"gamestore-api/internal/service"
	"gamestore-api/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.MustLoad()

	log, err := logger.New(cfg.App.Environment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting", "app", cfg.App.Name, "version", cfg.App.Version, "env", cfg.App.Environment)

	// Initialize store based on config
	store, err := openStore(cfg.Store)
	if err != nil {
		log.Fatal("failed to initialize store", "driver", cfg.Store.Driver, "error", err)
	}
	log.Info("store initialized", "driver", store.Driver())

	if cfg.Catalog.SeedPath != "" {
		n, err := catalog.SeedFile(context.Background(), store, cfg.Catalog.SeedPath)
		if err != nil {
			log.Fatal("failed to seed catalog", "path", cfg.Catalog.SeedPath, "error", err)
		}
		if n > 0 {
			log.Info("catalog seeded", "path", cfg.Catalog.SeedPath, "games", n)
		}
	}

	// Initialize session cache
	sessionCache, err := openSessionCache(cfg.Session)
	if err != nil {
		log.Fatal("failed to initialize session cache", "backend", cfg.Session.Backend, "error", err)
	}
	log.Info("session cache initialized", "backend", cfg.Session.Backend)

	// Initialize services
	sessions := service.NewSessionService(sessionCache, cfg.Session.TTL, cfg.Session.RedisPrefix)
	accounts := service.NewAccountService(store, cfg.Security.BcryptCost, log.With("component", "accounts"))
	catalogService := service.NewCatalogService(store)
	carts := service.NewCartService(store, log.With("component", "cart"))

	statsReporter := service.NewStatsReporter(store, sessions, time.Minute, log.With("component", "stats"))
	statsReporter.Start()

	// Create router
	r := router.New(router.Config{
		Handler:        handler.New(store, cfg.App.Name, cfg.App.Version),
		AuthHandler:    handler.NewAuthHandler(accounts, sessions, log),
		CatalogHandler: handler.NewCatalogHandler(catalogService, log),
		CartHandler:    handler.NewCartHandler(carts, log),
		AdminHandler:   handler.NewAdminHandler(store, sessions, cfg.Session.Backend),
		SessionMiddleware: middleware.NewSessionMiddleware(middleware.SessionConfig{
			Sessions:   sessions,
			CookieName: cfg.Session.CookieName,
			Secure:     cfg.Session.Secure,
			Log:        log,
		}),
		RequireIdentity: middleware.NewRequireIdentity(sessions),
		RequireLoginKey: middleware.NewRequireLoginKey(cfg.App.LoginKey),
		Logger:          log,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", "addr", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown error", "error", err)
	}

	statsReporter.Stop()

	if err := store.Close(); err != nil {
		log.Error("store close error", "error", err)
	}
	if err := sessionCache.Close(); err != nil {
		log.Error("session cache close error", "error", err)
	}

	log.Info("server stopped")
}

func openStore(cfg config.StoreConfig) (*repository.SQLStore, error) {
	pool := repository.PoolConfig{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}

	switch cfg.Driver {
	case "postgres", "postgresql":
		return repository.NewPostgresStore(cfg.PostgresDSN(), pool)
	case "mysql":
		return repository.NewMySQLStore(cfg.MySQLDSN(), pool)
	default: // sqlite
		return repository.NewSQLiteStore(cfg.Path)
	}
}

func openSessionCache(cfg config.SessionConfig) (cache.Cache, error) {
	if cfg.Backend == "redis" {
		return cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.RedisAddress(),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	}
	return cache.NewMemoryCache(time.Minute), nil
}
