package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/wadjakorntonsri/go-qr-link/internal/logger"
	"github.com/wadjakorntonsri/go-qr-link/pkg/adapters/artifact"
	"github.com/wadjakorntonsri/go-qr-link/pkg/adapters/cache"
	"github.com/wadjakorntonsri/go-qr-link/pkg/adapters/handler"
	"github.com/wadjakorntonsri/go-qr-link/pkg/adapters/qrcode"
	"github.com/wadjakorntonsri/go-qr-link/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/go-qr-link/pkg/config"
	"github.com/wadjakorntonsri/go-qr-link/pkg/core/services"
	"github.com/wadjakorntonsri/go-qr-link/pkg/ports"
)

func main() {
	cfg := config.Load()

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	// Initialize Repository
	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Optional Redis cache in front of slug lookups
	var slugCache ports.SlugCache = cache.NewNoopSlugCache()
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewRedisSlugCache(cfg.RedisAddr)
		if err != nil {
			log.Error("failed to connect to Redis", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		defer redisCache.Close()
		slugCache = redisCache
		log.Info("redis slug cache enabled", "addr", cfg.RedisAddr)
	}

	// QR artifacts on disk
	artifacts, err := artifact.NewDirStore(cfg.QRDir)
	if err != nil {
		log.Error("failed to create QR directory", "dir", cfg.QRDir, "error", err)
		os.Exit(1)
	}

	// Initialize Services
	service := services.NewLinkService(repo, slugCache, qrcode.NewEncoder(), artifacts, cfg.BaseURL)
	campaignService := services.NewCampaignService(repo)

	// Initialize Router
	mux := handler.NewRouter(cfg, log, service, campaignService)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.Port, "base_url", cfg.BaseURL)
		serverErr <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Error("server error", "error", err)
		os.Exit(1)
	case sig := <-shutdown:
		log.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
			_ = server.Close()
		}

		if err := repo.Close(); err != nil {
			log.Error("failed to close database", "error", err)
		}
		log.Info("server stopped")
	}
}
