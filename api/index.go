package handler

import (
	"net/http"

	"github.com/wadjakorntonsri/go-qr-link/internal/logger"
	"github.com/wadjakorntonsri/go-qr-link/pkg/adapters/artifact"
	"github.com/wadjakorntonsri/go-qr-link/pkg/adapters/cache"
	"github.com/wadjakorntonsri/go-qr-link/pkg/adapters/handler"
	"github.com/wadjakorntonsri/go-qr-link/pkg/adapters/qrcode"
	"github.com/wadjakorntonsri/go-qr-link/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/go-qr-link/pkg/config"
	"github.com/wadjakorntonsri/go-qr-link/pkg/core/services"
)

var mux http.Handler

func init() {
	cfg := config.Load()

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: "json"})

	// Note: on serverless, db.sqlite and the QR directory are ephemeral
	// unless DATABASE_URL points at a remote Turso URL and images are
	// regenerated lazily (which they are).
	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		panic(err)
	}
	artifacts, err := artifact.NewDirStore(cfg.QRDir)
	if err != nil {
		panic(err)
	}

	service := services.NewLinkService(repo, cache.NewNoopSlugCache(), qrcode.NewEncoder(), artifacts, cfg.BaseURL)
	campaignService := services.NewCampaignService(repo)
	mux = handler.NewRouter(cfg, log, service, campaignService)
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}
