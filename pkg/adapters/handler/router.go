package handler

import (
	"encoding/json"
	"net/http"

	"github.com/wadjakorntonsri/go-qr-link/internal/logger"
	"github.com/wadjakorntonsri/go-qr-link/pkg/config"
	"github.com/wadjakorntonsri/go-qr-link/pkg/ports"
)

// NewRouter creates and configures the main application router
func NewRouter(cfg *config.Config, log *logger.Logger, service ports.LinkService, campaignService ports.CampaignService) http.Handler {
	// Initialize Handlers
	h := NewHTTPHandler(service, log)
	ch := NewCampaignHandler(campaignService, log)
	authHandler := NewAuthHandler(cfg, log)

	// Initialize Middleware
	mw := NewMiddleware(cfg, log)

	// Setup Router
	mux := http.NewServeMux()

	// Public Routes
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	mux.HandleFunc("POST /token", authHandler.Token)
	// The resolver must stay public: it is what printed QR codes hit.
	mux.HandleFunc("GET /r/{slug}", h.Redirect)

	// Protected Routes (API)
	protectedMux := http.NewServeMux()
	protectedMux.HandleFunc("POST /api/v1/links", h.Issue)
	protectedMux.HandleFunc("GET /api/v1/links/{slug}", h.GetLink)
	protectedMux.HandleFunc("GET /api/v1/links/{slug}/scans", h.Scans)

	// Campaign Routes
	protectedMux.HandleFunc("POST /api/v1/campaigns", ch.Create)
	protectedMux.HandleFunc("GET /api/v1/campaigns", ch.List)
	protectedMux.HandleFunc("GET /api/v1/campaigns/{id}", ch.Get)
	protectedMux.HandleFunc("DELETE /api/v1/campaigns/{id}", ch.Delete)
	protectedMux.HandleFunc("POST /api/v1/campaigns/{id}/links", ch.AddLink)

	// Apply Middleware to Protected Routes
	mux.Handle("/api/v1/", mw.Auth(protectedMux))
	// Image downloads are authenticated too; scanning never needs them.
	mux.Handle("GET /qr/{filename}", mw.Auth(http.HandlerFunc(h.Image)))

	return Chain(mux, mw.RequestID, mw.Recovery, mw.Logging)
}
