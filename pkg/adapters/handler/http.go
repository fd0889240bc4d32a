package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/wadjakorntonsri/go-qr-link/internal/logger"
	"github.com/wadjakorntonsri/go-qr-link/pkg/core/services"
	"github.com/wadjakorntonsri/go-qr-link/pkg/ports"
)

type HTTPHandler struct {
	service ports.LinkService
	log     *logger.Logger
}

func NewHTTPHandler(service ports.LinkService, log *logger.Logger) *HTTPHandler {
	return &HTTPHandler{service: service, log: log}
}

// IssueLinkRequest payload. base_url is the destination template;
// params are appended as a percent-encoded query string.
type IssueLinkRequest struct {
	BaseURL string            `json:"base_url"`
	Params  map[string]string `json:"params"`
}

// Issue mints a tracked link and its QR image.
func (h *HTTPHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req IssueLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	issued, err := h.service.Issue(r.Context(), req.BaseURL, req.Params)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyTemplate), errors.Is(err, services.ErrInvalidTemplate):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.log.Error("issue link failed", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to issue link")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(issued)
}

// Redirect handles a scan: log it, then forward to the destination.
func (h *HTTPHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		writeError(w, http.StatusBadRequest, "slug missing")
		return
	}

	destination, err := h.service.Resolve(r.Context(), slug, clientIP(r))
	if err != nil {
		if errors.Is(err, services.ErrSlugNotFound) {
			writeError(w, http.StatusNotFound, "unknown code")
			return
		}
		h.log.Error("resolve failed", "slug", slug, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	http.Redirect(w, r, destination, http.StatusFound)
}

// Image serves the QR PNG for a slug by its derived file name,
// re-rendering it if the artifact is missing.
func (h *HTTPHandler) Image(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	slug, ok := strings.CutSuffix(filename, ".png")
	if !ok || slug == "" {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}

	png, err := h.service.QRImage(r.Context(), slug)
	if err != nil {
		if errors.Is(err, services.ErrSlugNotFound) {
			writeError(w, http.StatusNotFound, "file not found")
			return
		}
		h.log.Error("serve qr image failed", "slug", slug, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// GetLink returns the stored record for a slug.
func (h *HTTPHandler) GetLink(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	link, err := h.service.GetLink(r.Context(), slug)
	if err != nil {
		if errors.Is(err, services.ErrSlugNotFound) {
			writeError(w, http.StatusNotFound, "unknown code")
			return
		}
		h.log.Error("get link failed", "slug", slug, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(link)
}

// Scans lists the scan events for a slug in insertion order.
func (h *HTTPHandler) Scans(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	scans, err := h.service.ListScans(r.Context(), slug)
	if err != nil {
		if errors.Is(err, services.ErrSlugNotFound) {
			writeError(w, http.StatusNotFound, "unknown code")
			return
		}
		h.log.Error("list scans failed", "slug", slug, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := map[string]interface{}{
		"slug":  slug,
		"total": len(scans),
		"scans": scans,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// clientIP extracts the caller's address, preferring proxy headers.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First address in the list is the original client.
		if idx := strings.IndexByte(xff, ','); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	// Strip the port from RemoteAddr.
	addr := r.RemoteAddr
	if idx := strings.LastIndexByte(addr, ':'); idx != -1 {
		return addr[:idx]
	}
	return addr
}
