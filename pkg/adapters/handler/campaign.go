package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/wadjakorntonsri/go-qr-link/internal/logger"
	"github.com/wadjakorntonsri/go-qr-link/pkg/core/services"
	"github.com/wadjakorntonsri/go-qr-link/pkg/ports"
)

type CampaignHandler struct {
	service ports.CampaignService
	log     *logger.Logger
}

func NewCampaignHandler(service ports.CampaignService, log *logger.Logger) *CampaignHandler {
	return &CampaignHandler{service: service, log: log}
}

type CreateCampaignRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type AddCampaignLinkRequest struct {
	Slug string `json:"slug"`
}

func (h *CampaignHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	campaign, err := h.service.CreateCampaign(r.Context(), req.Name, req.Description)
	if err != nil {
		if errors.Is(err, services.ErrEmptyCampaignName) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error("create campaign failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create campaign")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(campaign)
}

func (h *CampaignHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid campaign id")
		return
	}

	campaign, err := h.service.GetCampaign(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrCampaignNotFound) {
			writeError(w, http.StatusNotFound, "campaign not found")
			return
		}
		h.log.Error("get campaign failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(campaign)
}

func (h *CampaignHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	campaigns, err := h.service.ListCampaigns(r.Context(), page, limit)
	if err != nil {
		h.log.Error("list campaigns failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := map[string]interface{}{
		"data": campaigns,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *CampaignHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid campaign id")
		return
	}

	if err := h.service.DeleteCampaign(r.Context(), id); err != nil {
		h.log.Error("delete campaign failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CampaignHandler) AddLink(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid campaign id")
		return
	}

	var req AddCampaignLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.AddLink(r.Context(), id, req.Slug); err != nil {
		switch {
		case errors.Is(err, services.ErrCampaignNotFound):
			writeError(w, http.StatusNotFound, "campaign not found")
		case errors.Is(err, services.ErrSlugNotFound):
			writeError(w, http.StatusNotFound, "unknown code")
		default:
			h.log.Error("add link to campaign failed", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
