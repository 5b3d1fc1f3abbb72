package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"qualidoc/internal/domain/models"
	"qualidoc/internal/domain/services"
	"qualidoc/internal/httputil"
)

// DistributionHandler handles controlled-copy HTTP requests
type DistributionHandler struct {
	distributionService services.DistributionService
	logger              *slog.Logger
}

// NewDistributionHandler creates a new distribution handler
func NewDistributionHandler(distributionService services.DistributionService, logger *slog.Logger) *DistributionHandler {
	return &DistributionHandler{
		distributionService: distributionService,
		logger:              logger,
	}
}

// Distribute checks a controlled copy out to a user
// POST /api/documents/{id}/distributions (alias /distribute)
func (h *DistributionHandler) Distribute(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req services.DistributeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.DocumentID = r.PathValue("id")
	req.Actor = actor

	dist, err := h.distributionService.Distribute(r.Context(), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, dist)
}

// List returns the distribution ledger for a document; ?open=true filters to
// copies still checked out
// GET /api/documents/{id}/distributions
func (h *DistributionHandler) List(w http.ResponseWriter, r *http.Request) {
	openOnly := r.URL.Query().Get("open") == "true"

	dists, err := h.distributionService.List(r.Context(), r.PathValue("id"), openOnly)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	if dists == nil {
		dists = []models.Distribution{}
	}

	httputil.RespondJSON(w, http.StatusOK, dists)
}

// Return closes an open distribution
// PUT /api/documents/distributions/{id}/return
func (h *DistributionHandler) Return(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req services.ReturnRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Actor = actor

	dist, err := h.distributionService.Return(r.Context(), r.PathValue("id"), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, dist)
}
