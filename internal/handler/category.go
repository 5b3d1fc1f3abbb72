package handler

import (
	"log/slog"
	"net/http"

	"qualidoc/internal/domain/models"
	"qualidoc/internal/domain/services"
	"qualidoc/internal/httputil"
)

// CategoryHandler handles document-category HTTP requests
type CategoryHandler struct {
	categoryService services.CategoryService
	logger          *slog.Logger
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(categoryService services.CategoryService, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		logger:          logger,
	}
}

// Create creates a new category
// POST /api/document-categories
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req services.CreateCategoryRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Actor = actor

	cat, err := h.categoryService.Create(r.Context(), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, cat)
}

// Get retrieves a category
// GET /api/document-categories/{id}
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	cat, err := h.categoryService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, cat)
}

// List lists categories; ?active=true filters to active ones
// GET /api/document-categories
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	cats, err := h.categoryService.List(r.Context(), activeOnly)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	if cats == nil {
		cats = []models.Category{}
	}

	httputil.RespondJSON(w, http.StatusOK, cats)
}

// Update updates a category
// PUT /api/document-categories/{id}
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req services.UpdateCategoryRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Actor = actor

	cat, err := h.categoryService.Update(r.Context(), r.PathValue("id"), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, cat)
}

// Delete soft-deletes a category; 409 when children or documents remain
// DELETE /api/document-categories/{id}
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	if err := h.categoryService.Delete(r.Context(), r.PathValue("id"), actor); err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
