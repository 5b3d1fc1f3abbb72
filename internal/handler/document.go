package handler

import (
	"log/slog"
	"net/http"

	"qualidoc/internal/domain/models"
	"qualidoc/internal/domain/repositories"
	"qualidoc/internal/domain/services"
	"qualidoc/internal/httputil"
)

// DocumentHandler handles document HTTP requests
type DocumentHandler struct {
	documentService services.DocumentService
	logger          *slog.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documentService services.DocumentService, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		logger:          logger,
	}
}

// Create creates a new document in status draft
// POST /api/documents
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req services.CreateDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Actor = actor

	doc, err := h.documentService.CreateDocument(r.Context(), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, doc)
}

// Get retrieves a document
// GET /api/documents/{id}
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.documentService.GetDocument(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// GetByCode retrieves a document by its unique code
// GET /api/documents/code/{code}
func (h *DocumentHandler) GetByCode(w http.ResponseWriter, r *http.Request) {
	doc, err := h.documentService.GetDocumentByCode(r.Context(), r.PathValue("code"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// List lists documents; supports ?category_id= and ?status= filters
// GET /api/documents
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repositories.DocumentFilter{
		CategoryID: q.Get("category_id"),
		Status:     models.DocumentStatus(q.Get("status")),
	}

	docs, err := h.documentService.ListDocuments(r.Context(), filter)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	if docs == nil {
		docs = []models.Document{}
	}

	httputil.RespondJSON(w, http.StatusOK, docs)
}

// Update updates document metadata
// PUT /api/documents/{id}
func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req services.UpdateDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Actor = actor

	doc, err := h.documentService.UpdateDocument(r.Context(), r.PathValue("id"), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// Delete soft-deletes a document
// DELETE /api/documents/{id}
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	if err := h.documentService.DeleteDocument(r.Context(), r.PathValue("id"), actor); err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Submit sends a draft document into review
// POST /api/documents/{id}/submit
func (h *DocumentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	doc, err := h.documentService.SubmitForReview(r.Context(), r.PathValue("id"), actor)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// Obsolete retires a document
// POST /api/documents/{id}/obsolete
func (h *DocumentHandler) Obsolete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	doc, err := h.documentService.MarkObsolete(r.Context(), r.PathValue("id"), actor)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}
