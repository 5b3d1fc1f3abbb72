package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"qualidoc/internal/domain/models"
	"qualidoc/internal/domain/services"
	"qualidoc/internal/httputil"
)

// multipartMemory is the in-memory threshold for multipart parsing; larger
// parts spill to temp files. The overall request cap is maxUploadBytes.
const multipartMemory = 4 << 20

// RevisionHandler handles revision HTTP requests
type RevisionHandler struct {
	documentService services.DocumentService
	maxUploadBytes  int64
	logger          *slog.Logger
}

// NewRevisionHandler creates a new revision handler
func NewRevisionHandler(documentService services.DocumentService, maxUploadBytes int64, logger *slog.Logger) *RevisionHandler {
	return &RevisionHandler{
		documentService: documentService,
		maxUploadBytes:  maxUploadBytes,
		logger:          logger,
	}
}

// Upload appends a revision from a multipart form: file, version, changes and
// an optional publish flag that approves the revision immediately
// POST /api/documents/{id}/revisions
func (h *RevisionHandler) Upload(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			httputil.RespondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds %d bytes", h.maxUploadBytes))
			return
		}
		httputil.RespondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "file part is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	req := &services.UploadRevisionRequest{
		DocumentID:  r.PathValue("id"),
		Version:     r.FormValue("version"),
		Changes:     r.FormValue("changes"),
		Publish:     r.FormValue("publish") == "true",
		File:        file,
		FileName:    header.Filename,
		ContentType: contentType,
		FileSize:    header.Size,
		Actor:       actor,
	}

	rev, err := h.documentService.UploadRevision(r.Context(), req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, rev)
}

// List returns the revision ledger for a document, most recent first
// GET /api/documents/{id}/revisions
func (h *RevisionHandler) List(w http.ResponseWriter, r *http.Request) {
	revs, err := h.documentService.ListRevisions(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	if revs == nil {
		revs = []models.Revision{}
	}

	httputil.RespondJSON(w, http.StatusOK, revs)
}

// Current returns the published revision of a document
// GET /api/documents/{id}/revisions/current
func (h *RevisionHandler) Current(w http.ResponseWriter, r *http.Request) {
	rev, err := h.documentService.CurrentRevision(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, rev)
}

// Approve promotes a revision to current
// POST /api/documents/revisions/{id}/approve
func (h *RevisionHandler) Approve(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	rev, err := h.documentService.ApproveRevision(r.Context(), r.PathValue("id"), actor)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, rev)
}

// Reject terminates a revision, recording the reviewer's notes
// POST /api/documents/revisions/{id}/reject
func (h *RevisionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var body struct {
		Notes string `json:"notes"`
	}
	if err := httputil.ParseJSON(w, r, &body); err != nil && !errors.Is(err, io.EOF) {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rev, err := h.documentService.RejectRevision(r.Context(), r.PathValue("id"), body.Notes, actor)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, rev)
}

// Download streams the stored file of a revision
// GET /api/documents/revisions/{id}/download
func (h *RevisionHandler) Download(w http.ResponseWriter, r *http.Request) {
	rev, rc, err := h.documentService.OpenRevisionFile(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	defer rc.Close()

	contentType := rev.FileType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment",
		map[string]string{"filename": rev.FileName}))
	if rev.FileSize > 0 {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", rev.FileSize))
	}

	if _, err := io.Copy(w, rc); err != nil {
		// Headers are already out; log and let the client see the truncation
		h.logger.Error("revision download interrupted", "revision_id", rev.ID, "error", err)
	}
}
