package services

import (
	"context"
	"io"

	"qualidoc/internal/domain/models"
	"qualidoc/internal/domain/repositories"
)

// DocumentService is the document lifecycle manager. It owns the status
// machines for documents and revisions and the controlled promotion of an
// approved revision onto its parent document.
type DocumentService interface {
	CreateDocument(ctx context.Context, req *CreateDocumentRequest) (*models.Document, error)
	GetDocument(ctx context.Context, id string) (*models.Document, error)

	// GetDocumentByCode looks a document up by its unique code.
	GetDocumentByCode(ctx context.Context, code string) (*models.Document, error)
	ListDocuments(ctx context.Context, filter repositories.DocumentFilter) ([]models.Document, error)
	UpdateDocument(ctx context.Context, id string, req *UpdateDocumentRequest) (*models.Document, error)

	// DeleteDocument soft-deletes the document. Its revisions and
	// distributions remain readable by direct id lookup.
	DeleteDocument(ctx context.Context, id string, actor models.Actor) error

	// SubmitForReview transitions a draft document to in_review.
	SubmitForReview(ctx context.Context, id string, actor models.Actor) (*models.Document, error)

	// MarkObsolete retires the document. Revision history is untouched and
	// outstanding distributions remain open for historical tracking.
	MarkObsolete(ctx context.Context, id string, actor models.Actor) (*models.Document, error)

	// UploadRevision appends a revision carrying the uploaded file. The
	// document's status is not changed unless req.Publish is set, in which
	// case the revision is approved through the same atomic path as
	// ApproveRevision.
	UploadRevision(ctx context.Context, req *UploadRevisionRequest) (*models.Revision, error)

	// ApproveRevision promotes the revision to current, demotes any prior
	// current revision to obsolete, and mirrors version/status/effective
	// date onto the parent document. The three writes are one transaction.
	ApproveRevision(ctx context.Context, revisionID string, actor models.Actor) (*models.Revision, error)

	// RejectRevision terminates the revision. The document is untouched.
	RejectRevision(ctx context.Context, revisionID string, notes string, actor models.Actor) (*models.Revision, error)

	ListRevisions(ctx context.Context, documentID string) ([]models.Revision, error)

	// MostRecentRevision returns the newest revision by creation time.
	// Callers needing the published version must use CurrentRevision; the
	// two deliberately do not share an accessor.
	MostRecentRevision(ctx context.Context, documentID string) (*models.Revision, error)

	// CurrentRevision returns the revision with status "current".
	CurrentRevision(ctx context.Context, documentID string) (*models.Revision, error)

	// OpenRevisionFile streams the stored file of a revision.
	OpenRevisionFile(ctx context.Context, revisionID string) (*models.Revision, io.ReadCloser, error)
}

// CreateDocumentRequest represents a document creation request
type CreateDocumentRequest struct {
	Code         string       `json:"code"`
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	CategoryID   string       `json:"category_id"`
	IsControlled bool         `json:"is_controlled"`
	Actor        models.Actor `json:"-"` // set by handler from auth context
}

// UpdateDocumentRequest represents a document metadata update.
// Nil fields are left unchanged; status and version are never writable here.
type UpdateDocumentRequest struct {
	Title       *string      `json:"title,omitempty"`
	Description *string      `json:"description,omitempty"`
	CategoryID  *string      `json:"category_id,omitempty"`
	ReviewDate  *string      `json:"review_date,omitempty"` // RFC 3339 date
	Actor       models.Actor `json:"-"`
}

// UploadRevisionRequest carries a multipart revision upload.
type UploadRevisionRequest struct {
	DocumentID string
	Version    string
	Changes    string
	Publish    bool // approve immediately ("vigente") instead of draft

	File        io.Reader
	FileName    string
	ContentType string
	FileSize    int64

	Actor models.Actor
}
