package repositories

import (
	"context"

	"qualidoc/internal/domain/models"
)

// DocumentFilter narrows document listings.
type DocumentFilter struct {
	CategoryID string
	Status     models.DocumentStatus
}

// DocumentRepository persists documents. Delete is a soft delete; revisions
// and distributions of a deleted document stay readable by direct id lookup.
type DocumentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id string) (*models.Document, error)

	// GetByCode looks a document up by its unique code.
	GetByCode(ctx context.Context, code string) (*models.Document, error)

	// Update writes the full row, including the version/status/file mirror
	// of the current revision. Only the approval path may call it.
	Update(ctx context.Context, doc *models.Document) error

	// UpdateMetadata writes only the descriptive columns (title, description,
	// category, review date). Metadata edits go through here so they can
	// never overwrite the lifecycle columns with a stale read.
	UpdateMetadata(ctx context.Context, doc *models.Document) error

	List(ctx context.Context, filter DocumentFilter) ([]models.Document, error)
	Delete(ctx context.Context, id string) error

	// UpdateStatus flips only the status column, for transitions that do not
	// touch version or file metadata (submit, obsolete).
	UpdateStatus(ctx context.Context, id string, status models.DocumentStatus) error
}
