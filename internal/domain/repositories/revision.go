package repositories

import (
	"context"

	"qualidoc/internal/domain/models"
)

// RevisionRepository persists the append-only revision ledger. There is no
// delete: revisions are superseded, never removed.
type RevisionRepository interface {
	Create(ctx context.Context, rev *models.Revision) error
	GetByID(ctx context.Context, id string) (*models.Revision, error)

	// ListByDocument returns all revisions for a document, most recent first.
	ListByDocument(ctx context.Context, documentID string) ([]models.Revision, error)

	// MostRecent returns the newest revision by creation time, which is not
	// necessarily the current one.
	MostRecent(ctx context.Context, documentID string) (*models.Revision, error)

	// Current returns the revision with status "current", or ErrNotFound if
	// the document has no published revision.
	Current(ctx context.Context, documentID string) (*models.Revision, error)

	// UpdateStatus flips the status column of one revision.
	UpdateStatus(ctx context.Context, id string, status models.RevisionStatus) error

	// Approve marks the revision current and records the approver in one write.
	Approve(ctx context.Context, rev *models.Revision) error

	// Reject marks the revision rejected and records the reviewer's
	// observations in one write.
	Reject(ctx context.Context, rev *models.Revision) error

	// DemoteCurrent marks any current revision of the document obsolete and
	// returns how many rows were demoted (0 or 1 by invariant).
	DemoteCurrent(ctx context.Context, documentID string) (int64, error)
}
