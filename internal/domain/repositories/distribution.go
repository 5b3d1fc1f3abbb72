package repositories

import (
	"context"

	"qualidoc/internal/domain/models"
)

// DistributionRepository persists the controlled-copy checkout ledger.
// Rows are append-only; the only mutation is the one-shot return.
type DistributionRepository interface {
	Create(ctx context.Context, dist *models.Distribution) error
	GetByID(ctx context.Context, id string) (*models.Distribution, error)

	// ListByDocument returns distributions for a document, most recent first.
	// When openOnly is set, returned copies are filtered out.
	ListByDocument(ctx context.Context, documentID string, openOnly bool) ([]models.Distribution, error)

	// Return closes an open distribution with a conditional update on
	// is_returned = FALSE. Returns ErrConflict when the row exists but was
	// already returned, ErrNotFound when it does not exist.
	Return(ctx context.Context, dist *models.Distribution) error
}
