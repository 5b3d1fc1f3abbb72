package repositories

import (
	"context"

	"qualidoc/internal/domain/models"
)

// CategoryRepository persists the document taxonomy.
type CategoryRepository interface {
	Create(ctx context.Context, cat *models.Category) error
	GetByID(ctx context.Context, id string) (*models.Category, error)
	Update(ctx context.Context, cat *models.Category) error

	// List returns categories in insertion order. When activeOnly is set,
	// inactive categories are filtered out.
	List(ctx context.Context, activeOnly bool) ([]models.Category, error)

	// Delete soft-deletes the category.
	Delete(ctx context.Context, id string) error

	// HasChildren reports whether any non-deleted category references id as parent.
	HasChildren(ctx context.Context, id string) (bool, error)

	// HasDocuments reports whether any non-deleted document references the category.
	HasDocuments(ctx context.Context, id string) (bool, error)
}
