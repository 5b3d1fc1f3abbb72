package services

import (
	"context"

	"qualidoc/internal/domain/models"
)

// CategoryService handles taxonomy business logic.
type CategoryService interface {
	Create(ctx context.Context, req *CreateCategoryRequest) (*models.Category, error)
	Get(ctx context.Context, id string) (*models.Category, error)
	Update(ctx context.Context, id string, req *UpdateCategoryRequest) (*models.Category, error)
	List(ctx context.Context, activeOnly bool) ([]models.Category, error)

	// Delete soft-deletes a category. Deleting a category that still has
	// child categories or referencing documents fails with Conflict; there
	// is no cascade.
	Delete(ctx context.Context, id string, actor models.Actor) error
}

// CreateCategoryRequest represents a category creation request
type CreateCategoryRequest struct {
	Name        string  `json:"name"`
	Code        string  `json:"code,omitempty"`
	Description string  `json:"description,omitempty"`
	ParentID    *string `json:"parent_id,omitempty"`
	Actor       models.Actor `json:"-"` // set by handler from auth context
}

// UpdateCategoryRequest represents a category update request.
// Nil fields are left unchanged.
type UpdateCategoryRequest struct {
	Name        *string `json:"name,omitempty"`
	Code        *string `json:"code,omitempty"`
	Description *string `json:"description,omitempty"`
	ParentID    *string `json:"parent_id,omitempty"`
	Active      *bool   `json:"active,omitempty"`
	Actor       models.Actor `json:"-"`
}
