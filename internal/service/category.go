package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"qualidoc/internal/auth"
	"qualidoc/internal/config"
	"qualidoc/internal/domain"
	"qualidoc/internal/domain/models"
	"qualidoc/internal/domain/repositories"
	"qualidoc/internal/domain/services"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// categoryService implements the CategoryService interface
type categoryService struct {
	catRepo repositories.CategoryRepository
	policy  auth.Policy
	logger  *slog.Logger
}

// NewCategoryService creates a new category service
func NewCategoryService(
	catRepo repositories.CategoryRepository,
	policy auth.Policy,
	logger *slog.Logger,
) services.CategoryService {
	return &categoryService{
		catRepo: catRepo,
		policy:  policy,
		logger:  logger,
	}
}

// Create creates a new category
func (s *categoryService) Create(ctx context.Context, req *services.CreateCategoryRequest) (*models.Category, error) {
	if err := s.policy.Require(req.Actor, auth.ActionManageCategories); err != nil {
		return nil, err
	}

	if err := validateCategoryFields(req.Name, req.Code); err != nil {
		return nil, err
	}

	// A missing parent fails with NotFound before the insert so the caller
	// gets a precise error rather than a bare FK violation
	if req.ParentID != nil {
		if _, err := s.catRepo.GetByID(ctx, *req.ParentID); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	cat := &models.Category{
		Name:        strings.TrimSpace(req.Name),
		Code:        strings.TrimSpace(req.Code),
		Description: req.Description,
		ParentID:    req.ParentID,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.catRepo.Create(ctx, cat); err != nil {
		return nil, err
	}

	s.logger.Info("category created",
		"id", cat.ID,
		"name", cat.Name,
		"parent_id", cat.ParentID,
		"actor", req.Actor.ID,
	)

	return cat, nil
}

// Get retrieves a category by id
func (s *categoryService) Get(ctx context.Context, id string) (*models.Category, error) {
	return s.catRepo.GetByID(ctx, id)
}

// Update updates a category. A parent change is re-checked for cycles by
// walking the new ancestor chain before anything is written.
func (s *categoryService) Update(ctx context.Context, id string, req *services.UpdateCategoryRequest) (*models.Category, error) {
	if err := s.policy.Require(req.Actor, auth.ActionManageCategories); err != nil {
		return nil, err
	}

	cat, err := s.catRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		cat.Name = strings.TrimSpace(*req.Name)
	}
	if req.Code != nil {
		cat.Code = strings.TrimSpace(*req.Code)
	}
	if req.Description != nil {
		cat.Description = *req.Description
	}
	if req.Active != nil {
		cat.Active = *req.Active
	}
	if req.ParentID != nil {
		newParent := req.ParentID
		if *newParent == "" { // empty string moves the category to top level
			newParent = nil
		}
		if newParent != nil {
			if err := s.checkNoCycle(ctx, id, *newParent); err != nil {
				return nil, err
			}
		}
		cat.ParentID = newParent
	}

	if err := validateCategoryFields(cat.Name, cat.Code); err != nil {
		return nil, err
	}

	cat.UpdatedAt = time.Now()

	if err := s.catRepo.Update(ctx, cat); err != nil {
		return nil, err
	}

	s.logger.Info("category updated", "id", cat.ID, "actor", req.Actor.ID)

	return cat, nil
}

// List returns categories in insertion order
func (s *categoryService) List(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	return s.catRepo.List(ctx, activeOnly)
}

// Delete soft-deletes a category. Categories with live children or
// referencing documents fail with Conflict; there is no cascade, so
// document references stay resolvable.
func (s *categoryService) Delete(ctx context.Context, id string, actor models.Actor) error {
	if err := s.policy.Require(actor, auth.ActionManageCategories); err != nil {
		return err
	}

	hasChildren, err := s.catRepo.HasChildren(ctx, id)
	if err != nil {
		return err
	}
	if hasChildren {
		return &domain.ConflictError{
			Message:      "category still has child categories",
			ResourceType: "category",
			ResourceID:   id,
		}
	}

	hasDocs, err := s.catRepo.HasDocuments(ctx, id)
	if err != nil {
		return err
	}
	if hasDocs {
		return &domain.ConflictError{
			Message:      "category is still referenced by documents",
			ResourceType: "category",
			ResourceID:   id,
		}
	}

	if err := s.catRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("category deleted", "id", id, "actor", actor.ID)

	return nil
}

// checkNoCycle walks the ancestor chain of the proposed parent and fails if
// it passes through the category being updated. The chain must terminate;
// the walk is bounded as a backstop against already-corrupt data.
func (s *categoryService) checkNoCycle(ctx context.Context, id, parentID string) error {
	const maxDepth = 100

	current := parentID
	for depth := 0; depth < maxDepth; depth++ {
		if current == id {
			return &domain.ValidationError{
				Message: "category cannot be its own ancestor",
				Fields:  map[string]string{"parent_id": "would create a cycle"},
			}
		}

		parent, err := s.catRepo.GetByID(ctx, current)
		if err != nil {
			return err
		}
		if parent.ParentID == nil {
			return nil
		}
		current = *parent.ParentID
	}

	return fmt.Errorf("category ancestry deeper than %d levels", maxDepth)
}

func validateCategoryFields(name, code string) error {
	err := validation.Errors{
		"name": validation.Validate(name,
			validation.Required,
			validation.Length(1, config.MaxCategoryNameLength),
		),
		"code": validation.Validate(code,
			validation.Length(0, config.MaxDocumentCodeLength),
		),
	}.Filter()
	if err != nil {
		return invalidRequest(err)
	}
	return nil
}
