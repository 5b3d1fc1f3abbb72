package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"qualidoc/internal/domain"
	"qualidoc/internal/domain/models"
	"qualidoc/internal/domain/repositories"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresCategoryRepository implements the CategoryRepository interface
type PostgresCategoryRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(config *RepositoryConfig) repositories.CategoryRepository {
	return &PostgresCategoryRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create creates a new category
func (r *PostgresCategoryRepository) Create(ctx context.Context, cat *models.Category) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, code, description, parent_id, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, r.tables.Categories)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		cat.Name,
		cat.Code,
		cat.Description,
		cat.ParentID,
		cat.Active,
		cat.CreatedAt,
		cat.UpdatedAt,
	).Scan(&cat.ID, &cat.CreatedAt, &cat.UpdatedAt)

	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("parent category does not exist: %w", domain.ErrNotFound)
		}
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("category code %q already exists", cat.Code),
				ResourceType: "category",
			}
		}
		return fmt.Errorf("create category: %w", err)
	}

	return nil
}

// GetByID retrieves a category by ID
func (r *PostgresCategoryRepository) GetByID(ctx context.Context, id string) (*models.Category, error) {
	query := fmt.Sprintf(`
		SELECT id, name, code, description, parent_id, active, created_at, updated_at
		FROM %s
		WHERE id = $1 AND deleted_at IS NULL
	`, r.tables.Categories)

	var cat models.Category
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&cat.ID,
		&cat.Name,
		&cat.Code,
		&cat.Description,
		&cat.ParentID,
		&cat.Active,
		&cat.CreatedAt,
		&cat.UpdatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("category %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get category: %w", err)
	}

	return &cat, nil
}

// Update updates an existing category
func (r *PostgresCategoryRepository) Update(ctx context.Context, cat *models.Category) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, code = $2, description = $3, parent_id = $4, active = $5, updated_at = $6
		WHERE id = $7 AND deleted_at IS NULL
	`, r.tables.Categories)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		cat.Name,
		cat.Code,
		cat.Description,
		cat.ParentID,
		cat.Active,
		cat.UpdatedAt,
		cat.ID,
	)

	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("parent category does not exist: %w", domain.ErrNotFound)
		}
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("category code %q already exists", cat.Code),
				ResourceType: "category",
			}
		}
		return fmt.Errorf("update category: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("category %s: %w", cat.ID, domain.ErrNotFound)
	}

	return nil
}

// List returns categories in insertion order
func (r *PostgresCategoryRepository) List(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	query := fmt.Sprintf(`
		SELECT id, name, code, description, parent_id, active, created_at, updated_at
		FROM %s
		WHERE deleted_at IS NULL
	`, r.tables.Categories)

	if activeOnly {
		query += ` AND active = TRUE`
	}
	query += ` ORDER BY created_at ASC`

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var cat models.Category
		err := rows.Scan(
			&cat.ID,
			&cat.Name,
			&cat.Code,
			&cat.Description,
			&cat.ParentID,
			&cat.Active,
			&cat.CreatedAt,
			&cat.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	// Return empty slice instead of nil
	if categories == nil {
		categories = []models.Category{}
	}

	return categories, nil
}

// Delete soft-deletes a category by setting deleted_at
func (r *PostgresCategoryRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET deleted_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, r.tables.Categories)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("category %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// HasChildren reports whether any live category references id as parent
func (r *PostgresCategoryRepository) HasChildren(ctx context.Context, id string) (bool, error) {
	query := fmt.Sprintf(`
		SELECT EXISTS (
			SELECT 1 FROM %s WHERE parent_id = $1 AND deleted_at IS NULL
		)
	`, r.tables.Categories)

	var exists bool
	executor := GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check category children: %w", err)
	}

	return exists, nil
}

// HasDocuments reports whether any live document references the category
func (r *PostgresCategoryRepository) HasDocuments(ctx context.Context, id string) (bool, error) {
	query := fmt.Sprintf(`
		SELECT EXISTS (
			SELECT 1 FROM %s WHERE category_id = $1 AND deleted_at IS NULL
		)
	`, r.tables.Documents)

	var exists bool
	executor := GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check category documents: %w", err)
	}

	return exists, nil
}
