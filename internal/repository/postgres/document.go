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

const documentColumns = `id, code, title, description, category_id, version, status,
	effective_date, review_date, file_path, file_name, file_type, file_size,
	created_by, reviewed_by, reviewed_at, review_notes, is_controlled,
	created_at, updated_at`

// PostgresDocumentRepository implements the DocumentRepository interface
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(config *RepositoryConfig) repositories.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

func scanDocument(row interface{ Scan(...interface{}) error }, doc *models.Document) error {
	return row.Scan(
		&doc.ID,
		&doc.Code,
		&doc.Title,
		&doc.Description,
		&doc.CategoryID,
		&doc.Version,
		&doc.Status,
		&doc.EffectiveDate,
		&doc.ReviewDate,
		&doc.FilePath,
		&doc.FileName,
		&doc.FileType,
		&doc.FileSize,
		&doc.CreatedBy,
		&doc.ReviewedBy,
		&doc.ReviewedAt,
		&doc.ReviewNotes,
		&doc.IsControlled,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
}

// Create creates a new document
func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (code, title, description, category_id, version, status,
			file_path, file_name, file_type, file_size, created_by, is_controlled,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at
	`, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		doc.Code,
		doc.Title,
		doc.Description,
		doc.CategoryID,
		doc.Version,
		doc.Status,
		doc.FilePath,
		doc.FileName,
		doc.FileType,
		doc.FileSize,
		doc.CreatedBy,
		doc.IsControlled,
		doc.CreatedAt,
		doc.UpdatedAt,
	).Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			// Surface the existing document's id when possible so the
			// front-end can link to it
			existingID, queryErr := r.getExistingDocumentID(ctx, doc.Code)
			if queryErr != nil {
				return fmt.Errorf("document code %q already exists: %w", doc.Code, domain.ErrConflict)
			}
			return &domain.ConflictError{
				Message:      fmt.Sprintf("document code %q already exists", doc.Code),
				ResourceType: "document",
				ResourceID:   existingID,
			}
		}
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("category %s: %w", doc.CategoryID, domain.ErrNotFound)
		}
		return fmt.Errorf("create document: %w", err)
	}

	return nil
}

// GetByID retrieves a document by ID
func (r *PostgresDocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1 AND deleted_at IS NULL
	`, documentColumns, r.tables.Documents)

	var doc models.Document
	executor := GetExecutor(ctx, r.pool)
	if err := scanDocument(executor.QueryRow(ctx, query, id), &doc); err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	return &doc, nil
}

// GetByCode retrieves a document by its unique code
func (r *PostgresDocumentRepository) GetByCode(ctx context.Context, code string) (*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE code = $1 AND deleted_at IS NULL
	`, documentColumns, r.tables.Documents)

	var doc models.Document
	executor := GetExecutor(ctx, r.pool)
	if err := scanDocument(executor.QueryRow(ctx, query, code), &doc); err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("document code %s: %w", code, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document by code: %w", err)
	}

	return &doc, nil
}

// Update writes the full row, lifecycle mirror columns included. The
// approval transaction is the only caller.
func (r *PostgresDocumentRepository) Update(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, description = $2, category_id = $3, version = $4,
			status = $5, effective_date = $6, review_date = $7, file_path = $8,
			file_name = $9, file_type = $10, file_size = $11, reviewed_by = $12,
			reviewed_at = $13, review_notes = $14, updated_at = $15
		WHERE id = $16 AND deleted_at IS NULL
	`, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		doc.Title,
		doc.Description,
		doc.CategoryID,
		doc.Version,
		doc.Status,
		doc.EffectiveDate,
		doc.ReviewDate,
		doc.FilePath,
		doc.FileName,
		doc.FileType,
		doc.FileSize,
		doc.ReviewedBy,
		doc.ReviewedAt,
		doc.ReviewNotes,
		doc.UpdatedAt,
		doc.ID,
	)

	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("category %s: %w", doc.CategoryID, domain.ErrNotFound)
		}
		return fmt.Errorf("update document: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", doc.ID, domain.ErrNotFound)
	}

	return nil
}

// UpdateMetadata updates the descriptive columns only. Version, status and
// the file mirror are owned by the approval path, so a metadata edit racing
// an approval cannot roll the document back to its pre-approval snapshot.
func (r *PostgresDocumentRepository) UpdateMetadata(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, description = $2, category_id = $3, review_date = $4,
			updated_at = $5
		WHERE id = $6 AND deleted_at IS NULL
	`, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		doc.Title,
		doc.Description,
		doc.CategoryID,
		doc.ReviewDate,
		doc.UpdatedAt,
		doc.ID,
	)

	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("category %s: %w", doc.CategoryID, domain.ErrNotFound)
		}
		return fmt.Errorf("update document metadata: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", doc.ID, domain.ErrNotFound)
	}

	return nil
}

// UpdateStatus flips only the status column
func (r *PostgresDocumentRepository) UpdateStatus(ctx context.Context, id string, status models.DocumentStatus) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL
	`, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// List lists documents, newest first, hiding soft-deleted rows
func (r *PostgresDocumentRepository) List(ctx context.Context, filter repositories.DocumentFilter) ([]models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE deleted_at IS NULL
	`, documentColumns, r.tables.Documents)

	var args []interface{}
	paramIndex := 1

	if filter.CategoryID != "" {
		query += fmt.Sprintf(` AND category_id = $%d`, paramIndex)
		args = append(args, filter.CategoryID)
		paramIndex++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, paramIndex)
		args = append(args, filter.Status)
	}

	query += ` ORDER BY created_at DESC`

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var documents []models.Document
	for rows.Next() {
		var doc models.Document
		if err := scanDocument(rows, &doc); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		documents = append(documents, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	// Return empty slice instead of nil
	if documents == nil {
		documents = []models.Document{}
	}

	return documents, nil
}

// Delete soft-deletes a document by setting deleted_at
func (r *PostgresDocumentRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET deleted_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// getExistingDocumentID looks up the live document holding a code
func (r *PostgresDocumentRepository) getExistingDocumentID(ctx context.Context, code string) (string, error) {
	query := fmt.Sprintf(`
		SELECT id FROM %s WHERE code = $1 AND deleted_at IS NULL
	`, r.tables.Documents)

	var id string
	executor := GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, code).Scan(&id); err != nil {
		return "", fmt.Errorf("get existing document ID: %w", err)
	}

	return id, nil
}
