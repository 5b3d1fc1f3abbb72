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

const revisionColumns = `id, document_id, version, revision_date, status, changes,
	observations, file_path, file_name, file_type, file_size, created_by,
	approved_by, approved_at, created_at`

// PostgresRevisionRepository implements the RevisionRepository interface.
// The ledger is append-only: there is no delete.
type PostgresRevisionRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewRevisionRepository creates a new revision repository
func NewRevisionRepository(config *RepositoryConfig) repositories.RevisionRepository {
	return &PostgresRevisionRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

func scanRevision(row interface{ Scan(...interface{}) error }, rev *models.Revision) error {
	return row.Scan(
		&rev.ID,
		&rev.DocumentID,
		&rev.Version,
		&rev.RevisionDate,
		&rev.Status,
		&rev.Changes,
		&rev.Observations,
		&rev.FilePath,
		&rev.FileName,
		&rev.FileType,
		&rev.FileSize,
		&rev.CreatedBy,
		&rev.ApprovedBy,
		&rev.ApprovedAt,
		&rev.CreatedAt,
	)
}

// Create appends a revision to the ledger
func (r *PostgresRevisionRepository) Create(ctx context.Context, rev *models.Revision) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (document_id, version, revision_date, status, changes,
			observations, file_path, file_name, file_type, file_size, created_by,
			created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at
	`, r.tables.Revisions)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		rev.DocumentID,
		rev.Version,
		rev.RevisionDate,
		rev.Status,
		rev.Changes,
		rev.Observations,
		rev.FilePath,
		rev.FileName,
		rev.FileType,
		rev.FileSize,
		rev.CreatedBy,
		rev.CreatedAt,
	).Scan(&rev.ID, &rev.CreatedAt)

	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("document %s: %w", rev.DocumentID, domain.ErrNotFound)
		}
		return fmt.Errorf("create revision: %w", err)
	}

	return nil
}

// GetByID retrieves a revision by ID. Deliberately no deleted_at filter on
// the parent document: revisions of soft-deleted documents stay readable for
// audit.
func (r *PostgresRevisionRepository) GetByID(ctx context.Context, id string) (*models.Revision, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1
	`, revisionColumns, r.tables.Revisions)

	var rev models.Revision
	executor := GetExecutor(ctx, r.pool)
	if err := scanRevision(executor.QueryRow(ctx, query, id), &rev); err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("revision %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get revision: %w", err)
	}

	return &rev, nil
}

// ListByDocument returns all revisions for a document, most recent first
func (r *PostgresRevisionRepository) ListByDocument(ctx context.Context, documentID string) ([]models.Revision, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE document_id = $1
		ORDER BY created_at DESC
	`, revisionColumns, r.tables.Revisions)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer rows.Close()

	var revisions []models.Revision
	for rows.Next() {
		var rev models.Revision
		if err := scanRevision(rows, &rev); err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		revisions = append(revisions, rev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revisions: %w", err)
	}

	// Return empty slice instead of nil
	if revisions == nil {
		revisions = []models.Revision{}
	}

	return revisions, nil
}

// MostRecent returns the newest revision by creation time
func (r *PostgresRevisionRepository) MostRecent(ctx context.Context, documentID string) (*models.Revision, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE document_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, revisionColumns, r.tables.Revisions)

	var rev models.Revision
	executor := GetExecutor(ctx, r.pool)
	if err := scanRevision(executor.QueryRow(ctx, query, documentID), &rev); err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("document %s has no revisions: %w", documentID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get most recent revision: %w", err)
	}

	return &rev, nil
}

// Current returns the published revision
func (r *PostgresRevisionRepository) Current(ctx context.Context, documentID string) (*models.Revision, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE document_id = $1 AND status = $2
	`, revisionColumns, r.tables.Revisions)

	var rev models.Revision
	executor := GetExecutor(ctx, r.pool)
	if err := scanRevision(executor.QueryRow(ctx, query, documentID, models.RevisionStatusCurrent), &rev); err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("document %s has no current revision: %w", documentID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get current revision: %w", err)
	}

	return &rev, nil
}

// UpdateStatus flips the status column of one revision
func (r *PostgresRevisionRepository) UpdateStatus(ctx context.Context, id string, status models.RevisionStatus) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $1
		WHERE id = $2
	`, r.tables.Revisions)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update revision status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("revision %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// Approve marks the revision current and records the approver in one write
func (r *PostgresRevisionRepository) Approve(ctx context.Context, rev *models.Revision) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $1, approved_by = $2, approved_at = $3
		WHERE id = $4
	`, r.tables.Revisions)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		rev.Status,
		rev.ApprovedBy,
		rev.ApprovedAt,
		rev.ID,
	)
	if err != nil {
		if IsPgDuplicateError(err) {
			// Partial unique index on (document_id) WHERE status = 'current'
			return &domain.ConflictError{
				Message:      "document already has a current revision",
				ResourceType: "revision",
				ResourceID:   rev.ID,
			}
		}
		return fmt.Errorf("approve revision: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("revision %s: %w", rev.ID, domain.ErrNotFound)
	}

	return nil
}

// Reject marks the revision rejected and records the reviewer's observations
func (r *PostgresRevisionRepository) Reject(ctx context.Context, rev *models.Revision) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $1, observations = $2
		WHERE id = $3
	`, r.tables.Revisions)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		rev.Status,
		rev.Observations,
		rev.ID,
	)
	if err != nil {
		return fmt.Errorf("reject revision: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("revision %s: %w", rev.ID, domain.ErrNotFound)
	}

	return nil
}

// DemoteCurrent marks any current revision of the document obsolete
func (r *PostgresRevisionRepository) DemoteCurrent(ctx context.Context, documentID string) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $1
		WHERE document_id = $2 AND status = $3
	`, r.tables.Revisions)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		models.RevisionStatusObsolete,
		documentID,
		models.RevisionStatusCurrent,
	)
	if err != nil {
		return 0, fmt.Errorf("demote current revision: %w", err)
	}

	return result.RowsAffected(), nil
}
