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

const distributionColumns = `id, document_id, user_id, distributed_by, distributed_at,
	returned_at, is_returned, returned_to, notes, created_at`

// PostgresDistributionRepository implements the DistributionRepository
// interface. Rows are append-only; the only mutation is the one-shot return.
type PostgresDistributionRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewDistributionRepository creates a new distribution repository
func NewDistributionRepository(config *RepositoryConfig) repositories.DistributionRepository {
	return &PostgresDistributionRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

func scanDistribution(row interface{ Scan(...interface{}) error }, dist *models.Distribution) error {
	return row.Scan(
		&dist.ID,
		&dist.DocumentID,
		&dist.UserID,
		&dist.DistributedBy,
		&dist.DistributedAt,
		&dist.ReturnedAt,
		&dist.IsReturned,
		&dist.ReturnedTo,
		&dist.Notes,
		&dist.CreatedAt,
	)
}

// Create records a controlled-copy checkout. A partial unique index on
// (document_id, user_id) WHERE is_returned = FALSE enforces at most one open
// copy per user and document.
func (r *PostgresDistributionRepository) Create(ctx context.Context, dist *models.Distribution) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (document_id, user_id, distributed_by, distributed_at,
			is_returned, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, r.tables.Distributions)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		dist.DocumentID,
		dist.UserID,
		dist.DistributedBy,
		dist.DistributedAt,
		dist.IsReturned,
		dist.Notes,
		dist.CreatedAt,
	).Scan(&dist.ID, &dist.CreatedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("user %s already holds an open copy of document %s", dist.UserID, dist.DocumentID),
				ResourceType: "distribution",
			}
		}
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("document %s: %w", dist.DocumentID, domain.ErrNotFound)
		}
		return fmt.Errorf("create distribution: %w", err)
	}

	return nil
}

// GetByID retrieves a distribution by ID. No parent deleted_at filter:
// distributions of soft-deleted documents stay readable for audit.
func (r *PostgresDistributionRepository) GetByID(ctx context.Context, id string) (*models.Distribution, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1
	`, distributionColumns, r.tables.Distributions)

	var dist models.Distribution
	executor := GetExecutor(ctx, r.pool)
	if err := scanDistribution(executor.QueryRow(ctx, query, id), &dist); err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("distribution %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get distribution: %w", err)
	}

	return &dist, nil
}

// ListByDocument returns distributions for a document, most recent first
func (r *PostgresDistributionRepository) ListByDocument(ctx context.Context, documentID string, openOnly bool) ([]models.Distribution, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE document_id = $1
	`, distributionColumns, r.tables.Distributions)

	if openOnly {
		query += ` AND is_returned = FALSE`
	}
	query += ` ORDER BY distributed_at DESC, created_at DESC`

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list distributions: %w", err)
	}
	defer rows.Close()

	var distributions []models.Distribution
	for rows.Next() {
		var dist models.Distribution
		if err := scanDistribution(rows, &dist); err != nil {
			return nil, fmt.Errorf("scan distribution: %w", err)
		}
		distributions = append(distributions, dist)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate distributions: %w", err)
	}

	// Return empty slice instead of nil
	if distributions == nil {
		distributions = []models.Distribution{}
	}

	return distributions, nil
}

// Return closes an open distribution. The is_returned = FALSE predicate is
// the concurrency guard: under concurrent returns exactly one UPDATE matches,
// the loser sees zero rows and gets Conflict.
func (r *PostgresDistributionRepository) Return(ctx context.Context, dist *models.Distribution) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET returned_at = $1, is_returned = TRUE, returned_to = $2, notes = $3
		WHERE id = $4 AND is_returned = FALSE
	`, r.tables.Distributions)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		dist.ReturnedAt,
		dist.ReturnedTo,
		dist.Notes,
		dist.ID,
	)
	if err != nil {
		return fmt.Errorf("return distribution: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Distinguish missing row from double return
		existing, getErr := r.GetByID(ctx, dist.ID)
		if getErr != nil {
			return getErr
		}
		if existing.IsReturned {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("distribution %s already returned", dist.ID),
				ResourceType: "distribution",
				ResourceID:   dist.ID,
			}
		}
		return fmt.Errorf("distribution %s: %w", dist.ID, domain.ErrNotFound)
	}

	return nil
}
