package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"qualidoc/internal/domain/repositories"
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Categories    string
	Documents     string
	Revisions     string
	Distributions string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Categories:    fmt.Sprintf("%sdocument_categories", prefix),
		Documents:     fmt.Sprintf("%sdocuments", prefix),
		Revisions:     fmt.Sprintf("%sdocument_revisions", prefix),
		Distributions: fmt.Sprintf("%sdocument_distributions", prefix),
	}
}

// CreateConnectionPool creates a new pgx connection pool.
//
// When the connection goes through a transaction pooler (port 6543), pgx's
// default prepared-statement caching breaks with "prepared statement already
// exists". QueryExecModeCacheDescribe keeps the extended protocol (needed for
// proper type encoding) while remaining pooler-compatible, so it is selected
// automatically for that port. An explicit default_query_exec_mode in the
// connection string takes precedence.
//
// Dynamic table prefixes via fmt.Sprintf are safe with prepared statements:
// the SQL is interpolated before it reaches the database, so each environment
// gets its own statements.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for pooler compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the appropriate query executor for the context.
// If a transaction is present in the context, it returns the transaction.
// Otherwise, it returns the provided pool. This enables repositories to
// automatically participate in transactions when they exist.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
