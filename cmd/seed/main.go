package main

import (
	"context"
	"flag"
	"log"
	"time"

	"qualidoc/internal/config"
	"qualidoc/internal/repository/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed demo data")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("🚫 BLOCKED: Cannot run --drop-tables in production environment")
	}

	if *schemaOnly {
		log.Printf("🏗️  Setting up schema only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	} else {
		log.Printf("🌱 Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	}

	// Create database connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Create table names
	tables := postgres.NewTableNames(cfg.TablePrefix)

	// Drop tables if requested
	if *dropTables {
		log.Println("🗑️  Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("✅ Tables dropped")
	}

	// Run schema to ensure tables exist
	log.Println("📋 Ensuring database schema is up to date...")
	if err := runSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("✅ Schema ready")

	if *schemaOnly {
		log.Println("✅ Schema setup complete (schema-only mode)")
		return
	}

	// Seed a minimal category tree so a fresh environment is usable
	log.Println("📝 Seeding demo categories...")
	if err := seedCategories(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to seed categories: %v", err)
	}

	log.Println("🎉 Seeding complete!")
}

// runSchema creates tables if they don't exist
func runSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, tablePrefix string) error {
	// Enable UUID extension
	_, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"")
	if err != nil {
		return err
	}

	// Create categories table
	createCategories := `
		CREATE TABLE IF NOT EXISTS ` + tables.Categories + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			name TEXT NOT NULL,
			code TEXT,
			description TEXT NOT NULL DEFAULT '',
			parent_id UUID REFERENCES ` + tables.Categories + `(id),
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)
	`
	if _, err := pool.Exec(ctx, createCategories); err != nil {
		return err
	}

	// Create documents table
	createDocuments := `
		CREATE TABLE IF NOT EXISTS ` + tables.Documents + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			code TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category_id UUID NOT NULL REFERENCES ` + tables.Categories + `(id),
			version TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'draft',
			effective_date TIMESTAMPTZ,
			review_date TIMESTAMPTZ,
			file_path TEXT NOT NULL DEFAULT '',
			file_name TEXT NOT NULL DEFAULT '',
			file_type TEXT NOT NULL DEFAULT '',
			file_size BIGINT NOT NULL DEFAULT 0,
			created_by TEXT NOT NULL,
			reviewed_by TEXT,
			reviewed_at TIMESTAMPTZ,
			review_notes TEXT NOT NULL DEFAULT '',
			is_controlled BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)
	`
	if _, err := pool.Exec(ctx, createDocuments); err != nil {
		return err
	}

	// Create revisions table. The ledger is append-only; rows survive a
	// soft-deleted parent for audit, so no cascade from deleted_at.
	createRevisions := `
		CREATE TABLE IF NOT EXISTS ` + tables.Revisions + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			document_id UUID NOT NULL REFERENCES ` + tables.Documents + `(id) ON DELETE CASCADE,
			version TEXT NOT NULL,
			revision_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			status TEXT NOT NULL DEFAULT 'draft',
			changes TEXT NOT NULL DEFAULT '',
			observations TEXT NOT NULL DEFAULT '',
			file_path TEXT NOT NULL DEFAULT '',
			file_name TEXT NOT NULL DEFAULT '',
			file_type TEXT NOT NULL DEFAULT '',
			file_size BIGINT NOT NULL DEFAULT 0,
			created_by TEXT NOT NULL,
			approved_by TEXT,
			approved_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createRevisions); err != nil {
		return err
	}

	// Create distributions table
	createDistributions := `
		CREATE TABLE IF NOT EXISTS ` + tables.Distributions + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			document_id UUID NOT NULL REFERENCES ` + tables.Documents + `(id) ON DELETE CASCADE,
			user_id TEXT NOT NULL,
			distributed_by TEXT NOT NULL,
			distributed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			returned_at TIMESTAMPTZ,
			is_returned BOOLEAN NOT NULL DEFAULT FALSE,
			returned_to TEXT,
			notes TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createDistributions); err != nil {
		return err
	}

	// Create indexes. The partial unique indexes back the hard invariants:
	// one live document per code, at most one current revision per document,
	// at most one open copy per (document, user).
	indexes := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + tablePrefix + `categories_name_live ON ` + tables.Categories + `(name) WHERE deleted_at IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `categories_parent ON ` + tables.Categories + `(parent_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + tablePrefix + `documents_code_live ON ` + tables.Documents + `(code) WHERE deleted_at IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `documents_category ON ` + tables.Documents + `(category_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `documents_status ON ` + tables.Documents + `(status)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `revisions_document ON ` + tables.Revisions + `(document_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + tablePrefix + `revisions_one_current ON ` + tables.Revisions + `(document_id) WHERE status = 'current'`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `distributions_document ON ` + tables.Distributions + `(document_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + tablePrefix + `distributions_one_open ON ` + tables.Distributions + `(document_id, user_id) WHERE is_returned = FALSE`,
	}

	for _, indexSQL := range indexes {
		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return err
		}
	}

	return nil
}

// dropAllTables drops all tables in reverse order (to respect foreign keys)
func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	tableNames := []string{
		tables.Distributions,
		tables.Revisions,
		tables.Documents,
		tables.Categories,
	}

	for _, table := range tableNames {
		dropSQL := "DROP TABLE IF EXISTS " + table + " CASCADE"
		if _, err := pool.Exec(ctx, dropSQL); err != nil {
			return err
		}
		log.Printf("  ✓ Dropped %s", table)
	}

	return nil
}

// seedCategories inserts a starter category tree, skipping names that exist
func seedCategories(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	names := []struct {
		name        string
		description string
	}{
		{"Procedures", "Standard operating procedures"},
		{"Work Instructions", "Step-by-step operator instructions"},
		{"Forms", "Controlled record-keeping forms"},
		{"Manuals", "Quality and equipment manuals"},
	}

	query := `
		INSERT INTO ` + tables.Categories + ` (name, description, active, created_at, updated_at)
		VALUES ($1, $2, TRUE, $3, $3)
		ON CONFLICT DO NOTHING
	`

	now := time.Now()
	for _, c := range names {
		if _, err := pool.Exec(ctx, query, c.name, c.description, now); err != nil {
			return err
		}
		log.Printf("  ✓ Category %s", c.name)
	}

	return nil
}
