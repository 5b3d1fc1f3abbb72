package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"qualidoc/internal/auth"
	"qualidoc/internal/config"
	"qualidoc/internal/handler"
	"qualidoc/internal/middleware"
	"qualidoc/internal/notify"
	"qualidoc/internal/repository/postgres"
	"qualidoc/internal/service"
	"qualidoc/internal/service/lifecycle"
	"qualidoc/internal/storage"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Token verifier against the identity provider's JWKS endpoint
	verifier, err := auth.NewJWKSVerifier(cfg.JWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create token verifier: %v", err)
	}
	defer verifier.Close()

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	// Create table names
	tables := postgres.NewTableNames(cfg.TablePrefix)

	// Create repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	catRepo := postgres.NewCategoryRepository(repoConfig)
	docRepo := postgres.NewDocumentRepository(repoConfig)
	revRepo := postgres.NewRevisionRepository(repoConfig)
	distRepo := postgres.NewDistributionRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	// Permission policy, optionally overridden from a YAML file
	policy, err := auth.NewRolePolicy(cfg.PolicyFile)
	if err != nil {
		log.Fatalf("Failed to load permission policy: %v", err)
	}

	// Revision file storage
	files, err := storage.NewLocalStore(cfg.UploadDir, logger)
	if err != nil {
		log.Fatalf("Failed to initialize file storage: %v", err)
	}

	notifier := notify.NewLogNotifier(logger)
	guard := lifecycle.NewGuard()

	// Create services
	categoryService := service.NewCategoryService(catRepo, policy, logger)
	documentService := service.NewDocumentService(docRepo, revRepo, catRepo, txManager, guard, files, policy, notifier, logger)
	distributionService := service.NewDistributionService(distRepo, docRepo, policy, notifier, logger)

	// Create handlers
	healthHandler := handler.NewHealthHandler(pool)
	categoryHandler := handler.NewCategoryHandler(categoryService, logger)
	documentHandler := handler.NewDocumentHandler(documentService, logger)
	revisionHandler := handler.NewRevisionHandler(documentService, cfg.MaxUploadBytes, logger)
	distributionHandler := handler.NewDistributionHandler(distributionService, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", healthHandler.Check)

	// Category routes
	mux.HandleFunc("GET /api/document-categories", categoryHandler.List)
	mux.HandleFunc("POST /api/document-categories", categoryHandler.Create)
	mux.HandleFunc("GET /api/document-categories/{id}", categoryHandler.Get)
	mux.HandleFunc("PUT /api/document-categories/{id}", categoryHandler.Update)
	mux.HandleFunc("DELETE /api/document-categories/{id}", categoryHandler.Delete)

	// Document routes
	mux.HandleFunc("GET /api/documents", documentHandler.List)
	mux.HandleFunc("POST /api/documents", documentHandler.Create)
	mux.HandleFunc("GET /api/documents/code/{code}", documentHandler.GetByCode)
	mux.HandleFunc("GET /api/documents/{id}", documentHandler.Get)
	mux.HandleFunc("PUT /api/documents/{id}", documentHandler.Update)
	mux.HandleFunc("DELETE /api/documents/{id}", documentHandler.Delete)
	mux.HandleFunc("POST /api/documents/{id}/submit", documentHandler.Submit)
	mux.HandleFunc("POST /api/documents/{id}/obsolete", documentHandler.Obsolete)

	// Revision routes. The revisions/{id} actions live under a fixed
	// /api/documents/revisions prefix so they cannot collide with the
	// document {id} patterns above.
	mux.HandleFunc("GET /api/documents/{id}/revisions", revisionHandler.List)
	mux.HandleFunc("POST /api/documents/{id}/revisions", revisionHandler.Upload)
	mux.HandleFunc("GET /api/documents/{id}/revisions/current", revisionHandler.Current)
	mux.HandleFunc("POST /api/documents/revisions/{id}/approve", revisionHandler.Approve)
	mux.HandleFunc("POST /api/documents/revisions/{id}/reject", revisionHandler.Reject)
	mux.HandleFunc("GET /api/documents/revisions/{id}/download", revisionHandler.Download)

	// Distribution routes
	mux.HandleFunc("GET /api/documents/{id}/distributions", distributionHandler.List)
	mux.HandleFunc("POST /api/documents/{id}/distributions", distributionHandler.Distribute)
	mux.HandleFunc("POST /api/documents/{id}/distribute", distributionHandler.Distribute)
	mux.HandleFunc("PUT /api/documents/distributions/{id}/return", distributionHandler.Return)

	// Build middleware chain
	var h http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Logging → Recovery → Auth → Routes
	h = middleware.Auth(verifier)(h)
	h = middleware.Recovery(logger)(h)
	h = middleware.RequestLogging(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-shutdownCh
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}
