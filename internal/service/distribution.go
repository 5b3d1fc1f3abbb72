package service

import (
	"context"
	"log/slog"
	"time"

	"qualidoc/internal/auth"
	"qualidoc/internal/config"
	"qualidoc/internal/domain"
	"qualidoc/internal/domain/models"
	"qualidoc/internal/domain/repositories"
	"qualidoc/internal/domain/services"
	"qualidoc/internal/notify"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// distributionService implements the DistributionService interface
type distributionService struct {
	distRepo repositories.DistributionRepository
	docRepo  repositories.DocumentRepository
	policy   auth.Policy
	notifier notify.Notifier
	logger   *slog.Logger
}

// NewDistributionService creates a new distribution service
func NewDistributionService(
	distRepo repositories.DistributionRepository,
	docRepo repositories.DocumentRepository,
	policy auth.Policy,
	notifier notify.Notifier,
	logger *slog.Logger,
) services.DistributionService {
	return &distributionService{
		distRepo: distRepo,
		docRepo:  docRepo,
		policy:   policy,
		notifier: notifier,
		logger:   logger,
	}
}

// Distribute checks a controlled copy out to a user. The partial unique
// index on (document_id, user_id) WHERE is_returned = FALSE backs the
// one-open-copy rule; a concurrent duplicate surfaces as Conflict from
// the repository.
func (s *distributionService) Distribute(ctx context.Context, req *services.DistributeRequest) (*models.Distribution, error) {
	if err := s.policy.Require(req.Actor, auth.ActionDistribute); err != nil {
		return nil, err
	}

	verr := validation.Errors{
		"user_id": validation.Validate(req.UserID, validation.Required),
		"notes":   validation.Validate(req.Notes, validation.Length(0, config.MaxNotesLength)),
	}.Filter()
	if verr != nil {
		return nil, invalidRequest(verr)
	}

	doc, err := s.docRepo.GetByID(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}
	if !doc.IsControlled {
		return nil, &domain.ValidationError{
			Message: "document is not a controlled document",
			Fields:  map[string]string{"document_id": "only controlled documents are distributed"},
		}
	}

	now := time.Now()
	dist := &models.Distribution{
		DocumentID:    doc.ID,
		UserID:        req.UserID,
		DistributedBy: req.Actor.ID,
		DistributedAt: now,
		IsReturned:    false,
		Notes:         req.Notes,
		CreatedAt:     now,
	}

	if err := s.distRepo.Create(ctx, dist); err != nil {
		return nil, err
	}

	s.logger.Info("controlled copy distributed",
		"id", dist.ID,
		"document_id", doc.ID,
		"user_id", dist.UserID,
		"actor", req.Actor.ID,
	)

	s.notifier.Notify(ctx, notify.EventCopyDistributed, map[string]interface{}{
		"distribution_id": dist.ID,
		"document_id":     doc.ID,
		"user_id":         dist.UserID,
		"actor":           req.Actor.ID,
	})

	return dist, nil
}

// Return closes an open distribution. The repository's conditional update
// makes the close one-shot: a second return of the same copy fails with
// Conflict no matter how the calls interleave.
func (s *distributionService) Return(ctx context.Context, distributionID string, req *services.ReturnRequest) (*models.Distribution, error) {
	if err := s.policy.Require(req.Actor, auth.ActionDistribute); err != nil {
		return nil, err
	}

	if err := validation.Validate(req.Notes, validation.Length(0, config.MaxNotesLength)); err != nil {
		return nil, &domain.ValidationError{
			Message: "validation failed",
			Fields:  map[string]string{"notes": err.Error()},
		}
	}

	dist, err := s.distRepo.GetByID(ctx, distributionID)
	if err != nil {
		return nil, err
	}

	returnedTo := req.ReturnedTo
	if returnedTo == "" {
		returnedTo = req.Actor.ID
	}

	if !dist.MarkReturned(returnedTo, time.Now()) {
		return nil, &domain.ConflictError{
			Message:      "distribution already returned",
			ResourceType: "distribution",
			ResourceID:   dist.ID,
		}
	}
	if req.Notes != "" {
		dist.Notes = req.Notes
	}

	if err := s.distRepo.Return(ctx, dist); err != nil {
		return nil, err
	}

	s.logger.Info("controlled copy returned",
		"id", dist.ID,
		"document_id", dist.DocumentID,
		"returned_to", returnedTo,
		"actor", req.Actor.ID,
	)

	s.notifier.Notify(ctx, notify.EventCopyReturned, map[string]interface{}{
		"distribution_id": dist.ID,
		"document_id":     dist.DocumentID,
		"returned_to":     returnedTo,
		"actor":           req.Actor.ID,
	})

	return dist, nil
}

// List returns the distribution ledger for a document
func (s *distributionService) List(ctx context.Context, documentID string, openOnly bool) ([]models.Distribution, error) {
	if _, err := s.docRepo.GetByID(ctx, documentID); err != nil {
		return nil, err
	}
	return s.distRepo.ListByDocument(ctx, documentID, openOnly)
}
